package fusion

import (
	"context"
	"sort"
)

// Relations derives and maintains cross-category edges. It is the only
// writer of the edge set; records own no edges.
type Relations struct {
	storage Storage
	rules   Rules
}

func NewRelations(storage Storage, rules Rules) *Relations {
	return &Relations{storage: storage, rules: rules}
}

// Update derives edges for a record after a merge decision was applied.
// Edge identity is (from, to, relation), so re-running for the same record
// never duplicates edges.
func (r *Relations) Update(ctx context.Context, record *Record, kind DecisionKind) error {
	if kind == DecisionDiscard || record == nil {
		return nil
	}

	edges, err := r.derive(ctx, record)
	if err != nil {
		return err
	}

	for _, edge := range edges {
		if err := r.storage.SaveEdge(ctx, edge); err != nil {
			return err
		}
	}

	return nil
}

// Link writes a single explicit edge between two stored records.
func (r *Relations) Link(ctx context.Context, fromID, toID, relation string, confidence float64) error {
	return r.storage.SaveEdge(ctx, &Edge{
		FromID:     fromID,
		ToID:       toID,
		Relation:   relation,
		Confidence: confidence,
	})
}

// derive runs the bounded category-pair heuristics for one record.
func (r *Relations) derive(ctx context.Context, record *Record) ([]*Edge, error) {
	var edges []*Edge

	switch record.Category {
	case CategoryIntent:
		// an intent relates to the activity happening inside its window
		matches, err := r.overlapping(ctx, CategoryActivity, record)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			edges = append(edges, &Edge{
				FromID: record.ID, ToID: m.ID,
				Relation: RelDuring, Confidence: minConfidence(record, m),
			})
		}

	case CategoryState:
		matches, err := r.overlapping(ctx, CategoryActivity, record)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			edges = append(edges, &Edge{
				FromID: record.ID, ToID: m.ID,
				Relation: RelDuring, Confidence: minConfidence(record, m),
			})
		}

	case CategoryActivity:
		// tie the activity to its subject's profile
		if record.Subject != "" {
			profiles, err := r.storage.Query(ctx, CategoryProfile, record.Subject, nil)
			if err != nil {
				return nil, err
			}
			for _, p := range profiles {
				edges = append(edges, &Edge{
					FromID: record.ID, ToID: p.ID,
					Relation: RelSubjectOf, Confidence: record.Confidence,
				})
			}
		}

	case CategoryProcedural:
		// a procedure references the concepts its steps name
		nearest, err := r.nearest(ctx, CategorySemantic, record)
		if err != nil {
			return nil, err
		}
		for _, n := range nearest {
			edges = append(edges, &Edge{
				FromID: record.ID, ToID: n.Record.ID,
				Relation: RelAbout, Confidence: 1 - float64(n.Distance),
			})
		}

	case CategorySemantic:
		nearest, err := r.nearest(ctx, CategorySemantic, record)
		if err != nil {
			return nil, err
		}
		for _, n := range nearest {
			if n.Record.ID == record.ID {
				continue
			}
			edges = append(edges, &Edge{
				FromID: record.ID, ToID: n.Record.ID,
				Relation: RelSimilarTo, Confidence: 1 - float64(n.Distance),
			})
		}
	}

	return edges, nil
}

const nearestLimit = 5

// nearest runs a bounded KNN against another category and keeps matches
// above the relevance threshold.
func (r *Relations) nearest(ctx context.Context, category Category, record *Record) ([]*Scored, error) {
	if len(record.Embedding) == 0 {
		return nil, nil
	}

	scored, err := r.storage.Nearest(ctx, category, record.Embedding, nearestLimit)
	if err != nil {
		return nil, err
	}

	var kept []*Scored
	for _, s := range scored {
		if 1-float64(s.Distance) >= r.rules.RelationRelevance {
			kept = append(kept, s)
		}
	}
	return kept, nil
}

// overlapping finds records of another category whose window overlaps the
// record's own (or a TTL-sized window ending now for open-ended records).
func (r *Relations) overlapping(ctx context.Context, category Category, record *Record) ([]*Record, error) {
	window, ok := record.Window()
	if !ok {
		if record.ValidFrom == nil {
			return nil, nil
		}
		window = TimeRange{Start: *record.ValidFrom, End: record.ValidFrom.Add(r.rules.IntentTTL)}
	}

	matches, err := r.storage.Query(ctx, category, "", &window)
	if err != nil {
		return nil, err
	}

	var kept []*Record
	for _, m := range matches {
		mWindow, ok := m.Window()
		if ok && window.Overlaps(mWindow) {
			kept = append(kept, m)
		}
	}
	return kept, nil
}

// Rewrite re-points every edge naming a retired record at its successor.
// With no successor the edges are removed. Guarantees the graph never holds
// a dangling reference.
func (r *Relations) Rewrite(ctx context.Context, retiredID, successorID string) error {
	outgoing, err := r.storage.EdgesFrom(ctx, retiredID)
	if err != nil {
		return err
	}
	incoming, err := r.storage.EdgesTo(ctx, retiredID)
	if err != nil {
		return err
	}

	if err := r.storage.DeleteEdgesFor(ctx, retiredID); err != nil {
		return err
	}

	if successorID == "" {
		return nil
	}

	for _, edge := range outgoing {
		if edge.ToID == successorID {
			continue // would be a self-loop
		}
		rewritten := *edge
		rewritten.ID = 0
		rewritten.FromID = successorID
		if err := r.storage.SaveEdge(ctx, &rewritten); err != nil {
			return err
		}
	}

	for _, edge := range incoming {
		if edge.FromID == successorID {
			continue
		}
		rewritten := *edge
		rewritten.ID = 0
		rewritten.ToID = successorID
		if err := r.storage.SaveEdge(ctx, &rewritten); err != nil {
			return err
		}
	}

	return nil
}

// Related returns the edges touching a record, optionally filtered by
// relation kind, ordered by confidence then recency.
func (r *Relations) Related(ctx context.Context, id string, relation string) ([]*Edge, error) {
	outgoing, err := r.storage.EdgesFrom(ctx, id)
	if err != nil {
		return nil, err
	}
	incoming, err := r.storage.EdgesTo(ctx, id)
	if err != nil {
		return nil, err
	}

	var edges []*Edge
	for _, e := range append(outgoing, incoming...) {
		if relation != "" && e.Relation != relation {
			continue
		}
		edges = append(edges, e)
	}

	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].Confidence != edges[j].Confidence {
			return edges[i].Confidence > edges[j].Confidence
		}
		return edges[i].CreatedAt.After(edges[j].CreatedAt)
	})

	return edges, nil
}

func minConfidence(a, b *Record) float64 {
	if a.Confidence < b.Confidence {
		return a.Confidence
	}
	return b.Confidence
}
