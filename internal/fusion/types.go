package fusion

import (
	"context"
	"time"
)

// Category is the fixed set of context types a record can belong to.
type Category string

const (
	CategoryProfile    Category = "profile"
	CategoryActivity   Category = "activity"
	CategoryState      Category = "state"
	CategoryIntent     Category = "intent"
	CategorySemantic   Category = "semantic"
	CategoryProcedural Category = "procedural"
)

// Categories lists every known category in declaration order.
var Categories = []Category{
	CategoryProfile,
	CategoryActivity,
	CategoryState,
	CategoryIntent,
	CategorySemantic,
	CategoryProcedural,
}

func (c Category) Valid() bool {
	switch c {
	case CategoryProfile, CategoryActivity, CategoryState,
		CategoryIntent, CategorySemantic, CategoryProcedural:
		return true
	}
	return false
}

func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", &ValidationError{Field: "category", Detail: "unknown category: " + s}
	}
	return c, nil
}

// Exclusive reports whether at most one record per subject may be current.
func (c Category) Exclusive() bool {
	return c == CategoryState || c == CategoryIntent
}

// Record is the unit of stored knowledge. Records are created and mutated
// only by the merger applying a decision, never by callers directly.
type Record struct {
	ID         string
	Category   Category
	Subject    string
	Content    map[string]any
	Embedding  []float32
	Confidence float64
	Current    bool
	Retired    bool
	ValidFrom  *time.Time
	ValidUntil *time.Time
	SourceRef  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Clone returns a deep-enough copy for decision building: content map and
// embedding are copied, timestamps and flags carried over.
func (r *Record) Clone() *Record {
	out := *r
	out.Content = make(map[string]any, len(r.Content))
	for k, v := range r.Content {
		out.Content[k] = v
	}
	if r.Embedding != nil {
		out.Embedding = make([]float32, len(r.Embedding))
		copy(out.Embedding, r.Embedding)
	}
	return &out
}

type DecisionKind string

const (
	DecisionCreate    DecisionKind = "create"
	DecisionMerge     DecisionKind = "merge"
	DecisionSupersede DecisionKind = "supersede"
	DecisionLink      DecisionKind = "link"
	DecisionDiscard   DecisionKind = "discard"

	// DecisionFailed is never returned by a strategy; it is the metrics
	// label for merges that surfaced an error.
	DecisionFailed DecisionKind = "failed"
)

// Decision is the outcome of comparing a candidate against existing records.
type Decision struct {
	Kind     DecisionKind
	TargetID string
	Merged   *Record
	Reason   string
}

func CreateNew() Decision {
	return Decision{Kind: DecisionCreate}
}

// MergeInto folds the candidate into an existing record. merged carries the
// combined content and must keep the target's ID.
func MergeInto(targetID string, merged *Record) Decision {
	return Decision{Kind: DecisionMerge, TargetID: targetID, Merged: merged}
}

// Supersede retires the target and makes the candidate the current record.
func Supersede(targetID string) Decision {
	return Decision{Kind: DecisionSupersede, TargetID: targetID}
}

// LinkOnly stores the candidate as its own record and relates it to the
// target without touching either record's content.
func LinkOnly(targetID string) Decision {
	return Decision{Kind: DecisionLink, TargetID: targetID}
}

func Discard(reason string) Decision {
	return Decision{Kind: DecisionDiscard, Reason: reason}
}

// Edge is a directed, typed link between two stored records. Identity is
// (FromID, ToID, Relation); storage upserts on that key.
type Edge struct {
	ID         int64
	FromID     string
	ToID       string
	Relation   string
	Confidence float64
	CreatedAt  time.Time
}

// Relation kinds produced by the relationship heuristics.
const (
	RelDuring      = "during"       // temporal containment/overlap
	RelSubjectOf   = "subject_of"   // record about a profile subject
	RelAbout       = "about"        // references a semantic concept
	RelSimilarTo   = "similar_to"   // semantic nearest neighbor
	RelRelatedGoal = "related_goal" // procedures sharing a goal
)

// MergeResult is returned for every merge call that did not fail outright.
type MergeResult struct {
	Record   *Record
	Decision DecisionKind
	Reason   string // set for discards
}

type TimeRange struct {
	Start time.Time
	End   time.Time
}

func (t TimeRange) Overlaps(o TimeRange) bool {
	return !t.Start.After(o.End) && !o.Start.After(t.End)
}

// Scored pairs a record with its vector distance (lower = more similar).
type Scored struct {
	Record   *Record
	Distance float32
}

// Storage is the persistence contract the engine consumes. Implementations
// must report infrastructure failures as TransientStorageError so the merger
// can retry.
type Storage interface {
	// Query returns non-retired records of a category. subject == "" matches
	// every subject; a window restricts to records whose validity overlaps it.
	Query(ctx context.Context, category Category, subject string, window *TimeRange) ([]*Record, error)
	// Save inserts or updates a record by ID, embedding included.
	Save(ctx context.Context, rec *Record) error
	// Retire marks a record retired and drops it from the current set.
	Retire(ctx context.Context, id string) error

	SaveEdge(ctx context.Context, edge *Edge) error
	DeleteEdgesFor(ctx context.Context, id string) error
	EdgesFrom(ctx context.Context, id string) ([]*Edge, error)
	EdgesTo(ctx context.Context, id string) ([]*Edge, error)

	// Nearest returns up to k non-retired records of a category by vector
	// distance to the given embedding.
	Nearest(ctx context.Context, category Category, embedding []float32, k int) ([]*Scored, error)
}

// MetricsSink receives one event per merge call. A nil sink is a no-op.
type MetricsSink interface {
	RecordMerge(category Category, decision DecisionKind, elapsed time.Duration)
}

// Embedder produces dense vectors for text. Consumed by collaborator glue
// (the daemon's spool ingester), never by the engine itself.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
