package store

import (
	"context"
	"testing"
	"time"

	"github.com/bowerhall/fusemem/internal/fusion"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := OpenWithDimensions(":memory:", 4)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s
}

func TestOpenAndClose(t *testing.T) {
	s, err := OpenWithDimensions(":memory:", 4)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}
}

func TestSaveAndQueryRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &fusion.Record{
		ID:         "r1",
		Category:   fusion.CategoryProfile,
		Subject:    "u1",
		Content:    map[string]any{"name": "Alice"},
		Confidence: 0.9,
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	records, err := s.Query(ctx, fusion.CategoryProfile, "u1", nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Content["name"] != "Alice" {
		t.Errorf("expected 'Alice', got %v", records[0].Content["name"])
	}
}

func TestSaveUpdatesExisting(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &fusion.Record{
		ID:       "r1",
		Category: fusion.CategoryProfile,
		Subject:  "u1",
		Content:  map[string]any{"name": "Alice"},
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	rec.Content["name"] = "Alice Lee"
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	records, err := s.Query(ctx, fusion.CategoryProfile, "u1", nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record after upsert, got %d", len(records))
	}
	if records[0].Content["name"] != "Alice Lee" {
		t.Errorf("expected 'Alice Lee', got %v", records[0].Content["name"])
	}
}

func TestQueryHydratesEmbedding(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &fusion.Record{
		ID:        "r1",
		Category:  fusion.CategoryIntent,
		Subject:   "u1",
		Content:   map[string]any{"goal": "ship release"},
		Embedding: []float32{0.5, 0.25, 0, 1},
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	records, err := s.Query(ctx, fusion.CategoryIntent, "u1", nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	got := records[0].Embedding
	if len(got) != 4 {
		t.Fatalf("expected embedding hydrated, got %v", got)
	}
	for i, want := range rec.Embedding {
		if got[i] != want {
			t.Errorf("embedding[%d] = %f, want %f", i, got[i], want)
		}
	}
}

func TestRetireHidesRecord(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &fusion.Record{
		ID:       "r1",
		Category: fusion.CategoryState,
		Subject:  "u1",
		Content:  map[string]any{"status": "in_meeting"},
		Current:  true,
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := s.Retire(ctx, "r1"); err != nil {
		t.Fatalf("retire failed: %v", err)
	}

	records, err := s.Query(ctx, fusion.CategoryState, "u1", nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected retired record hidden, got %d", len(records))
	}

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil || !got.Retired || got.Current {
		t.Errorf("expected retired non-current record, got %+v", got)
	}
}

func TestQueryWindowFilter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)

	inside := &fusion.Record{
		ID:       "a1",
		Category: fusion.CategoryActivity,
		Subject:  "u1",
		Content:  map[string]any{},
	}
	inside.SetWindow(fusion.TimeRange{Start: base, End: base.Add(30 * time.Minute)})

	outside := &fusion.Record{
		ID:       "a2",
		Category: fusion.CategoryActivity,
		Subject:  "u1",
		Content:  map[string]any{},
	}
	outside.SetWindow(fusion.TimeRange{Start: base.Add(5 * time.Hour), End: base.Add(6 * time.Hour)})

	if err := s.Save(ctx, inside); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.Save(ctx, outside); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	window := fusion.TimeRange{Start: base.Add(10 * time.Minute), End: base.Add(time.Hour)}
	records, err := s.Query(ctx, fusion.CategoryActivity, "u1", &window)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "a1" {
		t.Errorf("expected only the overlapping record, got %v", records)
	}
}

func TestEdgeUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	edge := &fusion.Edge{FromID: "a", ToID: "b", Relation: "during", Confidence: 0.5}
	if err := s.SaveEdge(ctx, edge); err != nil {
		t.Fatalf("save edge failed: %v", err)
	}

	edge.Confidence = 0.9
	if err := s.SaveEdge(ctx, edge); err != nil {
		t.Fatalf("upsert edge failed: %v", err)
	}

	edges, err := s.EdgesFrom(ctx, "a")
	if err != nil {
		t.Fatalf("edges query failed: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("expected 1 edge after upsert, got %d", len(edges))
	}
	if edges[0].Confidence != 0.9 {
		t.Errorf("expected refreshed confidence, got %f", edges[0].Confidence)
	}
}

func TestDeleteEdgesFor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveEdge(ctx, &fusion.Edge{FromID: "a", ToID: "b", Relation: "during"}); err != nil {
		t.Fatalf("save edge failed: %v", err)
	}
	if err := s.SaveEdge(ctx, &fusion.Edge{FromID: "c", ToID: "a", Relation: "about"}); err != nil {
		t.Fatalf("save edge failed: %v", err)
	}

	if err := s.DeleteEdgesFor(ctx, "a"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	from, _ := s.EdgesFrom(ctx, "a")
	to, _ := s.EdgesTo(ctx, "a")
	if len(from) != 0 || len(to) != 0 {
		t.Errorf("expected all edges for a removed, got %d/%d", len(from), len(to))
	}
}

func TestNearest(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	near := &fusion.Record{
		ID:        "c1",
		Category:  fusion.CategorySemantic,
		Subject:   "kubernetes",
		Content:   map[string]any{"concept": "kubernetes"},
		Embedding: []float32{1, 0, 0, 0},
	}
	far := &fusion.Record{
		ID:        "c2",
		Category:  fusion.CategorySemantic,
		Subject:   "coffee",
		Content:   map[string]any{"concept": "coffee"},
		Embedding: []float32{0, 1, 0, 0},
	}
	if err := s.Save(ctx, near); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.Save(ctx, far); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	results, err := s.Nearest(ctx, fusion.CategorySemantic, []float32{0.99, 0.01, 0, 0}, 2)
	if err != nil {
		t.Fatalf("nearest failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Record.ID != "c1" {
		t.Errorf("expected c1 nearest, got %s", results[0].Record.ID)
	}
	if results[0].Distance >= results[1].Distance {
		t.Errorf("expected ascending distance, got %f then %f", results[0].Distance, results[1].Distance)
	}
}

func TestNearestSkipsRetired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := &fusion.Record{
		ID:        "c1",
		Category:  fusion.CategorySemantic,
		Subject:   "kubernetes",
		Content:   map[string]any{},
		Embedding: []float32{1, 0, 0, 0},
	}
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.Retire(ctx, "c1"); err != nil {
		t.Fatalf("retire failed: %v", err)
	}

	results, err := s.Nearest(ctx, fusion.CategorySemantic, []float32{1, 0, 0, 0}, 1)
	if err != nil {
		t.Fatalf("nearest failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected retired record out of the index, got %d results", len(results))
	}
}

func TestPruneRemovesOldRetired(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := &fusion.Record{
		ID:       "r1",
		Category: fusion.CategoryState,
		Subject:  "u1",
		Content:  map[string]any{"status": "in_meeting"},
	}
	if err := s.Save(ctx, old); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.Retire(ctx, "r1"); err != nil {
		t.Fatalf("retire failed: %v", err)
	}
	if err := s.SaveEdge(ctx, &fusion.Edge{FromID: "r1", ToID: "x", Relation: "during"}); err != nil {
		t.Fatalf("save edge failed: %v", err)
	}

	// age the retired record past the retention cutoff
	if _, err := s.DB().Exec(`UPDATE records SET updated_at = datetime('now', '-200 days') WHERE id = 'r1'`); err != nil {
		t.Fatalf("backdate failed: %v", err)
	}

	pruned, err := s.Prune(PruneConfig{MaxAge: 90 * 24 * time.Hour})
	if err != nil {
		t.Fatalf("prune failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("expected 1 pruned record, got %d", pruned)
	}

	got, err := s.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Error("expected record deleted")
	}

	edges, _ := s.EdgesFrom(ctx, "r1")
	if len(edges) != 0 {
		t.Errorf("expected edges swept with the record, got %d", len(edges))
	}
}
