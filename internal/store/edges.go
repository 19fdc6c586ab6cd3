package store

import (
	"context"

	"github.com/bowerhall/fusemem/internal/fusion"
)

func (s *Store) SaveEdge(ctx context.Context, edge *fusion.Edge) error {
	_, err := s.db.ExecContext(ctx, queryUpsertEdge,
		edge.FromID, edge.ToID, edge.Relation, edge.Confidence)
	if err != nil {
		return &fusion.TransientStorageError{Op: "save_edge", Err: err}
	}
	return nil
}

func (s *Store) EdgesFrom(ctx context.Context, id string) ([]*fusion.Edge, error) {
	return s.queryEdges(ctx, queryEdgesFrom, id)
}

func (s *Store) EdgesTo(ctx context.Context, id string) ([]*fusion.Edge, error) {
	return s.queryEdges(ctx, queryEdgesTo, id)
}

func (s *Store) DeleteEdgesFor(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, queryDeleteEdgesFor, id, id); err != nil {
		return &fusion.TransientStorageError{Op: "delete_edges", Err: err}
	}
	return nil
}

func (s *Store) queryEdges(ctx context.Context, query, id string) ([]*fusion.Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, &fusion.TransientStorageError{Op: "query_edges", Err: err}
	}
	defer rows.Close()

	var edges []*fusion.Edge
	for rows.Next() {
		var e fusion.Edge
		if err := rows.Scan(&e.ID, &e.FromID, &e.ToID, &e.Relation, &e.Confidence, &e.CreatedAt); err != nil {
			return nil, &fusion.TransientStorageError{Op: "query_edges", Err: err}
		}
		edges = append(edges, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, &fusion.TransientStorageError{Op: "query_edges", Err: err}
	}

	return edges, nil
}
