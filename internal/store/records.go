package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/bowerhall/fusemem/internal/fusion"
)

const queryLimit = 100

func (s *Store) Save(ctx context.Context, rec *fusion.Record) error {
	content, err := json.Marshal(rec.Content)
	if err != nil {
		return &fusion.TransientStorageError{Op: "save", Err: err}
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := rec.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err = s.db.ExecContext(ctx, queryUpsertRecord,
		rec.ID, string(rec.Category), rec.Subject, string(content), rec.Confidence,
		boolInt(rec.Current), boolInt(rec.Retired), rec.SourceRef,
		nullTime(rec.ValidFrom), nullTime(rec.ValidUntil),
		createdAt.UTC(), updatedAt.UTC())
	if err != nil {
		return &fusion.TransientStorageError{Op: "save", Err: err}
	}

	return s.saveEmbedding(ctx, rec.ID, rec.Embedding)
}

func (s *Store) Get(ctx context.Context, id string) (*fusion.Record, error) {
	row := s.db.QueryRowContext(ctx, queryGetRecord, id)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, &fusion.TransientStorageError{Op: "get", Err: err}
	}
	return rec, nil
}

func (s *Store) Query(ctx context.Context, category fusion.Category, subject string, window *fusion.TimeRange) ([]*fusion.Record, error) {
	query := queryRecordsByCategory
	args := []any{string(category)}

	if subject != "" {
		query += ` AND subject = ?`
		args = append(args, subject)
	}

	if window != nil {
		query += ` AND (valid_from IS NULL OR valid_from <= ?) AND (valid_until IS NULL OR valid_until >= ?)`
		args = append(args, window.End.UTC(), window.Start.UTC())
	}

	query += queryOrderSuffix
	args = append(args, queryLimit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &fusion.TransientStorageError{Op: "query", Err: err}
	}
	defer rows.Close()

	var records []*fusion.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, &fusion.TransientStorageError{Op: "query", Err: err}
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, &fusion.TransientStorageError{Op: "query", Err: err}
	}

	return records, nil
}

func (s *Store) Retire(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, queryRetireRecord, id); err != nil {
		return &fusion.TransientStorageError{Op: "retire", Err: err}
	}

	// retired records leave the similarity index
	return s.deleteEmbedding(ctx, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*fusion.Record, error) {
	var rec fusion.Record
	var category, content string
	var current, retired int
	var sourceRef sql.NullString
	var validFrom, validUntil sql.NullTime
	var embedding []byte

	err := row.Scan(&rec.ID, &category, &rec.Subject, &content, &rec.Confidence,
		&current, &retired, &sourceRef, &validFrom, &validUntil,
		&rec.CreatedAt, &rec.UpdatedAt, &embedding)
	if err != nil {
		return nil, err
	}

	rec.Category = fusion.Category(category)
	rec.Embedding = decodeEmbedding(embedding)
	rec.Current = current == 1
	rec.Retired = retired == 1
	rec.SourceRef = sourceRef.String
	if validFrom.Valid {
		t := validFrom.Time
		rec.ValidFrom = &t
	}
	if validUntil.Valid {
		t := validUntil.Time
		rec.ValidUntil = &t
	}

	if err := json.Unmarshal([]byte(content), &rec.Content); err != nil {
		rec.Content = map[string]any{}
	}

	return &rec, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
