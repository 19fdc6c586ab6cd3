package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/ncruces"

	"github.com/bowerhall/fusemem/internal/fusion"
)

func (s *Store) saveEmbedding(ctx context.Context, recordID string, embedding []float32) error {
	rowid, err := s.recordRowid(ctx, recordID)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, queryDeleteVec, rowid); err != nil {
		return &fusion.TransientStorageError{Op: "save_embedding", Err: err}
	}

	if len(embedding) == 0 {
		return nil
	}
	if len(embedding) != s.dims {
		return &fusion.TransientStorageError{Op: "save_embedding",
			Err: fmt.Errorf("embedding has %d dimensions, store expects %d", len(embedding), s.dims)}
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return &fusion.TransientStorageError{Op: "save_embedding", Err: err}
	}

	if _, err := s.db.ExecContext(ctx, queryInsertVec, rowid, blob); err != nil {
		return &fusion.TransientStorageError{Op: "save_embedding", Err: err}
	}

	return nil
}

func (s *Store) deleteEmbedding(ctx context.Context, recordID string) error {
	rowid, err := s.recordRowid(ctx, recordID)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, queryDeleteVec, rowid); err != nil {
		return &fusion.TransientStorageError{Op: "delete_embedding", Err: err}
	}

	return nil
}

func (s *Store) recordRowid(ctx context.Context, recordID string) (int64, error) {
	var rowid int64
	err := s.db.QueryRowContext(ctx, queryRecordRowid, recordID).Scan(&rowid)
	if err == sql.ErrNoRows {
		return 0, &fusion.TransientStorageError{Op: "rowid",
			Err: fmt.Errorf("no record with id %s", recordID)}
	}
	if err != nil {
		return 0, &fusion.TransientStorageError{Op: "rowid", Err: err}
	}
	return rowid, nil
}

func (s *Store) Nearest(ctx context.Context, category fusion.Category, embedding []float32, k int) ([]*fusion.Scored, error) {
	if len(embedding) != s.dims || k <= 0 {
		return nil, nil
	}

	blob, err := sqlite_vec.SerializeFloat32(embedding)
	if err != nil {
		return nil, &fusion.TransientStorageError{Op: "nearest", Err: err}
	}

	// vec0 KNN needs the k constraint in the WHERE clause; category and
	// retired filtering happens on the joined row
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+prefixedRecordColumns+`, v.embedding, v.distance
		FROM vec_records v
		JOIN records r ON v.record_rowid = r.rowid
		WHERE v.embedding MATCH ?
		  AND k = ?
		  AND r.category = ?
		  AND r.retired = 0
		ORDER BY v.distance
	`, blob, k, string(category))
	if err != nil {
		return nil, &fusion.TransientStorageError{Op: "nearest", Err: err}
	}
	defer rows.Close()

	var results []*fusion.Scored
	for rows.Next() {
		rec, distance, err := scanScored(rows)
		if err != nil {
			return nil, &fusion.TransientStorageError{Op: "nearest", Err: err}
		}
		results = append(results, &fusion.Scored{Record: rec, Distance: distance})
	}

	if err := rows.Err(); err != nil {
		return nil, &fusion.TransientStorageError{Op: "nearest", Err: err}
	}

	return results, nil
}

const prefixedRecordColumns = `r.id, r.category, r.subject, r.content, r.confidence, r.current, r.retired, r.source_ref, r.valid_from, r.valid_until, r.created_at, r.updated_at`

// decodeEmbedding reverses SerializeFloat32: little-endian float32 words.
func decodeEmbedding(blob []byte) []float32 {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return out
}

func scanScored(rows *sql.Rows) (*fusion.Record, float32, error) {
	var rec fusion.Record
	var category, content string
	var current, retired int
	var sourceRef sql.NullString
	var validFrom, validUntil sql.NullTime
	var embedding []byte
	var distance float32

	err := rows.Scan(&rec.ID, &category, &rec.Subject, &content, &rec.Confidence,
		&current, &retired, &sourceRef, &validFrom, &validUntil,
		&rec.CreatedAt, &rec.UpdatedAt, &embedding, &distance)
	if err != nil {
		return nil, 0, err
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

	return &rec, distance, nil
}
