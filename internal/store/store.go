// Package store implements fusion.Storage on sqlite with sqlite-vec for
// embedding search.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	_ "github.com/ncruces/go-sqlite3/driver"
)

// DefaultDimensions matches the embedding size the default processors emit.
const DefaultDimensions = 768

type Store struct {
	db   *sql.DB
	dims int
}

func Open(path string) (*Store, error) {
	return OpenWithDimensions(path, DefaultDimensions)
}

func OpenWithDimensions(path string, dims int) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	// a :memory: database exists per connection; keep the pool at one so
	// every query sees the same schema
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, dims: dims}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if _, err := s.db.Exec(fmt.Sprintf(vecSchema, s.dims)); err != nil {
		return err
	}

	return nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}

	return nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}
