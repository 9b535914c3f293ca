// Package sqlite provides the SQLite-backed notification queue.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cristianoliveira/messenger-mirror/internal/config"
	"github.com/cristianoliveira/messenger-mirror/internal/storage/sqlstore"
	_ "modernc.org/sqlite"
)

// pragmas are applied on the single connection before the schema is created.
// synchronous=FULL: a committed enqueue is on disk before Enqueue returns.
var pragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = FULL",
}

// Store is a notification queue stored in a single SQLite file.
type Store struct {
	*sqlstore.Store
	path string
}

// Open opens or creates the queue database at dbPath.
func Open(ctx context.Context, dbPath string, opts ...sqlstore.Option) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("sqlite storage: db path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), config.FileModeDir); err != nil {
		return nil, fmt.Errorf("sqlite storage: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite storage: open db: %w", err)
	}
	// One writer; pragmas are per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite storage: %s: %w", p, err)
		}
	}

	inner, err := sqlstore.New(ctx, db, sqlstore.SQLite, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner, path: dbPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}
