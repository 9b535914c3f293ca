// Package postgres provides the PostgreSQL-backed notification queue.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/storage/sqlstore"
	_ "github.com/lib/pq"
)

const operationTimeout = 5 * time.Second

// ErrEmptyDSN is returned when no connection string is configured.
var ErrEmptyDSN = errors.New("postgres storage: dsn cannot be empty")

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

var openDB sqlOpenFunc = sql.Open

// Store is a notification queue stored in a PostgreSQL table.
type Store struct {
	*sqlstore.Store
}

// Open connects to dsn, verifies the connection and creates the schema.
func Open(ctx context.Context, dsn string, opts ...sqlstore.Option) (*Store, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrEmptyDSN
	}
	db, err := openDB("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres storage: open db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, operationTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres storage: ping: %w", err)
	}

	s, err := NewWithDB(pingCtx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an already opened database.
func NewWithDB(ctx context.Context, db *sql.DB, opts ...sqlstore.Option) (*Store, error) {
	inner, err := sqlstore.New(ctx, db, sqlstore.Postgres, opts...)
	if err != nil {
		return nil, err
	}
	return &Store{Store: inner}, nil
}
