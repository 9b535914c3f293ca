// Package storage defines the durable notification queue and selects its backend.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/cristianoliveira/messenger-mirror/internal/config"
	"github.com/cristianoliveira/messenger-mirror/internal/notification"
	"github.com/cristianoliveira/messenger-mirror/internal/storage/postgres"
	"github.com/cristianoliveira/messenger-mirror/internal/storage/sqlite"
)

const (
	// BackendSQLite selects the single-file SQLite queue.
	BackendSQLite = "sqlite"
	// BackendPostgres selects the PostgreSQL queue.
	BackendPostgres = "postgres"
)

// Queue is an ordered, durable queue with a two-phase drain.
//
// Enqueue is durable before it returns. DrainAll returns every queued entry in
// insertion order; the entries stay stored until Commit acknowledges them, so
// a crash between the two replays the same entries on the next DrainAll.
type Queue interface {
	Enqueue(ctx context.Context, n notification.Notification) error
	DrainAll(ctx context.Context) ([]notification.Entry, error)
	Commit(ctx context.Context) error
	IsEmpty(ctx context.Context) (bool, error)
	// Pending lists queued entries without claiming them.
	Pending(ctx context.Context) ([]notification.Entry, error)
	Close() error
}

var (
	_ Queue = (*sqlite.Store)(nil)
	_ Queue = (*postgres.Store)(nil)
)

// Open opens the queue backend selected in cfg.
func Open(ctx context.Context, cfg config.StorageSettings) (Queue, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendPostgres:
		s, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
