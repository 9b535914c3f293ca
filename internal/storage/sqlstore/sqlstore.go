// Package sqlstore implements the two-phase notification queue on database/sql.
//
// Every row carries an optional claim token. DrainAll stamps a fresh token on
// every row and returns them; Commit deletes only rows carrying the token of
// the latest drain. Rows left behind by a crash keep their stale token and are
// re-stamped by the next drain.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/notification"
	"github.com/google/uuid"
)

const selectColumns = "seq, conversation_id, display_name, preview_text, link, avatar, detected_at"

// Dialect holds the per-driver differences.
type Dialect struct {
	// Name labels errors, e.g. "sqlite storage".
	Name string
	// Schema statements run once at open.
	Schema []string
	// Rebind rewrites '?' placeholders for drivers that need another style.
	Rebind func(query string) string
}

// SQLite is the dialect for modernc.org/sqlite.
var SQLite = Dialect{
	Name: "sqlite storage",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS notification_queue (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			preview_text TEXT NOT NULL DEFAULT '',
			link TEXT NOT NULL DEFAULT '',
			avatar BLOB,
			detected_at TEXT NOT NULL,
			claim TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_queue_claim ON notification_queue(claim)`,
	},
	Rebind: func(q string) string { return q },
}

// Postgres is the dialect for github.com/lib/pq.
var Postgres = Dialect{
	Name: "postgres storage",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS notification_queue (
			seq BIGSERIAL PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			display_name TEXT NOT NULL DEFAULT '',
			preview_text TEXT NOT NULL DEFAULT '',
			link TEXT NOT NULL DEFAULT '',
			avatar BYTEA,
			detected_at TEXT NOT NULL,
			claim TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notification_queue_claim ON notification_queue(claim)`,
	},
	Rebind: dollarPlaceholders,
}

// dollarPlaceholders rewrites '?' into $1, $2, ...
func dollarPlaceholders(q string) string {
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Option configures a Store.
type Option func(*Store)

// WithTokenSource replaces the uuid claim token generator.
func WithTokenSource(next func() string) Option {
	return func(s *Store) { s.newToken = next }
}

// WithClock replaces the clock used to stamp notifications that carry no detection time.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is a durable notification queue backed by a SQL database.
type Store struct {
	db       *sql.DB
	dialect  Dialect
	newToken func() string
	now      func() time.Time

	mu        sync.Mutex
	lastClaim string
}

// New creates the schema on db and returns a Store using it.
func New(ctx context.Context, db *sql.DB, dialect Dialect, opts ...Option) (*Store, error) {
	s := &Store{
		db:       db,
		dialect:  dialect,
		newToken: uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, stmt := range dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("%s: create schema: %w", dialect.Name, err)
		}
	}
	return s, nil
}

func (s *Store) q(query string) string {
	return s.dialect.Rebind(query)
}

// Enqueue appends n and returns once the insert is committed.
func (s *Store) Enqueue(ctx context.Context, n notification.Notification) error {
	if err := n.Validate(); err != nil {
		return fmt.Errorf("%s: enqueue: %w", s.dialect.Name, err)
	}
	at := n.DetectedAt
	if at.IsZero() {
		at = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		s.q(`INSERT INTO notification_queue (conversation_id, display_name, preview_text, link, avatar, detected_at) VALUES (?, ?, ?, ?, ?, ?)`),
		n.ConversationID, n.DisplayName, n.PreviewText, n.Link, n.Avatar, at.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("%s: enqueue: %w", s.dialect.Name, err)
	}
	return nil
}

// DrainAll claims every queued row, including rows of an earlier drain that
// was never committed, and returns them in insertion order.
func (s *Store) DrainAll(ctx context.Context) (entries []notification.Entry, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token := s.newToken()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: drain: begin: %w", s.dialect.Name, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, s.q(`UPDATE notification_queue SET claim = ?`), token); err != nil {
		return nil, fmt.Errorf("%s: drain: claim: %w", s.dialect.Name, err)
	}
	rows, err := tx.QueryContext(ctx, s.q(`SELECT `+selectColumns+` FROM notification_queue WHERE claim = ? ORDER BY seq`), token)
	if err != nil {
		return nil, fmt.Errorf("%s: drain: select: %w", s.dialect.Name, err)
	}
	entries, err = scanEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: drain: %w", s.dialect.Name, err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: drain: commit: %w", s.dialect.Name, err)
	}
	s.lastClaim = token
	return entries, nil
}

// Commit deletes the rows returned by the latest DrainAll. Rows enqueued after
// that drain are untouched. Without a prior drain Commit does nothing.
func (s *Store) Commit(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastClaim == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, s.q(`DELETE FROM notification_queue WHERE claim = ?`), s.lastClaim); err != nil {
		return fmt.Errorf("%s: commit: %w", s.dialect.Name, err)
	}
	s.lastClaim = ""
	return nil
}

// IsEmpty reports whether no rows are queued, claimed or not.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notification_queue`).Scan(&count); err != nil {
		return false, fmt.Errorf("%s: count: %w", s.dialect.Name, err)
	}
	return count == 0, nil
}

// Pending lists queued rows in insertion order without claiming them.
func (s *Store) Pending(ctx context.Context) ([]notification.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM notification_queue ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("%s: pending: %w", s.dialect.Name, err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: pending: %w", s.dialect.Name, err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]notification.Entry, error) {
	defer rows.Close()
	var entries []notification.Entry
	for rows.Next() {
		var (
			e          notification.Entry
			avatar     []byte
			detectedAt string
		)
		if err := rows.Scan(&e.Seq, &e.ConversationID, &e.DisplayName, &e.PreviewText, &e.Link, &avatar, &detectedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if len(avatar) > 0 {
			e.Avatar = avatar
		}
		if t, err := time.Parse(time.RFC3339Nano, detectedAt); err == nil {
			e.DetectedAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
