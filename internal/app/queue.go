package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/format"
	"github.com/cristianoliveira/messenger-mirror/internal/notification"
)

// QueueLister lists pending queue entries.
type QueueLister interface {
	Pending(ctx context.Context) ([]notification.Entry, error)
}

// QueueListUseCase prints the pending queue.
type QueueListUseCase struct {
	lister QueueLister
	now    func() time.Time
}

// NewQueueListUseCase creates a new queue list use-case.
func NewQueueListUseCase(lister QueueLister) *QueueListUseCase {
	if lister == nil {
		panic("NewQueueListUseCase: lister dependency cannot be nil")
	}
	return &QueueListUseCase{lister: lister, now: time.Now}
}

// Execute writes the pending entries as a table.
func (u *QueueListUseCase) Execute(ctx context.Context, w io.Writer) error {
	entries, err := u.lister.Pending(ctx)
	if err != nil {
		return fmt.Errorf("queue list: %w", err)
	}
	_, _ = fmt.Fprintln(w, format.QueueTable(entries, u.now()))
	return nil
}
