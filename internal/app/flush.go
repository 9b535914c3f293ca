package app

import (
	"context"
	"fmt"
	"io"

	"github.com/cristianoliveira/messenger-mirror/internal/colors"
	"github.com/cristianoliveira/messenger-mirror/internal/dispatch"
)

// Flusher performs one dispatch cycle.
type Flusher interface {
	Flush(ctx context.Context) (dispatch.Report, error)
}

// FlushUseCase forces a dispatch cycle outside the watch loop.
type FlushUseCase struct {
	flusher Flusher
}

// NewFlushUseCase creates a new flush use-case.
func NewFlushUseCase(flusher Flusher) *FlushUseCase {
	if flusher == nil {
		panic("NewFlushUseCase: flusher dependency cannot be nil")
	}
	return &FlushUseCase{flusher: flusher}
}

// Execute flushes the queue and prints a summary to w.
func (u *FlushUseCase) Execute(ctx context.Context, w io.Writer) error {
	report, err := u.flusher.Flush(ctx)
	if err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if report.Drained == 0 {
		_, _ = fmt.Fprintf(w, "%s%s%s\n", colors.Blue, "Queue is empty, nothing to send", colors.Reset)
		return nil
	}
	_, _ = fmt.Fprintf(w, "%s%s Delivered %d notification(s) in %d message(s)%s\n",
		colors.Green, "✓", report.Delivered, report.Messages, colors.Reset)
	return nil
}
