package delivery

import (
	"context"

	"github.com/cristianoliveira/messenger-mirror/internal/logging"
)

// Log writes messages to the logger instead of sending them.
type Log struct {
	log logging.Logger
}

// NewLog returns a gateway logging through l.
func NewLog(l logging.Logger) *Log {
	return &Log{log: l.With("component", "delivery")}
}

// Send logs msg and always succeeds.
func (g *Log) Send(ctx context.Context, msg Message) error {
	g.log.Info("message",
		"recipient", msg.Recipient,
		"subject", msg.Subject,
		"body", msg.Body,
		"attachments", len(msg.Attachments))
	return nil
}
