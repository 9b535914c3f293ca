// Package dispatch periodically drains the notification queue and delivers
// one deduplicated batch per recipient.
package dispatch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/dedup"
	"github.com/cristianoliveira/messenger-mirror/internal/delivery"
	"github.com/cristianoliveira/messenger-mirror/internal/format"
	"github.com/cristianoliveira/messenger-mirror/internal/logging"
	"github.com/cristianoliveira/messenger-mirror/internal/notification"
	"github.com/cristianoliveira/messenger-mirror/internal/storage"
)

// Options configures a Scheduler.
type Options struct {
	// Interval is the minimum time between two successful flushes.
	Interval time.Duration
	// RetryDelay spaces retries after a failed flush. Defaults to a
	// minute, capped at Interval.
	RetryDelay time.Duration
	// Recipient receives every batch not routed elsewhere.
	Recipient string
	// PingRecipient, when set, receives the conversation named PingSenderName.
	PingRecipient  string
	PingSenderName string
	Clock          func() time.Time
	Logger         logging.Logger
}

// Report describes one flush.
type Report struct {
	Drained   int
	Delivered int
	Messages  int
	Committed bool
}

// String returns a one-line summary.
func (r Report) String() string {
	return fmt.Sprintf("drained=%d delivered=%d messages=%d committed=%t", r.Drained, r.Delivered, r.Messages, r.Committed)
}

// Scheduler flushes the queue at most once per Interval.
type Scheduler struct {
	queue   storage.Queue
	gateway delivery.Gateway
	opts    Options
	log     logging.Logger

	lastFlush time.Time
	nextRetry time.Time
}

// New returns a Scheduler whose first Tick flushes.
func New(queue storage.Queue, gateway delivery.Gateway, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = min(time.Minute, opts.Interval)
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Scheduler{
		queue:   queue,
		gateway: gateway,
		opts:    opts,
		log:     log.With("component", "dispatch"),
	}
}

// Due reports whether more than Interval has passed since the last
// successful flush. After a failure it waits RetryDelay first.
func (s *Scheduler) Due() bool {
	now := s.opts.Clock()
	if now.Before(s.nextRetry) {
		return false
	}
	return now.Sub(s.lastFlush) > s.opts.Interval
}

// Tick flushes when due. It reports whether a flush ran.
func (s *Scheduler) Tick(ctx context.Context) (bool, error) {
	if !s.Due() {
		return false, nil
	}
	report, err := s.Flush(ctx)
	if err != nil {
		s.nextRetry = s.opts.Clock().Add(s.opts.RetryDelay)
		s.log.Warn("flush failed, notifications kept for a retry", "err", err, "drained", report.Drained, "retry_in", s.opts.RetryDelay)
		return true, err
	}
	s.lastFlush = s.opts.Clock()
	s.nextRetry = time.Time{}
	if report.Drained > 0 {
		s.log.Info("flush done", "drained", report.Drained, "delivered", report.Delivered, "messages", report.Messages)
	}
	return true, nil
}

// Flush drains the queue, sends one message per recipient and commits the
// drain only if every send succeeded.
func (s *Scheduler) Flush(ctx context.Context) (Report, error) {
	var report Report
	entries, err := s.queue.DrainAll(ctx)
	if err != nil {
		return report, fmt.Errorf("drain queue: %w", err)
	}
	report.Drained = len(entries)

	batch := dedup.ByConversation(entries)
	messages := s.messages(batch)
	for _, msg := range messages {
		if err := s.gateway.Send(ctx, msg); err != nil {
			return report, fmt.Errorf("send to %s: %w", msg.Recipient, err)
		}
		report.Messages++
	}
	report.Delivered = len(batch)

	if err := s.queue.Commit(ctx); err != nil {
		return report, fmt.Errorf("commit queue: %w", err)
	}
	report.Committed = true
	return report, nil
}

// messages groups batch by recipient, keeping batch order within and across groups.
func (s *Scheduler) messages(batch []notification.Notification) []delivery.Message {
	var (
		order  []string
		groups = map[string][]notification.Notification{}
	)
	for _, n := range batch {
		to := s.recipientFor(n)
		if _, ok := groups[to]; !ok {
			order = append(order, to)
		}
		groups[to] = append(groups[to], n)
	}

	messages := make([]delivery.Message, 0, len(order))
	for _, to := range order {
		group := groups[to]
		messages = append(messages, delivery.Message{
			Subject:     format.Subject(group),
			Body:        format.Body(group),
			Recipient:   to,
			Attachments: attachments(group),
		})
	}
	return messages
}

func (s *Scheduler) recipientFor(n notification.Notification) string {
	if s.opts.PingRecipient != "" && s.opts.PingSenderName != "" && n.DisplayName == s.opts.PingSenderName {
		return s.opts.PingRecipient
	}
	return s.opts.Recipient
}

// attachments turns fetched avatars into inline attachments.
func attachments(batch []notification.Notification) []delivery.Attachment {
	var out []delivery.Attachment
	for _, n := range batch {
		if !n.HasAvatar() {
			continue
		}
		ct := http.DetectContentType(n.Avatar)
		out = append(out, delivery.Attachment{
			Filename:    "avatar_" + n.ConversationID + extension(ct),
			ContentType: ct,
			ContentID:   "avatar-" + n.ConversationID,
			Data:        n.Avatar,
		})
	}
	return out
}

func extension(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/png"):
		return ".png"
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg"
	case strings.HasPrefix(contentType, "image/gif"):
		return ".gif"
	case strings.HasPrefix(contentType, "image/webp"):
		return ".webp"
	default:
		return ".bin"
	}
}
