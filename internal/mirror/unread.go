package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/cristianoliveira/messenger-mirror/internal/engine"
	"github.com/cristianoliveira/messenger-mirror/internal/notification"
	"github.com/cristianoliveira/messenger-mirror/internal/session"
	"github.com/cristianoliveira/messenger-mirror/internal/storage"
)

// ErrExtraction is returned when an unread thread does not have the expected shape.
var ErrExtraction = errors.New("cannot extract notification")

// UnreadMessage matches a thread showing a "Mark as Read" button. Its action
// queues a notification for the thread and then marks it read.
type UnreadMessage struct{ opts Options }

func (s *UnreadMessage) Name() string { return "UnreadMessage" }

func (s *UnreadMessage) Detect(ctx context.Context, sess session.Session) (engine.Action, error) {
	present, list, err := findConversationList(sess)
	if err != nil || !present || list == nil {
		return nil, err
	}
	button, err := list.Find(selMarkAsRead)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find mark as read: %w", err)
	}
	return func(ctx context.Context, _ session.Session, queue storage.Queue) error {
		n, err := s.extract(ctx, button)
		if err != nil {
			return err
		}
		if err := queue.Enqueue(ctx, n); err != nil {
			return fmt.Errorf("queue notification: %w", err)
		}
		s.opts.Logger.Info("notification queued",
			"conversation_id", n.ConversationID,
			"name", n.DisplayName,
			"avatar", n.HasAvatar())
		// The thread is only marked read once the notification is durable.
		if err := button.Click(); err != nil {
			return fmt.Errorf("mark as read: %w", err)
		}
		return nil
	}, nil
}

// extract reads the notification fields out of the thread containing button.
func (s *UnreadMessage) extract(ctx context.Context, button session.Element) (notification.Notification, error) {
	thread, err := button.Find(selThreadItem)
	if err != nil {
		return notification.Notification{}, fmt.Errorf("%w: thread container: %v", ErrExtraction, err)
	}

	spans, err := thread.FindAll(selSpan)
	if err != nil {
		return notification.Notification{}, fmt.Errorf("%w: spans: %v", ErrExtraction, err)
	}
	texts := make([]string, 0, len(spans))
	for _, span := range spans {
		text, err := span.Text()
		if err != nil {
			return notification.Notification{}, fmt.Errorf("%w: span text: %v", ErrExtraction, err)
		}
		texts = append(texts, text)
	}
	name, preview, err := nameAndPreview(texts)
	if err != nil {
		return notification.Notification{}, err
	}

	anchor, err := thread.Find(selAnchor)
	if err != nil {
		return notification.Notification{}, fmt.Errorf("%w: thread link: %v", ErrExtraction, err)
	}
	href, err := anchor.Attribute("href")
	if err != nil {
		return notification.Notification{}, fmt.Errorf("%w: thread link: %v", ErrExtraction, err)
	}
	if _, err := notification.ExtractConversationID(href); err != nil {
		return notification.Notification{}, err
	}

	avatar := s.avatar(ctx, thread)
	return notification.New(s.opts.BaseURL, href, name, preview, avatar, s.opts.Clock())
}

// nameAndPreview applies the thread layout: the first span is the display
// name and the preview is the span just before the first empty one.
func nameAndPreview(texts []string) (string, string, error) {
	if len(texts) == 0 {
		return "", "", fmt.Errorf("%w: thread has no spans", ErrExtraction)
	}
	for i, text := range texts {
		if text != "" {
			continue
		}
		if i == 0 {
			return "", "", fmt.Errorf("%w: display name is empty", ErrExtraction)
		}
		return texts[0], texts[i-1], nil
	}
	return "", "", fmt.Errorf("%w: no empty span after preview", ErrExtraction)
}

// avatar fetches the thread picture. Failures are logged and yield nil.
func (s *UnreadMessage) avatar(ctx context.Context, thread session.Element) []byte {
	img, err := thread.Find(selAvatarImage)
	if err != nil {
		s.opts.Logger.Warn("avatar image not found", "err", err)
		return nil
	}
	src, err := img.Attribute("href")
	if err == nil && src == "" {
		src, err = img.Attribute("xlink:href")
	}
	if err != nil || src == "" {
		s.opts.Logger.Warn("avatar image has no href", "err", err)
		return nil
	}
	data, err := s.opts.Avatars.Fetch(ctx, src)
	if err != nil {
		s.opts.Logger.Warn("avatar fetch failed", "url", src, "err", err)
		return nil
	}
	return data
}
