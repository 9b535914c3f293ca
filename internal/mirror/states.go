package mirror

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/engine"
	"github.com/cristianoliveira/messenger-mirror/internal/session"
	"github.com/cristianoliveira/messenger-mirror/internal/storage"
)

// Initial matches a fresh browser tab.
type Initial struct{ opts Options }

func (s *Initial) Name() string { return "Initial" }

func (s *Initial) Detect(ctx context.Context, sess session.Session) (engine.Action, error) {
	title, err := sess.Title()
	if err != nil {
		return nil, fmt.Errorf("read title: %w", err)
	}
	if title != "" && title != "New Tab" {
		u, err := sess.CurrentURL()
		if err != nil {
			return nil, fmt.Errorf("read url: %w", err)
		}
		if u != "about:blank" {
			return nil, nil
		}
	}
	return func(ctx context.Context, sess session.Session, _ storage.Queue) error {
		return navigate(sess, s.opts.BaseURL)
	}, nil
}

// LoginForm matches the email and password form.
type LoginForm struct{ opts Options }

func (s *LoginForm) Name() string { return "LoginForm" }

func (s *LoginForm) Detect(ctx context.Context, sess session.Session) (engine.Action, error) {
	els, err := findEach(sess, selEmail, selPassword, selRememberMe, selLoginButton)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	email, password, remember, login := els[0], els[1], els[2], els[3]

	return func(ctx context.Context, sess session.Session, _ storage.Queue) error {
		s.opts.Logger.Info("logging in", "email", s.opts.Email)
		if err := email.SendKeys(s.opts.Email); err != nil {
			return fmt.Errorf("type email: %w", err)
		}
		if err := password.SendKeys(s.opts.Password); err != nil {
			return fmt.Errorf("type password: %w", err)
		}
		checked, err := remember.IsChecked()
		if err != nil {
			return fmt.Errorf("read remember me: %w", err)
		}
		if !checked {
			if err := remember.DispatchClick(); err != nil {
				return fmt.Errorf("check remember me: %w", err)
			}
		}
		if err := login.DispatchClick(); err != nil {
			return fmt.Errorf("submit login: %w", err)
		}
		return nil
	}, nil
}

// ViewingOtherConversation matches the inbox while some conversation other
// than the target user's own is open.
type ViewingOtherConversation struct{ opts Options }

func (s *ViewingOtherConversation) Name() string { return "ViewingOtherConversation" }

func (s *ViewingOtherConversation) Detect(ctx context.Context, sess session.Session) (engine.Action, error) {
	present, _, err := findConversationList(sess)
	if err != nil || !present {
		return nil, err
	}
	u, err := sess.CurrentURL()
	if err != nil {
		return nil, fmt.Errorf("read url: %w", err)
	}
	if strings.HasSuffix(strings.TrimRight(u, "/"), "/"+s.opts.TargetUserID) {
		return nil, nil
	}
	return func(ctx context.Context, sess session.Session, _ storage.Queue) error {
		return navigate(sess, s.opts.BaseURL+"/t/"+s.opts.TargetUserID)
	}, nil
}

// Idle matches the inbox with nothing to do. Its wait runs after the
// session is released so screenshots can be taken meanwhile.
type Idle struct{ opts Options }

func (s *Idle) Name() string { return "Idle" }

func (s *Idle) Detect(ctx context.Context, sess session.Session) (engine.Action, error) {
	present, _, err := findConversationList(sess)
	if err != nil || !present {
		return nil, err
	}
	return func(context.Context, session.Session, storage.Queue) error { return nil }, nil
}

// Wait sleeps for IdleDelay or until ctx ends.
func (s *Idle) Wait(ctx context.Context) error {
	if s.opts.IdleDelay <= 0 {
		return nil
	}
	t := time.NewTimer(s.opts.IdleDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
	return nil
}

// findConversationList reports whether the inbox is showing. The returned
// element is the real thread list; it is nil when only the empty-inbox
// placeholder is shown.
func findConversationList(sess session.Session) (bool, session.Element, error) {
	list, err := sess.Find(selChats)
	if err == nil {
		return true, list, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return false, nil, fmt.Errorf("find chats list: %w", err)
	}
	spans, err := sess.FindAll(selEmptyListSpans)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("find empty list placeholder: %w", err)
	}
	for _, span := range spans {
		if text, err := span.Text(); err == nil && text == emptyListPlaceholder {
			return true, nil, nil
		}
	}
	return false, nil, nil
}

// findEach looks up every selector and fails on the first one missing.
func findEach(sess session.Session, sels ...session.Selector) ([]session.Element, error) {
	els := make([]session.Element, 0, len(sels))
	for _, sel := range sels {
		el, err := sess.Find(sel)
		if err != nil {
			return nil, fmt.Errorf("find %s: %w", sel, err)
		}
		els = append(els, el)
	}
	return els, nil
}

func navigate(sess session.Session, url string) error {
	if err := sess.Navigate(url); err != nil {
		return fmt.Errorf("navigate to %s: %w", url, err)
	}
	return nil
}
