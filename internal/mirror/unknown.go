package mirror

import (
	"bufio"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/engine"
	"github.com/cristianoliveira/messenger-mirror/internal/session"
	"github.com/cristianoliveira/messenger-mirror/internal/storage"
)

// ErrBrokenState is returned when Unknown is entered twice within the cooldown.
var ErrBrokenState = fmt.Errorf("persistent unknown state: %w", engine.ErrFatal)

// screenshotTimeFormat names unknown-state screenshots, e.g. unknown_2024-05-01-13-04-59.
const screenshotTimeFormat = "2006-01-02-15-04-05"

// Unknown always matches. It is the circuit breaker: the first entry reloads
// the inbox, a second entry within the cooldown stops the watcher.
//
// In debug mode it pauses for the operator instead. Once stdin is closed
// there is no operator and the breaker applies again.
type Unknown struct {
	opts      Options
	lastEntry time.Time

	paused       bool
	operatorGone bool
	readerOnce   sync.Once
	lines        chan struct{}
}

// NewUnknown returns the fallback state.
func NewUnknown(opts Options) *Unknown {
	return &Unknown{opts: opts}
}

func (s *Unknown) Name() string { return "Unknown" }

func (s *Unknown) Detect(ctx context.Context, sess session.Session) (engine.Action, error) {
	return s.enter, nil
}

// LastEntry returns the time of the last recovery, or the zero time.
func (s *Unknown) LastEntry() time.Time {
	return s.lastEntry
}

func (s *Unknown) enter(ctx context.Context, sess session.Session, _ storage.Queue) error {
	now := s.opts.Clock()
	name := "unknown_" + now.Format(screenshotTimeFormat)
	if path, err := SaveScreenshot(sess, s.opts.ScreenshotDir, name); err != nil {
		s.opts.Logger.Warn("unknown state screenshot failed", "err", err)
	} else {
		s.opts.Logger.Info("unknown state screenshot saved", "path", path)
	}

	if s.opts.Debug && !s.operatorGone {
		s.opts.Logger.Warn("unknown state, press Enter to continue")
		s.paused = true
		return nil
	}

	if !s.lastEntry.IsZero() && now.Sub(s.lastEntry) < s.opts.UnknownCooldown {
		s.opts.Logger.Error("unknown state twice within cooldown, stopping",
			"cooldown", s.opts.UnknownCooldown,
			"since_last", now.Sub(s.lastEntry))
		return fmt.Errorf("%w: re-entered after %s", ErrBrokenState, now.Sub(s.lastEntry).Round(time.Second))
	}

	s.opts.Logger.Warn("unknown state, restarting from the inbox")
	s.lastEntry = now
	return navigate(sess, s.opts.BaseURL)
}

// Wait blocks for the operator after a debug-mode entry, until a line is
// read from stdin or ctx ends.
func (s *Unknown) Wait(ctx context.Context) error {
	if !s.paused {
		return nil
	}
	s.paused = false

	select {
	case <-ctx.Done():
	case _, ok := <-s.operatorLines():
		if !ok {
			s.operatorGone = true
			s.opts.Logger.Warn("stdin closed, no operator to wait for; circuit breaker enabled")
		}
	}
	return nil
}

// operatorLines starts a single stdin reader shared by every pause. The
// channel is closed when stdin reaches EOF or fails.
func (s *Unknown) operatorLines() <-chan struct{} {
	s.readerOnce.Do(func() {
		s.lines = make(chan struct{})
		go func() {
			defer close(s.lines)
			r := bufio.NewReader(s.opts.Stdin)
			for {
				if _, err := r.ReadString('\n'); err != nil {
					return
				}
				s.lines <- struct{}{}
			}
		}()
	})
	return s.lines
}
