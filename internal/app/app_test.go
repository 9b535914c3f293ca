package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/cristianoliveira/messenger-mirror/internal/debugserver"
	"github.com/cristianoliveira/messenger-mirror/internal/dispatch"
	"github.com/cristianoliveira/messenger-mirror/internal/engine"
	"github.com/cristianoliveira/messenger-mirror/internal/mirror"
	"github.com/cristianoliveira/messenger-mirror/internal/notification"
	"github.com/cristianoliveira/messenger-mirror/internal/session"
	"github.com/cristianoliveira/messenger-mirror/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type scriptedEngine struct {
	ticks   int
	stopAt  int
	cancel  context.CancelFunc
	failAt  int
	failErr error
}

func (e *scriptedEngine) Tick(ctx context.Context, sess session.Session, queue storage.Queue) (engine.Result, error) {
	e.ticks++
	if e.failAt > 0 && e.ticks == e.failAt {
		return engine.Result{State: "Unknown", Err: e.failErr}, e.failErr
	}
	if e.stopAt > 0 && e.ticks == e.stopAt {
		e.cancel()
	}
	return engine.Result{State: "Idle"}, nil
}

type countingScheduler struct{ ticks int }

func (s *countingScheduler) Tick(ctx context.Context) (bool, error) {
	s.ticks++
	return true, errors.New("delivery down")
}

type recordingNotifier struct {
	mu     sync.Mutex
	states []string
}

func (n *recordingNotifier) Notify(state string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.states = append(n.states, state)
	return nil
}

func TestWatchRunsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng := &scriptedEngine{stopAt: 3, cancel: cancel}
	sched := &countingScheduler{}
	notifier := &recordingNotifier{}

	err := NewWatchUseCase().Execute(ctx, WatchOptions{
		Engine:    eng,
		Guard:     session.NewGuard(new(session.MockSession)),
		Scheduler: sched,
		Notifier:  notifier,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, eng.ticks)
	assert.Equal(t, 3, sched.ticks, "flush failures do not stop the loop")
	require.NotEmpty(t, notifier.states)
	assert.Equal(t, daemon.SdNotifyReady, notifier.states[0])
	assert.Equal(t, daemon.SdNotifyStopping, notifier.states[len(notifier.states)-1])
	assert.Contains(t, notifier.states, daemon.SdNotifyWatchdog)
}

func TestWatchStopsOnFatalState(t *testing.T) {
	fatal := fmt.Errorf("state Unknown: %w", engine.ErrFatal)
	eng := &scriptedEngine{failAt: 2, failErr: fatal}
	sched := &countingScheduler{}

	err := NewWatchUseCase().Execute(context.Background(), WatchOptions{
		Engine:    eng,
		Guard:     session.NewGuard(new(session.MockSession)),
		Scheduler: sched,
		Notifier:  &recordingNotifier{},
	})

	require.ErrorIs(t, err, engine.ErrFatal)
	assert.Equal(t, 2, eng.ticks)
	assert.Equal(t, 1, sched.ticks)
}

func TestWatchPacesTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	eng := &scriptedEngine{stopAt: 3, cancel: cancel}

	start := time.Now()
	err := NewWatchUseCase().Execute(ctx, WatchOptions{
		Engine:    eng,
		Guard:     session.NewGuard(new(session.MockSession)),
		Scheduler: &countingScheduler{},
		TickDelay: 30 * time.Millisecond,
		Notifier:  &recordingNotifier{},
	})

	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestScreenshotServedDuringIdleWait(t *testing.T) {
	dir := t.TempDir()
	started := make(chan struct{})
	var once sync.Once

	list := new(session.MockElement)
	list.On("Find", mock.Anything).Return(nil, session.ErrNotFound)
	sess := new(session.MockSession)
	sess.On("Title").Return("Messenger", nil)
	sess.On("CurrentURL").Return("https://www.messenger.com/t/1000", nil).
		Run(func(mock.Arguments) { once.Do(func() { close(started) }) })
	sess.On("Find", session.ByCSS("[aria-label='Chats']")).Return(list, nil)
	sess.On("Find", mock.Anything).Return(nil, session.ErrNotFound)
	sess.On("Screenshot", filepath.Join(dir, "inbox.png")).Return(nil)

	guard := session.NewGuard(sess)
	eng := engine.New(mirror.States(mirror.Options{
		TargetUserID: "1000",
		IdleDelay:    3 * time.Second,
		Stdin:        strings.NewReader(""),
	})...)
	srv := httptest.NewServer(debugserver.New(guard, dir, nil).Handler())
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- NewWatchUseCase().Execute(ctx, WatchOptions{
			Engine:    eng,
			Guard:     guard,
			Scheduler: &countingScheduler{},
			Notifier:  &recordingNotifier{},
		})
	}()
	<-started

	client := &http.Client{Timeout: time.Second}
	resp, err := client.Post(srv.URL+"/screenshot/inbox", "text/plain", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	sess.AssertCalled(t, "Screenshot", filepath.Join(dir, "inbox.png"))

	cancel()
	require.NoError(t, <-done)
}

func TestWatchStopsOnFatalWait(t *testing.T) {
	fatal := fmt.Errorf("operator: %w", engine.ErrFatal)
	eng := &waitingEngine{err: fatal}

	err := NewWatchUseCase().Execute(context.Background(), WatchOptions{
		Engine:    eng,
		Guard:     session.NewGuard(new(session.MockSession)),
		Scheduler: &countingScheduler{},
		Notifier:  &recordingNotifier{},
	})

	require.ErrorIs(t, err, engine.ErrFatal)
	assert.Equal(t, 1, eng.waits)
}

// waitingEngine returns a wait with every tick.
type waitingEngine struct {
	waits int
	err   error
}

func (e *waitingEngine) Tick(ctx context.Context, sess session.Session, queue storage.Queue) (engine.Result, error) {
	return engine.Result{State: "Idle", Wait: func(context.Context) error {
		e.waits++
		return e.err
	}}, nil
}

func TestWatchRequiresCollaborators(t *testing.T) {
	require.Error(t, NewWatchUseCase().Execute(context.Background(), WatchOptions{}))
}

type stubFlusher struct {
	report dispatch.Report
	err    error
}

func (s stubFlusher) Flush(ctx context.Context) (dispatch.Report, error) { return s.report, s.err }

func TestFlushUseCase(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFlushUseCase(stubFlusher{}).Execute(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Queue is empty")

	buf.Reset()
	report := dispatch.Report{Drained: 3, Delivered: 2, Messages: 1, Committed: true}
	require.NoError(t, NewFlushUseCase(stubFlusher{report: report}).Execute(context.Background(), &buf))
	assert.Contains(t, buf.String(), "Delivered 2 notification(s) in 1 message(s)")

	err := NewFlushUseCase(stubFlusher{err: errors.New("smtp down")}).Execute(context.Background(), &buf)
	require.ErrorContains(t, err, "smtp down")

	assert.Panics(t, func() { NewFlushUseCase(nil) })
}

type stubLister []notification.Entry

func (s stubLister) Pending(ctx context.Context) ([]notification.Entry, error) { return s, nil }

func TestQueueListUseCase(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	u := NewQueueListUseCase(stubLister{{
		Seq: 7,
		Notification: notification.Notification{
			ConversationID: "48213",
			DisplayName:    "Alice",
			PreviewText:    "call me",
			DetectedAt:     now.Add(-2 * time.Hour),
		},
	}})
	u.now = func() time.Time { return now }

	var buf bytes.Buffer
	require.NoError(t, u.Execute(context.Background(), &buf))
	out := buf.String()
	assert.Contains(t, out, "48213")
	assert.Contains(t, out, "Alice")
	assert.Contains(t, out, "2 hours ago")
}

func TestScreenshotUseCaseAgainstDebugServer(t *testing.T) {
	dir := t.TempDir()
	sess := new(session.MockSession)
	sess.On("Screenshot", filepath.Join(dir, "inbox.png")).Return(nil)
	srv := httptest.NewServer(debugserver.New(session.NewGuard(sess), dir, nil).Handler())
	defer srv.Close()

	var buf bytes.Buffer
	require.NoError(t, NewScreenshotUseCase().Execute(context.Background(), strings.TrimPrefix(srv.URL, "http://"), "inbox", &buf))
	assert.Equal(t, "screenshot saved under inbox.png\n", buf.String())

	err := NewScreenshotUseCase().Execute(context.Background(), srv.URL, "../etc", &buf)
	require.Error(t, err)
}

func TestScreenshotUseCaseReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "screenshot failed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewScreenshotUseCase().Execute(context.Background(), srv.URL, "x", &bytes.Buffer{})
	require.ErrorContains(t, err, "screenshot failed")
}
