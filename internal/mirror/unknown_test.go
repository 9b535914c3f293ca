package mirror

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/engine"
	"github.com/cristianoliveira/messenger-mirror/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func enterUnknown(t *testing.T, u *Unknown, sess session.Session) error {
	t.Helper()
	action, err := u.Detect(context.Background(), sess)
	require.NoError(t, err)
	require.NotNil(t, action)
	return action(context.Background(), sess, &memQueue{})
}

func TestUnknownTripsWithinCooldown(t *testing.T) {
	clock := newClock()
	opts := testOptions(t, clock)
	sess := new(session.MockSession)
	sess.On("Screenshot", mock.Anything).Return(nil)
	sess.On("Navigate", baseURL).Return(nil)
	u := NewUnknown(opts)

	require.NoError(t, enterUnknown(t, u, sess))
	assert.Equal(t, clock.now, u.LastEntry())

	clock.now = clock.now.Add(4*time.Minute + 59*time.Second)
	err := enterUnknown(t, u, sess)
	require.ErrorIs(t, err, ErrBrokenState)
	require.ErrorIs(t, err, engine.ErrFatal)
	sess.AssertNumberOfCalls(t, "Navigate", 1)
	sess.AssertNumberOfCalls(t, "Screenshot", 2)
}

func TestUnknownRecoversAfterCooldown(t *testing.T) {
	clock := newClock()
	opts := testOptions(t, clock)
	sess := new(session.MockSession)
	sess.On("Screenshot", mock.Anything).Return(nil)
	sess.On("Navigate", baseURL).Return(nil)
	u := NewUnknown(opts)

	require.NoError(t, enterUnknown(t, u, sess))
	clock.now = clock.now.Add(5 * time.Minute)
	require.NoError(t, enterUnknown(t, u, sess))
	clock.now = clock.now.Add(6 * time.Minute)
	require.NoError(t, enterUnknown(t, u, sess))

	sess.AssertNumberOfCalls(t, "Navigate", 3)
}

func TestUnknownScreenshotName(t *testing.T) {
	clock := newClock()
	opts := testOptions(t, clock)
	want := filepath.Join(opts.ScreenshotDir, "unknown_2024-05-01-13-04-59.png")
	sess := new(session.MockSession)
	sess.On("Screenshot", want).Return(nil)
	sess.On("Navigate", baseURL).Return(nil)

	require.NoError(t, enterUnknown(t, NewUnknown(opts), sess))
	sess.AssertExpectations(t)
}

func TestUnknownDebugWaitsForOperator(t *testing.T) {
	clock := newClock()
	opts := testOptions(t, clock)
	opts.Debug = true
	opts.Stdin = strings.NewReader("\n\n")
	sess := new(session.MockSession)
	sess.On("Screenshot", mock.Anything).Return(nil)
	u := NewUnknown(opts)

	for i := 0; i < 2; i++ {
		require.NoError(t, enterUnknown(t, u, sess))
		require.NoError(t, u.Wait(context.Background()))
		clock.now = clock.now.Add(time.Second)
	}

	sess.AssertNotCalled(t, "Navigate", mock.Anything)
	sess.AssertNumberOfCalls(t, "Screenshot", 2)
}

func TestUnknownDebugActionDoesNotReadStdin(t *testing.T) {
	opts := testOptions(t, newClock())
	opts.Debug = true
	opts.Stdin = blockingReader{}
	sess := new(session.MockSession)
	sess.On("Screenshot", mock.Anything).Return(nil)

	action, err := NewUnknown(opts).Detect(context.Background(), sess)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- action(context.Background(), sess, &memQueue{}) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("debug action blocked on stdin")
	}
}

func TestUnknownDebugStopsWaitingOnCancel(t *testing.T) {
	opts := testOptions(t, newClock())
	opts.Debug = true
	opts.Stdin = blockingReader{}
	sess := new(session.MockSession)
	sess.On("Screenshot", mock.Anything).Return(nil)
	u := NewUnknown(opts)
	require.NoError(t, enterUnknown(t, u, sess))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, u.Wait(ctx))
}

func TestUnknownWaitIsNoopOutsideDebug(t *testing.T) {
	opts := testOptions(t, newClock())
	opts.Stdin = blockingReader{}
	sess := new(session.MockSession)
	sess.On("Screenshot", mock.Anything).Return(nil)
	sess.On("Navigate", baseURL).Return(nil)
	u := NewUnknown(opts)

	require.NoError(t, enterUnknown(t, u, sess))
	require.NoError(t, u.Wait(context.Background()))
}

func TestUnknownDebugWithClosedStdinTripsBreaker(t *testing.T) {
	clock := newClock()
	opts := testOptions(t, clock)
	opts.Debug = true
	opts.Stdin = strings.NewReader("")
	sess := new(session.MockSession)
	sess.On("Screenshot", mock.Anything).Return(nil)
	sess.On("Navigate", baseURL).Return(nil)
	u := NewUnknown(opts)

	require.NoError(t, enterUnknown(t, u, sess))
	require.NoError(t, u.Wait(context.Background()))
	sess.AssertNotCalled(t, "Navigate", mock.Anything)

	clock.now = clock.now.Add(time.Second)
	require.NoError(t, enterUnknown(t, u, sess))
	require.NoError(t, u.Wait(context.Background()))
	sess.AssertNumberOfCalls(t, "Navigate", 1)

	clock.now = clock.now.Add(time.Minute)
	err := enterUnknown(t, u, sess)
	require.ErrorIs(t, err, ErrBrokenState)
	sess.AssertNumberOfCalls(t, "Screenshot", 3)
}

// blockingReader never returns.
type blockingReader struct{}

func (blockingReader) Read(p []byte) (int, error) {
	select {}
}
