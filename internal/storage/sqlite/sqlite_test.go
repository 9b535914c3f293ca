package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cristianoliveira/messenger-mirror/internal/config"
	"github.com/cristianoliveira/messenger-mirror/internal/notification"
	"github.com/cristianoliveira/messenger-mirror/internal/storage/sqlstore"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "queue.db")
	s, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s, dbPath
}

func note(id, name, preview string) notification.Notification {
	return notification.Notification{
		ConversationID: id,
		DisplayName:    name,
		PreviewText:    preview,
		Link:           notification.ConversationLink("https://www.messenger.com", id),
		DetectedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func previews(entries []notification.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.PreviewText)
	}
	return out
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open(context.Background(), " ")
	require.Error(t, err)
}

func TestOpenCreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "state", "queue.db")
	s, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer s.Close()

	require.Equal(t, dbPath, s.Path())
	info, err := os.Stat(filepath.Dir(dbPath))
	require.NoError(t, err)
	require.Equal(t, config.FileModeDir, info.Mode().Perm())
}

func TestEnqueueDrainCommit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	empty, err := s.IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)

	n := note("100", "Alice", "hi")
	n.Avatar = []byte{0x89, 'P', 'N', 'G'}
	require.NoError(t, s.Enqueue(ctx, n))
	require.NoError(t, s.Enqueue(ctx, note("200", "Bob", "yo")))

	entries, err := s.DrainAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "100", entries[0].ConversationID)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, entries[0].Avatar)
	require.Equal(t, n.DetectedAt, entries[0].DetectedAt)
	require.Equal(t, "https://www.messenger.com/t/100/", entries[0].Link)
	require.Nil(t, entries[1].Avatar)
	require.Less(t, entries[0].Seq, entries[1].Seq)

	require.NoError(t, s.Commit(ctx))
	empty, err = s.IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)
}

func TestEnqueueRejectsInvalidNotification(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.Enqueue(context.Background(), notification.Notification{DisplayName: "nobody"})
	require.ErrorIs(t, err, notification.ErrInvalidNotification)
}

func TestUncommittedDrainIsReturnedAgain(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.Enqueue(ctx, note("100", "Alice", "hi")))

	first, err := s.DrainAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"hi"}, previews(first))

	second, err := s.DrainAll(ctx)
	require.NoError(t, err)
	require.Equal(t, previews(first), previews(second))
	require.Equal(t, first[0].Seq, second[0].Seq)
}

func TestCrashBetweenDrainAndCommitSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "queue.db")

	s, err := Open(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Enqueue(ctx, note("100", "Alice", "hi")))
	require.NoError(t, s.Enqueue(ctx, note("100", "Alice", "call me")))
	drained, err := s.DrainAll(ctx)
	require.NoError(t, err)
	require.Len(t, drained, 2)
	// Process dies here: no Commit.
	require.NoError(t, s.Close())

	reopened, err := Open(ctx, dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	// Commit on a fresh store has no drain to acknowledge.
	require.NoError(t, reopened.Commit(ctx))

	again, err := reopened.DrainAll(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"hi", "call me"}, previews(again))

	require.NoError(t, reopened.Commit(ctx))
	empty, err := reopened.IsEmpty(ctx)
	require.NoError(t, err)
	require.True(t, empty)
}

func TestCommitLeavesRowsEnqueuedAfterDrain(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.Enqueue(ctx, note("100", "Alice", "hi")))

	_, err := s.DrainAll(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Enqueue(ctx, note("200", "Bob", "late")))
	require.NoError(t, s.Commit(ctx))

	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"late"}, previews(pending))
}

func TestCommitTwiceIsNoop(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	require.NoError(t, s.Enqueue(ctx, note("100", "Alice", "hi")))
	_, err := s.DrainAll(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx))

	require.NoError(t, s.Enqueue(ctx, note("200", "Bob", "yo")))
	require.NoError(t, s.Commit(ctx))

	empty, err := s.IsEmpty(ctx)
	require.NoError(t, err)
	require.False(t, empty)
}

func TestPendingDoesNotClaim(t *testing.T) {
	ctx := context.Background()
	n := 0
	dbPath := filepath.Join(t.TempDir(), "queue.db")
	s, err := Open(ctx, dbPath, sqlstore.WithTokenSource(func() string {
		n++
		return fmt.Sprintf("token-%d", n)
	}))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Enqueue(ctx, note("100", "Alice", "hi")))
	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, 0, n)

	// Commit without a drain must not delete the pending row.
	require.NoError(t, s.Commit(ctx))
	pending, err = s.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestEnqueueStampsMissingDetectionTime(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s, err := Open(ctx, filepath.Join(t.TempDir(), "queue.db"), sqlstore.WithClock(func() time.Time { return fixed }))
	require.NoError(t, err)
	defer s.Close()

	n := note("100", "Alice", "hi")
	n.DetectedAt = time.Time{}
	require.NoError(t, s.Enqueue(ctx, n))

	pending, err := s.Pending(ctx)
	require.NoError(t, err)
	require.Equal(t, fixed, pending[0].DetectedAt)
}
