package checkpoint_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/issuekit/ragvault/internal/checkpoint"
	"github.com/issuekit/ragvault/internal/model"
)

// backdate rewrites a session's start_time so retention tests don't wait.
func backdate(t *testing.T, store *checkpoint.Store, jobType, sessionID string, days int) {
	t.Helper()
	statePath := filepath.Join(store.Root(), jobType, sessionID, "state.json")
	data, err := os.ReadFile(statePath)
	require.NoError(t, err)
	var session model.Session
	require.NoError(t, json.Unmarshal(data, &session))
	session.StartTime = time.Now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
	data, err = json.Marshal(&session)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(statePath, data, 0o644))
}

func TestSweepRemovesOldNonActiveSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InitializeSession(ctx, "issue_batch", "old-done", 1)
	require.NoError(t, err)
	require.NoError(t, store.CompleteSession(ctx, "issue_batch", "old-done"))
	backdate(t, store, "issue_batch", "old-done", 40)

	_, err = store.InitializeSession(ctx, "issue_batch", "old-paused", 1)
	require.NoError(t, err)
	require.NoError(t, store.PauseSession(ctx, "issue_batch", "old-paused"))
	backdate(t, store, "issue_batch", "old-paused", 40)

	_, err = store.InitializeSession(ctx, "issue_batch", "young-done", 1)
	require.NoError(t, err)
	require.NoError(t, store.CompleteSession(ctx, "issue_batch", "young-done"))

	report, err := store.CleanupOldCache(ctx, 30)
	require.NoError(t, err)
	require.Equal(t, 3, report.Scanned)
	require.Equal(t, 2, report.Removed)

	_, err = os.Stat(filepath.Join(store.Root(), "issue_batch", "old-done"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(store.Root(), "issue_batch", "old-paused"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(store.Root(), "issue_batch", "young-done"))
	require.NoError(t, err, "sessions inside the retention window are kept")
}

func TestSweepNeverRemovesActiveSessions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InitializeSession(ctx, "issue_batch", "ancient-active", 1)
	require.NoError(t, err)
	backdate(t, store, "issue_batch", "ancient-active", 365)

	report, err := store.CleanupOldCache(ctx, 30)
	require.NoError(t, err)
	require.Equal(t, 0, report.Removed)
	require.Equal(t, 1, report.SkippedActive)

	_, err = os.Stat(filepath.Join(store.Root(), "issue_batch", "ancient-active"))
	require.NoError(t, err, "an active session must survive any age")
}

func TestSweepRemovesCorruptDirsRegardlessOfAge(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	dir := filepath.Join(store.Root(), "issue_batch", "broken")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte("{nope"), 0o644))

	noStateDir := filepath.Join(store.Root(), "issue_batch", "empty")
	require.NoError(t, os.MkdirAll(noStateDir, 0o755))

	report, err := store.CleanupOldCache(ctx, 30)
	require.NoError(t, err)
	require.Equal(t, 2, report.Corrupt)

	_, err = os.Stat(dir)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(noStateDir)
	require.True(t, os.IsNotExist(err))
}

func TestSessionStatsCountsAndSize(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InitializeSession(ctx, "issue_batch", "a", 1)
	require.NoError(t, err)
	_, err = store.InitializeSession(ctx, "issue_batch", "b", 1)
	require.NoError(t, err)
	require.NoError(t, store.CompleteSession(ctx, "issue_batch", "b"))
	_, err = store.InitializeSession(ctx, "export_batch", "c", 1)
	require.NoError(t, err)
	require.NoError(t, store.FailSession(ctx, "export_batch", "c", nil))
	require.NoError(t, store.SaveChunk(ctx, "issue_batch", "a", 0, json.RawMessage(`{"x":"y"}`)))

	stats, err := store.SessionStats(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalSessions)
	require.Equal(t, 1, stats.ByStatus[model.SessionStatusActive])
	require.Equal(t, 1, stats.ByStatus[model.SessionStatusCompleted])
	require.Equal(t, 1, stats.ByStatus[model.SessionStatusFailed])
	require.Greater(t, stats.DiskBytes, int64(0))
}
