package checkpoint_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
)

func TestSaveAndLoadChunk(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InitializeSession(ctx, "issue_batch", "job-1", 5)
	require.NoError(t, err)

	payload := json.RawMessage(`{"classified":["bug","battery"]}`)
	require.NoError(t, store.SaveChunk(ctx, "issue_batch", "job-1", 0, payload))

	record, err := store.LoadChunk(ctx, "issue_batch", "job-1", 0)
	require.NoError(t, err)
	require.Equal(t, 0, record.ChunkID)
	require.Equal(t, "job-1", record.SessionID)
	require.JSONEq(t, string(payload), string(record.Payload))
	require.NotZero(t, record.WrittenAt)
}

func TestLoadChunkAbsent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LoadChunk(ctx, "issue_batch", "job-1", 7)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	require.ErrorIs(t, store.SaveChunk(ctx, "issue_batch", "job-1", -1, json.RawMessage(`{}`)), appErr.ErrInvalid)
}

func TestSequentialChunksResumeAtCount(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InitializeSession(ctx, "issue_batch", "job-1", 10)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveChunk(ctx, "issue_batch", "job-1", i, json.RawMessage(fmt.Sprintf(`{"i":%d}`, i))))
	}

	data, err := store.GetResumeData(ctx, "issue_batch", "job-1")
	require.NoError(t, err)
	require.Equal(t, 5, data.NextChunkID)
	require.Equal(t, []int{0, 1, 2, 3, 4}, data.CompletedChunks)
}

func TestChunkGapResumesAtGap(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InitializeSession(ctx, "issue_batch", "job-1", 10)
	require.NoError(t, err)
	for _, id := range []int{0, 1, 3} {
		require.NoError(t, store.SaveChunk(ctx, "issue_batch", "job-1", id, json.RawMessage(`{}`)))
	}

	chunks, err := store.ListCompletedChunks(ctx, "issue_batch", "job-1")
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	// contiguous-run semantics: the gap at 2 is the resume point, even
	// though chunk 3 is already on disk
	data, err := store.GetResumeData(ctx, "issue_batch", "job-1")
	require.NoError(t, err)
	require.Equal(t, 2, data.NextChunkID)
	require.Equal(t, []int{0, 1, 3}, data.CompletedChunks)
}

func TestCorruptChunkSkippedNotFatal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InitializeSession(ctx, "issue_batch", "job-1", 10)
	require.NoError(t, err)
	for _, id := range []int{0, 1, 2} {
		require.NoError(t, store.SaveChunk(ctx, "issue_batch", "job-1", id, json.RawMessage(`{}`)))
	}
	chunkPath := filepath.Join(store.Root(), "issue_batch", "job-1", "chunks", "chunk_1.json")
	require.NoError(t, os.WriteFile(chunkPath, []byte("garbage"), 0o644))

	chunks, err := store.ListCompletedChunks(ctx, "issue_batch", "job-1")
	require.NoError(t, err)
	require.Len(t, chunks, 2, "corrupt chunk reads as absent")

	_, err = store.LoadChunk(ctx, "issue_batch", "job-1", 1)
	require.ErrorIs(t, err, appErr.ErrNotFound)

	// the corrupt chunk opens a gap, so resume reprocesses it
	data, err := store.GetResumeData(ctx, "issue_batch", "job-1")
	require.NoError(t, err)
	require.Equal(t, 1, data.NextChunkID)
}

func TestChunkOverwriteIsExplicitReprocess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InitializeSession(ctx, "issue_batch", "job-1", 5)
	require.NoError(t, err)
	require.NoError(t, store.SaveChunk(ctx, "issue_batch", "job-1", 0, json.RawMessage(`{"v":1}`)))
	require.NoError(t, store.SaveChunk(ctx, "issue_batch", "job-1", 0, json.RawMessage(`{"v":2}`)))

	record, err := store.LoadChunk(ctx, "issue_batch", "job-1", 0)
	require.NoError(t, err)
	require.JSONEq(t, `{"v":2}`, string(record.Payload))
}

func TestNoTempFilesLeftBehind(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.InitializeSession(ctx, "issue_batch", "job-1", 5)
	require.NoError(t, err)
	require.NoError(t, store.SaveChunk(ctx, "issue_batch", "job-1", 0, json.RawMessage(`{}`)))

	entries, err := os.ReadDir(filepath.Join(store.Root(), "issue_batch", "job-1", "chunks"))
	require.NoError(t, err)
	for _, entry := range entries {
		require.False(t, strings.HasPrefix(entry.Name(), ".tmp-"), "temp file %s leaked", entry.Name())
	}
}
