package repo_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/issuekit/ragvault/internal/config"
	"github.com/issuekit/ragvault/internal/model"
	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
	"github.com/issuekit/ragvault/internal/pkg/timeutil"
	"github.com/issuekit/ragvault/internal/repo"
)

func openTestRepo(t *testing.T) repo.CacheRepo {
	t.Helper()
	cfg := config.DatabaseConfig{Type: "sqlite", Path: filepath.Join(t.TempDir(), "cache.db")}
	db, err := repo.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repo.InitSchema(db, cfg.Type))
	cacheRepo, err := repo.NewCacheRepo(db, cfg.Type)
	require.NoError(t, err)
	return cacheRepo
}

func entry(hash, text, modelName string, embedding []float32) *model.CacheEntry {
	return &model.CacheEntry{
		TextHash:    hash,
		TextContent: text,
		Embedding:   embedding,
		ModelName:   modelName,
		Ctime:       timeutil.NowUnix(),
	}
}

func TestCacheRepoRoundTrip(t *testing.T) {
	cacheRepo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, cacheRepo.Save(ctx, entry("h1", "battery drains fast", "modelA", []float32{0.1, 0.2, 0.3})))

	got, err := cacheRepo.Get(ctx, "h1", "modelA")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, got.Embedding)
	require.Equal(t, "battery drains fast", got.TextContent)
}

func TestCacheRepoModelIsolation(t *testing.T) {
	cacheRepo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, cacheRepo.Save(ctx, entry("h1", "battery drains fast", "modelA", []float32{0.1})))

	_, err := cacheRepo.Get(ctx, "h1", "modelB")
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestCacheRepoUpsertOverwrites(t *testing.T) {
	cacheRepo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, cacheRepo.Save(ctx, entry("h1", "text", "modelA", []float32{0.1})))
	require.NoError(t, cacheRepo.Save(ctx, entry("h1", "text", "modelA", []float32{0.9, 0.8})))

	got, err := cacheRepo.Get(ctx, "h1", "modelA")
	require.NoError(t, err)
	require.Equal(t, []float32{0.9, 0.8}, got.Embedding)
}

func TestCacheRepoGetBatchOmitsMisses(t *testing.T) {
	cacheRepo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, cacheRepo.Save(ctx, entry("h1", "t1", "modelA", []float32{0.1})))
	require.NoError(t, cacheRepo.Save(ctx, entry("h2", "t2", "modelA", []float32{0.2})))
	require.NoError(t, cacheRepo.Save(ctx, entry("h3", "t3", "modelB", []float32{0.3})))

	got, err := cacheRepo.GetBatch(ctx, []string{"h1", "h2", "h3", "h4"}, "modelA")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Contains(t, got, "h1")
	require.Contains(t, got, "h2")

	empty, err := cacheRepo.GetBatch(ctx, nil, "modelA")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestCacheRepoStats(t *testing.T) {
	cacheRepo := openTestRepo(t)
	ctx := context.Background()

	require.NoError(t, cacheRepo.Save(ctx, entry("h1", "t1", "modelA", []float32{0.1})))
	require.NoError(t, cacheRepo.Save(ctx, entry("h2", "t2", "modelA", []float32{0.2})))
	require.NoError(t, cacheRepo.Save(ctx, entry("h3", "t3", "modelB", []float32{0.3})))

	stats, err := cacheRepo.Stats(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.TotalEntries)
	require.EqualValues(t, 2, stats.ByModel["modelA"])
	require.EqualValues(t, 1, stats.ByModel["modelB"])
}
