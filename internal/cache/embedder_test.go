package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/issuekit/ragvault/internal/cache"
)

type stubEmbedder struct {
	calls  int
	values []float32
	err    error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.values, nil
}

func (s *stubEmbedder) ModelName() string {
	return "modelA"
}

func TestWrapEmbedderCachesMisses(t *testing.T) {
	store := cache.NewStore(newCountingRepo(), 16, time.Minute)
	backend := &stubEmbedder{values: []float32{0.1, 0.2}}
	embedder := cache.WrapEmbedder(backend, store)
	ctx := context.Background()

	values, err := embedder.Embed(ctx, "battery drains fast")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2}, values)
	require.Equal(t, 1, backend.calls)

	values, err = embedder.Embed(ctx, "battery drains fast")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2}, values)
	require.Equal(t, 1, backend.calls, "second call must be served from cache")
}

func TestWrapEmbedderPropagatesBackendError(t *testing.T) {
	store := cache.NewStore(newCountingRepo(), 16, time.Minute)
	backend := &stubEmbedder{err: errors.New("backend down")}
	embedder := cache.WrapEmbedder(backend, store)

	_, err := embedder.Embed(context.Background(), "hello")
	require.Error(t, err)
}

func TestWrapEmbedderToleratesCacheWriteFailure(t *testing.T) {
	countRepo := newCountingRepo()
	countRepo.saveErr = errors.New("disk full")
	store := cache.NewStore(countRepo, 0, 0)
	backend := &stubEmbedder{values: []float32{0.3}}
	embedder := cache.WrapEmbedder(backend, store)

	values, err := embedder.Embed(context.Background(), "hello")
	require.NoError(t, err, "cache write failure must not fail the embed")
	require.Equal(t, []float32{0.3}, values)
}

func TestWrapEmbedderNilStorePassthrough(t *testing.T) {
	backend := &stubEmbedder{values: []float32{0.4}}
	require.Equal(t, backend, cache.WrapEmbedder(backend, nil))
}
