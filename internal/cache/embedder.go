package cache

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/issuekit/ragvault/internal/ai"
)

// WrapEmbedder resolves embeddings through the store before calling the
// backend. A cache-write failure is non-fatal: the fresh embedding is
// still returned and the miss is recomputed next time.
func WrapEmbedder(next ai.IEmbedder, store *Store) ai.IEmbedder {
	if next == nil || store == nil {
		return next
	}
	return &cachedEmbedder{next: next, store: store}
}

type cachedEmbedder struct {
	next  ai.IEmbedder
	store *Store
}

func (c *cachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	values, ok, err := c.store.Get(ctx, text, c.next.ModelName())
	if err != nil {
		return nil, err
	}
	if ok {
		logutil.GetLogger(ctx).Debug("embedding cache hit", zap.String("model", c.next.ModelName()))
		return values, nil
	}
	res, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := c.store.Put(ctx, text, res, c.next.ModelName()); err != nil {
		logutil.GetLogger(ctx).Warn("failed to cache embedding", zap.Error(err))
	}
	return res, nil
}

func (c *cachedEmbedder) ModelName() string {
	return c.next.ModelName()
}
