package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/issuekit/ragvault/internal/model"
)

// CacheRepo persists the content-addressed embedding cache. Save is an
// idempotent upsert on (text_hash, model_name); Get returns ErrNotFound
// for a missing key; GetBatch resolves many hashes in one query and
// simply omits the ones with no match.
type CacheRepo interface {
	Save(ctx context.Context, entry *model.CacheEntry) error
	Get(ctx context.Context, textHash, modelName string) (*model.CacheEntry, error)
	GetBatch(ctx context.Context, textHashes []string, modelName string) (map[string]*model.CacheEntry, error)
	Stats(ctx context.Context) (*model.CacheStats, error)
}

func NewCacheRepo(db *sqlx.DB, dbType string) (CacheRepo, error) {
	switch dbType {
	case "sqlite":
		return NewSqliteCacheRepo(db), nil
	case "postgres":
		return NewPostgresCacheRepo(db), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}
}
