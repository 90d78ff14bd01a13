package repo

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/issuekit/ragvault/internal/model"
	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
)

// PostgresCacheRepo stores embeddings in a pgvector column.
type PostgresCacheRepo struct {
	db *sqlx.DB
}

func NewPostgresCacheRepo(db *sqlx.DB) *PostgresCacheRepo {
	return &PostgresCacheRepo{db: db}
}

func (r *PostgresCacheRepo) Save(ctx context.Context, entry *model.CacheEntry) error {
	const query = `
		INSERT INTO embedding_cache (text_hash, text_content, embedding, model_name, ctime)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (text_hash, model_name) DO UPDATE SET
			text_content = EXCLUDED.text_content,
			embedding = EXCLUDED.embedding,
			ctime = EXCLUDED.ctime
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.TextHash,
		entry.TextContent,
		pgvector.NewVector(entry.Embedding),
		entry.ModelName,
		entry.Ctime,
	)
	return err
}

func (r *PostgresCacheRepo) Get(ctx context.Context, textHash, modelName string) (*model.CacheEntry, error) {
	const query = `
		SELECT id, text_hash, text_content, embedding, model_name, ctime
		FROM embedding_cache
		WHERE text_hash = $1 AND model_name = $2
	`
	row := r.db.QueryRowContext(ctx, query, textHash, modelName)
	entry, err := scanPostgresEntry(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *PostgresCacheRepo) GetBatch(ctx context.Context, textHashes []string, modelName string) (map[string]*model.CacheEntry, error) {
	result := make(map[string]*model.CacheEntry)
	if len(textHashes) == 0 {
		return result, nil
	}
	const query = `
		SELECT id, text_hash, text_content, embedding, model_name, ctime
		FROM embedding_cache
		WHERE model_name = $1 AND text_hash = ANY($2)
	`
	rows, err := r.db.QueryContext(ctx, query, modelName, pq.Array(textHashes))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		entry, err := scanPostgresEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		result[entry.TextHash] = entry
	}
	return result, rows.Err()
}

func (r *PostgresCacheRepo) Stats(ctx context.Context) (*model.CacheStats, error) {
	return queryCacheStats(ctx, r.db)
}

func scanPostgresEntry(scan func(dest ...interface{}) error) (*model.CacheEntry, error) {
	var entry model.CacheEntry
	var embedding pgvector.Vector
	if err := scan(
		&entry.ID,
		&entry.TextHash,
		&entry.TextContent,
		&embedding,
		&entry.ModelName,
		&entry.Ctime,
	); err != nil {
		return nil, err
	}
	entry.Embedding = embedding.Slice()
	return &entry, nil
}
