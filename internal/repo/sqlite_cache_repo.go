package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"

	"github.com/issuekit/ragvault/internal/model"
	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
)

// SqliteCacheRepo stores embeddings as JSON text in a sqlite file db.
type SqliteCacheRepo struct {
	db *sqlx.DB
}

func NewSqliteCacheRepo(db *sqlx.DB) *SqliteCacheRepo {
	return &SqliteCacheRepo{db: db}
}

func (r *SqliteCacheRepo) Save(ctx context.Context, entry *model.CacheEntry) error {
	embeddingJSON, err := json.Marshal(entry.Embedding)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO embedding_cache (text_hash, text_content, embedding, model_name, ctime)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (text_hash, model_name) DO UPDATE SET
			text_content = excluded.text_content,
			embedding = excluded.embedding,
			ctime = excluded.ctime
	`
	_, err = r.db.ExecContext(ctx, query,
		entry.TextHash,
		entry.TextContent,
		string(embeddingJSON),
		entry.ModelName,
		entry.Ctime,
	)
	return err
}

func (r *SqliteCacheRepo) Get(ctx context.Context, textHash, modelName string) (*model.CacheEntry, error) {
	where := map[string]interface{}{
		"text_hash":  textHash,
		"model_name": modelName,
	}
	sqlStr, args, err := builder.BuildSelect("embedding_cache", where,
		[]string{"id", "text_hash", "text_content", "embedding", "model_name", "ctime"})
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	entry, err := scanSqliteEntry(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *SqliteCacheRepo) GetBatch(ctx context.Context, textHashes []string, modelName string) (map[string]*model.CacheEntry, error) {
	result := make(map[string]*model.CacheEntry)
	if len(textHashes) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(`
		SELECT id, text_hash, text_content, embedding, model_name, ctime
		FROM embedding_cache
		WHERE model_name = ? AND text_hash IN (?)
	`, modelName, textHashes)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		entry, err := scanSqliteEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		result[entry.TextHash] = entry
	}
	return result, rows.Err()
}

func (r *SqliteCacheRepo) Stats(ctx context.Context) (*model.CacheStats, error) {
	return queryCacheStats(ctx, r.db)
}

func scanSqliteEntry(scan func(dest ...interface{}) error) (*model.CacheEntry, error) {
	var entry model.CacheEntry
	var embeddingJSON string
	if err := scan(
		&entry.ID,
		&entry.TextHash,
		&entry.TextContent,
		&embeddingJSON,
		&entry.ModelName,
		&entry.Ctime,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(embeddingJSON), &entry.Embedding); err != nil {
		return nil, err
	}
	return &entry, nil
}

func queryCacheStats(ctx context.Context, db *sqlx.DB) (*model.CacheStats, error) {
	const query = `SELECT model_name, COUNT(1) FROM embedding_cache GROUP BY model_name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	stats := &model.CacheStats{ByModel: make(map[string]int64)}
	for rows.Next() {
		var modelName string
		var count int64
		if err := rows.Scan(&modelName, &count); err != nil {
			return nil, err
		}
		stats.ByModel[modelName] = count
		stats.TotalEntries += count
	}
	return stats, rows.Err()
}
