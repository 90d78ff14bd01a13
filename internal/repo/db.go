package repo

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/issuekit/ragvault/internal/config"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS embedding_cache (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text_hash TEXT NOT NULL,
	text_content TEXT NOT NULL,
	embedding TEXT NOT NULL,
	model_name TEXT NOT NULL,
	ctime BIGINT NOT NULL,
	UNIQUE (text_hash, model_name)
);
CREATE INDEX IF NOT EXISTS idx_embedding_cache_hash ON embedding_cache (text_hash);
CREATE INDEX IF NOT EXISTS idx_embedding_cache_model ON embedding_cache (model_name);
`

const postgresSchema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS embedding_cache (
	id BIGSERIAL PRIMARY KEY,
	text_hash TEXT NOT NULL,
	text_content TEXT NOT NULL,
	embedding vector NOT NULL,
	model_name TEXT NOT NULL,
	ctime BIGINT NOT NULL,
	UNIQUE (text_hash, model_name)
);
CREATE INDEX IF NOT EXISTS idx_embedding_cache_hash ON embedding_cache (text_hash);
CREATE INDEX IF NOT EXISTS idx_embedding_cache_model ON embedding_cache (model_name);
`

func Open(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	var db *sqlx.DB
	var err error
	switch cfg.Type {
	case "sqlite":
		db, err = sqlx.Open("sqlite", cfg.Path)
	case "postgres":
		db, err = sqlx.Open("postgres", cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func InitSchema(db *sqlx.DB, dbType string) error {
	schema := sqliteSchema
	if dbType == "postgres" {
		schema = postgresSchema
	}
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}
