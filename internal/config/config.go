package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port       int              `json:"port"`
	Database   DatabaseConfig   `json:"database"`
	Checkpoint CheckpointConfig `json:"checkpoint"`
	Cache      CacheConfig      `json:"cache"`
	AI         AIConfig         `json:"ai"`
	LogConfig  logger.LogConfig `json:"log_config"`
}

type DatabaseConfig struct {
	// Type selects the cache backend: "sqlite" (file db, default) or
	// "postgres" (pgvector embedding column).
	Type string `json:"type"`
	Path string `json:"path"`
	DSN  string `json:"dsn"`
}

type CheckpointConfig struct {
	Dir           string `json:"dir"`
	RetentionDays int    `json:"retention_days"`
	SweepCron     string `json:"sweep_cron"`
}

type CacheConfig struct {
	LRUSize       int `json:"lru_size"`
	LRUTTLSeconds int `json:"lru_ttl_seconds"`
}

type AIConfig struct {
	Provider   string      `json:"provider"`
	EmbedModel string      `json:"embed_model"`
	Data       interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 8090
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "sqlite"
	}
	switch cfg.Database.Type {
	case "sqlite":
		if cfg.Database.Path == "" {
			return nil, fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if cfg.Database.DSN == "" {
			return nil, fmt.Errorf("database.dsn is required for postgres")
		}
	default:
		return nil, fmt.Errorf("database.type must be sqlite or postgres")
	}
	if cfg.Checkpoint.Dir == "" {
		return nil, fmt.Errorf("checkpoint.dir is required")
	}
	if cfg.Checkpoint.RetentionDays <= 0 {
		cfg.Checkpoint.RetentionDays = 30
	}
	if cfg.Checkpoint.SweepCron == "" {
		cfg.Checkpoint.SweepCron = "30 3 * * *"
	}
	if cfg.Cache.LRUSize < 0 {
		return nil, fmt.Errorf("cache.lru_size must not be negative")
	}
	if cfg.Cache.LRUSize == 0 {
		cfg.Cache.LRUSize = 4096
	}
	if cfg.Cache.LRUTTLSeconds <= 0 {
		cfg.Cache.LRUTTLSeconds = 3600
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	return &cfg, nil
}
