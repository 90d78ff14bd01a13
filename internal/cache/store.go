package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/issuekit/ragvault/internal/model"
	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
	"github.com/issuekit/ragvault/internal/repo"
)

// Key derives the content address of a text. The digest covers the exact
// bytes: whitespace or case differences produce distinct keys on purpose.
// The full cache identity is (Key(text), modelName).
func Key(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}

// BatchEntry is one resolved entry of a batch lookup, keyed by content hash.
type BatchEntry struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// Store is the content-addressed embedding cache: a sha256+model keyed
// db table with an optional expiring LRU in front of it. Safe for
// concurrent use.
type Store struct {
	repo repo.CacheRepo
	lru  *expirable.LRU[string, []float32]
}

func NewStore(cacheRepo repo.CacheRepo, lruSize int, lruTTL time.Duration) *Store {
	s := &Store{repo: cacheRepo}
	if lruSize > 0 && lruTTL > 0 {
		s.lru = expirable.NewLRU[string, []float32](lruSize, nil, lruTTL)
	}
	return s
}

// Put upserts an embedding; last write wins for concurrent writers on the
// same key.
func (s *Store) Put(ctx context.Context, text string, embedding []float32, modelName string) error {
	hash := Key(text)
	err := s.repo.Save(ctx, &model.CacheEntry{
		TextHash:    hash,
		TextContent: text,
		Embedding:   embedding,
		ModelName:   modelName,
		Ctime:       time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	if s.lru != nil {
		s.lru.Add(lruKey(hash, modelName), cloneEmbedding(embedding))
	}
	return nil
}

// Get returns the cached embedding for the exact text/model pair, or
// ok=false when absent. Errors are I/O failures only, never a miss.
func (s *Store) Get(ctx context.Context, text string, modelName string) ([]float32, bool, error) {
	hash := Key(text)
	if s.lru != nil {
		if cached, ok := s.lru.Get(lruKey(hash, modelName)); ok {
			return cloneEmbedding(cached), true, nil
		}
	}
	entry, err := s.repo.Get(ctx, hash, modelName)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if s.lru != nil {
		s.lru.Add(lruKey(hash, modelName), cloneEmbedding(entry.Embedding))
	}
	return entry.Embedding, true, nil
}

// GetBatch resolves many texts in one set-oriented query. The result maps
// content hash to the stored text+embedding; texts with no cached entry
// are simply omitted so the caller can compute exactly the missing subset.
func (s *Store) GetBatch(ctx context.Context, texts []string, modelName string) (map[string]BatchEntry, error) {
	hashes := make([]string, 0, len(texts))
	seen := make(map[string]struct{}, len(texts))
	for _, text := range texts {
		hash := Key(text)
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}
		hashes = append(hashes, hash)
	}
	entries, err := s.repo.GetBatch(ctx, hashes, modelName)
	if err != nil {
		return nil, err
	}
	result := make(map[string]BatchEntry, len(entries))
	for hash, entry := range entries {
		result[hash] = BatchEntry{Text: entry.TextContent, Embedding: entry.Embedding}
		if s.lru != nil {
			s.lru.Add(lruKey(hash, modelName), cloneEmbedding(entry.Embedding))
		}
	}
	return result, nil
}

func (s *Store) Stats(ctx context.Context) (*model.CacheStats, error) {
	return s.repo.Stats(ctx)
}

func lruKey(hash, modelName string) string {
	return modelName + ":" + hash
}

func cloneEmbedding(values []float32) []float32 {
	if len(values) == 0 {
		return nil
	}
	clone := make([]float32, len(values))
	copy(clone, values)
	return clone
}
