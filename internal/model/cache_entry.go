package model

// CacheEntry is one row of the content-addressed embedding cache.
// Identity is (TextHash, ModelName); the hash is computed over the exact
// bytes of TextContent with no normalization.
type CacheEntry struct {
	ID          int64     `json:"id" db:"id"`
	TextHash    string    `json:"text_hash" db:"text_hash"`
	TextContent string    `json:"text_content" db:"text_content"`
	Embedding   []float32 `json:"embedding" db:"-"`
	ModelName   string    `json:"model_name" db:"model_name"`
	Ctime       int64     `json:"ctime" db:"ctime"`
}

type CacheStats struct {
	TotalEntries int64            `json:"total_entries"`
	ByModel      map[string]int64 `json:"by_model"`
}
