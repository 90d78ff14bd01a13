package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/issuekit/ragvault/internal/ai"
	"github.com/issuekit/ragvault/internal/cache"
	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
	"github.com/issuekit/ragvault/internal/pkg/response"
)

type CacheHandler struct {
	store    *cache.Store
	embedder ai.IEmbedder
}

// NewCacheHandler exposes the content-addressed cache. embedder may be nil
// when no backend is configured; /embed then reports unavailable while the
// pure cache operations keep working.
func NewCacheHandler(store *cache.Store, embedder ai.IEmbedder) *CacheHandler {
	return &CacheHandler{store: store, embedder: embedder}
}

type putEntryRequest struct {
	Text      string    `json:"text"`
	Model     string    `json:"model"`
	Embedding []float32 `json:"embedding"`
}

func (h *CacheHandler) Put(c *gin.Context) {
	var req putEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, appErr.ErrInvalid)
		return
	}
	if req.Text == "" || req.Model == "" || len(req.Embedding) == 0 {
		handleError(c, appErr.ErrInvalid)
		return
	}
	if err := h.store.Put(c.Request.Context(), req.Text, req.Embedding, req.Model); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"text_hash": cache.Key(req.Text)})
}

func (h *CacheHandler) Get(c *gin.Context) {
	text := c.Query("text")
	modelName := c.Query("model")
	if text == "" || modelName == "" {
		handleError(c, appErr.ErrInvalid)
		return
	}
	values, ok, err := h.store.Get(c.Request.Context(), text, modelName)
	if err != nil {
		handleError(c, err)
		return
	}
	if !ok {
		handleError(c, appErr.ErrNotFound)
		return
	}
	response.Success(c, gin.H{
		"text_hash": cache.Key(text),
		"model":     modelName,
		"embedding": values,
	})
}

type batchRequest struct {
	Texts []string `json:"texts"`
	Model string   `json:"model"`
}

func (h *CacheHandler) Batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, appErr.ErrInvalid)
		return
	}
	if len(req.Texts) == 0 || req.Model == "" {
		handleError(c, appErr.ErrInvalid)
		return
	}
	entries, err := h.store.GetBatch(c.Request.Context(), req.Texts, req.Model)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"entries": entries})
}

type embedRequest struct {
	Text string `json:"text"`
}

func (h *CacheHandler) Embed(c *gin.Context) {
	var req embedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		handleError(c, appErr.ErrInvalid)
		return
	}
	if h.embedder == nil {
		response.Error(c, http.StatusServiceUnavailable, "embedding backend not configured")
		return
	}
	_, cached, err := h.store.Get(c.Request.Context(), req.Text, h.embedder.ModelName())
	if err != nil {
		handleError(c, err)
		return
	}
	values, err := h.embedder.Embed(c.Request.Context(), req.Text)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"model":     h.embedder.ModelName(),
		"embedding": values,
		"cached":    cached,
	})
}
