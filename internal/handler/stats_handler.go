package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/issuekit/ragvault/internal/cache"
	"github.com/issuekit/ragvault/internal/checkpoint"
	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
	"github.com/issuekit/ragvault/internal/pkg/response"
)

type StatsHandler struct {
	cacheStore *cache.Store
	ckptStore  *checkpoint.Store
}

func NewStatsHandler(cacheStore *cache.Store, ckptStore *checkpoint.Store) *StatsHandler {
	return &StatsHandler{cacheStore: cacheStore, ckptStore: ckptStore}
}

func (h *StatsHandler) Stats(c *gin.Context) {
	cacheStats, err := h.cacheStore.Stats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	sessionStats, err := h.ckptStore.SessionStats(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"cache":    cacheStats,
		"sessions": sessionStats,
	})
}

type sweepRequest struct {
	MaxAgeDays int `json:"max_age_days"`
}

func (h *StatsHandler) Sweep(c *gin.Context) {
	var req sweepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, appErr.ErrInvalid)
		return
	}
	report, err := h.ckptStore.CleanupOldCache(c.Request.Context(), req.MaxAgeDays)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, report)
}
