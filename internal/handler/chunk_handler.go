package handler

import (
	"encoding/json"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/issuekit/ragvault/internal/checkpoint"
	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
	"github.com/issuekit/ragvault/internal/pkg/response"
)

type ChunkHandler struct {
	store *checkpoint.Store
}

func NewChunkHandler(store *checkpoint.Store) *ChunkHandler {
	return &ChunkHandler{store: store}
}

// Save stores the request body as the chunk's opaque payload. The body
// must be valid JSON; the store does not interpret it further.
func (h *ChunkHandler) Save(c *gin.Context) {
	chunkID, err := parseChunkID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	payload, err := c.GetRawData()
	if err != nil || !json.Valid(payload) {
		handleError(c, appErr.ErrInvalid)
		return
	}
	if err := h.store.SaveChunk(c.Request.Context(), c.Param("job"), c.Param("id"), chunkID, payload); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"chunk_id": chunkID})
}

func (h *ChunkHandler) Load(c *gin.Context) {
	chunkID, err := parseChunkID(c)
	if err != nil {
		handleError(c, err)
		return
	}
	record, err := h.store.LoadChunk(c.Request.Context(), c.Param("job"), c.Param("id"), chunkID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, record)
}

func (h *ChunkHandler) List(c *gin.Context) {
	chunks, err := h.store.ListCompletedChunks(c.Request.Context(), c.Param("job"), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"chunks": chunks})
}

func parseChunkID(c *gin.Context) (int, error) {
	chunkID, err := strconv.Atoi(c.Param("chunkId"))
	if err != nil || chunkID < 0 {
		return 0, appErr.ErrInvalid
	}
	return chunkID, nil
}
