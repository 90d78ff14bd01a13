package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/issuekit/ragvault/internal/checkpoint"
	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
	"github.com/issuekit/ragvault/internal/pkg/response"
)

type SessionHandler struct {
	store *checkpoint.Store
}

func NewSessionHandler(store *checkpoint.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

type createSessionRequest struct {
	JobType     string `json:"job_type"`
	SessionID   string `json:"session_id"`
	TotalChunks int    `json:"total_chunks"`
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, appErr.ErrInvalid)
		return
	}
	session, err := h.store.InitializeSession(c.Request.Context(), req.JobType, req.SessionID, req.TotalChunks)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, session)
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.store.GetSession(c.Request.Context(), c.Param("job"), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, session)
}

func (h *SessionHandler) Progress(c *gin.Context) {
	var upd checkpoint.ProgressUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		handleError(c, appErr.ErrInvalid)
		return
	}
	if err := h.store.UpdateProgress(c.Request.Context(), c.Param("job"), c.Param("id"), upd); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"updated": true})
}

func (h *SessionHandler) Pause(c *gin.Context) {
	if err := h.store.PauseSession(c.Request.Context(), c.Param("job"), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "paused"})
}

func (h *SessionHandler) Resume(c *gin.Context) {
	if err := h.store.ResumeSession(c.Request.Context(), c.Param("job"), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "active"})
}

func (h *SessionHandler) Complete(c *gin.Context) {
	if err := h.store.CompleteSession(c.Request.Context(), c.Param("job"), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "completed"})
}

type failSessionRequest struct {
	Error string `json:"error"`
}

func (h *SessionHandler) Fail(c *gin.Context) {
	var req failSessionRequest
	_ = c.ShouldBindJSON(&req)
	var cause error
	if req.Error != "" {
		cause = errors.New(req.Error)
	}
	if err := h.store.FailSession(c.Request.Context(), c.Param("job"), c.Param("id"), cause); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "failed"})
}

func (h *SessionHandler) ResumeData(c *gin.Context) {
	data, err := h.store.GetResumeData(c.Request.Context(), c.Param("job"), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, data)
}
