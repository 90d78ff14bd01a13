package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/issuekit/ragvault/internal/pkg/errors"
	"github.com/issuekit/ragvault/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Warn("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, http.StatusNotFound, "not found")
	case appErr.IsTerminal(err):
		response.Error(c, http.StatusConflict, "session in terminal state")
	case err == appErr.ErrConflict:
		response.Error(c, http.StatusConflict, "conflict")
	case err == appErr.ErrInvalid:
		response.Error(c, http.StatusBadRequest, "invalid request")
	default:
		response.Error(c, http.StatusInternalServerError, "internal error")
	}
}
