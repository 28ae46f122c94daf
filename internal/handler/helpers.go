package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/piriram/pilling-backend/internal/repository"
)

// ErrorResponse is the uniform error envelope returned by all endpoints.
type ErrorResponse struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Details *string `json:"details,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{Code: code, Message: message})
}

// respondServiceError maps repository sentinels to 404 and everything
// else to a 500 without leaking internals to the client.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrCycleNotFound):
		respondError(c, http.StatusNotFound, "cycle_not_found", "cycle not found")
	case errors.Is(err, repository.ErrDoseNotFound):
		respondError(c, http.StatusNotFound, "dose_not_found", "dose not found")
	default:
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, "internal_error", "an internal error occurred")
	}
}

// userID reads the caller identity from the X-User-ID header. The
// gateway in front of this service authenticates and injects it.
func userID(c *gin.Context) (string, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		respondError(c, http.StatusBadRequest, "missing_user", "X-User-ID header is required")
		return "", false
	}
	return id, true
}
