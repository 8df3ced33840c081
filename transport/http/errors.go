package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/internal/logging"
	slogctx "github.com/veqryn/slog-context"
)

// Client-facing messages. Every challenge and signature failure collapses to
// msgAuthFailed; the specific reason is only logged.
const (
	msgInvalidRequest  = "invalid request"
	msgAuthFailed      = "authentication failed"
	msgUnauthenticated = "unauthenticated"
	msgProfileExists   = "profile already exists"
	msgInternal        = "internal error"
)

// respondError maps a service error to a status code and a client-safe body
func respondError(c *gin.Context, err error) {
	switch {
	case core.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
	case core.IsChallengeError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgAuthFailed})
	case errors.Is(err, core.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgAuthFailed})
	case core.IsUnauthenticated(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": msgUnauthenticated})
	case errors.Is(err, core.ErrProfileExists):
		c.JSON(http.StatusConflict, gin.H{"error": msgProfileExists})
	default:
		logging.LogError(slogctx.FromCtx(c.Request.Context()), "Request failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	}
}

func validationMessage(err error) string {
	for _, sentinel := range []error{
		core.ErrMissingField,
		core.ErrInvalidAddress,
		core.ErrInvalidUsername,
		core.ErrInvalidReferrer,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return msgInvalidRequest
}
