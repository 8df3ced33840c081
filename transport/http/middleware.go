package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/service"
	slogctx "github.com/veqryn/slog-context"
)

const sessionContextKey = "walletgate.session"

// RequestLogger installs logger in the request context, tags it with a
// request ID and logs one line per completed request
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		ctx := slogctx.NewCtx(c.Request.Context(), logger)
		ctx = slogctx.With(ctx, "request_id", requestID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		slogctx.Info(ctx, "HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}

// Recovery turns panics into 500s and logs them instead of crashing the process
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slogctx.Error(c.Request.Context(), "Panic recovered", "panic", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msgInternal})
	})
}

// AuthMiddleware resolves the session token from the cookie or bearer header.
// Requests without a valid session stop here with 401.
func AuthMiddleware(authService *service.AuthService, cookie SessionCookie) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := authService.Authenticate(c.Request.Context(), cookie.Token(c.Request))
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Request = c.Request.WithContext(slogctx.With(c.Request.Context(), "address", session.Address))
		c.Set(sessionContextKey, session)

		c.Next()
	}
}

// sessionFrom returns the session stored by AuthMiddleware
func sessionFrom(c *gin.Context) (core.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return core.Session{}, false
	}
	session, ok := v.(core.Session)
	return session, ok
}
