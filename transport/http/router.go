package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletgate/service"
)

// RouterConfig carries the transport-level settings
type RouterConfig struct {
	Cookie  SessionCookie
	Logger  *slog.Logger
	Metrics http.Handler // nil disables /metrics
}

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, cfg RouterConfig) *gin.Engine {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Cookie.MaxAge == 0 {
		cfg.Cookie.MaxAge = authService.SessionTTL()
	}

	router := gin.New()
	router.Use(RequestLogger(cfg.Logger), Recovery())

	handlers := NewAuthHandlers(authService, cfg.Cookie)

	router.GET("/healthz", handlers.Health)
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	router.GET("/challenge", handlers.ChallengeQuery)
	router.POST("/challenge", handlers.Challenge)

	auth := router.Group("/auth")
	{
		auth.POST("/wallet", handlers.WalletLogin)
		auth.POST("/logout", handlers.Logout)
	}

	// Protected routes
	protected := router.Group("/")
	protected.Use(AuthMiddleware(authService, cfg.Cookie))
	{
		protected.GET("/profile", handlers.Profile)
		protected.POST("/sign-up", handlers.SignUp)
	}

	return router
}
