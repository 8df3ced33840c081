package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/walletgate/core"
	"github.com/layer-3/walletgate/service"
)

// AuthHandlers contains HTTP handlers for auth endpoints
type AuthHandlers struct {
	authService *service.AuthService
	cookie      SessionCookie
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(authService *service.AuthService, cookie SessionCookie) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		cookie:      cookie,
	}
}

type challengeRequest struct {
	Address string `json:"address" binding:"required"`
}

type walletLoginRequest struct {
	Address   string `json:"address" binding:"required"`
	Signature string `json:"signature" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

type signUpRequest struct {
	Username string `json:"username" binding:"required"`
	Referrer string `json:"referrer"`
}

// ChallengeQuery handles GET /challenge?address=...
func (h *AuthHandlers) ChallengeQuery(c *gin.Context) {
	h.issueChallenge(c, c.Query("address"))
}

// Challenge handles POST /challenge
func (h *AuthHandlers) Challenge(c *gin.Context) {
	var req challengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": core.ErrMissingField.Error()})
		return
	}

	h.issueChallenge(c, req.Address)
}

func (h *AuthHandlers) issueChallenge(c *gin.Context, address string) {
	message, err := h.authService.CreateChallenge(c.Request.Context(), address)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// WalletLogin handles POST /auth/wallet
func (h *AuthHandlers) WalletLogin(c *gin.Context) {
	var req walletLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	token, _, err := h.authService.Login(c.Request.Context(), req.Address, req.Signature, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	h.cookie.Set(c.Writer, token)
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

// Logout handles POST /auth/logout. It always clears the cookie.
func (h *AuthHandlers) Logout(c *gin.Context) {
	token := h.cookie.Token(c.Request)
	h.cookie.Clear(c.Writer)

	if err := h.authService.Logout(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Profile handles GET /profile. An address without a profile gets an empty object.
func (h *AuthHandlers) Profile(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		respondError(c, core.ErrUnauthenticated)
		return
	}

	profile, err := h.authService.Profile(c.Request.Context(), session.Address)
	if err != nil {
		respondError(c, err)
		return
	}
	if profile == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// SignUp handles POST /sign-up for an authenticated wallet
func (h *AuthHandlers) SignUp(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		respondError(c, core.ErrUnauthenticated)
		return
	}

	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidRequest})
		return
	}

	profile, err := h.authService.SignUp(c.Request.Context(), session.Address, req.Username, req.Referrer)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, profile)
}

// Health handles GET /healthz
func (h *AuthHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
