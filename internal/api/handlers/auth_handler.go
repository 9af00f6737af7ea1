package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"brightpath/casedesk/internal/auth"
	"brightpath/casedesk/internal/config"
)

// AuthHandler issues staff session tokens.
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /v1/admin/login. Access requires both the shared console
// password and presence on the staff email allow-list.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !auth.CheckPasswordHash(req.Password, h.cfg.AdminPasswordHash) || !h.cfg.IsAuthorized(email) {
		// One message for both failures; no hints about which check failed.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := auth.GenerateJWT(email, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "email": email, "expires_in": int(h.cfg.JwtTTL.Seconds())})
}
