package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"brightpath/casedesk/internal/auth"
	"brightpath/casedesk/internal/config"
)

const (
	// ContextKeyStaffEmail holds the authenticated staff email in Gin context.
	ContextKeyStaffEmail = "staffEmail"
)

// AuthMiddleware creates a Gin middleware for staff JWT authentication. The
// token proves identity; authorization is solely the email allow-list, which
// is re-checked on every request so removals take effect immediately.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		claims, err := auth.ValidateJWT(parts[1], cfg.JwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": fmt.Sprintf("Invalid or expired token: %v", err)})
			return
		}

		if !cfg.IsAuthorized(claims.Email) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not on the staff allow-list"})
			return
		}

		c.Set(ContextKeyStaffEmail, claims.Email)
		c.Next()
	}
}
