package middleware

import (
	"net/http"
	"strings"

	"reelsync/internal/core/ports"

	"github.com/gin-gonic/gin"
)

const ClaimsContextKey = "claims"

// AuthMiddleware validates the bearer token and stores the viewer claims
// in the request context.
func AuthMiddleware(auth ports.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(header, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := auth.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims set by AuthMiddleware.
func ClaimsFromContext(c *gin.Context) (*ports.Claims, bool) {
	val, ok := c.Get(ClaimsContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := val.(*ports.Claims)
	return claims, ok
}
