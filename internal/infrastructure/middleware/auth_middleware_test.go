package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reelsync/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	claims *ports.Claims
	err    error
}

func (s *stubAuth) ValidateToken(string) (*ports.Claims, error) {
	return s.claims, s.err
}

func authTestRouter(auth ports.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", AuthMiddleware(auth), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	claims := &ports.Claims{ViewerID: "viewer-1", UserName: "alice"}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var captured *ports.Claims
	router.GET("/protected", AuthMiddleware(&stubAuth{claims: claims}), func(c *gin.Context) {
		captured, _ = ClaimsFromContext(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, captured)
	assert.Equal(t, claims.ViewerID, captured.ViewerID)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	router := authTestRouter(&stubAuth{claims: &ports.Claims{ViewerID: "v1"}})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	router := authTestRouter(&stubAuth{claims: &ports.Claims{ViewerID: "v1"}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	router := authTestRouter(&stubAuth{err: errors.New("invalid token")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
