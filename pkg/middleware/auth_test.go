package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"earnplay-backend/pkg/config"
)

func newTestAuth(ttl time.Duration) *Auth {
	cfg := &config.Config{}
	cfg.Auth.Secret = "test-secret"
	cfg.Auth.TokenTTL = ttl
	return NewAuth(cfg)
}

func newTestRouter(auth *Auth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/protected", auth.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, UserFrom(c.Request.Context()))
	})
	return engine
}

func TestRequireAuthResolvesUser(t *testing.T) {
	auth := newTestAuth(time.Hour)
	router := newTestRouter(auth)

	token, err := auth.Sign("user-42")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user-42", rec.Body.String())
}

func TestRequireAuthMissingToken(t *testing.T) {
	router := newTestRouter(newTestAuth(time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthExpiredToken(t *testing.T) {
	auth := newTestAuth(-time.Minute)
	router := newTestRouter(auth)

	token, err := auth.Sign("user-42")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthForeignToken(t *testing.T) {
	router := newTestRouter(newTestAuth(time.Hour))

	other := newTestAuth(time.Hour)
	other.secret = []byte("different-secret")
	token, err := other.Sign("user-42")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserFromUnauthenticatedContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, UserFrom(req.Context()))
}
