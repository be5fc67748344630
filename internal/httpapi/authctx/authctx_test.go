package authctx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metacat/internal/config"
	"metacat/internal/domain"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestMiddleware_ValidBearerSetsPrincipal(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "s3cr3t", NameClaim: "sub", AdminClaim: "admin"}
	token := signToken(t, cfg.JWTSecret, jwt.MapClaims{
		"sub": "alice", "admin": true, "exp": time.Now().Add(time.Hour).Unix(),
	})

	var captured domain.ContextPrincipal
	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = domain.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", captured.Name)
	assert.True(t, captured.IsAdmin)
}

func TestMiddleware_MissingBearerRejected(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "s3cr3t"}
	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_WrongSecretRejected(t *testing.T) {
	cfg := config.AuthConfig{JWTSecret: "s3cr3t"}
	token := signToken(t, "wrong-secret", jwt.MapClaims{"sub": "alice"})

	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddleware_DevHeaderOnlyWhenNoSecretConfigured(t *testing.T) {
	cfg := config.AuthConfig{}
	var captured domain.ContextPrincipal
	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = domain.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DevPrincipalHeader, "local-dev-user")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "local-dev-user", captured.Name)
}
