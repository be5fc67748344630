// Package authctx turns an incoming HTTP request into a
// domain.ContextPrincipal: a JWT bearer token in production, or a plain
// header in local/dev.
package authctx

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"metacat/internal/config"
	"metacat/internal/domain"
)

// DevPrincipalHeader lets local/dev deployments identify a caller without
// standing up a JWT issuer. It is only honored when cfg.JWTSecret is empty;
// once a secret is configured, this header is ignored.
const DevPrincipalHeader = "X-Dev-Principal"

// Middleware authenticates each request and stores the resulting
// domain.ContextPrincipal on its context. Requests that fail authentication
// get a 401 and never reach the handler.
func Middleware(cfg config.AuthConfig) func(http.Handler) http.Handler {
	nameClaim := cfg.NameClaim
	if nameClaim == "" {
		nameClaim = "sub"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.JWTSecret == "" {
				if dev := r.Header.Get(DevPrincipalHeader); dev != "" {
					ctx := domain.WithPrincipal(r.Context(), domain.ContextPrincipal{Name: dev, Type: "user"})
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				unauthorized(w, "missing bearer token")
				return
			}

			principal, ok := parseBearer(strings.TrimPrefix(auth, "Bearer "), cfg, nameClaim)
			if !ok {
				unauthorized(w, "invalid bearer token")
				return
			}

			ctx := domain.WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseBearer(raw string, cfg config.AuthConfig, nameClaim string) (domain.ContextPrincipal, bool) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.ContextPrincipal{}, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.ContextPrincipal{}, false
	}

	if cfg.Audience != "" {
		aud, err := claims.GetAudience()
		if err != nil || !containsAudience(aud, cfg.Audience) {
			return domain.ContextPrincipal{}, false
		}
	}

	name, _ := claims[nameClaim].(string)
	if name == "" {
		return domain.ContextPrincipal{}, false
	}

	isAdmin := false
	if cfg.AdminClaim != "" {
		isAdmin, _ = claims[cfg.AdminClaim].(bool)
	}

	return domain.ContextPrincipal{Name: name, IsAdmin: isAdmin, Type: "user"}, true
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 401, "message": message})
}
