package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/api/response"
	"github.com/chrizleebear13/Revisentwebsite-sub001/internal/model"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenValidator is satisfied by *core.AuthService.
type TokenValidator interface {
	ValidateToken(token string) (*model.JWTClaims, error)
}

// Auth returns middleware that validates JWT Bearer tokens and injects claims into context.
func Auth(auth TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.WriteError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == authHeader {
				response.WriteError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			claims, err := auth.ValidateToken(token)
			if err != nil {
				response.WriteError(w, http.StatusUnauthorized, err.Error())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin rejects callers without the admin role. It must run after Auth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaims(r.Context())
		if claims == nil {
			response.WriteError(w, http.StatusUnauthorized, "missing claims")
			return
		}
		if claims.Role != model.RoleAdmin {
			response.WriteError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithClaims(ctx context.Context, claims *model.JWTClaims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims extracts JWT claims from the request context.
func GetClaims(ctx context.Context) *model.JWTClaims {
	claims, _ := ctx.Value(claimsKey).(*model.JWTClaims)
	return claims
}
