package middleware

import (
	"context"
	"net/http"
	"strings"

	"courier/internal/core/contracts"
	"courier/internal/core/domain"
)

type identityKeyType struct{}

var IdentityKey = identityKeyType{}

// IdentityFromContext returns the identity injected by AuthMiddleware.
func IdentityFromContext(ctx context.Context) (*domain.Identity, bool) {
	ident, ok := ctx.Value(IdentityKey).(*domain.Identity)
	return ident, ok && ident != nil
}

// AuthMiddleware verifies the session token and injects the resolved
// identity into the request context. Browsers cannot set headers on a
// WebSocket upgrade, so a "token" query parameter is accepted as fallback.
func AuthMiddleware(auth contracts.AuthProvider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ""
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				parts := strings.Split(authHeader, " ")
				if len(parts) != 2 || parts[0] != "Bearer" {
					http.Error(w, "invalid authorization format", http.StatusUnauthorized)
					return
				}
				token = parts[1]
			} else {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				http.Error(w, "authorization required", http.StatusUnauthorized)
				return
			}
			ident, err := auth.Verify(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized: "+err.Error(), http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), IdentityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
