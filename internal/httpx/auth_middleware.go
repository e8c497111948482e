package httpx

import (
	"net/http"
	"strings"

	"borges/internal/platform/crypto"
)

// AuthMiddleware requires a valid HS256 bearer token signed with secret and
// stores its subject in the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				JSONErrorWithRequest(r, w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing bearer token", nil)
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := crypto.ParseToken(secret, token)
			if err != nil {
				JSONErrorWithRequest(r, w, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid bearer token", nil)
				return
			}

			ctx := ContextWithSubject(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
