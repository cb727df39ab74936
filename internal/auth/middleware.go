package auth

import (
	"context"
	"net/http"
	"strings"

	"lmsrexchange/internal/store"
)

type contextKey string

const userIDKey contextKey = "userID"

// RequireAPIKey reads an API key from the X-API-Key header or a
// "Bearer <key>" Authorization header, and looks it up by its hash.
func RequireAPIKey(s *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				auth := r.Header.Get("Authorization")
				if strings.HasPrefix(auth, "Bearer ") {
					key = strings.TrimPrefix(auth, "Bearer ")
				}
			}
			if key == "" {
				http.Error(w, "API key required", http.StatusUnauthorized)
				return
			}

			user, err := s.GetUserByAPIKeyHash(r.Context(), HashAPIKey(key))
			if err != nil {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext recovers the authenticated user id set by
// RequireAPIKey.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}
