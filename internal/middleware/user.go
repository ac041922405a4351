package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/trivia-api-service/internal/model"
	"github.com/trivia-api-service/internal/store"
)

type userKey struct{}

// GetUser extracts the authenticated user from the request context.
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userKey{}).(*model.User)
	return user
}

// UserAuth returns middleware that authenticates users via a Bearer JWT
// signed with the shared secret.
func UserAuth(users store.UserStore, secret []byte, limiter *AuthAttemptLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attemptKey := clientIPKey(r, "user_jwt")
			if limiter != nil && !limiter.allow(attemptKey) {
				respondError(w, http.StatusTooManyRequests, "rate_limited", "Too many authentication failures")
				return
			}

			raw := extractBearerToken(r)
			if raw == "" {
				if limiter != nil {
					limiter.registerFailure(attemptKey)
				}
				respondError(w, http.StatusUnauthorized, "unauthorized", "Not authorized, no token provided")
				return
			}

			token, err := jwt.Parse([]byte(raw), jwt.WithKey(jwa.HS256, secret), jwt.WithValidate(true))
			if err != nil {
				if limiter != nil {
					limiter.registerFailure(attemptKey)
				}
				respondError(w, http.StatusUnauthorized, "unauthorized", "Not authorized, invalid token")
				return
			}

			userID, err := uuid.Parse(token.Subject())
			if err != nil {
				if limiter != nil {
					limiter.registerFailure(attemptKey)
				}
				respondError(w, http.StatusUnauthorized, "unauthorized", "Not authorized, invalid token")
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil {
				if limiter != nil {
					limiter.registerFailure(attemptKey)
				}
				respondError(w, http.StatusUnauthorized, "unauthorized", "User not found")
				return
			}

			if limiter != nil {
				limiter.registerSuccess(attemptKey)
			}
			ctx := context.WithValue(r.Context(), userKey{}, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests from non-admin users. It must run after
// UserAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil || !user.IsAdmin {
			respondError(w, http.StatusForbidden, "forbidden", "Not authorized as admin")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}
