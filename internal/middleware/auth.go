package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trivia-api-service/internal/metrics"
	"github.com/trivia-api-service/internal/model"
	"github.com/trivia-api-service/internal/store"
)

type contextKey string

const apiKeyContextKey contextKey = "api_key"

// APIKeyHeader is the request header carrying the caller's API key.
const APIKeyHeader = "X-API-Key"

// GetAPIKey extracts the authenticated API key from the request context.
func GetAPIKey(ctx context.Context) *model.APIKey {
	key, _ := ctx.Value(apiKeyContextKey).(*model.APIKey)
	return key
}

// APIKeyAuth returns middleware that authenticates requests via the
// X-API-Key header. The raw key is hashed before lookup; only the hash
// is ever stored.
func APIKeyAuth(s store.APIKeyStore, limiter *AuthAttemptLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attemptKey := clientIPKey(r, "api_key")
			if limiter != nil && !limiter.allow(attemptKey) {
				respondError(w, http.StatusTooManyRequests, "rate_limited", "Too many authentication failures")
				return
			}

			token := r.Header.Get(APIKeyHeader)
			if token == "" {
				if limiter != nil {
					limiter.registerFailure(attemptKey)
				}
				metrics.AuthFailures.Inc()
				respondError(w, http.StatusUnauthorized, "invalid_api_key", "API key is required. Please include an X-API-Key header.")
				return
			}

			keyHash := SHA256Hex(token)
			apiKey, err := s.GetAPIKeyByHash(r.Context(), keyHash)
			if err != nil {
				if limiter != nil {
					limiter.registerFailure(attemptKey)
				}
				metrics.AuthFailures.Inc()
				respondError(w, http.StatusUnauthorized, "invalid_api_key", "Invalid API key")
				return
			}

			if apiKey.Status != model.StatusActive {
				if limiter != nil {
					limiter.registerFailure(attemptKey)
				}
				metrics.AuthFailures.Inc()
				respondError(w, http.StatusForbidden, "key_disabled", "API key is not active")
				return
			}

			if limiter != nil {
				limiter.registerSuccess(attemptKey)
			}

			// Best-effort: a failed touch never blocks the request.
			if err := s.TouchLastUsed(r.Context(), apiKey.ID, time.Now().UTC()); err != nil {
				log.Warn().Err(err).Str("key_id", apiKey.ID.String()).Msg("failed to touch api key last_used_at")
			}

			ctx := context.WithValue(r.Context(), apiKeyContextKey, apiKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SHA256Hex returns the hex-encoded SHA-256 hash of the input.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}
