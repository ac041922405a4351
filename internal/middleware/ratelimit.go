package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trivia-api-service/internal/httputil"
	"github.com/trivia-api-service/internal/metrics"
	"github.com/trivia-api-service/internal/model"
	"github.com/trivia-api-service/internal/ratelimit"
	"github.com/trivia-api-service/internal/store"
)

const (
	defaultRateLimitMax    = 100
	defaultRateLimitWindow = 3600
)

// rateLimitDenial is the wire contract for a 429 response.
type rateLimitDenial struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
	ResetAt    string `json:"resetAt"`
}

// RateLimitGuard returns middleware enforcing every policy attached to
// the authenticated API key. A key with no policy gets the default one
// (100 requests per hour) created on the spot, with the triggering
// request already counted.
//
// A denied policy short-circuits: sibling policies are not mutated once
// one of them rejects the request.
func RateLimitGuard(policies store.PolicyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := GetAPIKey(r.Context())
			if apiKey == nil {
				next.ServeHTTP(w, r)
				return
			}

			now := time.Now().UTC()

			attached, err := policies.FindPolicies(r.Context(), apiKey.ID)
			if err != nil {
				log.Error().Err(err).Str("key_id", apiKey.ID.String()).Msg("failed to load rate limit policies")
				respondError(w, http.StatusInternalServerError, "internal_error", "Failed to evaluate rate limit")
				return
			}

			if len(attached) == 0 {
				policy := &model.RateLimitPolicy{
					APIKeyID:      apiKey.ID,
					MaxRequests:   defaultRateLimitMax,
					WindowSeconds: defaultRateLimitWindow,
					Requests:      1,
					ResetAt:       now.Add(defaultRateLimitWindow * time.Second),
				}
				if err := policies.CreatePolicy(r.Context(), policy); err != nil {
					log.Error().Err(err).Str("key_id", apiKey.ID.String()).Msg("failed to create default rate limit policy")
					respondError(w, http.StatusInternalServerError, "internal_error", "Failed to evaluate rate limit")
					return
				}
				setRateLimitHeaders(w, ratelimit.Decision{
					Limit:             policy.MaxRequests,
					Remaining:         policy.MaxRequests - 1,
					ResetAt:           policy.ResetAt,
					RetryAfterSeconds: policy.WindowSeconds,
				})
				next.ServeHTTP(w, r)
				return
			}

			for _, policy := range attached {
				decision := ratelimit.Evaluate(policy, now)
				setRateLimitHeaders(w, decision)

				switch decision.Action {
				case ratelimit.ActionDeny:
					metrics.RateLimitDenied.Inc()
					httputil.RespondJSON(w, http.StatusTooManyRequests, rateLimitDenial{
						Success:    false,
						Message:    "Rate limit exceeded",
						RetryAfter: decision.RetryAfterSeconds,
						ResetAt:    decision.ResetAt.UTC().Format(time.RFC3339),
					})
					return
				case ratelimit.ActionReset:
					err = policies.ResetPolicy(r.Context(), policy.ID, decision.ResetAt)
				case ratelimit.ActionConsume:
					err = policies.IncrementPolicy(r.Context(), policy.ID)
				}
				if err != nil {
					log.Error().Err(err).Str("policy_id", policy.ID.String()).Msg("failed to persist rate limit state")
					respondError(w, http.StatusInternalServerError, "internal_error", "Failed to evaluate rate limit")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	w.Header().Set("X-RateLimit-Reset", d.ResetAt.UTC().Format(time.RFC3339))
	w.Header().Set("Retry-After", strconv.Itoa(d.RetryAfterSeconds))
}
