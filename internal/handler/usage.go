package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trivia-api-service/internal/middleware"
	"github.com/trivia-api-service/internal/ratelimit"
	"github.com/trivia-api-service/internal/store"
)

// UsageHandler reports the calling key's own state: identity, status,
// and where each rate-limit policy currently stands.
type UsageHandler struct {
	policies store.PolicyStore
}

func NewUsageHandler(policies store.PolicyStore) *UsageHandler {
	return &UsageHandler{policies: policies}
}

type UsageResponse struct {
	APIKeyName string           `json:"api_key_name"`
	KeyPrefix  string           `json:"key_prefix"`
	Status     string           `json:"status"`
	LastUsedAt *time.Time       `json:"last_used_at,omitempty"`
	RateLimits []usageRateLimit `json:"rate_limits"`
}

type usageRateLimit struct {
	MaxRequests   int       `json:"max_requests"`
	WindowSeconds int       `json:"window_seconds"`
	Remaining     int       `json:"remaining"`
	ResetAt       time.Time `json:"reset_at"`
}

func (h *UsageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	apiKey := middleware.GetAPIKey(r.Context())
	if apiKey == nil {
		RespondError(w, http.StatusUnauthorized, "invalid_api_key", "Missing API key")
		return
	}

	policies, err := h.policies.FindPolicies(r.Context(), apiKey.ID)
	if err != nil {
		log.Error().Err(err).Str("api_key_id", apiKey.ID.String()).Msg("failed to load rate-limit policies")
		RespondError(w, http.StatusInternalServerError, "internal_error", "Failed to load usage")
		return
	}

	now := time.Now().UTC()
	limits := make([]usageRateLimit, 0, len(policies))
	for _, policy := range policies {
		limits = append(limits, usageRateLimit{
			MaxRequests:   policy.MaxRequests,
			WindowSeconds: policy.WindowSeconds,
			Remaining:     ratelimit.Peek(policy, now),
			ResetAt:       policy.ResetAt.UTC(),
		})
	}

	RespondJSON(w, http.StatusOK, UsageResponse{
		APIKeyName: apiKey.Name,
		KeyPrefix:  apiKey.KeyPrefix,
		Status:     string(apiKey.Status),
		LastUsedAt: apiKey.LastUsedAt,
		RateLimits: limits,
	})
}
