package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/trivia-api-service/internal/middleware"
	"github.com/trivia-api-service/internal/model"
	"github.com/trivia-api-service/internal/store"
	"github.com/trivia-api-service/internal/validation"
)

const (
	defaultRateLimitMax    = 100
	defaultRateLimitWindow = 3600
)

// APIKeyService handles API key business logic.
type APIKeyService struct {
	keys     store.APIKeyStore
	policies store.PolicyStore
}

// NewAPIKeyService creates a new API key service.
func NewAPIKeyService(keys store.APIKeyStore, policies store.PolicyStore) *APIKeyService {
	return &APIKeyService{keys: keys, policies: policies}
}

// CreateAPIKeyInput contains the parameters for creating a new API key.
type CreateAPIKeyInput struct {
	Name            string
	RateLimitMax    *int
	RateLimitWindow *int
}

// CreateAPIKeyResult contains the output of a successful key creation.
// RawKey is shown exactly once; only its hash is stored.
type CreateAPIKeyResult struct {
	APIKey *model.APIKey
	Policy *model.RateLimitPolicy
	RawKey string
}

// Create validates input, generates a new API key with its rate-limit
// policy, and persists both.
func (s *APIKeyService) Create(ctx context.Context, userID uuid.UUID, input CreateAPIKeyInput) (*CreateAPIKeyResult, error) {
	if err := validation.KeyName(input.Name); err != nil {
		return nil, NewBadRequest("invalid_request", err.Error())
	}

	rateLimitMax, rateLimitWindow, err := normalizeRateLimit(input.RateLimitMax, input.RateLimitWindow)
	if err != nil {
		return nil, NewBadRequest("invalid_request", err.Error())
	}

	rawKey, err := generateAPIKey()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate API key")
		return nil, NewInternal("internal_error", "Failed to create API key")
	}
	keyHash := middleware.SHA256Hex(rawKey)
	keyPrefix := rawKey[:12] + "..."

	apiKey := &model.APIKey{
		UserID:    userID,
		Name:      input.Name,
		KeyHash:   keyHash,
		KeyPrefix: keyPrefix,
		Status:    model.StatusActive,
	}
	if err := s.keys.CreateAPIKey(ctx, apiKey); err != nil {
		log.Error().Err(err).Msg("failed to create API key")
		return nil, NewInternal("internal_error", "Failed to create API key")
	}

	policy := &model.RateLimitPolicy{
		APIKeyID:      apiKey.ID,
		MaxRequests:   rateLimitMax,
		WindowSeconds: rateLimitWindow,
		Requests:      0,
		ResetAt:       time.Now().UTC().Add(time.Duration(rateLimitWindow) * time.Second),
	}
	if err := s.policies.CreatePolicy(ctx, policy); err != nil {
		log.Error().Err(err).Str("api_key_id", apiKey.ID.String()).Msg("failed to create rate-limit policy")
		return nil, NewInternal("internal_error", "Failed to create API key")
	}

	return &CreateAPIKeyResult{APIKey: apiKey, Policy: policy, RawKey: rawKey}, nil
}

// List returns all API keys owned by the user.
func (s *APIKeyService) List(ctx context.Context, userID uuid.UUID) ([]*model.APIKey, error) {
	keys, err := s.keys.ListAPIKeysByUser(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list API keys")
		return nil, NewInternal("internal_error", "Failed to list API keys")
	}
	return keys, nil
}

// Get returns a single API key with its policies, enforcing ownership.
func (s *APIKeyService) Get(ctx context.Context, userID, id uuid.UUID) (*model.APIKey, []*model.RateLimitPolicy, error) {
	apiKey, err := s.ownedKey(ctx, userID, id)
	if err != nil {
		return nil, nil, err
	}
	policies, err := s.policies.FindPolicies(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("id", id.String()).Msg("failed to load rate-limit policies")
		return nil, nil, NewInternal("internal_error", "Failed to load API key")
	}
	return apiKey, policies, nil
}

// SetStatus enables or disables an API key.
func (s *APIKeyService) SetStatus(ctx context.Context, userID, id uuid.UUID, status model.APIKeyStatus) (*model.APIKey, error) {
	if status != model.StatusActive && status != model.StatusDisabled {
		return nil, NewBadRequest("invalid_request", "status must be active or disabled")
	}
	apiKey, err := s.ownedKey(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if apiKey.Status == status {
		return apiKey, nil
	}
	if err := s.keys.UpdateAPIKeyStatus(ctx, id, status); err != nil {
		log.Error().Err(err).Str("id", id.String()).Msg("failed to update API key status")
		return nil, NewInternal("internal_error", "Failed to update API key")
	}
	apiKey.Status = status
	return apiKey, nil
}

// UpdatePolicy replaces the configuration of a key's rate-limit policy
// and restarts its window.
func (s *APIKeyService) UpdatePolicy(ctx context.Context, userID, id uuid.UUID, maxRequests, windowSeconds int) (*model.RateLimitPolicy, error) {
	if err := validation.RateLimit(maxRequests, windowSeconds); err != nil {
		return nil, NewBadRequest("invalid_request", err.Error())
	}
	if _, err := s.ownedKey(ctx, userID, id); err != nil {
		return nil, err
	}

	policies, err := s.policies.FindPolicies(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("id", id.String()).Msg("failed to load rate-limit policies")
		return nil, NewInternal("internal_error", "Failed to update rate limit")
	}
	if len(policies) == 0 {
		return nil, NewNotFound("not_found", "Rate-limit policy not found")
	}

	policy := policies[0]
	resetAt := time.Now().UTC().Add(time.Duration(windowSeconds) * time.Second)
	if err := s.policies.ReplacePolicy(ctx, policy.ID, maxRequests, windowSeconds, resetAt); err != nil {
		log.Error().Err(err).Str("id", id.String()).Msg("failed to replace rate-limit policy")
		return nil, NewInternal("internal_error", "Failed to update rate limit")
	}

	policy.MaxRequests = maxRequests
	policy.WindowSeconds = windowSeconds
	policy.Requests = 0
	policy.ResetAt = resetAt
	return policy, nil
}

// Delete removes an API key and its policies.
func (s *APIKeyService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if _, err := s.ownedKey(ctx, userID, id); err != nil {
		return err
	}
	if err := s.keys.DeleteAPIKey(ctx, id); err != nil {
		log.Error().Err(err).Str("id", id.String()).Msg("failed to delete API key")
		return NewInternal("internal_error", "Failed to delete API key")
	}
	return nil
}

// ownedKey loads a key and verifies the caller owns it. A key owned by
// someone else reads as not found so ids are not probeable.
func (s *APIKeyService) ownedKey(ctx context.Context, userID, id uuid.UUID) (*model.APIKey, error) {
	apiKey, err := s.keys.GetAPIKeyByID(ctx, id)
	if err != nil {
		return nil, NewNotFound("not_found", "API key not found")
	}
	if apiKey.UserID != userID {
		return nil, NewNotFound("not_found", "API key not found")
	}
	return apiKey, nil
}

func generateAPIKey() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto/rand failed: %w", err)
	}
	return "tk_" + hex.EncodeToString(b), nil
}

func normalizeRateLimit(maxRequests, windowSeconds *int) (int, int, error) {
	rlMax := defaultRateLimitMax
	rlWindow := defaultRateLimitWindow

	if maxRequests != nil {
		rlMax = *maxRequests
	}
	if windowSeconds != nil {
		rlWindow = *windowSeconds
	}
	if err := validation.RateLimit(rlMax, rlWindow); err != nil {
		return 0, 0, err
	}
	return rlMax, rlWindow, nil
}
