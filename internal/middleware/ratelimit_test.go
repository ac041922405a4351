package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trivia-api-service/internal/model"
)

type fakePolicyStore struct {
	policies   map[uuid.UUID][]*model.RateLimitPolicy
	findErr    error
	writeErr   error
	created    []*model.RateLimitPolicy
	increments []uuid.UUID
	resets     []uuid.UUID
}

func newFakePolicyStore() *fakePolicyStore {
	return &fakePolicyStore{policies: make(map[uuid.UUID][]*model.RateLimitPolicy)}
}

func (f *fakePolicyStore) FindPolicies(_ context.Context, apiKeyID uuid.UUID) ([]*model.RateLimitPolicy, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.policies[apiKeyID], nil
}

func (f *fakePolicyStore) CreatePolicy(_ context.Context, policy *model.RateLimitPolicy) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	policy.ID = uuid.New()
	f.created = append(f.created, policy)
	f.policies[policy.APIKeyID] = append(f.policies[policy.APIKeyID], policy)
	return nil
}

func (f *fakePolicyStore) ResetPolicy(_ context.Context, id uuid.UUID, resetAt time.Time) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.resets = append(f.resets, id)
	for _, list := range f.policies {
		for _, p := range list {
			if p.ID == id {
				p.Requests = 1
				p.ResetAt = resetAt
			}
		}
	}
	return nil
}

func (f *fakePolicyStore) IncrementPolicy(_ context.Context, id uuid.UUID) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.increments = append(f.increments, id)
	for _, list := range f.policies {
		for _, p := range list {
			if p.ID == id {
				p.Requests++
			}
		}
	}
	return nil
}

func (f *fakePolicyStore) ReplacePolicy(_ context.Context, id uuid.UUID, maxRequests, windowSeconds int, resetAt time.Time) error {
	return nil
}

func guardRequest(t *testing.T, store *fakePolicyStore, apiKey *model.APIKey) (*httptest.ResponseRecorder, bool) {
	t.Helper()

	called := false
	h := RateLimitGuard(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/trivia/random", nil)
	if apiKey != nil {
		req = req.WithContext(context.WithValue(req.Context(), apiKeyContextKey, apiKey))
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, called
}

func TestRateLimitGuardCreatesDefaultPolicy(t *testing.T) {
	store := newFakePolicyStore()
	apiKey := &model.APIKey{ID: uuid.New()}

	rr, called := guardRequest(t, store, apiKey)

	if !called {
		t.Fatal("expected request to pass through")
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one created policy, got %d", len(store.created))
	}
	p := store.created[0]
	if p.MaxRequests != 100 || p.WindowSeconds != 3600 {
		t.Fatalf("unexpected default policy: max=%d window=%d", p.MaxRequests, p.WindowSeconds)
	}
	if p.Requests != 1 {
		t.Fatalf("default policy must count the triggering request, got %d", p.Requests)
	}
	if rr.Header().Get("X-RateLimit-Limit") != "100" || rr.Header().Get("X-RateLimit-Remaining") != "99" {
		t.Fatalf("unexpected headers: limit=%q remaining=%q",
			rr.Header().Get("X-RateLimit-Limit"), rr.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimitGuardDeniesWithContract(t *testing.T) {
	store := newFakePolicyStore()
	apiKey := &model.APIKey{ID: uuid.New()}
	resetAt := time.Now().UTC().Add(30 * time.Second)
	store.policies[apiKey.ID] = []*model.RateLimitPolicy{{
		ID: uuid.New(), APIKeyID: apiKey.ID,
		MaxRequests: 5, WindowSeconds: 60, Requests: 5, ResetAt: resetAt,
	}}

	rr, called := guardRequest(t, store, apiKey)

	if called {
		t.Fatal("handler must not run on denial")
	}
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if rr.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("unexpected remaining header: %q", rr.Header().Get("X-RateLimit-Remaining"))
	}
	if rr.Header().Get("Retry-After") == "" || rr.Header().Get("X-RateLimit-Reset") == "" {
		t.Fatal("expected Retry-After and X-RateLimit-Reset headers")
	}

	var body struct {
		Success    bool   `json:"success"`
		Message    string `json:"message"`
		RetryAfter int    `json:"retryAfter"`
		ResetAt    string `json:"resetAt"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode denial body: %v", err)
	}
	if body.Success || body.Message != "Rate limit exceeded" {
		t.Fatalf("unexpected denial body: %+v", body)
	}
	if body.RetryAfter < 0 || body.RetryAfter > 30 {
		t.Fatalf("unexpected retryAfter: %d", body.RetryAfter)
	}
	if _, err := time.Parse(time.RFC3339, body.ResetAt); err != nil {
		t.Fatalf("resetAt is not ISO-8601: %q", body.ResetAt)
	}
}

func TestRateLimitGuardDenyShortCircuitsSiblings(t *testing.T) {
	store := newFakePolicyStore()
	apiKey := &model.APIKey{ID: uuid.New()}
	now := time.Now().UTC()
	exhausted := &model.RateLimitPolicy{
		ID: uuid.New(), APIKeyID: apiKey.ID,
		MaxRequests: 1, WindowSeconds: 60, Requests: 1, ResetAt: now.Add(time.Minute),
	}
	sibling := &model.RateLimitPolicy{
		ID: uuid.New(), APIKeyID: apiKey.ID,
		MaxRequests: 100, WindowSeconds: 60, Requests: 0, ResetAt: now.Add(time.Minute),
	}
	store.policies[apiKey.ID] = []*model.RateLimitPolicy{exhausted, sibling}

	rr, _ := guardRequest(t, store, apiKey)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if len(store.increments) != 0 || len(store.resets) != 0 {
		t.Fatalf("denial must not mutate sibling policies: increments=%d resets=%d",
			len(store.increments), len(store.resets))
	}
}

func TestRateLimitGuardConsumesAndResets(t *testing.T) {
	store := newFakePolicyStore()
	apiKey := &model.APIKey{ID: uuid.New()}
	now := time.Now().UTC()
	active := &model.RateLimitPolicy{
		ID: uuid.New(), APIKeyID: apiKey.ID,
		MaxRequests: 10, WindowSeconds: 60, Requests: 3, ResetAt: now.Add(time.Minute),
	}
	expired := &model.RateLimitPolicy{
		ID: uuid.New(), APIKeyID: apiKey.ID,
		MaxRequests: 10, WindowSeconds: 60, Requests: 10, ResetAt: now.Add(-time.Minute),
	}
	store.policies[apiKey.ID] = []*model.RateLimitPolicy{active, expired}

	rr, called := guardRequest(t, store, apiKey)

	if !called || rr.Code != http.StatusOK {
		t.Fatalf("expected pass-through, called=%v status=%d", called, rr.Code)
	}
	if len(store.increments) != 1 || store.increments[0] != active.ID {
		t.Fatalf("expected one increment of the active policy, got %v", store.increments)
	}
	if len(store.resets) != 1 || store.resets[0] != expired.ID {
		t.Fatalf("expected one reset of the expired policy, got %v", store.resets)
	}
}

func TestRateLimitGuardPropagatesStoreErrors(t *testing.T) {
	store := newFakePolicyStore()
	store.findErr = errors.New("connection refused")
	apiKey := &model.APIKey{ID: uuid.New()}

	rr, called := guardRequest(t, store, apiKey)

	if called {
		t.Fatal("handler must not run when the policy store fails")
	}
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestRateLimitGuardSkipsUnauthenticatedRequests(t *testing.T) {
	store := newFakePolicyStore()

	rr, called := guardRequest(t, store, nil)

	if !called || rr.Code != http.StatusOK {
		t.Fatalf("expected pass-through without key, called=%v status=%d", called, rr.Code)
	}
}
