package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trivia-api-service/internal/model"
)

type fakeAPIKeyStore struct {
	byHash  map[string]*model.APIKey
	touched []uuid.UUID
}

func (f *fakeAPIKeyStore) CreateAPIKey(context.Context, *model.APIKey) error { return nil }

func (f *fakeAPIKeyStore) GetAPIKeyByHash(_ context.Context, keyHash string) (*model.APIKey, error) {
	key, ok := f.byHash[keyHash]
	if !ok {
		return nil, errors.New("no rows")
	}
	return key, nil
}

func (f *fakeAPIKeyStore) GetAPIKeyByID(context.Context, uuid.UUID) (*model.APIKey, error) {
	return nil, errors.New("no rows")
}

func (f *fakeAPIKeyStore) ListAPIKeysByUser(context.Context, uuid.UUID) ([]*model.APIKey, error) {
	return nil, nil
}

func (f *fakeAPIKeyStore) CountAPIKeys(context.Context) (int, error) { return 0, nil }

func (f *fakeAPIKeyStore) UpdateAPIKeyStatus(context.Context, uuid.UUID, model.APIKeyStatus) error {
	return nil
}

func (f *fakeAPIKeyStore) DeleteAPIKey(context.Context, uuid.UUID) error { return nil }

func (f *fakeAPIKeyStore) TouchLastUsed(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

func authRequest(t *testing.T, s *fakeAPIKeyStore, token string) (*httptest.ResponseRecorder, *model.APIKey) {
	t.Helper()

	var seen *model.APIKey
	h := APIKeyAuth(s, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetAPIKey(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/trivia/random", nil)
	if token != "" {
		req.Header.Set(APIKeyHeader, token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr, seen
}

func TestAPIKeyAuthMissingHeader(t *testing.T) {
	s := &fakeAPIKeyStore{byHash: map[string]*model.APIKey{}}

	rr, seen := authRequest(t, s, "")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if seen != nil {
		t.Fatal("handler must not see a key")
	}
}

func TestAPIKeyAuthUnknownKey(t *testing.T) {
	s := &fakeAPIKeyStore{byHash: map[string]*model.APIKey{}}

	rr, _ := authRequest(t, s, "tk_unknown")

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestAPIKeyAuthDisabledKey(t *testing.T) {
	token := "tk_disabled"
	s := &fakeAPIKeyStore{byHash: map[string]*model.APIKey{
		SHA256Hex(token): {ID: uuid.New(), Status: model.StatusDisabled},
	}}

	rr, _ := authRequest(t, s, token)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestAPIKeyAuthSuccess(t *testing.T) {
	token := "tk_valid"
	key := &model.APIKey{ID: uuid.New(), Status: model.StatusActive}
	s := &fakeAPIKeyStore{byHash: map[string]*model.APIKey{SHA256Hex(token): key}}

	rr, seen := authRequest(t, s, token)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if seen == nil || seen.ID != key.ID {
		t.Fatalf("handler did not receive the authenticated key: %+v", seen)
	}
	if len(s.touched) != 1 || s.touched[0] != key.ID {
		t.Fatalf("expected last_used_at touch, got %v", s.touched)
	}
}
