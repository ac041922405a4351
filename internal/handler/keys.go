package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/trivia-api-service/internal/middleware"
	"github.com/trivia-api-service/internal/model"
	"github.com/trivia-api-service/internal/service"
)

// --- Create API Key ---

type CreateAPIKeyHandler struct {
	keys *service.APIKeyService
}

func NewCreateAPIKeyHandler(keys *service.APIKeyService) *CreateAPIKeyHandler {
	return &CreateAPIKeyHandler{keys: keys}
}

type createAPIKeyRequest struct {
	Name            string `json:"name"`
	RateLimitMax    *int   `json:"rate_limit_max,omitempty"`
	RateLimitWindow *int   `json:"rate_limit_window,omitempty"`
}

type createAPIKeyResponse struct {
	APIKey    *model.APIKey `json:"api_key"`
	RawKey    string        `json:"key"`
	RateLimit rateLimitInfo `json:"rate_limit"`
}

type rateLimitInfo struct {
	MaxRequests   int `json:"max_requests"`
	WindowSeconds int `json:"window_seconds"`
	Remaining     int `json:"remaining"`
}

func (h *CreateAPIKeyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		RespondError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	var req createAPIKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	res, err := h.keys.Create(r.Context(), user.ID, service.CreateAPIKeyInput{
		Name:            req.Name,
		RateLimitMax:    req.RateLimitMax,
		RateLimitWindow: req.RateLimitWindow,
	})
	if err != nil {
		service.RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, createAPIKeyResponse{
		APIKey: res.APIKey,
		RawKey: res.RawKey,
		RateLimit: rateLimitInfo{
			MaxRequests:   res.Policy.MaxRequests,
			WindowSeconds: res.Policy.WindowSeconds,
			Remaining:     res.Policy.MaxRequests,
		},
	})
}

// --- List API Keys ---

type ListAPIKeysHandler struct {
	keys *service.APIKeyService
}

func NewListAPIKeysHandler(keys *service.APIKeyService) *ListAPIKeysHandler {
	return &ListAPIKeysHandler{keys: keys}
}

func (h *ListAPIKeysHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		RespondError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}

	keys, err := h.keys.List(r.Context(), user.ID)
	if err != nil {
		service.RespondError(w, err)
		return
	}
	if keys == nil {
		keys = []*model.APIKey{}
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"api_keys": keys, "total": len(keys)})
}

// --- Get API Key ---

type GetAPIKeyHandler struct {
	keys *service.APIKeyService
}

func NewGetAPIKeyHandler(keys *service.APIKeyService) *GetAPIKeyHandler {
	return &GetAPIKeyHandler{keys: keys}
}

type getAPIKeyResponse struct {
	APIKey   *model.APIKey            `json:"api_key"`
	Policies []*model.RateLimitPolicy `json:"rate_limit_policies"`
}

func (h *GetAPIKeyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, id, ok := keyRequest(w, r)
	if !ok {
		return
	}

	apiKey, policies, err := h.keys.Get(r.Context(), user.ID, id)
	if err != nil {
		service.RespondError(w, err)
		return
	}
	if policies == nil {
		policies = []*model.RateLimitPolicy{}
	}
	RespondJSON(w, http.StatusOK, getAPIKeyResponse{APIKey: apiKey, Policies: policies})
}

// --- Update API Key Status ---

type UpdateAPIKeyStatusHandler struct {
	keys *service.APIKeyService
}

func NewUpdateAPIKeyStatusHandler(keys *service.APIKeyService) *UpdateAPIKeyStatusHandler {
	return &UpdateAPIKeyStatusHandler{keys: keys}
}

func (h *UpdateAPIKeyStatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, id, ok := keyRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Status model.APIKeyStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	apiKey, err := h.keys.SetStatus(r.Context(), user.ID, id, req.Status)
	if err != nil {
		service.RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"api_key": apiKey})
}

// --- Update Rate Limit ---

type UpdateRateLimitHandler struct {
	keys *service.APIKeyService
}

func NewUpdateRateLimitHandler(keys *service.APIKeyService) *UpdateRateLimitHandler {
	return &UpdateRateLimitHandler{keys: keys}
}

func (h *UpdateRateLimitHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, id, ok := keyRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		MaxRequests   int `json:"max_requests"`
		WindowSeconds int `json:"window_seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	policy, err := h.keys.UpdatePolicy(r.Context(), user.ID, id, req.MaxRequests, req.WindowSeconds)
	if err != nil {
		service.RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"rate_limit_policy": policy})
}

// --- Delete API Key ---

type DeleteAPIKeyHandler struct {
	keys *service.APIKeyService
}

func NewDeleteAPIKeyHandler(keys *service.APIKeyService) *DeleteAPIKeyHandler {
	return &DeleteAPIKeyHandler{keys: keys}
}

func (h *DeleteAPIKeyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, id, ok := keyRequest(w, r)
	if !ok {
		return
	}

	if err := h.keys.Delete(r.Context(), user.ID, id); err != nil {
		service.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// keyRequest extracts the authenticated user and the {id} URL parameter
// common to the single-key endpoints.
func keyRequest(w http.ResponseWriter, r *http.Request) (*model.User, uuid.UUID, bool) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		RespondError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid API key ID")
		return nil, uuid.Nil, false
	}
	return user, id, true
}
