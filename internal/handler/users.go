package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/trivia-api-service/internal/middleware"
	"github.com/trivia-api-service/internal/model"
	"github.com/trivia-api-service/internal/service"
)

// --- Register ---

type RegisterHandler struct {
	users *service.UserService
}

func NewRegisterHandler(users *service.UserService) *RegisterHandler {
	return &RegisterHandler{users: users}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		service.RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

// --- Login ---

type LoginHandler struct {
	users *service.UserService
}

func NewLoginHandler(users *service.UserService) *LoginHandler {
	return &LoginHandler{users: users}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		service.RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, loginResponse{Token: res.Token, ExpiresAt: res.ExpiresAt, User: res.User})
}

// --- Profile ---

type ProfileHandler struct{}

func NewProfileHandler() *ProfileHandler {
	return &ProfileHandler{}
}

func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		RespondError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}
