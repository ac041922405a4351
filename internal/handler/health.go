package handler

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trivia-api-service/internal/store"
)

type HealthHandler struct {
	keys      store.APIKeyStore
	questions store.QuestionStore
	startTime time.Time
}

func NewHealthHandler(keys store.APIKeyStore, questions store.QuestionStore) *HealthHandler {
	return &HealthHandler{keys: keys, questions: questions, startTime: time.Now()}
}

type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version"`
	TotalAPIKeys    int    `json:"total_api_keys"`
	TriviaQuestions int64  `json:"trivia_questions"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	totalKeys, err := h.keys.CountAPIKeys(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to count API keys")
		totalKeys = 0
	}

	totalQuestions, err := h.questions.CountTrivia(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to count trivia questions")
		totalQuestions = 0
	}

	RespondJSON(w, http.StatusOK, HealthResponse{
		Status:          "healthy",
		Version:         "1.0.0",
		TotalAPIKeys:    totalKeys,
		TriviaQuestions: totalQuestions,
		UptimeSeconds:   int64(time.Since(h.startTime).Seconds()),
	})
}
