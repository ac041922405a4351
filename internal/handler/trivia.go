package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trivia-api-service/internal/httputil"
	"github.com/trivia-api-service/internal/service"
)

// --- Random Question ---

type RandomTriviaHandler struct {
	trivia *service.TriviaService
}

func NewRandomTriviaHandler(trivia *service.TriviaService) *RandomTriviaHandler {
	return &RandomTriviaHandler{trivia: trivia}
}

func (h *RandomTriviaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	question, err := h.trivia.Random(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		service.RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, question)
}

// --- Question by ID ---

type GetTriviaHandler struct {
	trivia *service.TriviaService
}

func NewGetTriviaHandler(trivia *service.TriviaService) *GetTriviaHandler {
	return &GetTriviaHandler{trivia: trivia}
}

func (h *GetTriviaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		RespondError(w, http.StatusBadRequest, "invalid_request", "Invalid question ID")
		return
	}

	question, svcErr := h.trivia.ByID(r.Context(), id)
	if svcErr != nil {
		service.RespondError(w, svcErr)
		return
	}
	RespondJSON(w, http.StatusOK, question)
}

// --- Questions by Category ---

type TriviaByCategoryHandler struct {
	trivia *service.TriviaService
}

func NewTriviaByCategoryHandler(trivia *service.TriviaService) *TriviaByCategoryHandler {
	return &TriviaByCategoryHandler{trivia: trivia}
}

func (h *TriviaByCategoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := httputil.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	page, svcErr := h.trivia.ByCategory(r.Context(), chi.URLParam(r, "category"), limit, offset)
	if svcErr != nil {
		service.RespondError(w, svcErr)
		return
	}
	RespondJSON(w, http.StatusOK, page)
}

// --- Search ---

type SearchTriviaHandler struct {
	trivia *service.TriviaService
}

func NewSearchTriviaHandler(trivia *service.TriviaService) *SearchTriviaHandler {
	return &SearchTriviaHandler{trivia: trivia}
}

func (h *SearchTriviaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := httputil.ParseLimitOffset(r.URL.Query().Get("limit"), r.URL.Query().Get("offset"))
	if err != nil {
		RespondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	page, svcErr := h.trivia.Search(r.Context(), r.URL.Query().Get("q"), limit, offset)
	if svcErr != nil {
		service.RespondError(w, svcErr)
		return
	}
	RespondJSON(w, http.StatusOK, page)
}

// --- Categories ---

type ListCategoriesHandler struct {
	trivia *service.TriviaService
}

func NewListCategoriesHandler(trivia *service.TriviaService) *ListCategoriesHandler {
	return &ListCategoriesHandler{trivia: trivia}
}

func (h *ListCategoriesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	categories, err := h.trivia.Categories(r.Context())
	if err != nil {
		service.RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}
