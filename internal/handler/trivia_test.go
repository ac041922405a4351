package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"github.com/trivia-api-service/internal/model"
	"github.com/trivia-api-service/internal/service"
	"github.com/trivia-api-service/internal/store"
)

type stubQuestionStore struct {
	store.QuestionStore

	questions []*model.TriviaQuestion
}

func (s *stubQuestionStore) GetTriviaByID(ctx context.Context, id int64) (*model.TriviaQuestion, error) {
	for _, q := range s.questions {
		if q.ID == id {
			return q, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubQuestionStore) RandomTrivia(ctx context.Context, category string) (*model.TriviaQuestion, error) {
	if len(s.questions) == 0 {
		return nil, pgx.ErrNoRows
	}
	return s.questions[0], nil
}

func (s *stubQuestionStore) SearchTrivia(ctx context.Context, query string, limit, offset int) ([]*model.TriviaQuestion, int64, error) {
	return s.questions, int64(len(s.questions)), nil
}

func testRouter(st *stubQuestionStore) http.Handler {
	trivia := service.NewTriviaService(st)
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/trivia/random", NewRandomTriviaHandler(trivia))
	r.Method(http.MethodGet, "/trivia/search", NewSearchTriviaHandler(trivia))
	r.Method(http.MethodGet, "/trivia/{id}", NewGetTriviaHandler(trivia))
	return r
}

func storedQuestion() *model.TriviaQuestion {
	return &model.TriviaQuestion{
		ID:            42,
		ClueID:        9,
		Question:      "Which element has the symbol Fe?",
		CorrectAnswer: "Iron",
		WrongAnswers:  [3]string{"Gold", "Silver", "Lead"},
		Clue:          &model.Clue{ID: 9, Category: "CHEMISTRY"},
	}
}

func TestGetTriviaByID(t *testing.T) {
	router := testRouter(&stubQuestionStore{questions: []*model.TriviaQuestion{storedQuestion()}})

	t.Run("serves the question with four options", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trivia/42", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var body service.ServedQuestion
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.ID != 42 || body.Category != "CHEMISTRY" {
			t.Errorf("unexpected body: %+v", body)
		}
		if len(body.Options) != 4 {
			t.Errorf("options = %d, want 4", len(body.Options))
		}
	})

	t.Run("unknown id is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trivia/999", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("non-numeric id is 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trivia/abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestRandomTrivia(t *testing.T) {
	t.Run("serves a question", func(t *testing.T) {
		router := testRouter(&stubQuestionStore{questions: []*model.TriviaQuestion{storedQuestion()}})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trivia/random", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("empty corpus is 404", func(t *testing.T) {
		router := testRouter(&stubQuestionStore{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trivia/random", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
	})
}

func TestSearchTrivia(t *testing.T) {
	router := testRouter(&stubQuestionStore{questions: []*model.TriviaQuestion{storedQuestion()}})

	t.Run("missing query is 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trivia/search", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("invalid limit is 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trivia/search?q=iron&limit=500", nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("returns a page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trivia/search?q=iron", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var page service.ServedPage
		if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if page.Total != 1 || len(page.Questions) != 1 {
			t.Errorf("page = %+v", page)
		}
	})
}
