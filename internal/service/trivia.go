package service

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/trivia-api-service/internal/model"
	"github.com/trivia-api-service/internal/store"
)

// TriviaService serves generated trivia questions.
type TriviaService struct {
	questions store.QuestionStore
}

// NewTriviaService creates a new trivia service.
func NewTriviaService(questions store.QuestionStore) *TriviaService {
	return &TriviaService{questions: questions}
}

// ServedQuestion is the presentation shape of a trivia question: the
// correct answer mixed into a shuffled options list.
type ServedQuestion struct {
	ID       int64    `json:"id"`
	Category string   `json:"category"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// ServedPage is a paginated list of served questions.
type ServedPage struct {
	Questions []*ServedQuestion `json:"questions"`
	Total     int64             `json:"total"`
	Limit     int               `json:"limit"`
	Offset    int               `json:"offset"`
}

// Random returns a random question, optionally restricted to a category.
func (s *TriviaService) Random(ctx context.Context, category string) (*ServedQuestion, error) {
	q, err := s.questions.RandomTrivia(ctx, strings.TrimSpace(category))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NewNotFound("not_found", "No trivia questions available")
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to pick a random trivia question")
		return nil, NewInternal("internal_error", "Failed to load a trivia question")
	}
	return serve(q), nil
}

// ByID returns one question by its id.
func (s *TriviaService) ByID(ctx context.Context, id int64) (*ServedQuestion, error) {
	q, err := s.questions.GetTriviaByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NewNotFound("not_found", "Trivia question not found")
	}
	if err != nil {
		log.Error().Err(err).Int64("id", id).Msg("failed to load trivia question")
		return nil, NewInternal("internal_error", "Failed to load the trivia question")
	}
	return serve(q), nil
}

// ByCategory returns a page of questions in the given category.
func (s *TriviaService) ByCategory(ctx context.Context, category string, limit, offset int) (*ServedPage, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, NewBadRequest("invalid_request", "category is required")
	}
	qs, total, err := s.questions.TriviaByCategory(ctx, category, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("category", category).Msg("failed to list trivia by category")
		return nil, NewInternal("internal_error", "Failed to load trivia questions")
	}
	return servePage(qs, total, limit, offset), nil
}

// Search returns a page of questions whose text matches the query.
func (s *TriviaService) Search(ctx context.Context, query string, limit, offset int) (*ServedPage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, NewBadRequest("invalid_request", "q is required")
	}
	qs, total, err := s.questions.SearchTrivia(ctx, query, limit, offset)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("failed to search trivia")
		return nil, NewInternal("internal_error", "Failed to search trivia questions")
	}
	return servePage(qs, total, limit, offset), nil
}

// Categories lists categories with their question counts.
func (s *TriviaService) Categories(ctx context.Context) ([]store.CategoryCount, error) {
	cats, err := s.questions.ListCategories(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list categories")
		return nil, NewInternal("internal_error", "Failed to load categories")
	}
	if cats == nil {
		cats = []store.CategoryCount{}
	}
	return cats, nil
}

// serve shuffles the correct answer into the wrong answers so option
// position carries no signal.
func serve(q *model.TriviaQuestion) *ServedQuestion {
	options := make([]string, 0, 4)
	options = append(options, q.CorrectAnswer)
	options = append(options, q.WrongAnswers[:]...)
	rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	category := ""
	if q.Clue != nil {
		category = q.Clue.Category
	}
	return &ServedQuestion{
		ID:       q.ID,
		Category: category,
		Question: q.Question,
		Options:  options,
		Answer:   q.CorrectAnswer,
	}
}

func servePage(qs []*model.TriviaQuestion, total int64, limit, offset int) *ServedPage {
	served := make([]*ServedQuestion, 0, len(qs))
	for _, q := range qs {
		served = append(served, serve(q))
	}
	return &ServedPage{Questions: served, Total: total, Limit: limit, Offset: offset}
}
