package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/trivia-api-service/internal/model"
	"github.com/trivia-api-service/internal/store"
)

type fakeQuestionStore struct {
	store.QuestionStore

	byID map[int64]*model.TriviaQuestion
}

func (f *fakeQuestionStore) GetTriviaByID(ctx context.Context, id int64) (*model.TriviaQuestion, error) {
	if q, ok := f.byID[id]; ok {
		return q, nil
	}
	return nil, pgx.ErrNoRows
}

func sampleQuestion() *model.TriviaQuestion {
	return &model.TriviaQuestion{
		ID:            7,
		ClueID:        1000,
		Question:      "Which planet is known as the Red Planet?",
		CorrectAnswer: "Mars",
		WrongAnswers:  [3]string{"Venus", "Jupiter", "Mercury"},
		Model:         "qwq:32b",
		Clue:          &model.Clue{ID: 1000, Category: "ASTRONOMY"},
	}
}

func TestServeShufflesAllOptions(t *testing.T) {
	q := sampleQuestion()

	// Shuffling is random; check the invariants over many draws.
	positions := make(map[int]bool)
	for i := 0; i < 100; i++ {
		served := serve(q)

		if len(served.Options) != 4 {
			t.Fatalf("options = %d, want 4", len(served.Options))
		}
		seen := make(map[string]bool, 4)
		for _, opt := range served.Options {
			seen[opt] = true
		}
		for _, want := range []string{"Mars", "Venus", "Jupiter", "Mercury"} {
			if !seen[want] {
				t.Fatalf("option %q missing from %v", want, served.Options)
			}
		}
		if served.Answer != "Mars" {
			t.Fatalf("answer = %q, want Mars", served.Answer)
		}
		for idx, opt := range served.Options {
			if opt == "Mars" {
				positions[idx] = true
			}
		}
	}

	if len(positions) < 2 {
		t.Error("correct answer never moved; options are not shuffled")
	}
}

func TestServeCarriesClueCategory(t *testing.T) {
	served := serve(sampleQuestion())
	if served.Category != "ASTRONOMY" {
		t.Errorf("category = %q, want ASTRONOMY", served.Category)
	}
	if served.ID != 7 {
		t.Errorf("id = %d, want 7", served.ID)
	}
}

func TestByIDNotFound(t *testing.T) {
	svc := NewTriviaService(&fakeQuestionStore{byID: map[int64]*model.TriviaQuestion{}})

	_, err := svc.ByID(context.Background(), 99)
	assertKind(t, err, ErrNotFound)
}

func TestByIDServesStoredQuestion(t *testing.T) {
	q := sampleQuestion()
	svc := NewTriviaService(&fakeQuestionStore{byID: map[int64]*model.TriviaQuestion{q.ID: q}})

	served, err := svc.ByID(context.Background(), q.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if served.Question != q.Question {
		t.Errorf("question = %q", served.Question)
	}
	if len(served.Options) != 4 {
		t.Errorf("options = %d, want 4", len(served.Options))
	}
}
