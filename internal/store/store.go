package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/trivia-api-service/internal/model"
)

// APIKeyStore defines operations for API key management.
type APIKeyStore interface {
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
	GetAPIKeyByHash(ctx context.Context, keyHash string) (*model.APIKey, error)
	GetAPIKeyByID(ctx context.Context, id uuid.UUID) (*model.APIKey, error)
	ListAPIKeysByUser(ctx context.Context, userID uuid.UUID) ([]*model.APIKey, error)
	CountAPIKeys(ctx context.Context) (int, error)
	UpdateAPIKeyStatus(ctx context.Context, id uuid.UUID, status model.APIKeyStatus) error
	DeleteAPIKey(ctx context.Context, id uuid.UUID) error
	TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error
}

// PolicyStore defines operations for rate-limit policy state.
type PolicyStore interface {
	FindPolicies(ctx context.Context, apiKeyID uuid.UUID) ([]*model.RateLimitPolicy, error)
	CreatePolicy(ctx context.Context, policy *model.RateLimitPolicy) error
	// ResetPolicy starts a new window: requests = 1, reset_at = resetAt.
	ResetPolicy(ctx context.Context, id uuid.UUID, resetAt time.Time) error
	// IncrementPolicy atomically adds one to the request count.
	IncrementPolicy(ctx context.Context, id uuid.UUID) error
	// ReplacePolicy reconfigures ceiling and window wholesale and restarts
	// the current window with a zero count.
	ReplacePolicy(ctx context.Context, id uuid.UUID, maxRequests, windowSeconds int, resetAt time.Time) error
}

// ClueRange bounds a batch scan by inclusive clue ids. Zero means unbounded.
type ClueRange struct {
	StartID int64
	EndID   int64
}

// CategoryCount pairs a category name with its trivia question count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"trivia_count"`
}

// QuestionStore defines operations over clues and derived trivia questions.
type QuestionStore interface {
	CountClues(ctx context.Context, r ClueRange) (int64, error)
	// PageClues returns up to limit clues with id > after, ascending,
	// bounded above by r.EndID when set.
	PageClues(ctx context.Context, after int64, r ClueRange, limit int) ([]*model.Clue, error)
	FindTriviaByClue(ctx context.Context, clueID int64) (*model.TriviaQuestion, error)
	CreateTrivia(ctx context.Context, q *model.TriviaQuestion) error
	GetTriviaByID(ctx context.Context, id int64) (*model.TriviaQuestion, error)
	RandomTrivia(ctx context.Context, category string) (*model.TriviaQuestion, error)
	TriviaByCategory(ctx context.Context, category string, limit, offset int) ([]*model.TriviaQuestion, int64, error)
	SearchTrivia(ctx context.Context, query string, limit, offset int) ([]*model.TriviaQuestion, int64, error)
	ListCategories(ctx context.Context) ([]CategoryCount, error)
	CountTrivia(ctx context.Context) (int64, error)
}

// UserStore defines operations for user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Store combines all store interfaces.
type Store interface {
	APIKeyStore
	PolicyStore
	QuestionStore
	UserStore
}
