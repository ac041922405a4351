package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/trivia-api-service/internal/model"
	"github.com/trivia-api-service/internal/store"
	"github.com/trivia-api-service/internal/validation"
)

// UserService handles account registration and login.
type UserService struct {
	users     store.UserStore
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewUserService creates a new user service. Issued tokens are HS256
// JWTs signed with jwtSecret.
func NewUserService(users store.UserStore, jwtSecret []byte, tokenTTL time.Duration) *UserService {
	return &UserService{users: users, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// RegisterInput contains the parameters for creating an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register validates input, hashes the password, and creates the account.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, NewBadRequest("invalid_request", "name is required")
	}
	if err := validation.Email(input.Email); err != nil {
		return nil, NewBadRequest("invalid_request", err.Error())
	}
	if err := validation.Password(input.Password); err != nil {
		return nil, NewBadRequest("invalid_request", err.Error())
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if existing, err := s.users.GetUserByEmail(ctx, email); err == nil && existing != nil {
		return nil, NewConflict("email_taken", "An account with this email already exists")
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		log.Error().Err(err).Msg("failed to look up email")
		return nil, NewInternal("internal_error", "Failed to create account")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash password")
		return nil, NewInternal("internal_error", "Failed to create account")
	}

	user := &model.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		log.Error().Err(err).Msg("failed to create user")
		return nil, NewInternal("internal_error", "Failed to create account")
	}
	return user, nil
}

// LoginResult contains the authenticated user and their bearer token.
type LoginResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

// Login verifies credentials and issues a signed token. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, NewBadRequest("invalid_request", "email and password are required")
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NewUnauthorized("invalid_credentials", "Invalid email or password")
	}
	if err != nil {
		log.Error().Err(err).Msg("failed to look up user")
		return nil, NewInternal("internal_error", "Failed to log in")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, NewUnauthorized("invalid_credentials", "Invalid email or password")
	}

	expiresAt := time.Now().UTC().Add(s.tokenTTL)
	token, err := s.issueToken(user, expiresAt)
	if err != nil {
		log.Error().Err(err).Msg("failed to sign token")
		return nil, NewInternal("internal_error", "Failed to log in")
	}

	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *UserService) issueToken(user *model.User, expiresAt time.Time) (string, error) {
	token, err := jwt.NewBuilder().
		Subject(user.ID.String()).
		IssuedAt(time.Now().UTC()).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.jwtSecret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}
