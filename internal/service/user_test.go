package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"golang.org/x/crypto/bcrypt"

	"github.com/trivia-api-service/internal/model"
	"github.com/trivia-api-service/internal/store"
)

type fakeUserStore struct {
	store.UserStore

	byEmail map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byEmail: make(map[string]*model.User)}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = uuid.New()
	user.CreatedAt = time.Now().UTC()
	f.byEmail[user.Email] = user
	return nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestRegister(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users, testSecret, time.Hour)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Alex",
		Email:    "Alex@Example.COM",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if user.Email != "alex@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.PasswordHash == "hunter2hunter2" || user.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("hunter2hunter2")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewUserService(newFakeUserStore(), testSecret, time.Hour)

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@b.com", Password: "longenough"}},
		{"bad email", RegisterInput{Name: "A", Email: "not-an-email", Password: "longenough"}},
		{"short password", RegisterInput{Name: "A", Email: "a@b.com", Password: "short"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.input)
			assertKind(t, err, ErrBadRequest)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewUserService(newFakeUserStore(), testSecret, time.Hour)
	input := RegisterInput{Name: "A", Email: "dup@example.com", Password: "longenough"}

	if _, err := svc.Register(context.Background(), input); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	_, err := svc.Register(context.Background(), input)
	assertKind(t, err, ErrConflict)
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users, testSecret, time.Hour)

	user, err := svc.Register(context.Background(), RegisterInput{
		Name: "A", Email: "a@b.com", Password: "longenough",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := svc.Login(context.Background(), "a@b.com", "longenough")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	token, err := jwt.Parse([]byte(res.Token), jwt.WithKey(jwa.HS256, testSecret), jwt.WithValidate(true))
	if err != nil {
		t.Fatalf("issued token does not parse: %v", err)
	}
	if token.Subject() != user.ID.String() {
		t.Errorf("subject = %q, want user id %q", token.Subject(), user.ID)
	}
	if !token.Expiration().After(time.Now()) {
		t.Error("token already expired")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	users := newFakeUserStore()
	svc := NewUserService(users, testSecret, time.Hour)

	if _, err := svc.Register(context.Background(), RegisterInput{
		Name: "A", Email: "a@b.com", Password: "longenough",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "a@b.com", "wrongwrong")
		assertKind(t, err, ErrUnauthorized)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(context.Background(), "nobody@b.com", "longenough")
		assertKind(t, err, ErrUnauthorized)
	})
}
