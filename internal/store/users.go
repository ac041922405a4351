package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trivia-api-service/internal/model"
)

const userColumns = `id, name, email, password_hash, is_admin, created_at, updated_at`

func (p *Postgres) CreateUser(ctx context.Context, user *model.User) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`,
		user.Name, user.Email, user.PasswordHash, user.IsAdmin,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return p.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (p *Postgres) GetUserByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return p.scanUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (p *Postgres) scanUser(ctx context.Context, query string, args ...interface{}) (*model.User, error) {
	var user model.User
	err := p.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.IsAdmin, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}
