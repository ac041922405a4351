package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/trivia-api-service/internal/model"
)

const apiKeyColumns = `id, user_id, name, key_hash, key_prefix, status,
	last_used_at, created_at, updated_at`

func (p *Postgres) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO api_keys (user_id, name, key_hash, key_prefix, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`,
		key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.Status,
	).Scan(&key.ID, &key.CreatedAt, &key.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert api_key: %w", err)
	}
	return nil
}

func (p *Postgres) GetAPIKeyByHash(ctx context.Context, keyHash string) (*model.APIKey, error) {
	return p.scanAPIKey(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE key_hash = $1`, keyHash)
}

func (p *Postgres) GetAPIKeyByID(ctx context.Context, id uuid.UUID) (*model.APIKey, error) {
	return p.scanAPIKey(ctx, `SELECT `+apiKeyColumns+` FROM api_keys WHERE id = $1`, id)
}

func (p *Postgres) ListAPIKeysByUser(ctx context.Context, userID uuid.UUID) ([]*model.APIKey, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+apiKeyColumns+` FROM api_keys WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api_keys: %w", err)
	}
	defer rows.Close()

	var keys []*model.APIKey
	for rows.Next() {
		key, err := scanAPIKeyFromRow(rows)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (p *Postgres) CountAPIKeys(ctx context.Context) (int, error) {
	var count int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(*) FROM api_keys`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count api_keys: %w", err)
	}
	return count, nil
}

func (p *Postgres) UpdateAPIKeyStatus(ctx context.Context, id uuid.UUID, status model.APIKeyStatus) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE api_keys SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("update api_key status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("api key not found")
	}
	return nil
}

func (p *Postgres) DeleteAPIKey(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete api_key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("api key not found")
	}
	return nil
}

func (p *Postgres) TouchLastUsed(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := p.pool.Exec(ctx, `
		UPDATE api_keys SET last_used_at = $1 WHERE id = $2
	`, at, id)
	if err != nil {
		return fmt.Errorf("touch api_key last_used_at: %w", err)
	}
	return nil
}

func (p *Postgres) scanAPIKey(ctx context.Context, query string, args ...interface{}) (*model.APIKey, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query api_key: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, pgx.ErrNoRows
	}
	return scanAPIKeyFromRow(rows)
}

func scanAPIKeyFromRow(rows pgx.Rows) (*model.APIKey, error) {
	var key model.APIKey
	err := rows.Scan(
		&key.ID, &key.UserID, &key.Name, &key.KeyHash, &key.KeyPrefix,
		&key.Status, &key.LastUsedAt, &key.CreatedAt, &key.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan api_key: %w", err)
	}
	return &key, nil
}
