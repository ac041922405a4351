package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/trivia-api-service/internal/model"
)

func (p *Postgres) FindPolicies(ctx context.Context, apiKeyID uuid.UUID) ([]*model.RateLimitPolicy, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT id, api_key_id, max_requests, window_seconds, requests, reset_at, created_at, updated_at
		FROM rate_limit_policies
		WHERE api_key_id = $1
		ORDER BY created_at ASC
	`, apiKeyID)
	if err != nil {
		return nil, fmt.Errorf("find rate_limit_policies: %w", err)
	}
	defer rows.Close()

	var policies []*model.RateLimitPolicy
	for rows.Next() {
		var policy model.RateLimitPolicy
		err := rows.Scan(
			&policy.ID, &policy.APIKeyID, &policy.MaxRequests, &policy.WindowSeconds,
			&policy.Requests, &policy.ResetAt, &policy.CreatedAt, &policy.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan rate_limit_policy: %w", err)
		}
		policies = append(policies, &policy)
	}
	return policies, rows.Err()
}

func (p *Postgres) CreatePolicy(ctx context.Context, policy *model.RateLimitPolicy) error {
	err := p.pool.QueryRow(ctx, `
		INSERT INTO rate_limit_policies (api_key_id, max_requests, window_seconds, requests, reset_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`,
		policy.APIKeyID, policy.MaxRequests, policy.WindowSeconds, policy.Requests, policy.ResetAt,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert rate_limit_policy: %w", err)
	}
	return nil
}

func (p *Postgres) ResetPolicy(ctx context.Context, id uuid.UUID, resetAt time.Time) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE rate_limit_policies
		SET requests = 1, reset_at = $1, updated_at = NOW()
		WHERE id = $2
	`, resetAt, id)
	if err != nil {
		return fmt.Errorf("reset rate_limit_policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rate limit policy not found")
	}
	return nil
}

func (p *Postgres) IncrementPolicy(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE rate_limit_policies
		SET requests = requests + 1, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("increment rate_limit_policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rate limit policy not found")
	}
	return nil
}

func (p *Postgres) ReplacePolicy(ctx context.Context, id uuid.UUID, maxRequests, windowSeconds int, resetAt time.Time) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE rate_limit_policies
		SET max_requests = $1, window_seconds = $2, requests = 0, reset_at = $3, updated_at = NOW()
		WHERE id = $4
	`, maxRequests, windowSeconds, resetAt, id)
	if err != nil {
		return fmt.Errorf("replace rate_limit_policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("rate limit policy not found")
	}
	return nil
}
