package model

import (
	"time"

	"github.com/google/uuid"
)

type APIKeyStatus string

const (
	StatusActive   APIKeyStatus = "active"
	StatusDisabled APIKeyStatus = "disabled"
)

type APIKey struct {
	ID         uuid.UUID    `json:"id"`
	UserID     uuid.UUID    `json:"user_id"`
	Name       string       `json:"name"`
	KeyHash    string       `json:"-"`
	KeyPrefix  string       `json:"key_prefix"`
	Status     APIKeyStatus `json:"status"`
	LastUsedAt *time.Time   `json:"last_used_at,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// RateLimitPolicy caps how many requests an API key may make within a
// rolling window. A key normally carries exactly one policy, but the
// schema allows several; the guard evaluates every attached policy.
type RateLimitPolicy struct {
	ID            uuid.UUID `json:"id"`
	APIKeyID      uuid.UUID `json:"api_key_id"`
	MaxRequests   int       `json:"max_requests"`
	WindowSeconds int       `json:"window_seconds"`
	Requests      int       `json:"requests"`
	ResetAt       time.Time `json:"reset_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
