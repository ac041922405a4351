// Package ratelimit implements the fixed-window counter state machine
// behind per-API-key rate limiting. It is pure: callers supply the policy
// snapshot and the current time, and persist the resulting transition.
package ratelimit

import (
	"math"
	"time"

	"github.com/trivia-api-service/internal/model"
)

// Action is the state transition the caller must persist.
type Action int

const (
	// ActionReset starts a new window with the current request counted.
	ActionReset Action = iota
	// ActionConsume increments the count within the active window.
	ActionConsume
	// ActionDeny leaves the policy untouched and rejects the request.
	ActionDeny
)

// Decision is the outcome of evaluating one policy at one instant.
type Decision struct {
	Allowed           bool
	Action            Action
	Limit             int
	Remaining         int
	ResetAt           time.Time
	RetryAfterSeconds int
}

// Evaluate runs check-and-consume against a policy snapshot.
//
// If the window has expired the count resets to 1 (the current request is
// immediately counted). Otherwise a full window denies, and anything else
// consumes one request; remaining is computed from the pre-increment count.
func Evaluate(policy *model.RateLimitPolicy, now time.Time) Decision {
	window := time.Duration(policy.WindowSeconds) * time.Second

	if now.After(policy.ResetAt) {
		resetAt := now.Add(window)
		return Decision{
			Allowed:           true,
			Action:            ActionReset,
			Limit:             policy.MaxRequests,
			Remaining:         policy.MaxRequests - 1,
			ResetAt:           resetAt,
			RetryAfterSeconds: policy.WindowSeconds,
		}
	}

	retryAfter := secondsUntil(policy.ResetAt, now)

	if policy.Requests >= policy.MaxRequests {
		return Decision{
			Allowed:           false,
			Action:            ActionDeny,
			Limit:             policy.MaxRequests,
			Remaining:         0,
			ResetAt:           policy.ResetAt,
			RetryAfterSeconds: retryAfter,
		}
	}

	return Decision{
		Allowed:           true,
		Action:            ActionConsume,
		Limit:             policy.MaxRequests,
		Remaining:         policy.MaxRequests - policy.Requests - 1,
		ResetAt:           policy.ResetAt,
		RetryAfterSeconds: retryAfter,
	}
}

// Peek reports the remaining budget without consuming a request.
func Peek(policy *model.RateLimitPolicy, now time.Time) int {
	if now.After(policy.ResetAt) {
		return policy.MaxRequests
	}
	remaining := policy.MaxRequests - policy.Requests
	if remaining < 0 {
		return 0
	}
	return remaining
}

func secondsUntil(resetAt, now time.Time) int {
	seconds := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if seconds < 0 {
		return 0
	}
	return seconds
}
