package validation

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxKeyNameLength  = 100
	maxWindowSeconds  = 86400 * 30 // 30 days
	maxRequestCeiling = 1_000_000
	minPasswordLength = 8
)

// KeyName validates a user-supplied API key label.
func KeyName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxKeyNameLength {
		return fmt.Errorf("name cannot exceed %d characters", maxKeyNameLength)
	}
	return nil
}

// RateLimit validates a rate-limit policy configuration.
func RateLimit(maxRequests, windowSeconds int) error {
	if maxRequests < 1 {
		return fmt.Errorf("max_requests must be at least 1")
	}
	if maxRequests > maxRequestCeiling {
		return fmt.Errorf("max_requests cannot exceed %d", maxRequestCeiling)
	}
	if windowSeconds < 1 {
		return fmt.Errorf("window_seconds must be at least 1")
	}
	if windowSeconds > maxWindowSeconds {
		return fmt.Errorf("window_seconds cannot exceed %d", maxWindowSeconds)
	}
	return nil
}

// Email validates an email address.
func Email(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

// Password validates a plaintext password before hashing.
func Password(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	// bcrypt truncates input beyond 72 bytes.
	if len(password) > 72 {
		return fmt.Errorf("password cannot exceed 72 bytes")
	}
	return nil
}
