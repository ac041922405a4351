package validation

import (
	"strings"
	"testing"
)

func TestKeyName(t *testing.T) {
	t.Run("accepts a normal name", func(t *testing.T) {
		if err := KeyName("production key"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("rejects blank name", func(t *testing.T) {
		if err := KeyName("   "); err == nil || !strings.Contains(err.Error(), "empty") {
			t.Fatalf("expected empty error, got %v", err)
		}
	})

	t.Run("rejects overlong name", func(t *testing.T) {
		if err := KeyName(strings.Repeat("x", 101)); err == nil {
			t.Fatal("expected length error")
		}
	})
}

func TestRateLimit(t *testing.T) {
	t.Run("accepts valid values", func(t *testing.T) {
		if err := RateLimit(100, 3600); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("rejects zero max", func(t *testing.T) {
		if err := RateLimit(0, 3600); err == nil || !strings.Contains(err.Error(), "max_requests") {
			t.Fatalf("expected max_requests error, got %v", err)
		}
	})

	t.Run("rejects zero window", func(t *testing.T) {
		if err := RateLimit(100, 0); err == nil || !strings.Contains(err.Error(), "window_seconds") {
			t.Fatalf("expected window_seconds error, got %v", err)
		}
	})
}

func TestEmail(t *testing.T) {
	t.Run("accepts a valid address", func(t *testing.T) {
		if err := Email("player@example.com"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		if err := Email("not-an-email"); err == nil {
			t.Fatal("expected invalid email error")
		}
	})
}

func TestPassword(t *testing.T) {
	t.Run("rejects short password", func(t *testing.T) {
		if err := Password("short"); err == nil {
			t.Fatal("expected length error")
		}
	})

	t.Run("rejects over 72 bytes", func(t *testing.T) {
		if err := Password(strings.Repeat("p", 73)); err == nil {
			t.Fatal("expected byte-length error")
		}
	})

	t.Run("accepts a reasonable password", func(t *testing.T) {
		if err := Password("correct horse battery"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})
}
