package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// AuthAttemptLimiter tracks failed credential checks per client and
// temporarily blocks clients that keep failing. It sits in front of
// both API key and user token authentication, keyed by client IP so a
// brute-force run cannot guess keys or passwords at full speed.
type AuthAttemptLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientRecord

	maxFailures   int
	window        time.Duration
	blockDuration time.Duration

	lastSweep     time.Time
	sweepEvery    time.Duration
	staleRecordTTL time.Duration
}

type clientRecord struct {
	failures     int
	windowStart  time.Time
	blockedUntil time.Time
	touched      time.Time
}

// expireWindow drops the failure streak once the counting window has
// passed without reaching the block threshold.
func (c *clientRecord) expireWindow(window time.Duration, now time.Time) {
	if now.Sub(c.windowStart) > window {
		c.failures = 0
		c.windowStart = now
	}
}

func NewAuthAttemptLimiter(maxFailures int, window, blockDuration time.Duration) *AuthAttemptLimiter {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if window <= 0 {
		window = 5 * time.Minute
	}
	if blockDuration <= 0 {
		blockDuration = 15 * time.Minute
	}

	return &AuthAttemptLimiter{
		clients:       make(map[string]*clientRecord),
		maxFailures:   maxFailures,
		window:        window,
		blockDuration: blockDuration,
		lastSweep:     time.Now(),
		sweepEvery:    5 * time.Minute,
		staleRecordTTL: 24 * time.Hour,
	}
}

// allow reports whether the client may attempt authentication at all.
// A blocked client is refused before any credential is inspected.
func (l *AuthAttemptLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	defer l.sweepLocked(now)

	rec, ok := l.clients[key]
	if !ok {
		return true
	}

	rec.touched = now
	if now.Before(rec.blockedUntil) {
		return false
	}
	rec.expireWindow(l.window, now)
	return true
}

// registerFailure records a failed credential check. Reaching the
// threshold within the window blocks the client and restarts the count.
func (l *AuthAttemptLimiter) registerFailure(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	defer l.sweepLocked(now)

	rec, ok := l.clients[key]
	if !ok {
		l.clients[key] = &clientRecord{failures: 1, windowStart: now, touched: now}
		return
	}

	rec.touched = now
	rec.expireWindow(l.window, now)

	rec.failures++
	if rec.failures >= l.maxFailures {
		rec.blockedUntil = now.Add(l.blockDuration)
		rec.failures = 0
		rec.windowStart = now
	}
}

// registerSuccess clears the client's record; a valid credential ends
// any failure streak.
func (l *AuthAttemptLimiter) registerSuccess(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.clients, key)
	l.sweepLocked(time.Now())
}

// sweepLocked drops records idle past staleRecordTTL. Piggybacking on
// regular calls keeps the map bounded without a background goroutine.
func (l *AuthAttemptLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.sweepEvery {
		return
	}

	for key, rec := range l.clients {
		if now.Sub(rec.touched) > l.staleRecordTTL && now.After(rec.blockedUntil) {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// clientIPKey builds the limiter key from the request's client IP. The
// prefix keeps API key and user token streaks counted separately.
func clientIPKey(r *http.Request, prefix string) string {
	host := r.RemoteAddr
	if parsedHost, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = parsedHost
	}
	if host == "" {
		host = "unknown"
	}
	return prefix + ":" + host
}
