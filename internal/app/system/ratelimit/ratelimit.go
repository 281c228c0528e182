// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter provides rate limiting using a sliding window algorithm.
// It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	limit    int           // max requests per window
	duration time.Duration // window duration
	cleanup  time.Duration // how often to clean old entries
}

type window struct {
	count     int
	expiresAt time.Time
}

// New creates a new rate limiter.
// limit: maximum requests allowed per duration
// duration: the time window for counting requests
func New(limit int, duration time.Duration) *Limiter {
	l := &Limiter{
		windows:  make(map[string]*window),
		limit:    limit,
		duration: duration,
		cleanup:  duration * 2, // cleanup entries older than 2x duration
	}
	go l.cleanupLoop()
	return l
}

// Allow checks if a request from the given key should be allowed.
// Returns true if allowed, false if rate limited.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]

	if !exists || now.After(w.expiresAt) {
		l.windows[key] = &window{
			count:     1,
			expiresAt: now.Add(l.duration),
		}
		return true
	}

	if w.count >= l.limit {
		return false
	}

	w.count++
	return true
}

// Remaining returns how many requests are left for this key in the current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	w, exists := l.windows[key]

	if !exists || now.After(w.expiresAt) {
		return l.limit
	}

	remaining := l.limit - w.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reset clears the rate limit for a specific key.
// Useful after a successful acceptance to reward good behavior.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.windows, key)
}

// cleanupLoop periodically removes expired entries to prevent memory leaks.
func (l *Limiter) cleanupLoop() {
	ticker := time.NewTicker(l.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		now := time.Now()
		for key, w := range l.windows {
			if now.After(w.expiresAt) {
				delete(l.windows, key)
			}
		}
		l.mu.Unlock()
	}
}

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	// X-Forwarded-For is a comma-separated list; first entry is the client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			ip := strings.TrimSpace(parts[0])
			if ip != "" {
				return ip
			}
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr might not have a port
		return r.RemoteAddr
	}
	return ip
}

// TokenLimiter provides specialized rate limiting for invitation token
// endpoints. Tokens are unguessable but long-lived, so it tracks both
// IP-based and per-token limits to prevent:
//   - token scanning from a single source
//   - hammering a specific invitation from many sources
type TokenLimiter struct {
	ipLimiter    *Limiter
	tokenLimiter *Limiter
}

// NewTokenLimiter creates a limiter configured for token endpoint
// protection. Defaults: 20 attempts per IP per minute, 10 attempts per
// token per 5 minutes.
func NewTokenLimiter() *TokenLimiter {
	return &TokenLimiter{
		ipLimiter:    New(20, time.Minute),
		tokenLimiter: New(10, 5*time.Minute),
	}
}

// NewTokenLimiterWithConfig creates a token limiter with custom limits.
func NewTokenLimiterWithConfig(ipLimit int, ipDuration time.Duration, tokenLimit int, tokenDuration time.Duration) *TokenLimiter {
	return &TokenLimiter{
		ipLimiter:    New(ipLimit, ipDuration),
		tokenLimiter: New(tokenLimit, tokenDuration),
	}
}

// Check verifies if a token operation should be allowed.
// Returns (allowed, reason) where reason explains why it was blocked.
func (tl *TokenLimiter) Check(r *http.Request, token string) (bool, string) {
	ip := ClientIP(r)

	if !tl.ipLimiter.Allow(ip) {
		return false, "Too many invitation requests. Please wait a minute before trying again."
	}

	if token != "" {
		if !tl.tokenLimiter.Allow(token) {
			return false, "Too many attempts for this invitation. Please wait a few minutes."
		}
	}

	return true, ""
}

// ResetToken clears the rate limit for a token after a successful
// acceptance, so a legitimate retry of a follow-up call is not blocked.
func (tl *TokenLimiter) ResetToken(token string) {
	if token != "" {
		tl.tokenLimiter.Reset(token)
	}
}
