package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// SessionCookieName is the cookie carrying the opaque session token.
	SessionCookieName = "ebandeja_session"
	// SessionTTL is the sliding session lifetime; every validated access
	// extends the session by this duration.
	SessionTTL = 8 * time.Hour
	// LoginWindow is the rolling accounting period for failed logins per
	// client address.
	LoginWindow = 15 * time.Minute
	// MaxLoginAttempts is the number of failed logins inside one window
	// after which further attempts from that address are rejected.
	MaxLoginAttempts = 5

	tokenBytes = 32
)

// ErrBadPassword is returned by Login when the candidate password does not
// match the configured one.
var ErrBadPassword = errors.New("contrasena incorrecta")

// RateLimitedError is returned by Login when the calling address exhausted
// its failed-attempt budget. RetryAfter is the remaining window in whole
// seconds, never below 1.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many failed login attempts, retry in %ds", e.RetryAfter)
}

type attemptWindow struct {
	count     int
	startedAt time.Time
}

// Guard validates the shared password, issues and validates session tokens,
// and rate-limits failed attempts per client address. All state lives in
// process memory: a restart invalidates every session and resets every
// counter. Safe for concurrent use.
type Guard struct {
	mu       sync.Mutex
	password []byte
	sessions map[string]time.Time
	attempts map[string]*attemptWindow
	now      func() time.Time
}

// NewGuard creates a Guard for the given shared password.
func NewGuard(password string) *Guard {
	return &Guard{
		password: []byte(password),
		sessions: make(map[string]time.Time),
		attempts: make(map[string]*attemptWindow),
		now:      time.Now,
	}
}

// Authenticated reports whether token maps to a live session. A hit extends
// the session by the full TTL (sliding expiry); a miss has no side effect.
// An empty or unknown token is simply unauthenticated, never an error.
func (g *Guard) Authenticated(token string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.sweepExpired()

	if token == "" {
		return false
	}
	if _, ok := g.sessions[token]; !ok {
		return false
	}
	g.sessions[token] = g.now().Add(SessionTTL)
	return true
}

// Login validates password for a caller at addr. On success the address's
// failure window is cleared and a fresh high-entropy session token is
// returned. A wrong password starts or bumps the failure window and returns
// ErrBadPassword. An exhausted window returns *RateLimitedError before the
// password is even looked at.
func (g *Guard) Login(addr, password string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if retryAfter, limited := g.rateLimited(addr); limited {
		return "", &RateLimitedError{RetryAfter: retryAfter}
	}

	if subtle.ConstantTimeCompare([]byte(password), g.password) != 1 {
		g.registerFailure(addr)
		return "", ErrBadPassword
	}

	delete(g.attempts, addr)

	token, err := mintToken()
	if err != nil {
		return "", fmt.Errorf("mint session token: %w", err)
	}
	g.sessions[token] = g.now().Add(SessionTTL)
	return token, nil
}

// Logout removes the session for token, if any. Idempotent.
func (g *Guard) Logout(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, token)
}

// rateLimited reports whether addr is locked out and for how many seconds.
// An expired window is dropped on the way.
func (g *Guard) rateLimited(addr string) (int, bool) {
	attempt, ok := g.attempts[addr]
	if !ok {
		return 0, false
	}

	elapsed := g.now().Sub(attempt.startedAt)
	if elapsed >= LoginWindow {
		delete(g.attempts, addr)
		return 0, false
	}
	if attempt.count < MaxLoginAttempts {
		return 0, false
	}

	remaining := LoginWindow - elapsed
	retryAfter := int((remaining + time.Second - 1) / time.Second)
	if retryAfter < 1 {
		retryAfter = 1
	}
	return retryAfter, true
}

// registerFailure counts a failed attempt, starting a new window when none
// is active or the prior one elapsed.
func (g *Guard) registerFailure(addr string) {
	now := g.now()
	attempt, ok := g.attempts[addr]
	if !ok || now.Sub(attempt.startedAt) >= LoginWindow {
		g.attempts[addr] = &attemptWindow{count: 1, startedAt: now}
		return
	}
	attempt.count++
}

// sweepExpired lazily purges dead sessions. O(n) over live sessions, which
// is fine at this scale; callers hold the lock.
func (g *Guard) sweepExpired() {
	now := g.now()
	for token, expiresAt := range g.sessions {
		if !expiresAt.After(now) {
			delete(g.sessions, token)
		}
	}
}

func mintToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
