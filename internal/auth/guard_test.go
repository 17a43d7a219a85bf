package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward deterministically.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestGuard(password string) (*Guard, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	g := NewGuard(password)
	g.now = clock.now
	return g, clock
}

func TestLoginSuccess(t *testing.T) {
	g, _ := newTestGuard("secreto")

	token, err := g.Login("10.0.0.1", "secreto")
	require.NoError(t, err)
	assert.Len(t, token, tokenBytes*2) // hex encoded
	assert.True(t, g.Authenticated(token))
}

func TestLoginWrongPassword(t *testing.T) {
	g, _ := newTestGuard("secreto")

	token, err := g.Login("10.0.0.1", "nope")
	assert.ErrorIs(t, err, ErrBadPassword)
	assert.Empty(t, token)
}

func TestRateLimitAfterMaxAttempts(t *testing.T) {
	g, _ := newTestGuard("secreto")

	// First five failures all yield a password error, not a lockout.
	for i := 0; i < MaxLoginAttempts; i++ {
		_, err := g.Login("10.0.0.1", "nope")
		assert.ErrorIs(t, err, ErrBadPassword)
	}

	// Sixth attempt is rejected before the password is checked, even when
	// the password is correct.
	_, err := g.Login("10.0.0.1", "secreto")
	var rle *RateLimitedError
	require.True(t, errors.As(err, &rle))
	assert.GreaterOrEqual(t, rle.RetryAfter, 1)
	assert.LessOrEqual(t, rle.RetryAfter, int(LoginWindow/time.Second))

	// A different address is unaffected.
	_, err = g.Login("10.0.0.2", "secreto")
	assert.NoError(t, err)
}

func TestRateLimitWindowExpires(t *testing.T) {
	g, clock := newTestGuard("secreto")

	for i := 0; i < MaxLoginAttempts; i++ {
		_, _ = g.Login("10.0.0.1", "nope")
	}
	_, err := g.Login("10.0.0.1", "secreto")
	var rle *RateLimitedError
	require.True(t, errors.As(err, &rle))

	clock.advance(LoginWindow)

	_, err = g.Login("10.0.0.1", "secreto")
	assert.NoError(t, err)
}

func TestRetryAfterShrinksWithElapsedTime(t *testing.T) {
	g, clock := newTestGuard("secreto")

	for i := 0; i < MaxLoginAttempts; i++ {
		_, _ = g.Login("10.0.0.1", "nope")
	}

	clock.advance(14 * time.Minute)

	_, err := g.Login("10.0.0.1", "secreto")
	var rle *RateLimitedError
	require.True(t, errors.As(err, &rle))
	assert.Equal(t, 60, rle.RetryAfter)
}

func TestSuccessfulLoginClearsFailures(t *testing.T) {
	g, _ := newTestGuard("secreto")

	for i := 0; i < MaxLoginAttempts-1; i++ {
		_, _ = g.Login("10.0.0.1", "nope")
	}
	_, err := g.Login("10.0.0.1", "secreto")
	require.NoError(t, err)

	// Counter restarted: five more wrong attempts are needed before lockout.
	for i := 0; i < MaxLoginAttempts; i++ {
		_, err = g.Login("10.0.0.1", "nope")
		assert.ErrorIs(t, err, ErrBadPassword)
	}
	_, err = g.Login("10.0.0.1", "nope")
	var rle *RateLimitedError
	assert.True(t, errors.As(err, &rle))
}

func TestSessionSlidingExpiry(t *testing.T) {
	g, clock := newTestGuard("secreto")

	token, err := g.Login("10.0.0.1", "secreto")
	require.NoError(t, err)

	// Just before expiry the session is alive, and the access renews it.
	clock.advance(SessionTTL - time.Minute)
	assert.True(t, g.Authenticated(token))

	// Another near-full TTL later the renewed session is still alive.
	clock.advance(SessionTTL - time.Minute)
	assert.True(t, g.Authenticated(token))

	// Left untouched past the TTL, it expires.
	clock.advance(SessionTTL + time.Minute)
	assert.False(t, g.Authenticated(token))
}

func TestAuthenticatedMissHasNoSideEffect(t *testing.T) {
	g, _ := newTestGuard("secreto")

	assert.False(t, g.Authenticated(""))
	assert.False(t, g.Authenticated("garbled"))
	assert.Empty(t, g.sessions)
}

func TestExpiredSessionsAreSwept(t *testing.T) {
	g, clock := newTestGuard("secreto")

	token, err := g.Login("10.0.0.1", "secreto")
	require.NoError(t, err)

	clock.advance(SessionTTL + time.Second)

	// Any status check purges the dead session from the store.
	assert.False(t, g.Authenticated("other"))
	_, alive := g.sessions[token]
	assert.False(t, alive)
}

func TestLogoutIsIdempotent(t *testing.T) {
	g, _ := newTestGuard("secreto")

	token, err := g.Login("10.0.0.1", "secreto")
	require.NoError(t, err)

	g.Logout(token)
	assert.False(t, g.Authenticated(token))

	// Repeated and cookie-less logouts never error.
	g.Logout(token)
	g.Logout("")
}
