package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoginRateLimiterWindow(t *testing.T) {
	rl := NewLoginRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "other keys are independent")

	assert.Equal(t, 61, rl.RetryAfterSeconds("1.2.3.4"))

	now = now.Add(61 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"), "new window")

	rl.Reset("5.6.7.8")
	assert.Equal(t, 0, rl.RetryAfterSeconds("5.6.7.8"))
}

func TestLoginRateLimiterCleanup(t *testing.T) {
	rl := NewLoginRateLimiter(1, time.Minute)
	defer rl.Stop()

	now := time.Now()
	rl.now = func() time.Time { return now }
	rl.Allow("a")

	now = now.Add(2 * time.Minute)
	rl.cleanup()
	assert.Empty(t, rl.buckets)
}

func TestExtractIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ExtractIP(r))

	r.Header.Set("X-Real-IP", "172.16.0.9")
	assert.Equal(t, "172.16.0.9", ExtractIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")
	assert.Equal(t, "203.0.113.7", ExtractIP(r))
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "45 second(s)", FormatRetryMessage(45))
	assert.Equal(t, "2 minute(s)", FormatRetryMessage(120))
}

func TestUserLimiter(t *testing.T) {
	l := NewUserLimiter(time.Hour, 2)

	assert.True(t, l.Allow(1))
	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1))
	assert.True(t, l.Allow(2))

	assert.Greater(t, l.RetryAfter(1), 30*time.Minute)
	assert.Equal(t, 0, l.Cleanup(), "recently seen users are kept")
}
