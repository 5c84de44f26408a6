package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Status.Interval)
	assert.Equal(t, 5*time.Second, cfg.Status.FetchTimeout)
	assert.Equal(t, "permissive", cfg.Applications.Transitions)
	assert.False(t, cfg.Applications.AllowDuplicates)
	assert.Equal(t, "http://127.0.0.1:30120", cfg.FiveM.BaseURL())
	assert.False(t, cfg.Discord.Enabled())
	assert.False(t, cfg.Email.Enabled())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownTransitionPolicy(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APPLICATION_TRANSITIONS", "anything-goes")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("STATUS_BROADCAST_INTERVAL", "10s")
	t.Setenv("APPLICATION_TRANSITIONS", "STRICT")
	t.Setenv("APPLICATION_ALLOW_DUPLICATES", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Status.Interval)
	assert.Equal(t, "strict", cfg.Applications.Transitions)
	assert.True(t, cfg.Applications.AllowDuplicates)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}
