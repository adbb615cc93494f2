package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 15*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiration)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, "lax", cfg.Session.CookieSameSite)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.RateLimit.TrustedProxies)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_ACCESS_EXPIRATION", "5m")
	t.Setenv("JWT_REFRESH_EXPIRATION", "not-a-duration")
	t.Setenv("SESSION_COOKIE_SAMESITE", "Strict")
	t.Setenv("SESSION_COOKIE_SECURE", "false")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com/, https://b.example.com")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.1.10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshExpiration)
	assert.Equal(t, "strict", cfg.Session.CookieSameSite)
	assert.False(t, cfg.Session.CookieSecure)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.10"}, cfg.RateLimit.TrustedProxies)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("same site", func(t *testing.T) {
		t.Setenv("SESSION_COOKIE_SAMESITE", "sometimes")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "mysql")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("production secret", func(t *testing.T) {
		t.Setenv("ENV", EnvProduction)
		_, err := Load()
		assert.Error(t, err)
	})
}
