package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STORAGE_DRIVER", "PORT", "SERVER_PORT", "SERVER_HOST", "DATABASE_URL",
		"DB_USER", "DB_HOST", "DB_PORT", "DB_NAME", "DB_SSLMODE",
		"JWT_TTL", "CORS_ORIGINS", "REQUEST_TIMEOUT_SECONDS", "TRUST_PROXY",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_PASSWORD", "pw")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverPostgres, cfg.Storage.Driver)
	require.Equal(t, "0.0.0.0:5000", cfg.Address())
	require.Equal(t, "postgres://taskapi:pw@localhost:5432/taskapi?sslmode=disable", cfg.Database.URL)
	require.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	require.Equal(t, []string{"http://localhost:5173"}, cfg.CORS.AllowedOrigins)
	require.False(t, cfg.RateLimit.TrustProxy)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORAGE_DRIVER", "BOLT")
	t.Setenv("PORT", "8081")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "7")
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("DATABASE_URL", "postgres://x")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, DriverBolt, cfg.Storage.Driver)
	require.Equal(t, "8081", cfg.HTTP.Port)
	require.Equal(t, 7*time.Second, cfg.Context.RequestTimeout)
	require.Equal(t, 90*time.Minute, cfg.JWT.TTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	require.Equal(t, "postgres://x", cfg.Database.URL)
	require.True(t, cfg.RateLimit.TrustProxy)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearEnv(t)
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "s3cret")
		t.Setenv("STORAGE_DRIVER", "sqlite")
		_, err := Load()
		require.ErrorContains(t, err, "STORAGE_DRIVER")
	})
}
