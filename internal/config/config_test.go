package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL": "postgres://localhost/resto",
		"REDIS_URL":    "redis://localhost:6379/0",
		"JWT_SECRET":   "secret",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, "5493834968345", cfg.BusinessPhone)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), cfg.MetricsEpoch)
	require.Equal(t, "America/Argentina/Catamarca", cfg.Location().String())
	require.Equal(t, 10*time.Minute, cfg.IdempotencyTTL)
	require.True(t, cfg.AuditEnabled)
	require.Equal(t, "resto", cfg.MetricsNamespace)
	require.Equal(t, "json", cfg.LogFormat)
	require.False(t, cfg.TracingEnabled)
	require.False(t, cfg.PprofEnabled)
}

func TestLoadRequiresSecrets(t *testing.T) {
	env := baseEnv()
	env["JWT_SECRET"] = ""
	_, err := LoadForTests(env)
	require.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoadRejectsBadTimezone(t *testing.T) {
	env := baseEnv()
	env["APP_TIMEZONE"] = "Mars/Olympus"
	_, err := LoadForTests(env)
	require.ErrorContains(t, err, "APP_TIMEZONE")
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["PORT"] = ":9000"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.test, https://b.test"
	env["AUDIT_ENABLED"] = "false"
	env["METRICS_EPOCH"] = "2024-06-01"
	cfg, err := LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORSAllowedOrigins)
	require.False(t, cfg.AuditEnabled)
	require.Equal(t, 2024, cfg.MetricsEpoch.Year())
}
