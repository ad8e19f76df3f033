package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("PORT", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("POLL_INTERVAL", "")
	t.Setenv("SSE_INTERVAL", "")
	t.Setenv("MESSAGE_RETENTION", "")
	t.Setenv("SESSION_IDLE_TIMEOUT", "")
	t.Setenv("S3_BUCKET_NAME", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, defaultJWTSecret, cfg.JWTSecret)
	require.Empty(t, cfg.AllowedOrigins)
	require.Equal(t, 5*time.Second, cfg.PollInterval)
	require.Equal(t, 2*time.Second, cfg.SSEInterval)
	require.Equal(t, 22*time.Hour, cfg.MessageRetention)
	require.Equal(t, 10*time.Minute, cfg.SessionIdleTimeout)
	require.False(t, cfg.AttachmentsEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "https://meet.google.com, ,https://gmpro.app")
	t.Setenv("POLL_INTERVAL", "1s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "s3cret", cfg.JWTSecret)
	require.Equal(t, []string{"https://meet.google.com", "https://gmpro.app"}, cfg.AllowedOrigins)
	require.Equal(t, time.Second, cfg.PollInterval)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing secret in production", env: map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": ""}},
		{name: "privileged port", env: map[string]string{"ENVIRONMENT": "development", "PORT": "80"}},
		{name: "bad port", env: map[string]string{"ENVIRONMENT": "development", "PORT": "eighty"}},
		{name: "bad duration", env: map[string]string{"ENVIRONMENT": "development", "POLL_INTERVAL": "soon"}},
		{name: "negative duration", env: map[string]string{"ENVIRONMENT": "development", "SSE_INTERVAL": "-1s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
