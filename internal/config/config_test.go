package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"AQVE_CONFIG", "AQVE_API_URL", "AQVE_TIMEOUT", "AQVE_REFRESH_SCHEDULE",
	"AQVE_LOG_LEVEL", "AQVE_LOG_FORMAT", "AQVE_TOKEN_STORE", "AQVE_TOKEN_FILE",
	"AQVE_TOKEN_PASSPHRASE", "DATABASE_URL", "AQVE_TOKEN_DIR", "STRIPE_KEY", "PORT", "JWT_SECRET",
	"AQVE_TOKEN_TTL", "AQVE_NOTIFY_EMAIL", "AQVE_NOTIFY_PHONE",
	"SENDGRID_API_KEY", "SENDGRID_FROM_EMAIL", "SENDGRID_FROM_NAME",
	"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_FROM_NUMBER",
	"STRIPE_WEBHOOK_SECRET", "AQVE_JOB_SCHEDULE", "AQVE_RATE_LIMIT", "AQVE_RATE_BURST",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, StoreFile, cfg.TokenStore.Driver)
	assert.Equal(t, "Aqve", cfg.SendGrid.FromName)
	assert.False(t, cfg.SendGridEnabled())
	assert.False(t, cfg.TwilioEnabled())
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "aqve.yaml")
	content := `
api_url: https://api.aqve.ge/api
timeout: 5s
log:
  level: debug
  format: json
token_store:
  driver: postgres
  database_url: ${TEST_DB_URL}
notify:
  email: driver@aqve.ge
sendgrid:
  api_key: sg-key
  from_email: noreply@aqve.ge
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("TEST_DB_URL", "postgres://localhost/aqve")
	t.Setenv("AQVE_TIMEOUT", "12s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.aqve.ge/api", cfg.APIURL)
	assert.Equal(t, 12*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, StorePostgres, cfg.TokenStore.Driver)
	assert.Equal(t, "postgres://localhost/aqve", cfg.TokenStore.DatabaseURL)
	assert.True(t, cfg.SendGridEnabled())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "relative api url", env: map[string]string{"AQVE_API_URL": "/api"}},
		{name: "bad timeout", env: map[string]string{"AQVE_TIMEOUT": "soon"}},
		{name: "unknown driver", env: map[string]string{"AQVE_TOKEN_STORE": "redis"}},
		{name: "postgres without url", env: map[string]string{"AQVE_TOKEN_STORE": "postgres"}},
		{name: "bad rate limit", env: map[string]string{"AQVE_RATE_LIMIT": "fast"}},
		{name: "negative burst", env: map[string]string{"AQVE_RATE_BURST": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			assert.Error(t, err)
		})
	}
}

func TestLoadBadgerDriver(t *testing.T) {
	clearEnv(t)
	t.Setenv("AQVE_TOKEN_STORE", "badger")
	t.Setenv("AQVE_TOKEN_DIR", "/var/lib/aqve")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, StoreBadger, cfg.TokenStore.Driver)
	assert.Equal(t, "/var/lib/aqve", cfg.TokenStore.Dir)
}

func TestLoadRateLimit(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Zero(t, cfg.RateLimit)

	t.Setenv("AQVE_RATE_LIMIT", "2.5")
	t.Setenv("AQVE_RATE_BURST", "4")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.RateLimit)
	assert.Equal(t, 4, cfg.RateBurst)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateServer(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultJobSchedule, cfg.Server.JobSchedule)
	assert.EqualError(t, cfg.ValidateServer(), "JWT_SECRET not set")

	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_1")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateServer())
	assert.Equal(t, "whsec_1", cfg.Stripe.WebhookSecret)

	cfg.Server.TokenTTL = 0
	assert.Error(t, cfg.ValidateServer())
}
