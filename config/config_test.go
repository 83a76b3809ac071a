package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "maintenance.db", cfg.Database.DSN)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 5*time.Minute, cfg.Sweeper.Interval)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, "07:30", cfg.BusinessHours.Start)
	assert.Equal(t, "16:00", cfg.BusinessHours.End)
}

func TestLoad_FileOverridesEnv(t *testing.T) {
	t.Setenv("SMTP_SERVER", "env.example.com")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
smtp:
  server: file.example.com
sweeper:
  interval_seconds: 30
  reminder_days: 7
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "file.example.com", cfg.SMTP.Server)
	assert.Equal(t, 30*time.Second, cfg.Sweeper.Interval)
	assert.Equal(t, 7, cfg.Sweeper.ReminderDays)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSave_RoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	cfg.SMTP.Server = "mail.example.com"
	cfg.Report.Footer = []string{"Line 1", "Line 2"}
	require.NoError(t, Save(path, cfg))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "mail.example.com", again.SMTP.Server)
	assert.Equal(t, []string{"Line 1", "Line 2"}, again.Report.Footer)
	assert.Equal(t, cfg.Server, again.Server)
}
