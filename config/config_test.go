package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  dsn: "file::memory:"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 5, cfg.Server.RateLimitBurst)
	assert.Equal(t, 60, cfg.Server.CacheTTLSeconds)
	require.NotNil(t, cfg.Allocation.MaxRetries)
	assert.Equal(t, 3, *cfg.Allocation.MaxRetries)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, time.Hour, cfg.Recorder.Interval)
	assert.Equal(t, "hostel.bookings", cfg.Events.Exchange)
	assert.Equal(t, time.UTC, cfg.Hostel.Location)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  driver: postgres
  dsn: "host=db"
hostel:
  timezone: Europe/Lisbon
`)
	t.Setenv("DATABASE_DSN", "host=override")
	t.Setenv("SERVER_PORT", "9100")
	t.Setenv("AMQP_URL", "amqp://guest:guest@mq:5672/")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "host=override", cfg.Database.DSN)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "amqp://guest:guest@mq:5672/", cfg.Events.URL)
	assert.Equal(t, "Europe/Lisbon", cfg.Hostel.Location.String())
}

func TestLoad_ZeroRetriesDisablesRetrying(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
allocation:
  max_retries: 0
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Allocation.MaxRetries)
	assert.Zero(t, *cfg.Allocation.MaxRetries)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "unknown driver", body: "database:\n  driver: mysql\n"},
		{name: "unknown timezone", body: "hostel:\n  timezone: Mars/Olympus\n"},
		{name: "negative retries", body: "allocation:\n  max_retries: -1\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
