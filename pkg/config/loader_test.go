package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
logger:
  level: debug
  format: text
bot:
  token: file-token
  mode: polling
database:
  user: calc
  name: calc
session:
  ttl: 30m
rate_limit:
  enabled: true
  per_user:
    limit: 20
    window: 1m
  commands:
    history:
      limit: 5
      window: 10s
  whitelist: [42]
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, v, err := LoadFile(writeConfig(t, testConfig), "test")
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "file-token", cfg.Bot.Token)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, "15:04:05", cfg.Session.TimeLayout)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 20, cfg.RateLimit.PerUser.Limit)
	assert.Equal(t, RateLimitRule{Limit: 5, Window: "10s"}, cfg.RateLimit.Commands["history"])
	assert.Equal(t, []int64{42}, cfg.RateLimit.Whitelist)
	assert.True(t, cfg.Jobs.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Jobs.RateLimitSweep)
	assert.Equal(t, "host=localhost port=5432 user=calc password= dbname=calc sslmode=disable", cfg.Database.DSN())
}

func TestLoadFile_EnvOverride(t *testing.T) {
	t.Setenv("BOT_TOKEN", "env-token")
	t.Setenv("LOGGER_LEVEL", "warn")

	cfg, _, err := LoadFile(writeConfig(t, testConfig), "test")
	require.NoError(t, err)

	assert.Equal(t, "env-token", cfg.Bot.Token)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoadFile_Validation(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{
			name: "missing token",
			body: "database:\n  user: calc\n  name: calc\n",
		},
		{
			name: "unknown log level",
			body: "logger:\n  level: loud\nbot:\n  token: t\ndatabase:\n  user: calc\n  name: calc\n",
		},
		{
			name: "webhook without url",
			body: "bot:\n  token: t\n  mode: webhook\ndatabase:\n  user: calc\n  name: calc\n",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := LoadFile(writeConfig(t, tc.body), "test")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"), "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
