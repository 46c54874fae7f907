package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Verify defaults
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, []string{"pocket"}, cfg.Boards)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Empty(t, cfg.Webhooks.Endpoints)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HISCORE_ENV", "testing")
	t.Setenv("HISCORE_BOARDS", "pocket, pyramid")
	t.Setenv("HISCORE_SERVER_ADDR", ":9191")
	t.Setenv("HISCORE_SERVER_READ_TIMEOUT", "15s")
	t.Setenv("HISCORE_STORAGE_ADAPTER", "file")
	t.Setenv("HISCORE_STORAGE_FILE_PATH", "/tmp/hiscores.json")
	t.Setenv("HISCORE_WEBHOOK_ENDPOINTS", "http://localhost:9000/hook")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvTesting, cfg.Environment)
	assert.Equal(t, []string{"pocket", "pyramid"}, cfg.Boards)
	assert.Equal(t, ":9191", cfg.Server.Address)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "file", cfg.Storage.Adapter)
	assert.Equal(t, "/tmp/hiscores.json", cfg.Storage.File.Path)
	assert.Equal(t, []string{"http://localhost:9000/hook"}, cfg.Webhooks.Endpoints)
}

func TestLoadFromFile(t *testing.T) {
	configContent := `{
		"environment": "testing",
		"boards": ["pocket"],
		"server": {
			"address": ":9090"
		},
		"storage": {
			"adapter": "memory"
		}
	}`

	tmpFile, err := os.CreateTemp("", "config_test_*.json")
	require.NoError(t, err)
	defer os.Remove(tmpFile.Name())

	_, err = tmpFile.WriteString(configContent)
	require.NoError(t, err)
	tmpFile.Close()

	cfg, err := LoadFromFile(tmpFile.Name())
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, EnvTesting, cfg.Environment)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, "memory", cfg.Storage.Adapter)
}

func TestLoadFromFile_RejectsBadPath(t *testing.T) {
	_, err := LoadFromFile("")
	assert.Error(t, err)

	_, err = LoadFromFile("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{name: "valid defaults", mutate: func(*Config) {}},
		{
			name:        "empty environment",
			mutate:      func(c *Config) { c.Environment = "" },
			expectError: true,
		},
		{
			name:        "no boards",
			mutate:      func(c *Config) { c.Boards = nil },
			expectError: true,
		},
		{
			name:        "blank board name",
			mutate:      func(c *Config) { c.Boards = []string{" "} },
			expectError: true,
		},
		{
			name:        "unknown storage adapter",
			mutate:      func(c *Config) { c.Storage.Adapter = "etcd" },
			expectError: true,
		},
		{
			name: "sql adapter without dsn",
			mutate: func(c *Config) {
				c.Storage.Adapter = "sql"
				c.Storage.SQL.DSN = ""
			},
			expectError: true,
		},
		{
			name:        "bad log level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
		},
		{
			name: "webhook endpoints without timeout",
			mutate: func(c *Config) {
				c.Webhooks.Endpoints = []string{"http://localhost:9000/hook"}
				c.Webhooks.Timeout = 0
			},
			expectError: true,
		},
		{
			name:        "negative server timeout",
			mutate:      func(c *Config) { c.Server.ReadTimeout = -time.Second },
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_StringRedactsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.SQL.DSN = "postgres://user:hunter2@db/hiscores"
	cfg.Storage.Redis.Password = "hunter2"

	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "[REDACTED]")
}
