package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadConfig(t *testing.T) {
	path := writeConfigFile(t, `{
		"port": 8080,
		"log_level": "debug",
		"nats_url": "nats://localhost:4222",
		"redis_url": "redis://localhost:6379",
		"admin_secret": "s3cret"
	}`)

	cfg, err := ReadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "s3cret", cfg.AdminSecret)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestReadConfigRequiresAdminSecret(t *testing.T) {
	path := writeConfigFile(t, `{"port": 8080}`)

	_, err := ReadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "admin_secret")
}
