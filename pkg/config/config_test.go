package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.API.AccessKey = "AK"
	cfg.API.RESTKey = "RK"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://api.cloud.wowza.com", cfg.API.BaseURL)
	assert.Equal(t, "/api/v1.3/", cfg.API.APIVersion)
	assert.Equal(t, 120*time.Second, cfg.Lifecycle.StartTimeout)
	assert.Equal(t, 2*time.Second, cfg.Lifecycle.PollInterval)
	assert.Equal(t, 3, cfg.Pool.StartingSize)
	assert.Equal(t, 70, cfg.Pool.ThresholdPercent)
	assert.False(t, cfg.API.HMACAuth)
}

func TestValidate_RequiresCredentials(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_key")
}

func TestValidate_StartTimeoutFloor(t *testing.T) {
	cfg := validConfig()
	cfg.Lifecycle.StartTimeout = 10 * time.Second
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_timeout")

	cfg.Lifecycle.StartTimeout = MinStartTimeout
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ThresholdRange(t *testing.T) {
	cfg := validConfig()
	cfg.Pool.ThresholdPercent = 101
	assert.Error(t, cfg.Validate())
	cfg.Pool.ThresholdPercent = 0
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Address)
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
api:
  access_key: "file-access"
  rest_key: "file-rest"
pool:
  starting_size: 5
  threshold_percent: 80
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	t.Setenv("STREAMPOOL_ACCESS_KEY", "env-access")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-access", cfg.API.AccessKey)
	assert.Equal(t, "file-rest", cfg.API.RESTKey)
	assert.Equal(t, 5, cfg.Pool.StartingSize)
	assert.Equal(t, 80, cfg.Pool.ThresholdPercent)
}
