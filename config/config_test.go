package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8090", cfg.HTTPAddr)
	assert.Greater(t, cfg.ConnectionTimeout, cfg.HeartbeatInterval)
	assert.Equal(t, 256, cfg.SendBuffer)
	assert.False(t, cfg.Redis.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "realtime.yaml")
	yaml := `
http_addr: ":9001"
send_buffer: 64
redis:
  enabled: true
  addr: "redis.internal:6379"
  prefix: "test:rt:"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := LoadAndValidate(path)
	require.NoError(t, err)

	assert.Equal(t, ":9001", cfg.HTTPAddr)
	assert.Equal(t, 64, cfg.SendBuffer)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)

	// Unset fields fall back to defaults.
	assert.Equal(t, 90*time.Second, cfg.ConnectionTimeout)
	assert.Equal(t, 100, cfg.Redis.RecentSize)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_RT_ADDR", ":7777")

	dir := t.TempDir()
	path := filepath.Join(dir, "realtime.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \"${TEST_RT_ADDR}\"\n"), 0o600))

	cfg, err := LoadAndValidate(path)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.HTTPAddr)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/does/not/exist.yaml")
	assert.Error(t, err)
}

func TestValidateRejectsTimeoutBelowHeartbeat(t *testing.T) {
	cfg := Default()
	cfg.ConnectionTimeout = cfg.HeartbeatInterval / 2
	assert.Error(t, cfg.Validate())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("REALTIME_HTTP_ADDR", ":6060")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("REALTIME_CONNECTION_TIMEOUT", "2m")

	cfg := FromEnv()
	assert.Equal(t, ":6060", cfg.HTTPAddr)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.ConnectionTimeout)
}
