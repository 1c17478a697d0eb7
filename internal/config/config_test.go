package config_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/atelier/internal/config"
	"github.com/aretw0/atelier/pkg/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.StoreMemory, cfg.Store.Type)
	assert.Equal(t, progress.GenerationConfig(), cfg.Jobs.Generation)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := write(t, "atelier.yaml", `
log_level: debug
store:
  type: redis
  redis:
    addr: localhost:6379
    ttl: 24h
history:
  limit: 50
jobs:
  export:
    interval: 50ms
    max_step: 20
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.StoreRedis, cfg.Store.Type)
	assert.Equal(t, 24*time.Hour, cfg.Store.Redis.TTL)
	assert.Equal(t, 50, cfg.History.Limit)
	assert.Equal(t, 50*time.Millisecond, cfg.Jobs.Export.Interval)
	assert.Equal(t, 20, cfg.Jobs.Export.MaxStep)
	assert.Equal(t, progress.GenerationConfig(), cfg.Jobs.Generation, "untouched sections keep defaults")
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
}

func TestLoad_JSON(t *testing.T) {
	path := write(t, "atelier.json", `{"store": {"type": "sqlite", "path": "studio.db"}}`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.StoreSQLite, cfg.Store.Type)
	assert.Equal(t, "studio.db", cfg.Store.Path)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"unknown store":  "store:\n  type: s3\n",
		"redis no addr":  "store:\n  type: redis\n",
		"short key":      "store:\n  encryption_key: " + base64.StdEncoding.EncodeToString([]byte("short")) + "\n",
		"negative limit": "history:\n  limit: -1\n",
		"not base64 key": "store:\n  encryption_key: '!!'\n",
		"bad mask":       "store:\n  mask: ['(']\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(write(t, "atelier.yaml", content))
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestLoad_EncryptionKeyFromEnv(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	t.Setenv(config.EnvEncryptionKey, key)

	cfg, err := config.Load(write(t, "atelier.yaml", "log_level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, key, cfg.Store.EncryptionKey)

	raw, err := config.DecodeKey(cfg.Store.EncryptionKey)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}
