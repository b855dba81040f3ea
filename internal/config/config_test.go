package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte(`env: "local"
storage_path: "postgres://localhost:5432/votingapp"
app_secret: "secret-from-file"
token_ttl: 24h
http:
  port: 9090
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg := Load(path)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "postgres://localhost:5432/votingapp", cfg.StoragePath)
	assert.Equal(t, "secret-from-file", cfg.AppSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := []byte(`env: "local"
storage_path: "postgres://localhost:5432/votingapp"
app_secret: "secret-from-file"
http:
  port: 8080
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("APP_SECRET", "secret-from-env")

	cfg := Load(path)

	assert.Equal(t, "secret-from-env", cfg.AppSecret)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
}
