package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWithoutFile(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.True(t, cfg.Database.Transactions)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  address: ":9090"
database:
  driver: memory
  name: fitcoach_test
jwt:
  secret: from-file
  expiration: 30m
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_TRANSACTIONS", "false")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, "fitcoach_test", cfg.Database.Name)
	assert.False(t, cfg.Database.Transactions)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
}
