package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/proposer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServeConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proposer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  driver: file\n  path: /data\nlog:\n  level: warn\n"), 0644))

	cfg, err := LoadServeConfig(ServeOptions{ConfigPath: path})
	require.NoError(t, err)
	assert.Equal(t, "/data", cfg.Store.Path)
	assert.True(t, cfg.Worker.Enabled)

	cfg, err = LoadServeConfig(ServeOptions{
		ConfigPath: path,
		Addr:       "0.0.0.0:9000",
		Store:      config.DriverSQLite,
		LogLevel:   "debug",
		NoWorker:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr)
	assert.Equal(t, config.DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, filepath.Join(".proposer", "proposals.db"), cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.False(t, cfg.Worker.Enabled)
}

func TestLoadServeConfig_InvalidOverride(t *testing.T) {
	_, err := LoadServeConfig(ServeOptions{Store: "etcd"})
	assert.ErrorContains(t, err, "store.driver")
}
