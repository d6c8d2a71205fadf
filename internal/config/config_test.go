package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.DataDir)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.WatchEnabled)
	assert.Equal(t, 4, cfg.DatasetCacheSize)
	assert.Equal(t, 128, cfg.RenderCacheSize)
	assert.True(t, cfg.TilesEnabled)
	assert.Equal(t, "https://tile.openstreetmap.org", cfg.TileBaseURL)
	assert.Equal(t, 10*time.Second, cfg.TileTimeout)
	assert.Equal(t, 512, cfg.TileCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("THALASSA_DATA_DIR", "/data/results")
	t.Setenv("THALASSA_HTTP_ADDR", ":9090")
	t.Setenv("THALASSA_LOG_LEVEL", "debug")
	t.Setenv("THALASSA_LOG_FORMAT", "text")
	t.Setenv("THALASSA_SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("THALASSA_WATCH", "false")
	t.Setenv("THALASSA_DATASET_CACHE_SIZE", "8")
	t.Setenv("THALASSA_RENDER_CACHE_SIZE", "64")
	t.Setenv("THALASSA_TILES", "false")
	t.Setenv("THALASSA_TILE_BASE_URL", "http://localhost:8081")
	t.Setenv("THALASSA_TILE_TIMEOUT", "3s")
	t.Setenv("THALASSA_TILE_CACHE_SIZE", "100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/results", cfg.DataDir)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.WatchEnabled)
	assert.Equal(t, 8, cfg.DatasetCacheSize)
	assert.Equal(t, 64, cfg.RenderCacheSize)
	assert.False(t, cfg.TilesEnabled)
	assert.Equal(t, "http://localhost:8081", cfg.TileBaseURL)
	assert.Equal(t, 3*time.Second, cfg.TileTimeout)
	assert.Equal(t, 100, cfg.TileCacheSize)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thalassa.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"data_dir: /srv/ocean\nhttp_addr: \":7000\"\nrender_cache_size: 16\n",
	), 0o644))
	t.Setenv("THALASSA_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/ocean", cfg.DataDir)
	assert.Equal(t, ":7000", cfg.HTTPAddr)
	assert.Equal(t, 16, cfg.RenderCacheSize)
	assert.Equal(t, "json", cfg.LogFormat, "untouched keys keep their defaults")
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thalassa.yaml")
	require.NoError(t, os.WriteFile(path, []byte("http_addr: \":7000\"\n"), 0o644))
	t.Setenv("THALASSA_CONFIG", path)
	t.Setenv("THALASSA_HTTP_ADDR", ":9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.HTTPAddr)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("THALASSA_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "THALASSA_CONFIG")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("THALASSA_SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "THALASSA_SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("THALASSA_SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "THALASSA_SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("THALASSA_LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "THALASSA_LOG_FORMAT")
}

func TestLoad_InvalidCacheSize(t *testing.T) {
	t.Setenv("THALASSA_RENDER_CACHE_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "THALASSA_RENDER_CACHE_SIZE")
}

func TestLoad_InvalidBool(t *testing.T) {
	t.Setenv("THALASSA_TILES", "maybe")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "THALASSA_TILES")
}
