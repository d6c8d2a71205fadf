// Package config loads service settings from an optional YAML file and
// THALASSA_* environment variables. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all server and rendering settings.
type Config struct {
	DataDir  string `yaml:"data_dir"`
	HTTPAddr string `yaml:"http_addr"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	WatchEnabled    bool          `yaml:"watch_enabled"`

	DatasetCacheSize int `yaml:"dataset_cache_size"`
	RenderCacheSize  int `yaml:"render_cache_size"`

	// Basemap tile proxy.
	TilesEnabled  bool          `yaml:"tiles_enabled"`
	TileBaseURL   string        `yaml:"tile_base_url"`
	TileTimeout   time.Duration `yaml:"tile_timeout"`
	TileCacheSize int           `yaml:"tile_cache_size"`
}

func defaults() *Config {
	return &Config{
		DataDir:          ".",
		HTTPAddr:         ":8080",
		LogLevel:         "info",
		LogFormat:        "json",
		ShutdownTimeout:  10 * time.Second,
		WatchEnabled:     true,
		DatasetCacheSize: 4,
		RenderCacheSize:  128,
		TilesEnabled:     true,
		TileBaseURL:      "https://tile.openstreetmap.org",
		TileTimeout:      10 * time.Second,
		TileCacheSize:    512,
	}
}

// Load reads configuration. When THALASSA_CONFIG points at a YAML file its
// values override the defaults, and environment variables override both.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("THALASSA_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read THALASSA_CONFIG: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.DataDir = envOrDefault("THALASSA_DATA_DIR", cfg.DataDir)
	cfg.HTTPAddr = envOrDefault("THALASSA_HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = envOrDefault("THALASSA_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = envOrDefault("THALASSA_LOG_FORMAT", cfg.LogFormat)
	cfg.TileBaseURL = envOrDefault("THALASSA_TILE_BASE_URL", cfg.TileBaseURL)

	var err error
	if cfg.ShutdownTimeout, err = envDuration("THALASSA_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout); err != nil {
		return nil, err
	}
	if cfg.TileTimeout, err = envDuration("THALASSA_TILE_TIMEOUT", cfg.TileTimeout); err != nil {
		return nil, err
	}
	if cfg.WatchEnabled, err = envBool("THALASSA_WATCH", cfg.WatchEnabled); err != nil {
		return nil, err
	}
	if cfg.TilesEnabled, err = envBool("THALASSA_TILES", cfg.TilesEnabled); err != nil {
		return nil, err
	}
	if cfg.DatasetCacheSize, err = envInt("THALASSA_DATASET_CACHE_SIZE", cfg.DatasetCacheSize); err != nil {
		return nil, err
	}
	if cfg.RenderCacheSize, err = envInt("THALASSA_RENDER_CACHE_SIZE", cfg.RenderCacheSize); err != nil {
		return nil, err
	}
	if cfg.TileCacheSize, err = envInt("THALASSA_TILE_CACHE_SIZE", cfg.TileCacheSize); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return errors.New("THALASSA_DATA_DIR is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("invalid THALASSA_SHUTDOWN_TIMEOUT")
	}
	if c.TileTimeout <= 0 {
		return errors.New("invalid THALASSA_TILE_TIMEOUT")
	}
	if c.DatasetCacheSize <= 0 {
		return errors.New("THALASSA_DATASET_CACHE_SIZE must be positive")
	}
	if c.RenderCacheSize <= 0 {
		return errors.New("THALASSA_RENDER_CACHE_SIZE must be positive")
	}
	if c.TileCacheSize <= 0 {
		return errors.New("THALASSA_TILE_CACHE_SIZE must be positive")
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("invalid THALASSA_LOG_FORMAT %q", c.LogFormat)
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
