// Package config loads service settings from an optional YAML file overlaid
// by IMAGEAPI_ environment variables.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "IMAGEAPI_"

var ErrConfigInvalid = zerr.New("invalid config")

type Config struct {
	Port   int    `yaml:"port" env:"PORT"`
	APIKey string `yaml:"api_key" env:"API_KEY"`
	// AssetsDir holds Assets/ and data/. Relative user supplied image paths
	// resolve below it.
	AssetsDir string `yaml:"assets_dir" env:"ASSETS_DIR"`
	// ItemCacheDir stores downloaded locker item images. Empty means
	// data/images/locker/items below AssetsDir.
	ItemCacheDir string `yaml:"item_cache_dir" env:"ITEM_CACHE_DIR"`

	CacheTTL            time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
	SweepInterval       time.Duration `yaml:"sweep_interval" env:"SWEEP_INTERVAL"`
	LockPoolSize        int           `yaml:"lock_pool_size" env:"LOCK_POOL_SIZE"`
	FetchTimeout        time.Duration `yaml:"fetch_timeout" env:"FETCH_TIMEOUT"`
	PrefetchConcurrency int           `yaml:"prefetch_concurrency" env:"PREFETCH_CONCURRENCY"`
	ShutdownTimeout     time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT"`

	ServiceName  string `yaml:"service_name" env:"SERVICE_NAME"`
	OTelEndpoint string `yaml:"otel_endpoint" env:"OTEL_ENDPOINT"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:            8080,
		AssetsDir:       ".",
		CacheTTL:        10 * time.Minute,
		SweepInterval:   time.Minute,
		LockPoolSize:    64,
		FetchTimeout:    10 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		LogLevel:        "info",
		LogFormat:       "text",
		ServiceName:     "imageapi",
	}
}

// Load applies the file at path, when given, and then the environment on top
// of the defaults. A missing file is an error only when path is not empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, zerr.With(zerr.Wrap(err, "read config file"), "path", path)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, zerr.With(zerr.Wrap(err, "parse config file"), "path", path)
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, zerr.Wrap(err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, zerr.With(zerr.Wrap(ErrConfigInvalid, "port out of range"), "port", c.Port))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, zerr.Wrap(ErrConfigInvalid, "cache_ttl must be positive"))
	}
	if c.SweepInterval <= 0 {
		errs = append(errs, zerr.Wrap(ErrConfigInvalid, "sweep_interval must be positive"))
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, zerr.Wrap(ErrConfigInvalid, "fetch_timeout must be positive"))
	}
	if c.LockPoolSize < 0 || c.PrefetchConcurrency < 0 {
		errs = append(errs, zerr.Wrap(ErrConfigInvalid, "pool sizes must not be negative"))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, zerr.With(zerr.Wrap(ErrConfigInvalid, "unknown log format"), "log_format", c.LogFormat))
	}
	return errors.Join(errs...)
}

// ResolvedItemCacheDir returns the locker item directory.
func (c *Config) ResolvedItemCacheDir() string {
	if c.ItemCacheDir != "" {
		return c.ItemCacheDir
	}
	return filepath.Join(c.AssetsDir, "data", "images", "locker", "items")
}
