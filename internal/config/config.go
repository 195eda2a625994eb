// Package config loads the datasource configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aleksaelezovic/trigo-conceptnet/internal/countcache"
	"github.com/aleksaelezovic/trigo-conceptnet/internal/datasource"
	"github.com/aleksaelezovic/trigo-conceptnet/internal/estimator"
)

const (
	DefaultEndpoint = "http://api.conceptnet.io/query"
	DefaultAddr     = "localhost:8080"

	// EnvEndpoint overrides the configured endpoint.
	EnvEndpoint = "CONCEPTNET_ENDPOINT"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full datasource configuration
type Config struct {
	Endpoint  string   `yaml:"endpoint"`
	Mapping   string   `yaml:"mapping"`
	BaseURI   string   `yaml:"baseUri"`
	Languages []string `yaml:"languages"`

	Count  CountConfig  `yaml:"count"`
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
}

// CountConfig tunes the total-count estimator
type CountConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	CacheSize      int           `yaml:"cacheSize"`
	CacheTTL       time.Duration `yaml:"cacheTTL"`
	CacheThreshold int64         `yaml:"cacheThreshold"`
}

// StoreConfig enables the persistent count tier when Path is set
type StoreConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP fragment endpoint
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Endpoint: DefaultEndpoint,
		BaseURI:  datasource.DefaultBaseURI,
		Count: CountConfig{
			Timeout:        estimator.DefaultTimeout,
			CacheSize:      countcache.DefaultMaxSize,
			CacheTTL:       countcache.DefaultTTL,
			CacheThreshold: estimator.DefaultCacheThreshold,
		},
		Server: ServerConfig{Addr: DefaultAddr},
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - path comes from the operator
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if endpoint := os.Getenv(EnvEndpoint); endpoint != "" {
		c.Endpoint = endpoint
	}
}

// Validate checks if the config is valid
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: endpoint is required", ErrInvalidConfig)
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: endpoint must be an absolute URL, got %q", ErrInvalidConfig, c.Endpoint)
	}
	if c.BaseURI == "" {
		return fmt.Errorf("%w: baseUri is required", ErrInvalidConfig)
	}
	for _, lang := range c.Languages {
		if strings.TrimSpace(lang) == "" {
			return fmt.Errorf("%w: languages must not contain empty entries", ErrInvalidConfig)
		}
	}
	if c.Count.Timeout < 0 || c.Count.CacheTTL < 0 {
		return fmt.Errorf("%w: count durations must not be negative", ErrInvalidConfig)
	}
	if c.Count.CacheSize < 0 || c.Count.CacheThreshold < 0 {
		return fmt.Errorf("%w: count cache limits must not be negative", ErrInvalidConfig)
	}
	return nil
}

// DatasourceOptions maps the configuration onto datasource options. The
// caller supplies the runtime collaborators.
func (c *Config) DatasourceOptions() datasource.Options {
	return datasource.Options{
		Endpoint:            c.Endpoint,
		Mapping:             c.Mapping,
		BaseURI:             c.BaseURI,
		Languages:           c.Languages,
		CountTimeout:        c.Count.Timeout,
		CountCacheSize:      c.Count.CacheSize,
		CountCacheTTL:       c.Count.CacheTTL,
		CountCacheThreshold: c.Count.CacheThreshold,
	}
}
