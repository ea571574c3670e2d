package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment variable read by shieldscan.
const EnvPrefix = "SHIELDSCAN"

// EnvConfig holds the environment-based configuration. Pointer fields are
// nil when the variable is unset.
type EnvConfig struct {
	// Env: SHIELDSCAN_API_KEY
	APIKey string `envconfig:"API_KEY"`
	// Env: SHIELDSCAN_API_URL
	APIURL string `envconfig:"API_URL"`

	ExitZero   *bool    `envconfig:"EXIT_ZERO"`
	Verbose    *bool    `envconfig:"VERBOSE"`
	MaxCommits *int     `envconfig:"MAX_COMMITS"`
	MaxRetries *int     `envconfig:"MAX_RETRIES"`
	RateLimit  *float64 `envconfig:"RATE_LIMIT"`
	CachePath  string   `envconfig:"CACHE_PATH"`
	Format     string   `envconfig:"FORMAT"`
	LogLevel   string   `envconfig:"LOG_LEVEL"`
	LogFormat  string   `envconfig:"LOG_FORMAT"`

	// Comma-separated lists.
	PathsIgnore        []string `envconfig:"PATHS_IGNORE"`
	BanlistedDetectors []string `envconfig:"BANLISTED_DETECTORS"`

	// Env: SHIELDSCAN_EXTRA_HEADERS="Name:value,Other:value"
	ExtraHeaders map[string]string `envconfig:"EXTRA_HEADERS"`
}

// LoadFromEnv decodes the SHIELDSCAN_* environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var env EnvConfig
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return EnvConfig{}, fmt.Errorf("reading environment: %w", err)
	}
	return env, nil
}

// LoadDotEnv loads environment variables from a .env file. Variables that
// are already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

func mergeEnv(cfg *Config) error {
	env, err := LoadFromEnv()
	if err != nil {
		return err
	}
	env.apply(cfg)
	return nil
}

func (e EnvConfig) apply(cfg *Config) {
	if e.APIKey != "" {
		cfg.APIKey = e.APIKey
	}
	if e.APIURL != "" {
		cfg.APIURL = e.APIURL
	}
	if e.ExitZero != nil {
		cfg.ExitZero = *e.ExitZero
	}
	if e.Verbose != nil {
		cfg.Verbose = *e.Verbose
	}
	if e.MaxCommits != nil {
		cfg.MaxCommits = *e.MaxCommits
	}
	if e.MaxRetries != nil {
		cfg.MaxRetries = *e.MaxRetries
	}
	if e.RateLimit != nil {
		cfg.RateLimit = *e.RateLimit
	}
	if e.CachePath != "" {
		cfg.CachePath = e.CachePath
	}
	if e.Format != "" {
		cfg.Format = e.Format
	}
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}
	if e.LogFormat != "" {
		cfg.LogFormat = e.LogFormat
	}
	if len(e.PathsIgnore) > 0 {
		cfg.PathsIgnore = e.PathsIgnore
	}
	if len(e.BanlistedDetectors) > 0 {
		cfg.BanlistedDetectors = e.BanlistedDetectors
	}
	if len(e.ExtraHeaders) > 0 {
		if cfg.ExtraHeaders == nil {
			cfg.ExtraHeaders = make(map[string]string, len(e.ExtraHeaders))
		}
		for k, v := range e.ExtraHeaders {
			cfg.ExtraHeaders[k] = v
		}
	}
}
