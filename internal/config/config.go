package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/shieldscan/internal/cache"
	"github.com/dshills/shieldscan/internal/client"
	"github.com/dshills/shieldscan/internal/filter"
)

// LocalFileName is the per-repository config file.
const LocalFileName = ".shieldscan.yaml"

// Config represents the shieldscan configuration.
type Config struct {
	APIURL string `yaml:"api_url,omitempty"`
	// APIKey is only read from the environment.
	APIKey string `yaml:"-"`

	ExitZero           bool                  `yaml:"exit_zero,omitempty"`
	PathsIgnore        []string              `yaml:"paths_ignore,omitempty"`
	MatchesIgnore      []filter.IgnoredMatch `yaml:"matches_ignore,omitempty"`
	BanlistedDetectors []string              `yaml:"banlisted_detectors,omitempty"`
	MaxCommits         int                   `yaml:"max_commits,omitempty"`
	CachePath          string                `yaml:"cache_path,omitempty"`
	RateLimit          float64               `yaml:"rate_limit,omitempty"`
	MaxRetries         int                   `yaml:"max_retries,omitempty"`
	ExtraHeaders       map[string]string     `yaml:"extra_headers,omitempty"`
	Format             string                `yaml:"format,omitempty"`
	Verbose            bool                  `yaml:"verbose,omitempty"`
	LogLevel           string                `yaml:"log_level,omitempty"`
	LogFormat          string                `yaml:"log_format,omitempty"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		APIURL:     client.DefaultAPIURL,
		MaxCommits: 50,
		CachePath:  cache.DefaultPath,
		MaxRetries: 3,
		Format:     "text",
		LogLevel:   "warn",
		LogFormat:  "text",
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid format %q: must be text or json", c.Format)
	}
	if c.MaxCommits < 0 {
		return fmt.Errorf("max_commits must not be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	return nil
}

// IgnoredDetectors returns BanlistedDetectors as a set.
func (c Config) IgnoredDetectors() map[string]struct{} {
	return filter.DetectorSet(c.BanlistedDetectors)
}

// AddIgnoredMatches appends matches not already ignored and returns how
// many were added.
func (c *Config) AddIgnoredMatches(matches []filter.IgnoredMatch) int {
	seen := make(map[string]bool, len(c.MatchesIgnore))
	for _, m := range c.MatchesIgnore {
		seen[m.Match] = true
	}
	added := 0
	for _, m := range matches {
		if seen[m.Match] {
			continue
		}
		seen[m.Match] = true
		c.MatchesIgnore = append(c.MatchesIgnore, m)
		added++
	}
	return added
}

// ConfigDir returns the platform-appropriate config directory for shieldscan.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shieldscan"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "shieldscan"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "shieldscan"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "shieldscan"), nil
	default:
		return filepath.Join(home, ".config", "shieldscan"), nil
	}
}

// UserConfigPath returns the full path to the user config file.
func UserConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Sources names the files Load reads. Empty paths are skipped.
type Sources struct {
	UserFile  string
	LocalFile string
	DotEnv    string
}

// DefaultSources returns the user config file, the local config file and
// the .env file of the working directory.
func DefaultSources() (Sources, error) {
	user, err := UserConfigPath()
	if err != nil {
		return Sources{}, err
	}
	return Sources{UserFile: user, LocalFile: LocalFileName, DotEnv: ".env"}, nil
}

// Load builds the effective config from the default sources. The overrides
// map comes from CLI flags (only non-zero values should be set) and uses
// the same keys as SetField.
func Load(overrides map[string]string) (Config, error) {
	src, err := DefaultSources()
	if err != nil {
		return Config{}, err
	}
	return LoadFrom(src, overrides)
}

// LoadFrom merges defaults <- user file <- local file <- env <- overrides.
func LoadFrom(src Sources, overrides map[string]string) (Config, error) {
	cfg := Default()

	for _, path := range []string{src.UserFile, src.LocalFile} {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := LoadDotEnv(src.DotEnv); err != nil {
		return Config{}, fmt.Errorf("loading %s: %w", src.DotEnv, err)
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// mergeFile decodes path over cfg. Keys absent from the file keep their
// current value. A missing file is not an error.
func mergeFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a single config file without defaults. A missing file
// yields a zero Config.
func ReadFile(path string) (Config, error) {
	var cfg Config
	if err := mergeFile(&cfg, path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating parent directories.
func Save(path string, cfg Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for k, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, k, v); err != nil {
			return err
		}
	}
	return nil
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "api_url":
		cfg.APIURL = value
	case "exit_zero":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("exit_zero must be a boolean: %w", err)
		}
		cfg.ExitZero = b
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("verbose must be a boolean: %w", err)
		}
		cfg.Verbose = b
	case "max_commits":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_commits must be an integer: %w", err)
		}
		cfg.MaxCommits = n
	case "max_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("max_retries must be an integer: %w", err)
		}
		cfg.MaxRetries = n
	case "rate_limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("rate_limit must be a number: %w", err)
		}
		cfg.RateLimit = f
	case "cache_path":
		cfg.CachePath = value
	case "format":
		cfg.Format = value
	case "log_level":
		cfg.LogLevel = value
	case "log_format":
		cfg.LogFormat = value
	case "paths_ignore":
		cfg.PathsIgnore = splitList(value)
	case "banlisted_detectors":
		cfg.BanlistedDetectors = splitList(value)
	case "api_key":
		return fmt.Errorf("api_key can only be set through SHIELDSCAN_API_KEY")
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
