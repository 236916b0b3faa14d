package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file
const (
	EnvAPIURL    = "TOGGLR_API_URL"
	EnvStatePath = "TOGGLR_STATE_PATH"
	EnvLogLevel  = "TOGGLR_LOG_LEVEL"
	EnvLogFormat = "TOGGLR_LOG_FORMAT"
)

// Config is the main configuration structure
type Config struct {
	API      APIConfig      `yaml:"api"`
	State    StateConfig    `yaml:"state"`
	Logging  LoggingConfig  `yaml:"logging"`
	Audit    AuditConfig    `yaml:"audit"`
	Exporter ExporterConfig `yaml:"exporter"`
	Console  ConsoleConfig  `yaml:"console"`
}

// APIConfig contains backend connection settings
type APIConfig struct {
	BaseURL string        `yaml:"base_url"` // Default: http://localhost:8080/api/v1
	Timeout time.Duration `yaml:"timeout"`  // Per-request timeout, default 30s
}

// StateConfig locates the persisted session
type StateConfig struct {
	Path        string        `yaml:"path"`         // Default: $XDG_CONFIG_HOME/togglr/state.db
	LockTimeout time.Duration `yaml:"lock_timeout"` // Default: 2s
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	// File receives logs instead of stderr; always used by the console
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// AuditConfig contains audit timeline settings
type AuditConfig struct {
	PageSize         int           `yaml:"page_size"`         // Default: 10
	UsernameDebounce time.Duration `yaml:"username_debounce"` // Default: 500ms
}

// ExporterConfig contains Prometheus exporter settings
type ExporterConfig struct {
	ListenAddr     string        `yaml:"listen_addr"`     // Default: :9090
	Path           string        `yaml:"path"`            // Default: /metrics
	Interval       time.Duration `yaml:"interval"`        // Dashboard poll interval, default 30s
	AllowedIPs     []string      `yaml:"allowed_ips"`     // IP addresses/CIDRs allowed to scrape
	TrustedProxies []string      `yaml:"trusted_proxies"` // Proxies whose forwarding headers are honoured
}

// ConsoleConfig contains interactive console settings
type ConsoleConfig struct {
	NotificationTTL time.Duration `yaml:"notification_ttl"` // Default: 4s
}

// Dir returns the configuration directory
func Dir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			base = dir
		} else {
			base = "."
		}
	}
	return filepath.Join(base, "togglr")
}

// DefaultPath is the config file used when none is given
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load reads the configuration. An empty path reads DefaultPath when it
// exists and falls back to defaults otherwise. Environment variables,
// including those from a .env file in the working directory, override the
// file.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadEnvFile loads variables from a dotenv file without overriding the
// environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvStatePath); v != "" {
		c.State.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
}

func (c *Config) setDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8080/api/v1"
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}

	if c.State.Path == "" {
		c.State.Path = filepath.Join(Dir(), "state.db")
	}
	if c.State.LockTimeout == 0 {
		c.State.LockTimeout = 2 * time.Second
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 10
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = 28
	}

	if c.Audit.PageSize == 0 {
		c.Audit.PageSize = 10
	}
	if c.Audit.UsernameDebounce == 0 {
		c.Audit.UsernameDebounce = 500 * time.Millisecond
	}

	if c.Exporter.ListenAddr == "" {
		c.Exporter.ListenAddr = ":9090"
	}
	if c.Exporter.Path == "" {
		c.Exporter.Path = "/metrics"
	}
	if c.Exporter.Interval == 0 {
		c.Exporter.Interval = 30 * time.Second
	}

	if c.Console.NotificationTTL == 0 {
		c.Console.NotificationTTL = 4 * time.Second
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api.base_url: %q (must be an http or https URL)", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	if c.Audit.PageSize < 0 || c.Audit.PageSize > 100 {
		return fmt.Errorf("audit.page_size must be between 1 and 100")
	}
	if c.Audit.UsernameDebounce < 0 {
		return fmt.Errorf("audit.username_debounce must not be negative")
	}

	if c.Exporter.Interval < time.Second {
		return fmt.Errorf("exporter.interval must be at least 1s")
	}
	if !strings.HasPrefix(c.Exporter.Path, "/") {
		return fmt.Errorf("exporter.path must start with /")
	}

	return nil
}
