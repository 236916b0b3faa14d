package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `
api:
  base_url: "https://togglr.example.com/api/v1/"
  timeout: 10s

state:
  path: "/tmp/togglr/state.db"

logging:
  level: "debug"
  format: "json"

audit:
  page_size: 25
  username_debounce: 250ms

exporter:
  listen_addr: ":9191"
  interval: 1m
  allowed_ips:
    - "127.0.0.1"
    - "10.0.0.0/8"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://togglr.example.com/api/v1" {
		t.Errorf("BaseURL = %v", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.API.Timeout)
	}
	if cfg.State.Path != "/tmp/togglr/state.db" {
		t.Errorf("State.Path = %v", cfg.State.Path)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Audit.PageSize != 25 || cfg.Audit.UsernameDebounce != 250*time.Millisecond {
		t.Errorf("Audit = %+v", cfg.Audit)
	}
	if cfg.Exporter.ListenAddr != ":9191" || len(cfg.Exporter.AllowedIPs) != 2 {
		t.Errorf("Exporter = %+v", cfg.Exporter)
	}
	if cfg.Exporter.Path != "/metrics" {
		t.Errorf("Exporter.Path = %v, want default", cfg.Exporter.Path)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:8080/api/v1" {
		t.Errorf("BaseURL = %v", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.API.Timeout)
	}
	if !strings.HasSuffix(cfg.State.Path, filepath.Join("togglr", "state.db")) {
		t.Errorf("State.Path = %v", cfg.State.Path)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Audit.PageSize != 10 || cfg.Audit.UsernameDebounce != 500*time.Millisecond {
		t.Errorf("Audit = %+v", cfg.Audit)
	}
	if cfg.Console.NotificationTTL != 4*time.Second {
		t.Errorf("NotificationTTL = %v", cfg.Console.NotificationTTL)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvAPIURL, "http://10.0.0.5:9000/api/v1")
	t.Setenv(EnvLogLevel, "WARN")
	t.Setenv(EnvStatePath, "/var/tmp/state.db")

	cfg, err := Load(writeConfig(t, "api:\n  base_url: http://file.example.com\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.API.BaseURL != "http://10.0.0.5:9000/api/v1" {
		t.Errorf("BaseURL = %v, want env override", cfg.API.BaseURL)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Level = %v", cfg.Logging.Level)
	}
	if cfg.State.Path != "/var/tmp/state.db" {
		t.Errorf("State.Path = %v", cfg.State.Path)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("TOGGLR_LOG_FORMAT=json\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvLogFormat, "")
	os.Unsetenv(EnvLogFormat)

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile() error = %v", err)
	}
	if os.Getenv(EnvLogFormat) != "json" {
		t.Errorf("%s = %q", EnvLogFormat, os.Getenv(EnvLogFormat))
	}

	if err := LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing env file should be ignored: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"bad url", "api:\n  base_url: \"ftp://x\"\n", "api.base_url"},
		{"bad level", "logging:\n  level: trace\n", "logging.level"},
		{"bad format", "logging:\n  format: xml\n", "logging.format"},
		{"page size", "audit:\n  page_size: 500\n", "audit.page_size"},
		{"interval", "exporter:\n  interval: 10ms\n", "exporter.interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
