package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestDefaultConfig verifies default configuration values
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Workers != 0 {
		t.Errorf("Workers = %d, want 0", cfg.Workers)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.OutputFormat != ".md" {
		t.Errorf("OutputFormat = %q, want %q", cfg.OutputFormat, ".md")
	}
	if cfg.DebounceInterval != 500*time.Millisecond {
		t.Errorf("DebounceInterval = %v, want 500ms", cfg.DebounceInterval)
	}
	if cfg.Crawler.FetchTimeout != 15*time.Second {
		t.Errorf("Crawler.FetchTimeout = %v, want 15s", cfg.Crawler.FetchTimeout)
	}
	if len(cfg.Crawler.UserAgents) == 0 {
		t.Error("Crawler.UserAgents is empty")
	}
	if len(cfg.BinaryExcludes) == 0 {
		t.Error("BinaryExcludes is empty")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v, want nil", err)
	}
}

// TestLoadConfigValidFile tests loading a valid YAML config file
func TestLoadConfigValidFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `workers: 4
log_level: debug
output_format: .xml
debounce_interval: 250ms
crawler:
  max_pages: 50
  min_pause: 500ms
  max_pause: 2s
  fetch_timeout: 10s
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Workers != 4 {
		t.Errorf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.OutputFormat != ".xml" {
		t.Errorf("OutputFormat = %q, want %q", cfg.OutputFormat, ".xml")
	}
	if cfg.Crawler.MaxPages != 50 {
		t.Errorf("Crawler.MaxPages = %d, want 50", cfg.Crawler.MaxPages)
	}
	if cfg.Crawler.FetchTimeout != 10*time.Second {
		t.Errorf("Crawler.FetchTimeout = %v, want 10s", cfg.Crawler.FetchTimeout)
	}
	// Unset fields keep defaults
	if len(cfg.BinaryExcludes) == 0 {
		t.Error("BinaryExcludes lost defaults after load")
	}
}

// TestLoadConfigFileNotExists tests fallback to defaults when file doesn't exist
func TestLoadConfigFileNotExists(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfig() should not error on missing file, got: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q (default)", cfg.LogLevel, "info")
	}
}

// TestLoadConfigMalformed tests error on malformed YAML
func TestLoadConfigMalformed(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("workers: [not a number"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Error("LoadConfig() = nil error for malformed YAML, want error")
	}
}

// TestValidateRejectsBadValues covers validation failures
func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"zero max pages", func(c *Config) { c.Crawler.MaxPages = 0 }},
		{"inverted pause range", func(c *Config) { c.Crawler.MinPause = 5 * time.Second; c.Crawler.MaxPause = time.Second }},
		{"zero fetch timeout", func(c *Config) { c.Crawler.FetchTimeout = 0 }},
		{"unknown output format", func(c *Config) { c.OutputFormat = ".docx" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}
