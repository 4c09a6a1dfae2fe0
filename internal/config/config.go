// Package config loads and validates application configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CrawlerConfig holds crawl defaults applied when a request leaves a field
// unset.
type CrawlerConfig struct {
	// MaxPages is the default saved-page ceiling per crawl
	MaxPages int `yaml:"max_pages"`

	// MaxDepth is the default link-following depth
	MaxDepth int `yaml:"max_depth"`

	// MinPause and MaxPause bound the random per-page pacing delay
	MinPause time.Duration `yaml:"min_pause"`
	MaxPause time.Duration `yaml:"max_pause"`

	// FetchTimeout is the per-page fetch ceiling; a timeout is a per-page
	// skip, never a fatal error
	FetchTimeout time.Duration `yaml:"fetch_timeout"`

	// UserAgents is rotated across page fetches
	UserAgents []string `yaml:"user_agents"`
}

// Config represents contextpacker configuration options
type Config struct {
	// Workers is the worker pool size (0 = number of CPU cores)
	Workers int `yaml:"workers"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// CacheDir is where session directories are created (empty = user cache)
	CacheDir string `yaml:"cache_dir"`

	// DefaultExcludes are exclude globs applied to every local scan
	DefaultExcludes []string `yaml:"default_excludes"`

	// BinaryExcludes are extension globs treated as binary content
	BinaryExcludes []string `yaml:"binary_excludes"`

	// OutputFormat is the default package extension (.md, .txt, .xml)
	OutputFormat string `yaml:"output_format"`

	// DebounceInterval coalesces rapid rescan triggers
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Crawler holds crawl defaults
	Crawler CrawlerConfig `yaml:"crawler"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Workers:  0, // number of CPU cores
		LogLevel: "info",
		DefaultExcludes: []string{
			".archive/", ".git/", ".testing/", "*node_modules*", "build/", "dist/",
		},
		BinaryExcludes: []string{
			"*.png", "*.jpg", "*.jpeg", "*.gif", "*.bmp", "*.ico", "*.svg",
			"*.zip", "*.rar", "*.7z", "*.tar", "*.gz",
			"*.pdf", "*.doc", "*.docx", "*.xls", "*.xlsx", "*.ppt", "*.pptx",
			"*.exe", "*.dll", "*.so", "*.dylib",
			"*.ai", "*.psd", "*.mp3", "*.wav", "*.flac", "*.mp4", "*.mov", "*.wmv",
			"*.eot", "*.ttf", "*.woff", "*.woff2",
		},
		OutputFormat:     ".md",
		DebounceInterval: 500 * time.Millisecond,
		Crawler: CrawlerConfig{
			MaxPages:     30,
			MaxDepth:     2,
			MinPause:     1 * time.Second,
			MaxPause:     3 * time.Second,
			FetchTimeout: 15 * time.Second,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:140.0) Gecko/20100101 Firefox/140.0",
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:141.0) Gecko/20100101 Firefox/141.0",
				"Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
			},
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// If the file exists but is malformed, returns an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration values for consistency
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Crawler.MaxPages < 1 {
		return fmt.Errorf("crawler.max_pages must be at least 1, got %d", c.Crawler.MaxPages)
	}
	if c.Crawler.MinPause < 0 || c.Crawler.MaxPause < c.Crawler.MinPause {
		return fmt.Errorf("invalid crawler pause range [%s, %s]", c.Crawler.MinPause, c.Crawler.MaxPause)
	}
	if c.Crawler.FetchTimeout <= 0 {
		return fmt.Errorf("crawler.fetch_timeout must be positive, got %s", c.Crawler.FetchTimeout)
	}
	if c.DebounceInterval < 0 {
		return fmt.Errorf("debounce_interval must not be negative, got %s", c.DebounceInterval)
	}
	switch c.OutputFormat {
	case ".md", ".txt", ".xml":
	default:
		return fmt.Errorf("output_format must be .md, .txt or .xml, got %q", c.OutputFormat)
	}
	return nil
}
