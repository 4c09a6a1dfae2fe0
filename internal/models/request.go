package models

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// UnlimitedDepth is the sentinel depth value meaning "no depth limit".
const UnlimitedDepth = 9

// ScanRequest describes one filesystem scan invocation.
type ScanRequest struct {
	// Root is the directory to scan
	Root string

	// MaxDepth limits descent below Root; UnlimitedDepth means no limit
	MaxDepth int

	// CustomExcludes are user-supplied exclude globs
	CustomExcludes []string

	// BinaryExcludes are the configured binary-extension globs
	BinaryExcludes []string

	// UseGitignore enables .gitignore loading in addition to .packignore
	UseGitignore bool
}

// Validate checks the request before any worker starts.
func (r *ScanRequest) Validate() error {
	if strings.TrimSpace(r.Root) == "" {
		return errors.New("scan root is required")
	}
	if r.MaxDepth < 1 {
		return fmt.Errorf("max depth must be at least 1, got %d", r.MaxDepth)
	}
	return nil
}

// CrawlRequest describes one web crawl invocation.
type CrawlRequest struct {
	// StartURL seeds the frontier
	StartURL string

	// OutputDir receives converted pages
	OutputDir string

	// MaxPages stops the crawl after this many pages are saved
	MaxPages int

	// MaxDepth limits link-following depth from the start URL
	MaxDepth int

	// MinPause and MaxPause bound the random per-page pacing delay
	MinPause time.Duration
	MaxPause time.Duration

	// StayOnSubdomain restricts the crawl to the start URL's host
	StayOnSubdomain bool

	// IgnoreQueries strips query strings during URL normalization
	IgnoreQueries bool

	// IncludePaths, when non-empty, restricts enqueued links to matches
	IncludePaths []string

	// ExcludePaths removes matching links from the frontier
	ExcludePaths []string
}

// Validate checks the request before any worker starts.
func (r *CrawlRequest) Validate() error {
	if strings.TrimSpace(r.StartURL) == "" {
		return errors.New("start URL is required")
	}
	u, err := url.Parse(r.StartURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid start URL %q: http or https required", r.StartURL)
	}
	if r.MaxPages < 1 {
		return fmt.Errorf("max pages must be at least 1, got %d", r.MaxPages)
	}
	if r.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative, got %d", r.MaxDepth)
	}
	if r.MinPause < 0 || r.MaxPause < r.MinPause {
		return fmt.Errorf("invalid pause range [%s, %s]", r.MinPause, r.MaxPause)
	}
	if strings.TrimSpace(r.OutputDir) == "" {
		return errors.New("output directory is required")
	}
	return nil
}
