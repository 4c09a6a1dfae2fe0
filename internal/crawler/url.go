// Package crawler implements BFS traversal over hyperlinks with URL
// normalization, deduplication, pacing and a memory-bounded visited set.
package crawler

import (
	"net/url"
	"regexp"
	"strings"
)

// Normalize canonicalizes a URL for deduplication: the fragment is dropped,
// a trailing slash is stripped, and the query string is removed when
// ignoreQuery is set. Normalize is idempotent.
func Normalize(rawURL string, ignoreQuery bool) string {
	u := rawURL
	if i := strings.Index(u, "#"); i >= 0 {
		u = u[:i]
	}
	if ignoreQuery {
		if i := strings.Index(u, "?"); i >= 0 {
			u = u[:i]
		}
	}
	u = strings.TrimSuffix(u, "/")
	return u
}

// Resolve turns href into an absolute URL against base. Returns empty for
// unparseable input.
func Resolve(base, href string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

// Host extracts the host portion of a URL, empty when unparseable.
func Host(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// skippableHref reports link targets that can never become crawlable pages.
func skippableHref(href string) bool {
	return href == "" ||
		strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "javascript:")
}

// matchesAny tests a URL against include/exclude patterns. Patterns with an
// http(s) scheme match as URL prefixes; anything else matches as a
// substring of the URL path.
func matchesAny(rawURL string, patterns []string) bool {
	var urlPath string
	if u, err := url.Parse(rawURL); err == nil {
		urlPath = u.Path
	}
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if strings.HasPrefix(pattern, "http://") || strings.HasPrefix(pattern, "https://") {
			if strings.HasPrefix(rawURL, pattern) {
				return true
			}
		} else if strings.Contains(urlPath, pattern) {
			return true
		}
	}
	return false
}

var reservedFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename derives a filesystem-safe name from a URL path:
// separators become dashes, reserved characters become underscores, and
// empty or directory-like paths fall back to "index".
func SanitizeFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	pathSegment := ""
	if err == nil {
		pathSegment = u.Path
	}
	if pathSegment == "" || strings.HasSuffix(pathSegment, "/") {
		pathSegment += "index"
	}
	pathSegment = strings.TrimPrefix(pathSegment, "/")

	filename := strings.ReplaceAll(pathSegment, "/", "-")
	if filename == "" {
		filename = "index"
	}
	return reservedFilenameChars.ReplaceAllString(filename, "_")
}
