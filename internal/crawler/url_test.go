package crawler

import "testing"

// TestNormalize covers fragment, trailing slash and query handling
func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		ignoreQuery bool
		want        string
	}{
		{"fragment stripped", "https://a.com/docs#install", false, "https://a.com/docs"},
		{"trailing slash stripped", "https://a.com/docs/", false, "https://a.com/docs"},
		{"fragment then slash", "https://a.com/docs/#x", false, "https://a.com/docs"},
		{"query kept by default", "https://a.com/p?x=1", false, "https://a.com/p?x=1"},
		{"query stripped on demand", "https://a.com/p?x=1", true, "https://a.com/p"},
		{"bare host", "https://a.com", false, "https://a.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in, tt.ignoreQuery); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// TestNormalizeIdempotent verifies normalize(normalize(u)) == normalize(u)
func TestNormalizeIdempotent(t *testing.T) {
	urls := []string{
		"https://a.com/docs/#frag",
		"https://a.com/p?x=1#y",
		"https://a.com/",
		"http://b.org/deep/path/?q=2",
	}
	for _, u := range urls {
		for _, iq := range []bool{false, true} {
			once := Normalize(u, iq)
			twice := Normalize(once, iq)
			if once != twice {
				t.Errorf("Normalize not idempotent for %q (ignoreQuery=%v): %q != %q", u, iq, once, twice)
			}
		}
	}
}

// TestResolve verifies relative and absolute href resolution
func TestResolve(t *testing.T) {
	base := "https://docs.example.com/guide/intro"

	if got := Resolve(base, "/api"); got != "https://docs.example.com/api" {
		t.Errorf("Resolve(/api) = %q", got)
	}
	if got := Resolve(base, "setup"); got != "https://docs.example.com/guide/setup" {
		t.Errorf("Resolve(setup) = %q", got)
	}
	if got := Resolve(base, "https://other.com/x"); got != "https://other.com/x" {
		t.Errorf("Resolve(absolute) = %q", got)
	}
}

// TestSkippableHref covers non-crawlable link targets
func TestSkippableHref(t *testing.T) {
	for _, href := range []string{"", "#top", "mailto:a@b.c", "javascript:void(0)"} {
		if !skippableHref(href) {
			t.Errorf("skippableHref(%q) = false, want true", href)
		}
	}
	if skippableHref("/docs") {
		t.Error("skippableHref(/docs) = true, want false")
	}
}

// TestMatchesAny covers URL-prefix patterns and path-substring patterns
func TestMatchesAny(t *testing.T) {
	url := "https://docs.example.com/api/v2/users?page=3"

	if !matchesAny(url, []string{"https://docs.example.com/api"}) {
		t.Error("URL-prefix pattern did not match")
	}
	if !matchesAny(url, []string{"/v2/"}) {
		t.Error("path-substring pattern did not match")
	}
	if matchesAny(url, []string{"https://other.com"}) {
		t.Error("foreign prefix matched")
	}
	if matchesAny(url, []string{"page=3"}) {
		t.Error("query substring matched against path")
	}
	if matchesAny(url, nil) {
		t.Error("empty pattern list matched")
	}
}

// TestSanitizeFilename mirrors the URL-to-filename rules
func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://a.com/docs/intro", "docs-intro"},
		{"https://a.com/docs/", "docs-index"},
		{"https://a.com/", "index"},
		{"https://a.com", "index"},
		{"https://a.com/a?b<c>", "a"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
