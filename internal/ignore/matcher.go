// Package ignore compiles exclude globs and ignore-file rules into a single
// path predicate used to prune filesystem scans and package inputs.
package ignore

import (
	"regexp"
	"strings"
)

// compiledPattern is one glob translated to a regular expression.
// Directory-style patterns (trailing slash in the source glob) only ever
// match directories.
type compiledPattern struct {
	raw     string
	dirOnly bool
	re      *regexp.Regexp
}

// Matcher tests relative paths against a compiled set of exclude patterns.
// Compile once per scan; matching is allocation-free.
type Matcher struct {
	patterns []compiledPattern
}

// NewMatcher compiles the given pattern groups into a Matcher. Patterns
// follow fnmatch semantics: * and ? cross path separators, so "*.log"
// excludes log files at any depth and "*node_modules*" excludes any path
// containing node_modules. Invalid patterns are skipped, matching the
// scanner's per-item error policy.
func NewMatcher(groups ...[]string) *Matcher {
	m := &Matcher{}
	for _, group := range groups {
		for _, raw := range group {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			re, err := translate(raw)
			if err != nil {
				continue
			}
			m.patterns = append(m.patterns, compiledPattern{
				raw:     raw,
				dirOnly: strings.HasSuffix(raw, "/"),
				re:      re,
			})
		}
	}
	return m
}

// Match reports whether the slash-separated relative path is excluded.
// Directories are tested with a trailing slash appended so that
// directory-style patterns like "build/" match them.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	path := strings.TrimSuffix(relPath, "/")
	if isDir {
		path += "/"
	}
	for _, p := range m.patterns {
		if p.dirOnly && !isDir {
			continue
		}
		if p.re.MatchString(path) {
			return true
		}
	}
	return false
}

// Len reports the number of compiled patterns.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

// translate converts an fnmatch-style glob to an anchored regexp.
// * matches any run of characters including separators, ? matches a single
// character, character classes pass through.
func translate(glob string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")
	for i := 0; i < len(glob); i++ {
		c := glob[i]
		switch c {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		case '[':
			// Pass the class through, translating a leading ! to ^
			end := strings.IndexByte(glob[i+1:], ']')
			if end < 0 {
				sb.WriteString(regexp.QuoteMeta(string(c)))
				continue
			}
			class := glob[i+1 : i+1+end]
			if strings.HasPrefix(class, "!") {
				class = "^" + class[1:]
			}
			sb.WriteString("[" + class + "]")
			i += end + 1
		default:
			sb.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	sb.WriteString("$")
	return regexp.Compile(sb.String())
}
