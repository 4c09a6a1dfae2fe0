package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Ignore files consulted at a scan root. PackIgnoreFile is always read;
// GitIgnoreFile only when the request enables it.
const (
	PackIgnoreFile = ".packignore"
	GitIgnoreFile  = ".gitignore"
)

type cacheEntry struct {
	mtime    time.Time
	patterns []string
}

// Cache holds parsed ignore-file rules keyed by file path, invalidated when
// the file's mtime changes. It is a pure performance cache: evicting an
// entry at any time only costs a re-read. A Cache is owned by the logical
// slot that created it and must not be shared between concurrently running
// jobs; the internal lock covers reuse across sequential runs of that slot.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCache creates an empty ignore-file cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Load returns the parsed patterns for the ignore file at path. A cached
// entry is reused while the file's mtime is unchanged; a changed mtime
// forces a reload and a stat or read failure evicts the entry and returns
// no patterns.
func (c *Cache) Load(path string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		delete(c.entries, path)
		return nil
	}

	if entry, ok := c.entries[path]; ok && entry.mtime.Equal(info.ModTime()) {
		return entry.patterns
	}

	patterns, err := parseIgnoreFile(path)
	if err != nil {
		delete(c.entries, path)
		return nil
	}

	c.entries[path] = cacheEntry{mtime: info.ModTime(), patterns: patterns}
	return patterns
}

// Len reports the number of cached ignore files.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// parseIgnoreFile reads gitignore-style lines: blank lines and # comments
// are dropped, everything else is a pattern.
func parseIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

// RootPatterns loads ignore rules from the ignore files present at root:
// .packignore always, .gitignore when useGitignore is set.
func (c *Cache) RootPatterns(root string, useGitignore bool) []string {
	files := []string{PackIgnoreFile}
	if useGitignore {
		files = append(files, GitIgnoreFile)
	}

	var patterns []string
	for _, name := range files {
		patterns = append(patterns, c.Load(filepath.Join(root, name))...)
	}
	return patterns
}
