// Package fileutil manages the application cache directory and the
// per-run session directories crawl output lands in.
package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// sessionPrefix starts every session directory name.
const sessionPrefix = "session-"

// sessionStamp is the timestamp layout in session directory names,
// e.g. session-260829-153012.
const sessionStamp = "060102-150405"

// DefaultCacheDir returns the per-user cache directory for the
// application, without creating it.
func DefaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache dir: %w", err)
	}
	return filepath.Join(base, "contextpacker"), nil
}

// NewSessionDir creates a fresh timestamped directory under cacheDir and
// returns its path. Collisions within the same second get a numeric
// suffix.
func NewSessionDir(cacheDir string) (string, error) {
	name := sessionPrefix + time.Now().Format(sessionStamp)
	path := filepath.Join(cacheDir, name)

	for i := 0; ; i++ {
		candidate := path
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d", path, i)
		}
		err := os.Mkdir(candidate, 0o755)
		if err == nil {
			return candidate, nil
		}
		if !os.IsExist(err) {
			if mkErr := os.MkdirAll(cacheDir, 0o755); mkErr != nil {
				return "", fmt.Errorf("failed to create cache dir: %w", mkErr)
			}
			if err := os.Mkdir(candidate, 0o755); err == nil {
				return candidate, nil
			}
			return "", fmt.Errorf("failed to create session dir: %w", err)
		}
	}
}

// ListSessionDirs returns the session directories under cacheDir, newest
// first by name. Missing cacheDir is not an error.
func ListSessionDirs(cacheDir string) ([]string, error) {
	entries, err := os.ReadDir(cacheDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache dir: %w", err)
	}

	var dirs []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), sessionPrefix) {
			dirs = append(dirs, filepath.Join(cacheDir, e.Name()))
		}
	}
	// Timestamped names sort chronologically, so reverse lexicographic
	// order is newest first
	sort.Sort(sort.Reverse(sort.StringSlice(dirs)))
	return dirs, nil
}

// PruneSessionDirs removes all but the newest keep session directories.
// Returns how many were removed.
func PruneSessionDirs(cacheDir string, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	dirs, err := ListSessionDirs(cacheDir)
	if err != nil {
		return 0, err
	}
	if len(dirs) <= keep {
		return 0, nil
	}

	removed := 0
	for _, dir := range dirs[keep:] {
		if err := os.RemoveAll(dir); err != nil {
			return removed, fmt.Errorf("failed to remove session %s: %w", dir, err)
		}
		removed++
	}
	return removed, nil
}
