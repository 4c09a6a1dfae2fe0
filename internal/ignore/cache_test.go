package ignore

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestCacheLoadAndParse verifies comment and blank-line handling
func TestCacheLoadAndParse(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".gitignore")
	content := "# comment\n\nbuild/\n*.log\n  \n# another\nvendor/\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write ignore file: %v", err)
	}

	c := NewCache()
	patterns := c.Load(path)

	want := []string{"build/", "*.log", "vendor/"}
	if len(patterns) != len(want) {
		t.Fatalf("Load() returned %d patterns, want %d: %v", len(patterns), len(want), patterns)
	}
	for i, p := range want {
		if patterns[i] != p {
			t.Errorf("patterns[%d] = %q, want %q", i, patterns[i], p)
		}
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

// TestCacheReloadOnMtimeChange verifies a changed mtime forces a re-read
func TestCacheReloadOnMtimeChange(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".packignore")
	if err := os.WriteFile(path, []byte("old/\n"), 0644); err != nil {
		t.Fatalf("failed to write ignore file: %v", err)
	}

	c := NewCache()
	if got := c.Load(path); len(got) != 1 || got[0] != "old/" {
		t.Fatalf("initial Load() = %v, want [old/]", got)
	}

	if err := os.WriteFile(path, []byte("new/\n*.bak\n"), 0644); err != nil {
		t.Fatalf("failed to rewrite ignore file: %v", err)
	}
	// Push mtime forward explicitly; some filesystems have coarse clocks
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("failed to bump mtime: %v", err)
	}

	got := c.Load(path)
	if len(got) != 2 || got[0] != "new/" {
		t.Errorf("Load() after mtime change = %v, want [new/ *.bak]", got)
	}
}

// TestCacheEvictsOnStatFailure verifies a deleted file clears its entry
func TestCacheEvictsOnStatFailure(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, ".gitignore")
	if err := os.WriteFile(path, []byte("a/\n"), 0644); err != nil {
		t.Fatalf("failed to write ignore file: %v", err)
	}

	c := NewCache()
	c.Load(path)
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}

	if err := os.Remove(path); err != nil {
		t.Fatalf("failed to remove ignore file: %v", err)
	}
	if got := c.Load(path); got != nil {
		t.Errorf("Load() after removal = %v, want nil", got)
	}
	if c.Len() != 0 {
		t.Errorf("Len() after eviction = %d, want 0", c.Len())
	}
}

// TestRootPatterns verifies .packignore is always read and .gitignore only
// when enabled
func TestRootPatterns(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, PackIgnoreFile), []byte("cache/\n"), 0644); err != nil {
		t.Fatalf("failed to write packignore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, GitIgnoreFile), []byte("build/\n"), 0644); err != nil {
		t.Fatalf("failed to write gitignore: %v", err)
	}

	c := NewCache()

	withGit := c.RootPatterns(tmpDir, true)
	if len(withGit) != 2 {
		t.Errorf("RootPatterns(useGitignore=true) = %v, want 2 patterns", withGit)
	}

	withoutGit := c.RootPatterns(tmpDir, false)
	if len(withoutGit) != 1 || withoutGit[0] != "cache/" {
		t.Errorf("RootPatterns(useGitignore=false) = %v, want [cache/]", withoutGit)
	}
}
