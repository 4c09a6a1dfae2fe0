// Package filelock guards the session cache directory against concurrent
// application instances and provides atomic file writes so readers never
// observe a partially written page or bundle.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// lockFileName is the flock target inside a guarded directory.
const lockFileName = ".contextpacker.lock"

// DirLock is an advisory lock over a directory, implemented as a flock on
// a well-known file inside it. It coordinates whole application instances,
// not goroutines.
type DirLock struct {
	flock *flock.Flock
	dir   string
}

// NewDirLock returns a lock for dir. The directory is created if missing.
func NewDirLock(dir string) (*DirLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &DirLock{
		flock: flock.New(filepath.Join(dir, lockFileName)),
		dir:   dir,
	}, nil
}

// TryAcquire attempts to take the lock without blocking. Returns false
// when another instance holds it.
func (l *DirLock) TryAcquire() (bool, error) {
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to lock %s: %w", l.dir, err)
	}
	return acquired, nil
}

// Acquire blocks until the lock is available.
func (l *DirLock) Acquire() error {
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to lock %s: %w", l.dir, err)
	}
	return nil
}

// Release gives the lock up.
func (l *DirLock) Release() error {
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock %s: %w", l.dir, err)
	}
	return nil
}

// Dir returns the guarded directory.
func (l *DirLock) Dir() string {
	return l.dir
}

// AtomicWrite writes data to path through a temp file and rename, so an
// interrupted write leaves either the old content or the new content but
// never a mix. The temp file lives in the target's directory to keep the
// rename on one filesystem.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()
	defer func() {
		if tempFile != nil {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0o644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	tempFile = nil
	return nil
}
