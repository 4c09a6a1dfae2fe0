// Package scanner walks a directory tree iteratively, applying the ignore
// predicate and a depth bound, and returns sorted file records.
package scanner

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/harrison/contextpacker/internal/models"
	"github.com/harrison/contextpacker/internal/task"
)

// IgnoreFunc reports whether a slash-separated relative path should be
// excluded from the scan. Ignored directories are never descended into.
type IgnoreFunc func(relPath string, isDir bool) bool

// frame is one pending directory on the traversal stack.
type frame struct {
	abs   string
	rel   string
	depth int
}

// Scan walks root up to maxDepth levels deep and returns the surviving
// records sorted folders-first by case-insensitive name, plus the set of
// directories that were reached but not descended into because they sat at
// the depth limit (recorded with a trailing slash).
//
// The traversal is iterative so memory stays bounded on deep trees and the
// cancel token can be polled once per directory. Per-entry stat errors are
// skipped without aborting the scan. When cancellation is observed the
// scan returns empty results immediately; partial results are never
// surfaced.
func Scan(root string, maxDepth int, isIgnored IgnoreFunc, cancel *task.CancelToken) ([]models.FileRecord, map[string]struct{}, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to access scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("scan root is not a directory: %s", root)
	}

	if maxDepth >= models.UnlimitedDepth {
		maxDepth = int(^uint(0) >> 1) // effectively unlimited
	}
	if isIgnored == nil {
		isIgnored = func(string, bool) bool { return false }
	}

	var records []models.FileRecord
	depthExcluded := make(map[string]struct{})

	stack := []frame{{abs: root, rel: ".", depth: 0}}

	for len(stack) > 0 {
		if cancel.IsSet() {
			return nil, nil, nil
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(f.abs)
		if err != nil {
			// Unreadable directory: skip it, keep scanning
			continue
		}

		for _, entry := range entries {
			rel := entry.Name()
			if f.rel != "." {
				rel = path.Join(f.rel, entry.Name())
			}

			isDir := entry.IsDir()
			if isIgnored(rel, isDir) {
				// The whole subtree is pruned; nothing beneath an
				// ignored directory is ever visited
				continue
			}

			if isDir {
				if f.depth+1 >= maxDepth {
					// At the depth limit: reached but never descended,
					// and kept out of the main record list
					depthExcluded[rel+"/"] = struct{}{}
					continue
				}
				stack = append(stack, frame{
					abs:   filepath.Join(f.abs, entry.Name()),
					rel:   rel,
					depth: f.depth + 1,
				})
				records = append(records, models.FileRecord{
					Name:    rel + "/",
					Kind:    models.KindFolder,
					RelPath: rel + "/",
				})
				continue
			}

			fi, err := entry.Info()
			if err != nil {
				continue
			}
			records = append(records, models.FileRecord{
				Name:    rel,
				Kind:    models.KindFile,
				Size:    fi.Size(),
				RelPath: rel,
			})
		}
	}

	if cancel.IsSet() {
		return nil, nil, nil
	}

	sortRecords(records)
	return records, depthExcluded, nil
}
