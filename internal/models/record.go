package models

import "github.com/dustin/go-humanize"

// FileKind distinguishes files from folders in scan results.
type FileKind string

const (
	KindFile   FileKind = "File"
	KindFolder FileKind = "Folder"
)

// FileRecord describes a single entry produced by a filesystem scan.
// Records are unique per scan by RelPath.
type FileRecord struct {
	// Name is the display name; folders carry a trailing slash
	Name string

	// Kind is File or Folder
	Kind FileKind

	// Size is the file size in bytes (0 for folders)
	Size int64

	// RelPath is the slash-separated path relative to the scan root;
	// folders carry a trailing slash
	RelPath string
}

// IsDir returns true if the record describes a folder.
func (r FileRecord) IsDir() bool {
	return r.Kind == KindFolder
}

// SizeString renders the record size in human-readable form ("1.2 kB").
// Folders render as an empty string.
func (r FileRecord) SizeString() string {
	if r.Kind == KindFolder {
		return ""
	}
	return humanize.Bytes(uint64(r.Size))
}
