// Package packager bundles a scanned directory tree into a single context
// file. The bundle is plain concatenation with per-file delimiters; the
// value is in the filtering and streaming, not the format.
package packager

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/contextpacker/internal/ignore"
	"github.com/harrison/contextpacker/internal/models"
	"github.com/harrison/contextpacker/internal/msgbus"
	"github.com/harrison/contextpacker/internal/scanner"
	"github.com/harrison/contextpacker/internal/task"
)

// Style selects the bundle's delimiter format.
type Style string

const (
	StyleMarkdown Style = "markdown"
	StylePlain    Style = "plain"
	StyleXML      Style = "xml"
)

// progressBatch is how many files are written between Progress messages.
const progressBatch = 10

// StyleForExtension maps an output filename extension to its bundle style.
// Unknown extensions get the markdown style.
func StyleForExtension(path string) Style {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return StylePlain
	case ".xml":
		return StyleXML
	default:
		return StyleMarkdown
	}
}

// Request describes one packaging run.
type Request struct {
	SourceDir  string
	OutputPath string
	Style      Style
	// ExcludePatterns are gitignore-style globs applied on top of any
	// .gitignore / .packignore files found at the source root
	ExcludePatterns []string
	UseGitignore    bool
}

// Validate checks the request before any filesystem work.
func (r Request) Validate() error {
	if strings.TrimSpace(r.SourceDir) == "" {
		return fmt.Errorf("source directory is required")
	}
	if strings.TrimSpace(r.OutputPath) == "" {
		return fmt.Errorf("output path is required")
	}
	switch r.Style {
	case StyleMarkdown, StylePlain, StyleXML:
	default:
		return fmt.Errorf("unknown bundle style %q", r.Style)
	}
	return nil
}

// Packager writes context bundles as manager jobs.
type Packager struct {
	bus   *msgbus.Bus
	cache *ignore.Cache
}

// New returns a Packager publishing on bus.
func New(bus *msgbus.Bus) *Packager {
	return &Packager{bus: bus, cache: ignore.NewCache()}
}

// Package scans the source tree, filters it, and concatenates every
// surviving file into one bundle at OutputPath. The bundle file itself is
// always excluded, so packaging into the source tree cannot self-ingest.
// Returns the job's terminal status; a partial bundle is removed on
// cancellation.
func (p *Packager) Package(req Request, cancel *task.CancelToken) msgbus.Status {
	if err := req.Validate(); err != nil {
		return msgbus.Status{Kind: msgbus.StatusError, Detail: err.Error()}
	}

	rootPatterns := p.cache.RootPatterns(req.SourceDir, req.UseGitignore)
	matcher := ignore.NewMatcher(rootPatterns, req.ExcludePatterns)

	selfRel := bundleRelPath(req.SourceDir, req.OutputPath)
	isIgnored := func(relPath string, isDir bool) bool {
		if !isDir && relPath == selfRel {
			return true
		}
		return matcher.Match(relPath, isDir)
	}

	p.bus.Publish(msgbus.Log{Text: fmt.Sprintf("Packaging %s...", req.SourceDir)})

	records, _, err := scanner.Scan(req.SourceDir, models.UnlimitedDepth, isIgnored, cancel)
	if err != nil {
		return msgbus.Status{Kind: msgbus.StatusError, Detail: fmt.Sprintf("scan failed: %v", err)}
	}
	if cancel.IsSet() {
		return msgbus.Status{Kind: msgbus.StatusCancelled, Detail: "Packaging cancelled."}
	}

	var files []models.FileRecord
	for _, rec := range records {
		if !rec.IsDir() {
			files = append(files, rec)
		}
	}

	out, err := os.Create(req.OutputPath)
	if err != nil {
		return msgbus.Status{Kind: msgbus.StatusError, Detail: fmt.Sprintf("failed to create bundle: %v", err)}
	}

	written, err := p.writeBundle(out, req, files, cancel)
	closeErr := out.Close()
	if cancel.IsSet() {
		os.Remove(req.OutputPath)
		return msgbus.Status{Kind: msgbus.StatusCancelled, Detail: "Packaging cancelled."}
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(req.OutputPath)
		return msgbus.Status{Kind: msgbus.StatusError, Detail: fmt.Sprintf("failed to write bundle: %v", err)}
	}

	p.bus.Publish(msgbus.Progress{Value: len(files), Max: len(files)})
	return msgbus.Status{
		Kind:   msgbus.StatusCompleted,
		Detail: fmt.Sprintf("Packaged %d files.", written),
		Path:   req.OutputPath,
	}
}

// writeBundle streams every file into out, publishing Progress per batch.
// Unreadable files are logged and skipped, never fatal. Returns the count
// of files actually written.
func (p *Packager) writeBundle(out *os.File, req Request, files []models.FileRecord, cancel *task.CancelToken) (int, error) {
	if err := p.writeHeader(out, req); err != nil {
		return 0, err
	}

	written := 0
	for i, rec := range files {
		if cancel.IsSet() {
			return written, nil
		}

		data, err := os.ReadFile(filepath.Join(req.SourceDir, filepath.FromSlash(rec.RelPath)))
		if err != nil {
			p.bus.Publish(msgbus.Log{Text: fmt.Sprintf("Skipping %s: %v", rec.RelPath, err)})
			continue
		}
		if err := writeSection(out, req.Style, rec.RelPath, data); err != nil {
			return written, err
		}
		written++

		if (i+1)%progressBatch == 0 {
			p.bus.Publish(msgbus.Progress{Value: i + 1, Max: len(files)})
		}
	}

	return written, p.writeFooter(out, req.Style)
}

func (p *Packager) writeHeader(out *os.File, req Request) error {
	var err error
	switch req.Style {
	case StyleMarkdown:
		_, err = fmt.Fprintf(out, "# Context bundle: %s\n\n", filepath.Base(req.SourceDir))
	case StyleXML:
		_, err = fmt.Fprintf(out, "<context root=%q>\n", filepath.Base(req.SourceDir))
	}
	return err
}

func (p *Packager) writeFooter(out *os.File, style Style) error {
	if style != StyleXML {
		return nil
	}
	_, err := fmt.Fprintln(out, "</context>")
	return err
}

func writeSection(out *os.File, style Style, relPath string, data []byte) error {
	body := string(data)
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}

	var err error
	switch style {
	case StyleMarkdown:
		_, err = fmt.Fprintf(out, "## %s\n\n```\n%s```\n\n", relPath, body)
	case StylePlain:
		_, err = fmt.Fprintf(out, "==== %s ====\n%s\n", relPath, body)
	case StyleXML:
		_, err = fmt.Fprintf(out, "<file path=%q><![CDATA[\n%s]]></file>\n", relPath, body)
	}
	return err
}

// bundleRelPath resolves the output path relative to the source root.
// Returns "" when the bundle lands outside the tree being packaged.
func bundleRelPath(sourceDir, outputPath string) string {
	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		return ""
	}
	absOut, err := filepath.Abs(outputPath)
	if err != nil {
		return ""
	}
	rel, err := filepath.Rel(absSource, absOut)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}
