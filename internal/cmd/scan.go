package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/contextpacker/internal/ignore"
	"github.com/harrison/contextpacker/internal/models"
	"github.com/harrison/contextpacker/internal/msgbus"
	"github.com/harrison/contextpacker/internal/scanner"
	"github.com/harrison/contextpacker/internal/task"
)

// watchPollInterval is how often watch mode re-checks the tree for
// changes.
const watchPollInterval = 2 * time.Second

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "List a directory tree with exclude filtering applied",
		Long: `Scan walks a directory tree and lists every file and folder that
survives the exclude patterns, with folders first.

Patterns come from the configured defaults, any .packignore or .gitignore
at the root, and --exclude flags. Excluded subtrees are never descended
into.

Examples:
  contextpacker scan .
  contextpacker scan ./src --max-depth 2 --exclude "*.test.js"
  contextpacker scan . --no-gitignore
  contextpacker scan . --watch`,
		Args: cobra.ExactArgs(1),
		RunE: scanCommand,
	}

	cmd.Flags().Int("max-depth", models.UnlimitedDepth, "Maximum depth to descend, 9 = unlimited")
	cmd.Flags().StringSlice("exclude", nil, "Additional exclude patterns")
	cmd.Flags().Bool("no-gitignore", false, "Ignore .gitignore files")
	cmd.Flags().Bool("no-binary-excludes", false, "Include binary files in the listing")
	cmd.Flags().Bool("watch", false, "Re-scan whenever the tree changes")

	return cmd
}

// scanCommand implements the scan command logic
func scanCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	req := models.ScanRequest{
		Root:         args[0],
		UseGitignore: true,
	}
	req.MaxDepth, _ = cmd.Flags().GetInt("max-depth")
	req.CustomExcludes, _ = cmd.Flags().GetStringSlice("exclude")
	if v, _ := cmd.Flags().GetBool("no-gitignore"); v {
		req.UseGitignore = false
	}
	if v, _ := cmd.Flags().GetBool("no-binary-excludes"); !v {
		req.BinaryExcludes = a.cfg.BinaryExcludes
	}
	if err := req.Validate(); err != nil {
		return err
	}

	a.observers.OnScanComplete = func(sc msgbus.ScanComplete) {
		printScanResult(os.Stdout, sc)
	}

	installInterruptCancel(a)
	a.start()

	job := scanJob(a, req)
	if watch, _ := cmd.Flags().GetBool("watch"); watch {
		return watchScan(a, req, job)
	}
	return a.run(task.SlotLocalScan, job)
}

// scanJob builds the manager job for one scan request. The ignore cache
// lives across invocations so watch mode picks up edited ignore files by
// mtime.
func scanJob(a *app, req models.ScanRequest) task.Job {
	cache := ignore.NewCache()
	return func(cancel *task.CancelToken) msgbus.Status {
		rootPatterns := cache.RootPatterns(req.Root, req.UseGitignore)
		matcher := ignore.NewMatcher(a.cfg.DefaultExcludes, req.BinaryExcludes, req.CustomExcludes, rootPatterns)

		records, depthExcluded, err := scanner.Scan(req.Root, req.MaxDepth, matcher.Match, cancel)
		if err != nil {
			return msgbus.Status{Kind: msgbus.StatusError, Detail: fmt.Sprintf("scan failed: %v", err)}
		}
		if cancel.IsSet() {
			return msgbus.Status{Kind: msgbus.StatusCancelled, Detail: "Scan cancelled."}
		}

		a.bus.Publish(msgbus.ScanComplete{Records: records, DepthExcluded: depthExcluded})
		return msgbus.Status{
			Kind:   msgbus.StatusCompleted,
			Detail: fmt.Sprintf("Scan complete. %d entries.", len(records)),
		}
	}
}

// printScanResult writes the record listing, folders already first.
func printScanResult(w *os.File, sc msgbus.ScanComplete) {
	dirColor := color.New(color.FgCyan)
	for _, rec := range sc.Records {
		if rec.IsDir() {
			dirColor.Fprintf(w, "%s\n", rec.RelPath)
		} else {
			fmt.Fprintf(w, "%s  (%s)\n", rec.RelPath, rec.SizeString())
		}
	}
	if len(sc.DepthExcluded) > 0 {
		skipped := make([]string, 0, len(sc.DepthExcluded))
		for dir := range sc.DepthExcluded {
			skipped = append(skipped, dir)
		}
		sort.Strings(skipped)
		fmt.Fprintf(w, "\n%d folder(s) beyond the depth limit:\n", len(skipped))
		for _, dir := range skipped {
			fmt.Fprintf(w, "  %s\n", dir)
		}
	}
}

// watchScan re-runs the scan whenever the tree's signature changes,
// coalescing rapid bursts of edits through the debouncer. Runs until the
// scan slot is cancelled.
func watchScan(a *app, req models.ScanRequest, job task.Job) error {
	if err := a.run(task.SlotLocalScan, job); err != nil {
		return err
	}

	debouncer := task.NewDebouncer(a.cfg.DebounceInterval)
	defer debouncer.Stop()

	lastSig := treeSignature(req.Root)
	a.log.Infof("Watching %s for changes...", req.Root)

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-a.interrupted:
			return nil
		case <-ticker.C:
			sig := treeSignature(req.Root)
			if sig == lastSig {
				continue
			}
			lastSig = sig
			debouncer.Trigger(func() {
				if err := a.manager.Submit(task.SlotLocalScan, job); err != nil {
					a.log.Warnf("re-scan not started: %v", err)
				}
			})
		}
	}
}

// treeSignature is a cheap change detector: entry count plus the newest
// mtime seen anywhere under root. Walk errors degrade to a zero signature
// so the next successful walk triggers a scan.
func treeSignature(root string) string {
	var count int
	var newest time.Time
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		count++
		if info, err := d.Info(); err == nil && info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		return nil
	})
	return fmt.Sprintf("%d-%d", count, newest.UnixNano())
}
