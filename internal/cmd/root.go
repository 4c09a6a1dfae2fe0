package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for contextpacker
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contextpacker",
		Short: "Collect web and filesystem content into context bundles",
		Long: `ContextPacker gathers source material for LLM context windows.

It crawls documentation sites into local markdown, scans directory trees
with gitignore-style filtering, clones repositories, and packages the
collected files into a single bundle.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .contextpacker.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log verbosity: trace, debug, info, warn, error")

	cmd.AddCommand(NewCrawlCommand())
	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewPackCommand())
	cmd.AddCommand(NewCloneCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
