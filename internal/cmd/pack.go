package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/contextpacker/internal/msgbus"
	"github.com/harrison/contextpacker/internal/packager"
	"github.com/harrison/contextpacker/internal/task"
)

// NewPackCommand creates the pack command
func NewPackCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pack <directory>",
		Short: "Bundle a directory tree into a single context file",
		Long: `Pack scans a directory with the same exclude filtering as scan and
concatenates every surviving file into one bundle.

The bundle style follows the output file extension: .md for markdown
sections, .txt for plain delimiters, .xml for tagged sections.

Examples:
  contextpacker pack ./src
  contextpacker pack ./src -o context.txt
  contextpacker pack . -o bundle.xml --exclude "vendor/" --exclude "*.lock"`,
		Args: cobra.ExactArgs(1),
		RunE: packCommand,
	}

	cmd.Flags().StringP("output", "o", "", "Bundle path (default: <dirname>-context<output_format>)")
	cmd.Flags().StringSlice("exclude", nil, "Additional exclude patterns")
	cmd.Flags().Bool("no-gitignore", false, "Ignore .gitignore files")
	cmd.Flags().Bool("no-binary-excludes", false, "Include binary files in the bundle")

	return cmd
}

// packCommand implements the pack command logic
func packCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	source := args[0]
	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		abs, err := filepath.Abs(source)
		if err != nil {
			return fmt.Errorf("cannot resolve %s: %w", source, err)
		}
		output = filepath.Base(abs) + "-context" + a.cfg.OutputFormat
	}

	excludes, _ := cmd.Flags().GetStringSlice("exclude")
	excludes = append(excludes, a.cfg.DefaultExcludes...)
	if v, _ := cmd.Flags().GetBool("no-binary-excludes"); !v {
		excludes = append(excludes, a.cfg.BinaryExcludes...)
	}

	req := packager.Request{
		SourceDir:       source,
		OutputPath:      output,
		Style:           packager.StyleForExtension(output),
		ExcludePatterns: excludes,
		UseGitignore:    true,
	}
	if v, _ := cmd.Flags().GetBool("no-gitignore"); v {
		req.UseGitignore = false
	}
	if err := req.Validate(); err != nil {
		return err
	}
	a.log.Debugf("packing %s into %s", source, output)

	p := packager.New(a.bus)
	installInterruptCancel(a)
	a.start()
	return a.run(task.SlotPackage, func(cancel *task.CancelToken) msgbus.Status {
		return p.Package(req, cancel)
	})
}
