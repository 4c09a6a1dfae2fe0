package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harrison/contextpacker/internal/msgbus"
	"github.com/harrison/contextpacker/internal/task"
	"github.com/harrison/contextpacker/internal/vcs"
)

// NewCloneCommand creates the clone command
func NewCloneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone <repository-url> [destination]",
		Short: "Shallow-clone a repository for scanning or packing",
		Long: `Clone runs a depth-1 git clone of the repository, streaming git's
progress output. Without a destination the repository lands in a fresh
session directory.

Examples:
  contextpacker clone https://github.com/golang/example
  contextpacker clone https://github.com/golang/example ./example`,
		Args: cobra.RangeArgs(1, 2),
		RunE: cloneCommand,
	}
	return cmd
}

// cloneCommand implements the clone command logic
func cloneCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	url := args[0]
	var dest string
	if len(args) == 2 {
		dest = args[1]
	} else {
		session, err := a.sessionDir()
		if err != nil {
			return err
		}
		dest = filepath.Join(session, vcs.RepoName(url))
	}

	req := vcs.CloneRequest{URL: url, Dest: dest}
	if err := req.Validate(); err != nil {
		return err
	}

	cloner := vcs.NewCloner(a.bus)
	installInterruptCancel(a)
	a.start()
	return a.run(task.SlotClone, func(cancel *task.CancelToken) msgbus.Status {
		return cloner.Clone(req, cancel)
	})
}
