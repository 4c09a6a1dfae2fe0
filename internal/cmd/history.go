package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/contextpacker/internal/msgbus"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past job runs",
		Long: `History lists recently finished crawls, scans, packs, and clones
recorded in the local run database, newest first.

Examples:
  contextpacker history
  contextpacker history --limit 50
  contextpacker history --slot download
  contextpacker history --prune-older-than 720h`,
		Args: cobra.NoArgs,
		RunE: historyCommand,
	}

	cmd.Flags().Int("limit", 20, "Maximum runs to show")
	cmd.Flags().String("slot", "", "Only show runs from this slot (download, local-scan, package, clone)")
	cmd.Flags().Duration("prune-older-than", 0, "Delete runs older than this before listing")

	return cmd
}

// historyCommand implements the history command logic
func historyCommand(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	if a.store == nil {
		return fmt.Errorf("job history is unavailable")
	}

	ctx := cmd.Context()
	if olderThan, _ := cmd.Flags().GetDuration("prune-older-than"); olderThan > 0 {
		removed, err := a.store.Prune(ctx, time.Now().Add(-olderThan))
		if err != nil {
			return err
		}
		if removed > 0 {
			a.log.Infof("Pruned %d old run(s).", removed)
		}
	}

	limit, _ := cmd.Flags().GetInt("limit")
	slot, _ := cmd.Flags().GetString("slot")
	runs, err := a.store.Recent(ctx, slot, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stdout, "No recorded runs.")
		return nil
	}

	for _, run := range runs {
		fmt.Fprintf(os.Stdout, "%s  %-10s  %-9s  %s  %s\n",
			run.FinishedAt.Local().Format("2006-01-02 15:04:05"),
			run.Slot,
			run.Status,
			run.Duration().Round(time.Second),
			run.Detail,
		)
	}

	counts, err := a.store.CountByStatus(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "\nTotals: %d completed, %d cancelled, %d failed\n",
		counts[string(msgbus.StatusCompleted)],
		counts[string(msgbus.StatusCancelled)],
		counts[string(msgbus.StatusError)],
	)
	return nil
}
