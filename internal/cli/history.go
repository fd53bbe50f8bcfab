package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pkgops/dpm/internal/engine"
	"github.com/pkgops/dpm/internal/journal"
)

var (
	historyLimit   int
	historyPackage string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the operation journal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(false)
		if err != nil {
			return err
		}
		defer app.Close()

		if handled, err := runRemote(context.Background(), app); handled {
			return err
		}

		entries, err := app.Engine.History(&engine.HistoryRequest{
			Package: historyPackage,
			Limit:   historyLimit,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(entries)
		}

		if len(entries) == 0 {
			PrintEmptyState("No operations recorded")
			return nil
		}
		printJournalTable(entries)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "Maximum entries to show")
	historyCmd.Flags().StringVar(&historyPackage, "package", "", "Only entries for this package")
}

// printJournalTable renders journal entries as a table.
func printJournalTable(entries []journal.Entry) {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		outcome := "ok"
		if !e.Success {
			outcome = "failed"
		}
		rows = append(rows, []string{
			e.StartedAt.Format("2006-01-02 15:04"),
			e.Action,
			e.Package,
			e.Version,
			outcome,
		})
	}
	PrintTable([]string{"TIME", "ACTION", "PACKAGE", "VERSION", "RESULT"}, rows)
}
