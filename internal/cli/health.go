package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check package system health",
	Long: `Check the health of the package system.

Reports broken packages, held package-manager locks, pinned versions
that are no longer available offline, and the most recent operations
from the journal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(false)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := context.Background()
		if handled, err := runRemote(ctx, app); handled {
			return err
		}

		result, err := app.Engine.Health(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		printModeStatus(result.Mode)

		PrintSection("Packages")
		if len(result.Broken) == 0 {
			PrintSuccess("No broken packages")
		} else {
			PrintWarning(fmt.Sprintf("%s broken:", PrintCount(len(result.Broken), "package", "packages")))
			PrintList(packageLines(result.Broken), 1)
		}
		if len(result.Locks) > 0 {
			PrintWarning("Package manager locks held:")
			PrintList(result.Locks, 1)
		}
		for _, issue := range result.PinIssues {
			PrintWarning(issue)
		}

		if len(result.Recent) > 0 {
			PrintSection("Recent Operations")
			printJournalTable(result.Recent)
		}

		fmt.Println()
		if result.Healthy {
			PrintSuccess("System is healthy")
		} else {
			PrintWarning("System needs attention, run 'dpm fix' to repair")
		}
		return nil
	},
}
