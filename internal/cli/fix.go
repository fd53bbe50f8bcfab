package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var fixYes bool

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Repair broken packages",
	Long: `Repair broken package state.

Runs a dependency repair pass, then reconfigures each package that was
broken. Packages still broken afterwards are listed for manual work.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(fixYes)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := context.Background()
		if handled, err := runRemote(ctx, app); handled {
			return err
		}

		result, err := app.Engine.Fix(ctx)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		printOutcome(&result.Outcome)
		if len(result.Reconfigured) > 0 {
			PrintInfo(fmt.Sprintf("Reconfigured %s",
				PrintCount(len(result.Reconfigured), "package", "packages")))
		}
		if len(result.Remaining) > 0 {
			PrintWarning("Still broken after repair:")
			PrintList(packageLines(result.Remaining), 1)
		}
		if !result.Outcome.Success {
			return fmt.Errorf("repair failed")
		}
		PrintSuccess("Repair complete")
		return nil
	},
}

func init() {
	fixCmd.Flags().BoolVarP(&fixYes, "yes", "y", false, "Assume yes for the repair confirmation")
}
