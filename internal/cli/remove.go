package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgops/dpm/internal/engine"
)

var (
	removeForce bool
	removePurge bool
	removeYes   bool
)

var removeCmd = &cobra.Command{
	Use:   "remove <package>",
	Short: "Remove a package within the safety policy",
	Long: `Remove a package, refusing anything the safety policy protects.

Only packages matching a configured custom prefix or whitelisted with
'dpm config allow' can be removed. High-risk removals demand the exact
answer YES. A state snapshot is saved before the removal runs.

With --force a failed safe removal escalates through dpkg force
options; with --purge configuration files are removed as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(removeYes)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := context.Background()
		if handled, err := runRemote(ctx, app); handled {
			return err
		}

		result, err := app.Engine.Remove(ctx, &engine.RemoveRequest{
			Name:  args[0],
			Force: removeForce,
			Purge: removePurge,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		printOutcome(&result.Outcome)
		if result.SnapshotID != "" {
			PrintLabelValue("Snapshot", result.SnapshotID)
		}
		if !result.Outcome.Success {
			return fmt.Errorf("removal of %s failed", args[0])
		}
		if len(result.Outcome.Affected) == 0 {
			// Nothing was removed; the warning above said why.
			return nil
		}
		PrintSuccess(fmt.Sprintf("Removed %s", args[0]))
		return nil
	},
}

func init() {
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Escalate through dpkg force options when the safe removal fails")
	removeCmd.Flags().BoolVar(&removePurge, "purge", false, "Remove configuration files as well")
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Assume yes for ordinary confirmations")
}
