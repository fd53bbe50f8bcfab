package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pkgops/dpm/internal/engine"
)

var planMode string

var planCmd = &cobra.Command{
	Use:   "plan <package>",
	Short: "Resolve and show an install plan without executing it",
	Long: `Resolve the dependency plan for installing a package and show it.

Equivalent to 'dpm install --plan'. The system is never touched: the
cache is not refreshed and no confirmation is asked.`,
	Args: cobra.ExactArgs(1),
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

		result, err := app.Engine.Install(ctx, &engine.InstallRequest{
			Name:     args[0],
			Mode:     planMode,
			PlanOnly: true,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		printPlan(result.Plan)
		for _, issue := range result.Issues {
			PrintWarning(issue)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planMode, "mode", "", "Override the operating mode for this run (online or offline)")
}
