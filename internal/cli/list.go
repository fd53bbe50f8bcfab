package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pkgops/dpm/internal/engine"
)

var (
	listCustom     bool
	listUpgradable bool
	listBroken     bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed packages",
	Long: `List installed packages with their classification.

Selectors narrow the set: --custom keeps only packages matching a
configured custom prefix, --upgradable keeps packages with a newer
candidate, and --broken keeps packages in a broken install state.`,
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

		result, err := app.Engine.List(ctx, &engine.ListRequest{
			Custom:     listCustom,
			Upgradable: listUpgradable,
			Broken:     listBroken,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result.Packages)
		}

		if len(result.Packages) == 0 {
			PrintEmptyState("No packages found")
			return nil
		}

		rows := make([][]string, 0, len(result.Packages))
		for _, p := range result.Packages {
			rows = append(rows, []string{p.Name, p.Version, string(p.Status), packageType(p)})
		}
		PrintTable([]string{"NAME", "VERSION", "STATUS", "TYPE"}, rows)
		PrintInfo("")
		PrintInfo(PrintCount(len(result.Packages), "package", "packages"))
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listCustom, "custom", false, "Only packages matching a custom prefix")
	listCmd.Flags().BoolVar(&listUpgradable, "upgradable", false, "Only packages with a newer candidate")
	listCmd.Flags().BoolVar(&listBroken, "broken", false, "Only packages in a broken install state")
}
