package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the package cache",
	Args:  cobra.ExactArgs(1),
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

		results, err := app.Engine.Search(ctx, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(results)
		}

		if len(results) == 0 {
			PrintEmptyState("No packages match " + args[0])
			return nil
		}

		rows := make([][]string, 0, len(results))
		for _, r := range results {
			rows = append(rows, []string{r.Name, r.Description})
		}
		PrintTable([]string{"NAME", "DESCRIPTION"}, rows)
		return nil
	},
}
