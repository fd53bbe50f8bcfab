package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgops/dpm/internal/deb"
)

var infoCmd = &cobra.Command{
	Use:   "info <package>",
	Short: "Show package details, classification, and removability",
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

		result, err := app.Engine.Info(ctx, args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		PrintSection(result.Package.Name)
		if result.Description != "" {
			PrintLabelValue("Description", result.Description)
		}
		PrintLabelValue("Version", result.Package.Version)
		PrintLabelValue("Status", string(result.Package.Status))
		PrintLabelValue("Type", packageType(result.Package))
		PrintLabelValueWithColor("Risk", result.Risk.String(), riskColor(result.Risk))
		PrintLabelValue("Removable", yesNo(result.Removable))
		if result.Pinned != "" {
			PrintLabelValue("Pinned", result.Pinned)
		}

		if len(result.Dependencies) > 0 {
			PrintSection(fmt.Sprintf("Dependencies (%d)", len(result.Dependencies)))
			lines := make([]string, 0, len(result.Dependencies))
			for _, dep := range result.Dependencies {
				line := dep.Name
				if dep.Custom {
					line += " (custom)"
				}
				if !dep.Installed() {
					line += " [not installed]"
				}
				lines = append(lines, line)
			}
			PrintList(lines, 1)
		}
		return nil
	},
}

// packageType renders the classification of an annotated package.
func packageType(p deb.Package) string {
	switch {
	case p.Meta:
		return string(deb.TypeMetapackage)
	case p.Custom:
		return string(deb.TypeCustom)
	default:
		return string(deb.TypeSystem)
	}
}
