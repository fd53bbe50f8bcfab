package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgops/dpm/internal/deb"
	"github.com/pkgops/dpm/internal/engine"
)

var (
	installVersion string
	installMode    string
	installForce   bool
	installPlan    bool
	installYes     bool
)

var installCmd = &cobra.Command{
	Use:   "install <package>",
	Short: "Install a package with dependency planning",
	Long: `Install a package after resolving its full dependency chain.

The resolved plan is validated and shown before execution. Any removal
the plan requires goes through the safety policy and an interactive
confirmation; high-risk removals demand the exact answer YES.

With --plan the command stops after planning and touches nothing.
With --force, validation failures and blocked conflict removals are
pushed through after a strict confirmation.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(installYes)
		if err != nil {
			return err
		}
		defer app.Close()

		ctx := context.Background()
		if handled, err := runRemote(ctx, app); handled {
			return err
		}

		req := &engine.InstallRequest{
			Name:     args[0],
			Version:  installVersion,
			Mode:     installMode,
			Force:    installForce,
			PlanOnly: installPlan,
		}

		result, err := app.Engine.Install(ctx, req)
		if err != nil {
			reportInstallFailure(result, err)
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		printPlan(result.Plan)
		for _, issue := range result.Issues {
			PrintWarning(issue)
		}

		if result.PlanOnly {
			PrintInfo("Plan only, nothing was executed.")
			return nil
		}

		printOutcome(&result.Outcome)
		if result.SnapshotID != "" {
			PrintLabelValue("Snapshot", result.SnapshotID)
		}
		if !result.Outcome.Success {
			return fmt.Errorf("install of %s failed", args[0])
		}
		if len(result.Outcome.Affected) == 0 {
			// Nothing changed; the warnings above said why.
			return nil
		}
		PrintSuccess(fmt.Sprintf("Installed %s", args[0]))
		return nil
	},
}

func init() {
	installCmd.Flags().StringVar(&installVersion, "version", "", "Install a specific version instead of the candidate")
	installCmd.Flags().StringVar(&installMode, "mode", "", "Override the operating mode for this run (online or offline)")
	installCmd.Flags().BoolVarP(&installForce, "force", "f", false, "Push past validation failures and blocked removals")
	installCmd.Flags().BoolVar(&installPlan, "plan", false, "Resolve and show the plan without executing it")
	installCmd.Flags().BoolVarP(&installYes, "yes", "y", false, "Assume yes for ordinary confirmations")
}

// reportInstallFailure explains a gate failure before the error itself
// is printed, so the user sees what the plan wanted to do.
func reportInstallFailure(result *engine.InstallResult, err error) {
	if result == nil || result.Plan == nil {
		return
	}
	if result.Plan.HasConflicts() {
		printConflicts(result.Plan)
	}
	if errors.Is(err, engine.ErrPlanInvalid) {
		for _, issue := range result.Issues {
			PrintWarning(issue)
		}
		fmt.Println()
		PrintWarning("Use --force to proceed despite validation issues.")
	}
}

// printPlan renders a resolved plan section by section.
func printPlan(plan *deb.Plan) {
	if plan == nil {
		return
	}
	PrintSection("Plan")
	if plan.Empty() && !plan.HasConflicts() {
		PrintEmptyState("Nothing to do")
		return
	}
	if len(plan.Install) > 0 {
		PrintSubsection(fmt.Sprintf("Install (%d):", len(plan.Install)))
		PrintList(packageLines(plan.Install), 1)
	}
	if len(plan.Upgrade) > 0 {
		PrintSubsection(fmt.Sprintf("Upgrade (%d):", len(plan.Upgrade)))
		PrintList(packageLines(plan.Upgrade), 1)
	}
	if len(plan.Remove) > 0 {
		PrintSubsection(fmt.Sprintf("Remove (%d):", len(plan.Remove)))
		PrintList(packageLines(plan.Remove), 1)
	}
	if plan.HasConflicts() {
		printConflicts(plan)
	}
}

// printConflicts lists the conflicts still attached to a plan.
func printConflicts(plan *deb.Plan) {
	PrintSection("Conflicts")
	for _, c := range plan.Conflicts {
		PrintError(fmt.Sprintf("%s conflicts with %s: %s",
			c.Package.Name, c.ConflictsWith.Name, c.Reason))
	}
}

// printOutcome surfaces execution warnings and errors.
func printOutcome(outcome *deb.Result) {
	for _, w := range outcome.Warnings {
		PrintWarning(w)
	}
	for _, e := range outcome.Errors {
		PrintError(e)
	}
}

// packageLines renders packages as "name version" display lines.
func packageLines(pkgs []deb.Package) []string {
	lines := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Version == "" {
			lines = append(lines, p.Name)
			continue
		}
		lines = append(lines, fmt.Sprintf("%s %s", p.Name, p.Version))
	}
	return lines
}
