package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pkgops/dpm/internal/engine"
	"github.com/pkgops/dpm/internal/mode"
)

var (
	modeAuto bool
	modePins []string
)

var modeCmd = &cobra.Command{
	Use:   "mode [online|offline]",
	Short: "Show or switch the operating mode",
	Long: `Show the operating mode, or switch between online and offline.

Offline mode resolves installs against pinned versions instead of the
network. Switching online verifies that the network and the package
repositories actually answer. With --auto the mode is probed and set
automatically.

Examples:
  # Show the current mode and probe results
  dpm mode

  # Go offline, pinning the installed versions of two packages
  dpm mode offline --pin myco-app --pin myco-agent

  # Probe the environment and apply the detected mode
  dpm mode --auto`,
	Args: cobra.MaximumNArgs(1),
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

		req := &engine.ModeRequest{Auto: modeAuto, Prepare: modePins}
		if len(args) > 0 {
			req.Set = args[0]
		}

		result, err := app.Engine.Mode(ctx, req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result)
		}

		if result.Detection != nil {
			PrintInfo(fmt.Sprintf("Detected %s mode: %s",
				result.Detection.Mode, result.Detection.Reason))
		}
		for _, name := range result.NotPinned {
			PrintWarning(fmt.Sprintf("%s is not installed, skipped pinning", name))
		}
		printModeStatus(result.Status)
		return nil
	},
}

func init() {
	modeCmd.Flags().BoolVar(&modeAuto, "auto", false, "Probe the environment and apply the detected mode")
	modeCmd.Flags().StringSliceVar(&modePins, "pin", nil, "Pin this package's installed version when going offline (repeatable)")
}

// printModeStatus renders an operating-mode status block.
func printModeStatus(status mode.Status) {
	PrintSection("Operating Mode")
	clr := successColor
	if status.Mode == mode.Offline {
		clr = warningColor
	}
	PrintLabelValueWithColor("Mode", string(status.Mode), clr)
	PrintLabelValue("Configured offline", yesNo(status.ConfigOffline))
	PrintLabelValue("Network", yesNo(status.NetworkAvailable))
	PrintLabelValue("Repositories", yesNo(status.RepositoriesAccessible))
	PrintLabelValue("Pinned packages", strconv.Itoa(status.PinnedPackages))
}
