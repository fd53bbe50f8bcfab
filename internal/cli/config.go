package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dpm configuration",
	Long: `Manage dpm configuration.

Configuration lives in ~/.dpm/config.yaml (DPM_HOME overrides the
directory). Custom prefixes mark packages as locally managed and
removable, and the allow list whitelists individual packages outside
those prefixes. Pins fix the versions used for offline installs.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configAddPrefixCmd = &cobra.Command{
	Use:   "add-prefix <prefix>",
	Short: "Register a custom package prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigAddPrefix,
}

var configRemovePrefixCmd = &cobra.Command{
	Use:   "rm-prefix <prefix>",
	Short: "Drop a custom package prefix",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigRemovePrefix,
}

var configAllowCmd = &cobra.Command{
	Use:   "allow <package>",
	Short: "Whitelist a package for removal",
	Long: `Whitelist a single package for removal.

The whitelist exists for packages that need to go but match no custom
prefix. Critical system packages are refused outright.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigAllow,
}

var configDisallowCmd = &cobra.Command{
	Use:   "disallow <package>",
	Short: "Drop a package from the removal whitelist",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigDisallow,
}

var configPinCmd = &cobra.Command{
	Use:   "pin <package> <version>",
	Short: "Pin a package version for offline installs",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigPin,
}

var configUnpinCmd = &cobra.Command{
	Use:   "unpin <package>",
	Short: "Drop a version pin",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnpin,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configAddPrefixCmd)
	configCmd.AddCommand(configRemovePrefixCmd)
	configCmd.AddCommand(configAllowCmd)
	configCmd.AddCommand(configDisallowCmd)
	configCmd.AddCommand(configPinCmd)
	configCmd.AddCommand(configUnpinCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	app, err := newApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	settings := app.Store.All()
	if jsonOutput {
		return outputJSON(settings)
	}

	PrintSection("Configuration")
	PrintLabelValue("File", app.Paths.Config)
	PrintLabelValue("Offline mode", yesNo(settings.OfflineMode))
	PrintLabelValue("Force confirmation", yesNo(settings.ForceConfirmationRequired))
	PrintLabelValue("Auto-resolve conflicts", yesNo(settings.AutoResolveConflicts))
	PrintLabelValue("Log level", settings.LogLevel)

	PrintSection("Custom Prefixes")
	if len(settings.CustomPrefixes) == 0 {
		PrintEmptyState("None configured")
	} else {
		PrintList(settings.CustomPrefixes, 1)
	}

	if len(settings.MetapackageIndicators) > 0 {
		PrintSection("Metapackage Indicators")
		PrintList(settings.MetapackageIndicators, 1)
	}

	PrintSection("Removable Packages")
	if len(settings.RemovablePackages) == 0 {
		PrintEmptyState("None whitelisted")
	} else {
		PrintList(settings.RemovablePackages, 1)
	}

	PrintSection("Pinned Versions")
	if len(settings.PinnedVersions) == 0 {
		PrintEmptyState("None pinned")
		return nil
	}
	names := make([]string, 0, len(settings.PinnedVersions))
	for name := range settings.PinnedVersions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		PrintLabelValue(name, settings.PinnedVersions[name])
	}
	return nil
}

func runConfigAddPrefix(cmd *cobra.Command, args []string) error {
	app, err := newApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.AddPrefix(args[0]); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Added custom prefix %q", args[0]))
	return nil
}

func runConfigRemovePrefix(cmd *cobra.Command, args []string) error {
	app, err := newApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.RemovePrefix(args[0]); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Removed custom prefix %q", args[0]))
	return nil
}

func runConfigAllow(cmd *cobra.Command, args []string) error {
	app, err := newApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Policy.AddRemovable(args[0]); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("%s may now be removed", args[0]))
	return nil
}

func runConfigDisallow(cmd *cobra.Command, args []string) error {
	app, err := newApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Policy.RemoveRemovable(args[0]); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("%s is no longer whitelisted", args[0]))
	return nil
}

func runConfigPin(cmd *cobra.Command, args []string) error {
	app, err := newApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.Pin(args[0], args[1]); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Pinned %s to %s", args[0], args[1]))
	return nil
}

func runConfigUnpin(cmd *cobra.Command, args []string) error {
	app, err := newApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.Store.Unpin(args[0]); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Unpinned %s", args[0]))
	return nil
}
