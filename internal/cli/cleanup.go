package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pkgops/dpm/internal/engine"
)

var (
	cleanupCache   bool
	cleanupBundles bool
	cleanupLogs    bool
	cleanupAll     bool
	cleanupAgeDays int
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Reclaim disk space from caches, bundles, and logs",
	Long: `Reclaim disk space.

Targets are selected explicitly: --cache clears the apt package cache
and reports autoremove candidates, --bundles deletes stale offline
bundle files, and --logs prunes rotated log files. --all selects every
target.`,
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

		req := &engine.CleanupRequest{
			Cache:   cleanupCache || cleanupAll,
			Bundles: cleanupBundles || cleanupAll,
			Logs:    cleanupLogs || cleanupAll,
			Age:     time.Duration(cleanupAgeDays) * 24 * time.Hour,
		}

		result, err := app.Engine.Cleanup(ctx, req)
		if err != nil {
			return err
		}

		if jsonOutput {
			return outputJSON(result.Report)
		}

		report := result.Report
		if report.CacheCleaned {
			PrintInfo("Package cache cleared")
		}
		if req.Bundles {
			PrintInfo(fmt.Sprintf("Removed %s",
				PrintCount(report.BundlesRemoved, "stale bundle", "stale bundles")))
		}
		if req.Logs {
			PrintInfo(fmt.Sprintf("Removed %s",
				PrintCount(report.LogsRemoved, "old log", "old logs")))
		}
		if len(report.Orphans) > 0 {
			PrintInfo("Orphaned packages reclaimable with autoremove:")
			PrintList(report.Orphans, 1)
		}
		for _, e := range report.Errors {
			PrintWarning(e)
		}
		PrintSuccess(fmt.Sprintf("Freed %s", formatBytes(report.BytesFreed)))
		return nil
	},
}

func init() {
	cleanupCmd.Flags().BoolVar(&cleanupCache, "cache", false, "Clear the apt package cache")
	cleanupCmd.Flags().BoolVar(&cleanupBundles, "bundles", false, "Delete stale offline bundle files")
	cleanupCmd.Flags().BoolVar(&cleanupLogs, "logs", false, "Prune rotated log files")
	cleanupCmd.Flags().BoolVar(&cleanupAll, "all", false, "Select every cleanup target")
	cleanupCmd.Flags().IntVar(&cleanupAgeDays, "age", 0, "Bundle staleness cutoff in days")
}

// formatBytes renders a byte count in the largest sensible unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
