package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var snapshotReason string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture and compare package state",
	Long: `Capture and compare installed package state.

A snapshot records every installed package with its version. Snapshots
are also taken automatically before destructive operations. Without a
subcommand, a snapshot is taken now.

Examples:
  # Capture the current state
  dpm snapshot --reason "before migration"

  # Show what changed since the latest snapshot
  dpm snapshot diff

  # Show what changed since a specific snapshot
  dpm snapshot diff snap-1a2b3c`,
	Args: cobra.NoArgs,
	RunE: runSnapshotCreate,
}

var snapshotCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Capture the current package state",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotCreate,
}

var snapshotListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded snapshots",
	Args:  cobra.NoArgs,
	RunE:  runSnapshotList,
}

var snapshotDiffCmd = &cobra.Command{
	Use:   "diff [snapshot-id]",
	Short: "Compare a snapshot against the live system",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSnapshotDiff,
}

func init() {
	snapshotCmd.PersistentFlags().StringVar(&snapshotReason, "reason", "", "Why the snapshot is being taken")
	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotDiffCmd)
}

func runSnapshotCreate(cmd *cobra.Command, args []string) error {
	app, err := newApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	if handled, err := runRemote(ctx, app); handled {
		return err
	}

	snap, err := app.Engine.SnapshotCreate(ctx, snapshotReason)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(snap)
	}
	PrintSuccess(fmt.Sprintf("Snapshot %s saved (%s)",
		snap.ID, PrintCount(len(snap.Packages), "package", "packages")))
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	app, err := newApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	if handled, err := runRemote(context.Background(), app); handled {
		return err
	}

	snaps, err := app.Engine.SnapshotList()
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(snaps)
	}

	if len(snaps) == 0 {
		PrintEmptyState("No snapshots recorded")
		return nil
	}
	rows := make([][]string, 0, len(snaps))
	for _, s := range snaps {
		rows = append(rows, []string{
			s.ID,
			s.CreatedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", len(s.Packages)),
			s.Reason,
		})
	}
	PrintTable([]string{"ID", "CREATED", "PACKAGES", "REASON"}, rows)
	return nil
}

func runSnapshotDiff(cmd *cobra.Command, args []string) error {
	app, err := newApp(false)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	if handled, err := runRemote(ctx, app); handled {
		return err
	}

	id := ""
	if len(args) > 0 {
		id = args[0]
	}
	result, err := app.Engine.SnapshotDiff(ctx, id)
	if err != nil {
		return err
	}

	if jsonOutput {
		return outputJSON(result)
	}

	PrintSection(fmt.Sprintf("Changes since %s (%s)",
		result.Base.ID, result.Base.CreatedAt.Format("2006-01-02 15:04")))
	if result.Diff.Empty() {
		PrintEmptyState("No changes")
		return nil
	}
	if len(result.Diff.Added) > 0 {
		PrintSubsection(fmt.Sprintf("Added (%d):", len(result.Diff.Added)))
		PrintList(packageLines(result.Diff.Added), 1)
	}
	if len(result.Diff.Removed) > 0 {
		PrintSubsection(fmt.Sprintf("Removed (%d):", len(result.Diff.Removed)))
		PrintList(packageLines(result.Diff.Removed), 1)
	}
	if len(result.Diff.Changed) > 0 {
		PrintSubsection(fmt.Sprintf("Changed (%d):", len(result.Diff.Changed)))
		lines := make([]string, 0, len(result.Diff.Changed))
		for _, c := range result.Diff.Changed {
			lines = append(lines, fmt.Sprintf("%s %s -> %s", c.Name, c.From, c.To))
		}
		PrintList(lines, 1)
	}
	return nil
}
