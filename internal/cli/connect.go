package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkgops/dpm/internal/remote"
)

var (
	connectAdd        bool
	connectKey        string
	connectRemoveName string
	connectDisconnect bool
	connectStatus     bool
	connectList       bool
)

var connectCmd = &cobra.Command{
	Use:   "connect [name]",
	Short: "Run package operations on a remote host",
	Long: `Manage remote hosts and select one as the execution target.

While a host is connected, every package operation runs there over SSH
instead of locally; the remote host must have dpm on its PATH. The
selection persists across invocations until 'dpm connect --disconnect'.

Host keys are verified against ~/.ssh/known_hosts; connect to unknown
hosts over ssh once first.

Examples:
  # Register a build host
  dpm connect --add build deploy@build-3.internal:22

  # Forward operations to it
  dpm connect build
  dpm install myco-app

  # Back to local execution
  dpm connect --disconnect`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(false)
		if err != nil {
			return err
		}
		defer app.Close()

		switch {
		case connectList:
			return runConnectList(app)
		case connectAdd:
			return runConnectAdd(app, args)
		case connectRemoveName != "":
			return runConnectRemove(app, connectRemoveName)
		case connectDisconnect:
			if err := app.Remote.Disconnect(); err != nil {
				return err
			}
			PrintSuccess("Disconnected, operations run locally again")
			return nil
		case connectStatus || len(args) == 0:
			return runConnectStatus(app)
		}

		if len(args) != 1 {
			return fmt.Errorf("expected a single host name, got %d arguments", len(args))
		}
		name := args[0]
		if err := app.Remote.Connect(context.Background(), name); err != nil {
			return err
		}
		PrintSuccess(fmt.Sprintf("Connected to %s (%s)", name, app.Remote.Target()))
		PrintInfo("Package operations now run on the remote host.")
		return nil
	},
}

func init() {
	connectCmd.Flags().BoolVar(&connectAdd, "add", false, "Register a host: --add <name> <user@host[:port]>")
	connectCmd.Flags().StringVar(&connectKey, "key", "", "Private key file for the host being added")
	connectCmd.Flags().StringVar(&connectRemoveName, "remove", "", "Drop a host from the registry")
	connectCmd.Flags().BoolVar(&connectDisconnect, "disconnect", false, "Clear the active host")
	connectCmd.Flags().BoolVar(&connectStatus, "status", false, "Show the active host")
	connectCmd.Flags().BoolVar(&connectList, "list", false, "List registered hosts")
}

func runConnectAdd(a *app, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: dpm connect --add <name> <user@host[:port]>")
	}
	host, err := remote.ParseTarget(args[1])
	if err != nil {
		return err
	}
	host.Name = args[0]
	host.KeyFile = connectKey

	if err := a.Registry.AddHost(host); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Registered %s as %s", host.Target(), host.Name))
	return nil
}

func runConnectRemove(a *app, name string) error {
	if err := a.Registry.RemoveHost(name); err != nil {
		return err
	}
	PrintSuccess(fmt.Sprintf("Removed host %s", name))
	return nil
}

func runConnectList(a *app) error {
	hosts := a.Registry.Hosts()
	if jsonOutput {
		return outputJSON(hosts)
	}
	if len(hosts) == 0 {
		PrintEmptyState("No hosts registered; add one with 'dpm connect --add'")
		return nil
	}

	active, _ := a.Registry.Active()
	rows := make([][]string, 0, len(hosts))
	for _, h := range hosts {
		marker := ""
		if h.Name == active.Name {
			marker = "active"
		}
		rows = append(rows, []string{h.Name, h.Target(), marker})
	}
	PrintTable([]string{"NAME", "TARGET", "STATE"}, rows)
	return nil
}

func runConnectStatus(a *app) error {
	host, ok := a.Registry.Active()
	if jsonOutput {
		if !ok {
			return outputJSON(map[string]any{"connected": false})
		}
		return outputJSON(map[string]any{"connected": true, "host": host})
	}
	if !ok {
		PrintInfo("Not connected, operations run locally.")
		return nil
	}
	PrintLabelValue("Host", host.Name)
	PrintLabelValue("Target", host.Target())
	if host.KeyFile != "" {
		PrintLabelValue("Key", host.KeyFile)
	}
	return nil
}
