package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkgops/dpm/internal/apt"
	"github.com/pkgops/dpm/internal/classify"
	"github.com/pkgops/dpm/internal/cleanup"
	"github.com/pkgops/dpm/internal/clock"
	"github.com/pkgops/dpm/internal/config"
	"github.com/pkgops/dpm/internal/confirm"
	"github.com/pkgops/dpm/internal/conflict"
	"github.com/pkgops/dpm/internal/dpkg"
	"github.com/pkgops/dpm/internal/engine"
	"github.com/pkgops/dpm/internal/fsops"
	"github.com/pkgops/dpm/internal/journal"
	"github.com/pkgops/dpm/internal/logging"
	"github.com/pkgops/dpm/internal/mode"
	"github.com/pkgops/dpm/internal/remote"
	"github.com/pkgops/dpm/internal/runner"
	"github.com/pkgops/dpm/internal/safety"
	"github.com/pkgops/dpm/internal/snapshot"
)

// app bundles the engine with the stores some commands drive directly.
// Commands that only change configuration talk to Store and Policy;
// everything operational goes through Engine.
type app struct {
	Engine   *engine.Engine
	Store    *config.Store
	Policy   *safety.Policy
	Registry *remote.Registry
	Remote   *remote.Manager
	Paths    *config.Paths

	jrnl *journal.Journal
	log  *logging.Logger
}

// newApp wires an engine with real implementations of all dependencies.
func newApp(assumeYes bool) (*app, error) {
	paths, err := config.DefaultPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get config paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	fs := fsops.NewRealFS()
	clk := clock.NewRealClock()
	run := runner.NewSystemRunner()

	store := config.NewStore(fs, paths.Config)
	if err := store.Load(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	policy := safety.New(store)
	classifier := classify.New(store.CustomPrefixes())
	for _, indicator := range store.MetapackageIndicators() {
		classifier.AddIndicator(indicator)
	}

	jrnl, err := journal.Open(paths.History, clk)
	if err != nil {
		return nil, fmt.Errorf("failed to open operation history: %w", err)
	}

	registry := remote.NewRegistry(fs, paths.Remote)
	if err := registry.Load(); err != nil {
		_ = jrnl.Close()
		return nil, fmt.Errorf("failed to load remote host registry: %w", err)
	}

	log := logging.New(logging.Config{
		Level:     logLevel(store.LogLevel()),
		Dir:       paths.Logs,
		Component: "engine",
		Quiet:     quiet,
	})

	aptClient := apt.NewClient(run)
	system := dpkg.NewTool(run, policy)
	confirmer := confirm.NewTerminal(assumeYes)
	arbiter := conflict.New(policy, classifier, confirmer, os.Stdout)
	snapshots := snapshot.NewStore(fs, paths.Snapshots, clk)
	modes := mode.New(store, aptClient)
	manager := remote.NewManager(registry, remote.NewSSHDialer())
	cleaner := cleanup.New(aptClient, fs, clk)

	eng := engine.New(aptClient, system, policy, classifier, store,
		confirmer, arbiter, jrnl, snapshots, modes, manager, cleaner,
		*paths, log, os.Stdout)

	return &app{
		Engine:   eng,
		Store:    store,
		Policy:   policy,
		Registry: registry,
		Remote:   manager,
		Paths:    paths,
		jrnl:     jrnl,
		log:      log,
	}, nil
}

// Close releases the remote session, the history database, and the log
// file. Safe to defer immediately after newApp succeeds.
func (a *app) Close() {
	if a.Remote != nil {
		_ = a.Remote.Close()
	}
	if a.jrnl != nil {
		_ = a.jrnl.Close()
	}
	if a.log != nil {
		_ = a.log.Close()
	}
}

// logLevel resolves the configured log level, with the --verbose and
// --quiet flags taking precedence over the config file.
func logLevel(configured string) slog.Level {
	switch {
	case verbose:
		return slog.LevelDebug
	case quiet:
		return slog.LevelError
	}
	return logging.ParseLevel(configured)
}

// runRemote forwards the current invocation verbatim to the active
// remote host. It reports whether the remote handled it; when it did,
// the command must not also run locally.
func runRemote(ctx context.Context, a *app) (bool, error) {
	code, handled, err := a.Engine.Forward(ctx, os.Args[1:])
	if !handled {
		return false, nil
	}
	if err != nil {
		return true, fmt.Errorf("remote execution failed: %w", err)
	}
	if code != 0 {
		return true, fmt.Errorf("remote command exited with status %d", code)
	}
	return true, nil
}

// formatJSON formats a value as JSON.
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// outputJSON outputs a value as JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
