// Package integration exercises the engine against real stores on a
// temp directory. Configuration, the journal database, and snapshots
// all hit disk; apt and dpkg are answered from scripted command
// transcripts instead of live processes.
package integration

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

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
	"github.com/pkgops/dpm/internal/mode"
	"github.com/pkgops/dpm/internal/runner"
	"github.com/pkgops/dpm/internal/safety"
	"github.com/pkgops/dpm/internal/snapshot"
)

// scriptRunner answers commands from a canned transcript, keyed by the
// full command line. Sudo wrappers are stripped before lookup so the
// same script works whether or not the test process runs as root.
type scriptRunner struct {
	results map[string]runner.Result
	calls   []string
}

func newScriptRunner() *scriptRunner {
	return &scriptRunner{results: map[string]runner.Result{}}
}

// stdout scripts a command to succeed with the given output.
func (r *scriptRunner) stdout(cmdLine, out string) {
	r.results[cmdLine] = runner.Result{Stdout: out}
}

// fail scripts a command to exit non-zero with the given stderr.
func (r *scriptRunner) fail(cmdLine string, code int, stderr string) {
	r.results[cmdLine] = runner.Result{ExitCode: code, Stderr: stderr}
}

// packageInstalled scripts every query needed for name to read as
// installed at the given version with no pending upgrade.
func (r *scriptRunner) packageInstalled(name, version, description string) {
	r.stdout("dpkg -l "+name, installedLine(name, version))
	r.stdout("apt-cache show "+name, showOutput(name, version, description))
	r.stdout("apt list --upgradable "+name, "")
}

// packageAvailable scripts name as known to the cache at the given
// version but not installed.
func (r *scriptRunner) packageAvailable(name, version, description string) {
	r.fail("dpkg -l "+name, 1, "dpkg-query: no packages found matching "+name)
	r.stdout("apt-cache show "+name, showOutput(name, version, description))
}

// Run looks the command up in the script. Unscripted commands exit
// non-zero so a missing entry reads as "package unknown" rather than
// derailing the flow under test.
func (r *scriptRunner) Run(_ context.Context, cmd runner.Cmd) (runner.Result, error) {
	name, args := cmd.Name, cmd.Args
	if name == "sudo" && len(args) > 0 {
		name, args = args[0], args[1:]
	}
	key := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, key)

	res, ok := r.results[key]
	if !ok {
		return runner.Result{ExitCode: 1, Stderr: "not scripted: " + key}, nil
	}
	return res, nil
}

// ran reports whether the command line was executed.
func (r *scriptRunner) ran(cmdLine string) bool {
	for _, call := range r.calls {
		if call == cmdLine {
			return true
		}
	}
	return false
}

// testSystem keeps the real removal and repair paths but reports the
// package-manager locks as always free, so tests never poll the host's
// /var/lib/dpkg lock files.
type testSystem struct {
	*dpkg.Tool
}

func (testSystem) DetectLocks() []string { return nil }

func (testSystem) WaitForLock(context.Context, int, time.Duration) error { return nil }

// testModes reports the network and repositories as reachable, keeping
// health checks deterministic without dialing anything. The configured
// offline flag still decides the effective mode.
type testModes struct {
	store *config.Store
}

func (m testModes) Current() mode.Mode {
	if m.store.Offline() {
		return mode.Offline
	}
	return mode.Online
}

func (m testModes) SetOffline() error { return m.store.SetOffline(true) }

func (m testModes) SetOnline(context.Context) error { return m.store.SetOffline(false) }

func (m testModes) Detect(context.Context) (mode.Detection, error) {
	return mode.Detection{Mode: m.Current(), Reason: "configured"}, nil
}

func (m testModes) Status(context.Context) mode.Status {
	return mode.Status{
		Mode:                   m.Current(),
		ConfigOffline:          m.store.Offline(),
		NetworkAvailable:       true,
		RepositoriesAccessible: true,
		PinnedPackages:         len(m.store.PinnedVersions()),
	}
}

func (m testModes) PrepareOffline(context.Context, []string) ([]string, error) {
	return nil, nil
}

// testEnv bundles the engine under test with the real stores and the
// command script behind it.
type testEnv struct {
	engine    *engine.Engine
	runner    *scriptRunner
	store     *config.Store
	journal   *journal.Journal
	snapshots *snapshot.Store
	clock     *clock.FakeClock
	paths     config.Paths
}

// setupTestEngine wires a full engine over real stores in a temp
// directory. Only the command runner, the mode probes, and the lock
// checks are replaced.
func setupTestEngine(t *testing.T, confirmer confirm.Confirmer) *testEnv {
	t.Helper()
	return setupTestEngineWithConfig(t, confirmer, "")
}

// setupTestEngineWithConfig seeds the config file before the store
// loads, for flows that need non-default settings.
func setupTestEngineWithConfig(t *testing.T, confirmer confirm.Confirmer, configYAML string) *testEnv {
	t.Helper()

	root := t.TempDir()
	paths := config.Paths{
		Root:      root,
		Config:    filepath.Join(root, "config.yaml"),
		History:   filepath.Join(root, "history.db"),
		Logs:      filepath.Join(root, "logs"),
		Snapshots: filepath.Join(root, "snapshots"),
		Remote:    filepath.Join(root, "remote.json"),
	}
	if err := paths.EnsureDirectories(); err != nil {
		t.Fatalf("failed to create directories: %v", err)
	}

	fs := fsops.NewRealFS()
	if configYAML != "" {
		if err := fs.AtomicWrite(paths.Config, []byte(configYAML), 0o644); err != nil {
			t.Fatalf("failed to seed config: %v", err)
		}
	}

	store := config.NewStore(fs, paths.Config)
	if err := store.Load(); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	jrnl, err := journal.Open(paths.History, clk)
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() { _ = jrnl.Close() })

	run := newScriptRunner()
	aptClient := apt.NewClient(run)
	policy := safety.New(store)
	classifier := classify.New(store.CustomPrefixes())
	for _, indicator := range store.MetapackageIndicators() {
		classifier.AddIndicator(indicator)
	}
	system := testSystem{dpkg.NewTool(run, policy)}
	snapshots := snapshot.NewStore(fs, paths.Snapshots, clk)
	arbiter := conflict.New(policy, classifier, confirmer, io.Discard)
	cleaner := cleanup.New(aptClient, fs, clk)

	eng := engine.New(aptClient, system, policy, classifier, store, confirmer,
		arbiter, jrnl, snapshots, testModes{store: store}, nil, cleaner,
		paths, nil, io.Discard)

	return &testEnv{
		engine:    eng,
		runner:    run,
		store:     store,
		journal:   jrnl,
		snapshots: snapshots,
		clock:     clk,
		paths:     paths,
	}
}

// showOutput builds an apt-cache show stanza.
func showOutput(name, version, description string) string {
	return "Package: " + name + "\nVersion: " + version + "\nDescription: " + description + "\n"
}

// installedLine builds the dpkg -l row for an installed package.
func installedLine(name, version string) string {
	return "ii  " + name + "  " + version + "  amd64  installed\n"
}

// dependsOutput builds apt-cache depends output listing the given
// direct dependencies.
func dependsOutput(name string, deps ...string) string {
	var b strings.Builder
	b.WriteString(name + "\n")
	for _, dep := range deps {
		b.WriteString("  Depends: " + dep + "\n")
	}
	return b.String()
}

// removalStanza builds apt-get simulation output proposing the given
// removals.
func removalStanza(removed ...string) string {
	var b strings.Builder
	b.WriteString("Reading package lists...\n")
	b.WriteString("The following packages will be REMOVED:\n")
	for _, name := range removed {
		b.WriteString("  " + name + "\n")
	}
	b.WriteString("0 upgraded, 0 newly installed, 1 to remove.\n")
	return b.String()
}

// anyContains reports whether any string in list contains substr.
func anyContains(list []string, substr string) bool {
	for _, s := range list {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
