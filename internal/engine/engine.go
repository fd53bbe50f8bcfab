// Package engine provides the core business logic for dpm operations.
//
// The engine package acts as the orchestration layer between CLI commands
// and lower-level operations. It coordinates dependency resolution, plan
// validation, conflict arbitration, and the apt/dpkg execution sequence,
// and records every mutating operation in the journal.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Install/Remove: Plans and executes package changes with safety gates
//   - Health/Fix: Diagnoses and repairs broken package state
//   - Forward: Replays operations on a connected remote host
package engine

import (
	"context"
	"io"
	"time"

	"github.com/pkgops/dpm/internal/apt"
	"github.com/pkgops/dpm/internal/classify"
	"github.com/pkgops/dpm/internal/cleanup"
	"github.com/pkgops/dpm/internal/config"
	"github.com/pkgops/dpm/internal/confirm"
	"github.com/pkgops/dpm/internal/conflict"
	"github.com/pkgops/dpm/internal/deb"
	"github.com/pkgops/dpm/internal/journal"
	"github.com/pkgops/dpm/internal/logging"
	"github.com/pkgops/dpm/internal/mode"
	"github.com/pkgops/dpm/internal/resolve"
	"github.com/pkgops/dpm/internal/safety"
	"github.com/pkgops/dpm/internal/snapshot"
)

// Lock acquisition retries before a mutating operation gives up.
const (
	lockAttempts = 5
	lockDelay    = 2 * time.Second
)

// Packages is the apt surface the engine drives. It extends the
// resolver's read-only view with the mutating operations.
type Packages interface {
	resolve.Querier

	// Show returns detailed package information, nil if unknown
	Show(ctx context.Context, name string) (*apt.Info, error)

	// AvailableVersions returns the candidate versions for a package
	AvailableVersions(ctx context.Context, name string) ([]string, error)

	// Search returns packages matching a query
	Search(ctx context.Context, query string) ([]apt.SearchResult, error)

	// InstalledPackages returns every installed package
	InstalledPackages(ctx context.Context) ([]deb.Package, error)

	// Upgradable returns installed packages with a newer candidate
	Upgradable(ctx context.Context) ([]deb.Package, error)

	// Install installs a package, at the given version when non-empty
	Install(ctx context.Context, name, version string) error

	// Update refreshes the package cache
	Update(ctx context.Context) error

	// MarkManual marks a package as manually installed
	MarkManual(ctx context.Context, name string) error
}

// System is the dpkg surface the engine drives for removal, repair,
// and lock handling.
type System interface {
	SafeRemove(ctx context.Context, name string) error
	ForceRemove(ctx context.Context, name string) error
	Purge(ctx context.Context, name string, force bool) error
	FixBroken(ctx context.Context) error
	Reconfigure(ctx context.Context, name string) error
	ListBroken(ctx context.Context) ([]deb.Package, error)
	DetectLocks() []string
	WaitForLock(ctx context.Context, attempts int, delay time.Duration) error
}

// Settings is the configuration surface the engine reads. It extends
// the resolver's settings with the engine-level behavior knobs.
type Settings interface {
	resolve.Settings

	// PinnedVersions returns all pinned versions by package name
	PinnedVersions() map[string]string

	// ForceConfirmationRequired reports whether force removals need
	// strict confirmation
	ForceConfirmationRequired() bool

	// AutoResolveConflicts reports whether plans may propose conflict
	// removals instead of aborting
	AutoResolveConflicts() bool
}

// Recorder persists operation history.
type Recorder interface {
	Record(action, pkg, version string, success bool, detail string) error
	Recent(limit int) ([]journal.Entry, error)
	ByPackage(name string) ([]journal.Entry, error)
}

// Snapshots captures and recalls installed package state.
type Snapshots interface {
	Save(packages []deb.Package, reason string) (*snapshot.Snapshot, error)
	List() ([]snapshot.Snapshot, error)
	Latest() (*snapshot.Snapshot, error)
	Load(id string) (*snapshot.Snapshot, error)
}

// Modes is the operating-mode surface.
type Modes interface {
	Current() mode.Mode
	SetOffline() error
	SetOnline(ctx context.Context) error
	Detect(ctx context.Context) (mode.Detection, error)
	Status(ctx context.Context) mode.Status
	PrepareOffline(ctx context.Context, names []string) ([]string, error)
}

// Remote runs operations on a connected remote host.
type Remote interface {
	// Connected reports whether a remote host is active
	Connected() bool

	// Target describes the active host for display
	Target() string

	// Exec runs a dpm invocation remotely, streaming output to out
	Exec(ctx context.Context, argv []string, out io.Writer) (int, error)
}

// Cleaner reclaims disk space from caches, bundles, and logs.
type Cleaner interface {
	Run(ctx context.Context, opts cleanup.Options) *cleanup.Report
}

// Engine orchestrates all dpm operations.
// It is the main API surface called by the CLI.
type Engine struct {
	pkgs       Packages
	system     System
	policy     *safety.Policy
	classifier *classify.Classifier
	settings   Settings
	confirmer  confirm.Confirmer
	arbiter    *conflict.Arbiter
	journal    Recorder
	snapshots  Snapshots
	modes      Modes
	remote     Remote
	cleaner    Cleaner
	paths      config.Paths
	log        *logging.Logger
	out        io.Writer
}

// New creates a new Engine with the given dependencies. The remote and
// cleaner ports may be nil when the corresponding features are not wired.
func New(
	pkgs Packages,
	system System,
	policy *safety.Policy,
	classifier *classify.Classifier,
	settings Settings,
	confirmer confirm.Confirmer,
	arbiter *conflict.Arbiter,
	jrnl Recorder,
	snapshots Snapshots,
	modes Modes,
	remote Remote,
	cleaner Cleaner,
	paths config.Paths,
	log *logging.Logger,
	out io.Writer,
) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	if out == nil {
		out = io.Discard
	}
	return &Engine{
		pkgs:       pkgs,
		system:     system,
		policy:     policy,
		classifier: classifier,
		settings:   settings,
		confirmer:  confirmer,
		arbiter:    arbiter,
		journal:    jrnl,
		snapshots:  snapshots,
		modes:      modes,
		remote:     remote,
		cleaner:    cleaner,
		paths:      paths,
		log:        log,
		out:        out,
	}
}

// Forward replays the given dpm argv on the active remote host, streaming
// combined output to the engine's output writer. It reports handled=false
// when no remote host is connected, in which case the caller runs the
// operation locally.
func (e *Engine) Forward(ctx context.Context, argv []string) (code int, handled bool, err error) {
	if e.remote == nil || !e.remote.Connected() {
		return 0, false, nil
	}
	e.log.Info("forwarding operation to remote host",
		"target", e.remote.Target(), "argv", argv)
	code, err = e.remote.Exec(ctx, argv, e.out)
	return code, true, err
}

// resolver builds a fresh resolver for one request. The per-request
// closure cache must not be shared across operations.
func (e *Engine) resolver(settings resolve.Settings) *resolve.Resolver {
	return resolve.New(e.pkgs, e.classifier, settings)
}

// record writes a journal entry, logging instead of failing when the
// journal itself is unavailable.
func (e *Engine) record(action, pkg, version string, success bool, detail string) {
	if e.journal == nil {
		return
	}
	if err := e.journal.Record(action, pkg, version, success, detail); err != nil {
		e.log.Warn("failed to record operation in journal",
			"action", action, "package", pkg, "error", err)
	}
}

// snapshotBefore saves the installed package set ahead of a destructive
// step. Snapshot failures degrade to a warning on the result; the
// operation itself proceeds.
func (e *Engine) snapshotBefore(ctx context.Context, reason string, res *deb.Result) string {
	if e.snapshots == nil {
		return ""
	}
	installed, err := e.pkgs.InstalledPackages(ctx)
	if err != nil {
		res.AddWarning("snapshot skipped: " + err.Error())
		return ""
	}
	snap, err := e.snapshots.Save(installed, reason)
	if err != nil {
		res.AddWarning("snapshot failed: " + err.Error())
		return ""
	}
	e.log.Debug("saved package state snapshot", "id", snap.ID, "reason", reason)
	return snap.ID
}

// waitForLock blocks until the package manager locks are free.
func (e *Engine) waitForLock(ctx context.Context) error {
	return e.system.WaitForLock(ctx, lockAttempts, lockDelay)
}

// requestSettings overlays a per-request mode override on the stored
// configuration.
type requestSettings struct {
	Settings
	offline bool
}

func (s requestSettings) Offline() bool { return s.offline }

// effectiveSettings resolves the per-request mode flag ("offline",
// "online", or empty for the configured mode) against stored settings.
func (e *Engine) effectiveSettings(override string) Settings {
	switch override {
	case "offline":
		return requestSettings{Settings: e.settings, offline: true}
	case "online":
		return requestSettings{Settings: e.settings, offline: false}
	default:
		return e.settings
	}
}
