// Package mode tracks whether package operations run online against the
// configured repositories or offline against pinned versions.
//
// The persisted flag lives in the config store; this package layers the
// reachability probes and auto-detection on top of it.
package mode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/pkgops/dpm/internal/deb"
)

// Mode is an operating mode for package operations.
type Mode string

// Operating modes
const (
	Online  Mode = "online"
	Offline Mode = "offline"
)

// ErrUnreachable indicates the network or the repositories did not
// answer, so online mode cannot be enabled.
var ErrUnreachable = errors.New("network or repositories unreachable")

// probeTimeout bounds each network reachability dial.
const probeTimeout = 3 * time.Second

// probeAddrs are dialed in order until one answers. The Debian mirror
// network first, a public DNS resolver as fallback.
var probeAddrs = []string{"deb.debian.org:80", "8.8.8.8:53"}

// Store is the slice of configuration the mode manager reads and
// writes.
type Store interface {
	Offline() bool
	SetOffline(offline bool) error
	PinnedVersions() map[string]string
	Pin(name, version string) error
}

// Packages is the package-query surface the manager needs for probing
// repositories and pinning installed versions.
type Packages interface {
	IsInstalled(ctx context.Context, name string) (bool, error)
	PackageInfo(ctx context.Context, name string) (*deb.Package, error)
	ProbeRepositories(ctx context.Context) error
}

// DialFunc dials a network address; it matches net.Dialer.DialContext.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Detection is the outcome of auto-detecting the operating mode.
type Detection struct {
	// Mode is the detected mode
	Mode Mode

	// Reason explains why that mode was chosen
	Reason string
}

// Status is a full report of the operating mode and its inputs.
type Status struct {
	// Mode is the effective mode after reachability degradation
	Mode Mode

	// ConfigOffline is the persisted offline flag
	ConfigOffline bool

	// NetworkAvailable reports whether the network probe succeeded
	NetworkAvailable bool

	// RepositoriesAccessible reports whether the repositories answered
	RepositoriesAccessible bool

	// PinnedPackages is the number of pinned versions configured
	PinnedPackages int
}

// Manager decides and switches the operating mode.
type Manager struct {
	store Store
	pkgs  Packages
	dial  DialFunc
}

// New creates a Manager probing the network with the default dialer.
func New(store Store, pkgs Packages) *Manager {
	dialer := &net.Dialer{Timeout: probeTimeout}
	return &Manager{store: store, pkgs: pkgs, dial: dialer.DialContext}
}

// Current returns the configured mode. Reachability is not consulted;
// use Status for the effective mode.
func (m *Manager) Current() Mode {
	if m.store.Offline() {
		return Offline
	}
	return Online
}

// SetOffline switches to offline mode and persists the flag.
func (m *Manager) SetOffline() error {
	return m.store.SetOffline(true)
}

// SetOnline switches to online mode after verifying the network and the
// repositories answer. Returns ErrUnreachable when they do not.
func (m *Manager) SetOnline(ctx context.Context) error {
	if !m.NetworkAvailable(ctx) || !m.RepositoriesAccessible(ctx) {
		return ErrUnreachable
	}
	return m.store.SetOffline(false)
}

// NetworkAvailable probes basic network reachability.
func (m *Manager) NetworkAvailable(ctx context.Context) bool {
	for _, addr := range probeAddrs {
		conn, err := m.dial(ctx, "tcp", addr)
		if err == nil {
			conn.Close()
			return true
		}
	}
	return false
}

// RepositoriesAccessible reports whether the package repositories
// answer.
func (m *Manager) RepositoriesAccessible(ctx context.Context) bool {
	return m.pkgs.ProbeRepositories(ctx) == nil
}

// Detect picks the appropriate mode from the system state, persists the
// switch, and explains the choice.
func (m *Manager) Detect(ctx context.Context) (Detection, error) {
	if !m.NetworkAvailable(ctx) {
		if err := m.store.SetOffline(true); err != nil {
			return Detection{}, err
		}
		return Detection{Mode: Offline, Reason: "network unreachable"}, nil
	}
	if !m.RepositoriesAccessible(ctx) {
		if err := m.store.SetOffline(true); err != nil {
			return Detection{}, err
		}
		return Detection{Mode: Offline, Reason: "package repositories unreachable"}, nil
	}

	// A reachable system stays offline only when that was configured
	// deliberately, with pinned versions to serve from.
	if m.store.Offline() && len(m.store.PinnedVersions()) > 0 {
		return Detection{Mode: Offline, Reason: "configured offline with pinned versions"}, nil
	}

	if err := m.store.SetOffline(false); err != nil {
		return Detection{}, err
	}
	return Detection{Mode: Online, Reason: "network and repositories reachable"}, nil
}

// Status reports the effective mode and the inputs behind it. The
// effective mode degrades to offline when probes fail, even if the
// configured mode is online.
func (m *Manager) Status(ctx context.Context) Status {
	status := Status{
		ConfigOffline:  m.store.Offline(),
		PinnedPackages: len(m.store.PinnedVersions()),
	}
	status.NetworkAvailable = m.NetworkAvailable(ctx)
	if status.NetworkAvailable {
		status.RepositoriesAccessible = m.RepositoriesAccessible(ctx)
	}

	status.Mode = Online
	if status.ConfigOffline || !status.NetworkAvailable || !status.RepositoriesAccessible {
		status.Mode = Offline
	}
	return status
}

// PrepareOffline pins the installed version of each named package so it
// survives a switch to offline mode. Packages that are not installed
// come back in the missing list.
func (m *Manager) PrepareOffline(ctx context.Context, names []string) ([]string, error) {
	var missing []string
	for _, name := range names {
		installed, err := m.pkgs.IsInstalled(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", name, err)
		}
		if !installed {
			missing = append(missing, name)
			continue
		}
		info, err := m.pkgs.PackageInfo(ctx, name)
		if err != nil || info == nil || info.Version == "" {
			missing = append(missing, name)
			continue
		}
		if err := m.store.Pin(name, info.Version); err != nil {
			return nil, err
		}
	}
	return missing, nil
}
