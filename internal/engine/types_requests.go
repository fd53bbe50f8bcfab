package engine

import "time"

// InstallRequest describes a package installation.
type InstallRequest struct {
	// Name is the package to install
	Name string

	// Version installs a specific version instead of the candidate
	Version string

	// Mode overrides the configured operating mode for this request:
	// "offline" or "online". Empty uses the stored setting.
	Mode string

	// Force pushes past validation failures and blocked conflict
	// removals, and retries failed installs after a repair pass
	Force bool

	// PlanOnly stops after planning and validation without touching
	// the system
	PlanOnly bool
}

// RemoveRequest describes a package removal.
type RemoveRequest struct {
	// Name is the package to remove
	Name string

	// Force escalates through the force-removal chain when the safe
	// removal fails
	Force bool

	// Purge removes configuration files along with the package
	Purge bool
}

// ListRequest selects which package set to list. At most one selector
// should be set; with none set, all installed packages are listed.
type ListRequest struct {
	// Custom restricts the listing to organization packages
	Custom bool

	// Upgradable lists installed packages with a newer candidate
	Upgradable bool

	// Broken lists packages in a broken install state
	Broken bool
}

// HistoryRequest selects journal entries.
type HistoryRequest struct {
	// Package filters entries to one package; empty returns all
	Package string

	// Limit caps the number of entries returned; zero uses the default
	Limit int
}

// CleanupRequest selects cleanup targets.
type CleanupRequest struct {
	// Cache cleans the apt package cache and reports orphans
	Cache bool

	// Bundles deletes stale offline bundle files
	Bundles bool

	// Logs prunes rotated log files beyond the retention count
	Logs bool

	// Age is the bundle staleness cutoff; zero uses the default
	Age time.Duration
}

// ModeRequest changes or inspects the operating mode.
type ModeRequest struct {
	// Set switches to "offline" or "online"; empty leaves the mode as is
	Set string

	// Auto probes the environment and applies the detected mode
	Auto bool

	// Prepare pins the installed versions of these packages when
	// switching offline, so later installs can reproduce them
	Prepare []string
}
