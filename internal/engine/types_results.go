package engine

import (
	"github.com/pkgops/dpm/internal/cleanup"
	"github.com/pkgops/dpm/internal/deb"
	"github.com/pkgops/dpm/internal/journal"
	"github.com/pkgops/dpm/internal/mode"
	"github.com/pkgops/dpm/internal/snapshot"
)

// InstallResult reports the outcome of an installation.
type InstallResult struct {
	// Plan is the resolved plan, populated even when execution is
	// skipped or fails
	Plan *deb.Plan

	// Issues lists validation problems found in the plan
	Issues []string

	// SnapshotID identifies the pre-removal snapshot, when one was taken
	SnapshotID string

	// Outcome is the execution result; zero-valued for plan-only requests
	Outcome deb.Result

	// PlanOnly marks that execution was skipped on request
	PlanOnly bool
}

// RemoveResult reports the outcome of a removal.
type RemoveResult struct {
	// Package is the package that was removed, with its last known state
	Package deb.Package

	// SnapshotID identifies the pre-removal snapshot, when one was taken
	SnapshotID string

	// Outcome is the execution result
	Outcome deb.Result
}

// InfoResult describes one package.
type InfoResult struct {
	// Package is the annotated package state
	Package deb.Package

	// Description is the package's short description
	Description string

	// Risk is the removal risk tier
	Risk deb.Risk

	// Removable reports whether policy allows removing the package
	Removable bool

	// Pinned is the pinned version, empty when none is set
	Pinned string

	// Dependencies are the direct dependencies, annotated
	Dependencies []deb.Package
}

// ListResult carries a package listing.
type ListResult struct {
	// Packages is the selected set, annotated and sorted by name
	Packages []deb.Package
}

// HealthResult summarizes system package health.
type HealthResult struct {
	// Mode is the operating-mode status, including probe results
	Mode mode.Status

	// Broken lists packages in a broken install state
	Broken []deb.Package

	// Locks lists package-manager lock files currently held
	Locks []string

	// PinIssues lists pinned packages whose version is not available
	PinIssues []string

	// Recent holds the latest journal entries
	Recent []journal.Entry

	// Healthy is true when nothing above needs attention
	Healthy bool
}

// FixResult reports the outcome of a repair pass.
type FixResult struct {
	// Reconfigured lists packages that went through dpkg reconfiguration
	Reconfigured []string

	// Remaining lists packages still broken after the repair
	Remaining []deb.Package

	// Outcome is the execution result
	Outcome deb.Result
}

// CleanupResult carries the cleanup report.
type CleanupResult struct {
	// Report holds per-target counts and any errors encountered
	Report *cleanup.Report
}

// ModeResult reports the operating mode after a mode operation.
type ModeResult struct {
	// Status is the current mode status
	Status mode.Status

	// Detection is set when auto-detection ran
	Detection *mode.Detection

	// NotPinned lists prepare targets that were skipped because they
	// are not installed
	NotPinned []string
}

// SnapshotDiffResult compares a snapshot against the live system.
type SnapshotDiffResult struct {
	// Base is the snapshot the comparison starts from
	Base *snapshot.Snapshot

	// Diff lists packages added, removed, and changed since Base
	Diff *snapshot.DiffResult
}
