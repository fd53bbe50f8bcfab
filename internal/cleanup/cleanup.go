// Package cleanup reclaims disk space: the apt package cache, stale
// offline bundle files, and rotated logs. It also reports packages
// apt-get autoremove could reclaim.
package cleanup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pkgops/dpm/internal/clock"
	"github.com/pkgops/dpm/internal/fsops"
)

// Cleanup defaults, overridable per run.
const (
	// DefaultBundleAge is the cutoff for stale bundle files.
	DefaultBundleAge = 30 * 24 * time.Hour

	// DefaultKeepLogs is how many rotated log files survive a prune.
	DefaultKeepLogs = 7
)

// bundlePatterns name the offline bundle files eligible for removal.
var bundlePatterns = []string{"*.bundle", "*.packages"}

// logPattern matches the dated files the logging package rotates into.
const logPattern = "dpm_*.log"

// AptCleaner is the apt surface cleanup drives.
type AptCleaner interface {
	AutoClean(ctx context.Context) error
	Clean(ctx context.Context) error
	Orphans(ctx context.Context) ([]string, error)
}

// Options select cleanup targets for one run.
type Options struct {
	// Cache clears the apt package cache
	Cache bool

	// Bundles removes stale offline bundle files
	Bundles bool

	// Logs prunes rotated log files
	Logs bool

	// BundleDir is where bundle files live
	BundleDir string

	// LogDir is where rotated logs live
	LogDir string

	// BundleAge is the staleness cutoff (DefaultBundleAge when zero)
	BundleAge time.Duration

	// KeepLogs is how many logs to keep (DefaultKeepLogs when zero)
	KeepLogs int
}

// Report summarizes one cleanup run.
type Report struct {
	// CacheCleaned reports whether the apt cache was cleared
	CacheCleaned bool

	// BundlesRemoved counts deleted bundle files
	BundlesRemoved int

	// LogsRemoved counts deleted log files
	LogsRemoved int

	// BytesFreed totals the sizes of deleted files
	BytesFreed int64

	// Orphans lists packages autoremove could reclaim
	Orphans []string

	// Errors collects per-target failures; other targets still ran
	Errors []string
}

// System runs cleanup operations.
type System struct {
	apt   AptCleaner
	fs    fsops.FS
	clock clock.Clock
}

// New creates a cleanup System.
func New(apt AptCleaner, fs fsops.FS, clk clock.Clock) *System {
	return &System{apt: apt, fs: fs, clock: clk}
}

// AptCache clears the package download cache.
func (s *System) AptCache(ctx context.Context) error {
	if err := s.apt.AutoClean(ctx); err != nil {
		return err
	}
	return s.apt.Clean(ctx)
}

// Bundles removes offline bundle files older than the cutoff. A missing
// directory counts as already clean.
func (s *System) Bundles(dir string, olderThan time.Duration) (int, int64, error) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to read bundle directory: %w", err)
	}

	cutoff := s.clock.Now().Add(-olderThan)
	var removed int
	var freed int64
	for _, entry := range entries {
		if entry.IsDir() || !matchesAny(bundlePatterns, entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := s.fs.Remove(filepath.Join(dir, entry.Name())); err != nil {
			continue
		}
		removed++
		freed += info.Size()
	}
	return removed, freed, nil
}

// Logs prunes rotated log files beyond the newest keep. The date-stamped
// names sort chronologically, so no mtime inspection is needed.
func (s *System) Logs(dir string, keep int) (int, int64, error) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	var logs []os.DirEntry
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ok, _ := filepath.Match(logPattern, entry.Name()); ok {
			logs = append(logs, entry)
		}
	}
	sort.Slice(logs, func(i, j int) bool { return logs[i].Name() < logs[j].Name() })

	if len(logs) <= keep {
		return 0, 0, nil
	}

	var removed int
	var freed int64
	for _, entry := range logs[:len(logs)-keep] {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if err := s.fs.Remove(filepath.Join(dir, entry.Name())); err != nil {
			continue
		}
		removed++
		freed += info.Size()
	}
	return removed, freed, nil
}

// Run executes the selected targets, continuing past per-target
// failures.
func (s *System) Run(ctx context.Context, opts Options) *Report {
	report := &Report{}

	if opts.Cache {
		if err := s.AptCache(ctx); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("apt cache: %v", err))
		} else {
			report.CacheCleaned = true
		}
		if orphans, err := s.apt.Orphans(ctx); err == nil {
			report.Orphans = orphans
		}
	}

	if opts.Bundles {
		age := opts.BundleAge
		if age == 0 {
			age = DefaultBundleAge
		}
		removed, freed, err := s.Bundles(opts.BundleDir, age)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("bundles: %v", err))
		}
		report.BundlesRemoved = removed
		report.BytesFreed += freed
	}

	if opts.Logs {
		keep := opts.KeepLogs
		if keep == 0 {
			keep = DefaultKeepLogs
		}
		removed, freed, err := s.Logs(opts.LogDir, keep)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("logs: %v", err))
		}
		report.LogsRemoved = removed
		report.BytesFreed += freed
	}

	return report
}

// matchesAny reports whether name matches one of the glob patterns.
func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
