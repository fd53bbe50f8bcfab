package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkgops/dpm/internal/cleanup"
	"github.com/pkgops/dpm/internal/journal"
)

// Cleanup reclaims disk space from the selected targets and records the
// run in the journal. Per-target failures are collected on the report;
// remaining targets still run.
func (e *Engine) Cleanup(ctx context.Context, req *CleanupRequest) (*CleanupResult, error) {
	if e.cleaner == nil {
		return nil, errors.New("cleanup is not configured")
	}
	if !req.Cache && !req.Bundles && !req.Logs {
		return nil, errors.New("no cleanup targets selected")
	}

	report := e.cleaner.Run(ctx, cleanup.Options{
		Cache:     req.Cache,
		Bundles:   req.Bundles,
		Logs:      req.Logs,
		BundleDir: filepath.Join(e.paths.Root, "bundles"),
		LogDir:    e.paths.Logs,
		BundleAge: req.Age,
	})

	detail := fmt.Sprintf("%d bundle(s), %d log(s), %d byte(s) freed",
		report.BundlesRemoved, report.LogsRemoved, report.BytesFreed)
	if len(report.Errors) > 0 {
		detail += "; errors: " + strings.Join(report.Errors, "; ")
	}
	e.record(journal.ActionCleanup, "system", "", len(report.Errors) == 0, detail)

	return &CleanupResult{Report: report}, nil
}
