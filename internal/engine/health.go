package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkgops/dpm/internal/mode"
)

// How many journal entries a health report includes.
const healthHistoryDepth = 5

// Health diagnoses the package system: operating mode and reachability,
// broken packages, held locks, offline pin consistency, and the most
// recent operations.
func (e *Engine) Health(ctx context.Context) (*HealthResult, error) {
	res := &HealthResult{Mode: e.modes.Status(ctx)}

	broken, err := e.system.ListBroken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list broken packages: %w", err)
	}
	res.Broken = broken
	res.Locks = e.system.DetectLocks()

	if res.Mode.Mode == mode.Offline {
		res.PinIssues = e.validatePins(ctx)
	}

	if e.journal != nil {
		entries, err := e.journal.Recent(healthHistoryDepth)
		if err != nil {
			e.log.Warn("failed to read operation history", "error", err)
		} else {
			res.Recent = entries
		}
	}

	res.Healthy = len(res.Broken) == 0 && len(res.Locks) == 0 && len(res.PinIssues) == 0
	return res, nil
}

// validatePins checks every pinned version against the locally cached
// candidates, without touching the network.
func (e *Engine) validatePins(ctx context.Context) []string {
	pins := e.settings.PinnedVersions()
	names := make([]string, 0, len(pins))
	for name := range pins {
		names = append(names, name)
	}
	sort.Strings(names)

	var issues []string
	for _, name := range names {
		want := pins[name]
		versions, err := e.pkgs.AvailableVersions(ctx, name)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		found := false
		for _, v := range versions {
			if v == want {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, fmt.Sprintf("%s: pinned version %s is not available locally", name, want))
		}
	}
	return issues
}
