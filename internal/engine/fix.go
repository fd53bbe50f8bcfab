package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkgops/dpm/internal/journal"
)

// Fix repairs broken package state.
//
// Algorithm steps:
//  1. Confirm the repair with the user.
//  2. Wait for package manager locks to clear.
//  3. Run the package manager's repair pass.
//  4. Reconfigure every package still reported broken afterwards.
func (e *Engine) Fix(ctx context.Context) (*FixResult, error) {
	if !e.confirmer.Confirm("Attempt to repair broken packages?", false) {
		return nil, ErrUserDeclined
	}

	res := &FixResult{}
	if err := e.waitForLock(ctx); err != nil {
		return nil, err
	}

	e.log.Info("repairing broken package state")
	if err := e.system.FixBroken(ctx); err != nil {
		res.Outcome.AddError("repair failed: " + err.Error())
		e.record(journal.ActionFix, "system", "", false, err.Error())
		return res, nil
	}

	broken, err := e.system.ListBroken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list broken packages: %w", err)
	}
	for _, p := range broken {
		if err := e.system.Reconfigure(ctx, p.Name); err != nil {
			res.Outcome.AddWarning(fmt.Sprintf("failed to reconfigure %s: %v", p.Name, err))
			res.Remaining = append(res.Remaining, p)
			continue
		}
		res.Reconfigured = append(res.Reconfigured, p.Name)
	}

	res.Outcome.Success = true
	detail := ""
	if len(res.Remaining) > 0 {
		names := make([]string, len(res.Remaining))
		for i, p := range res.Remaining {
			names[i] = p.Name
		}
		detail = "still broken: " + strings.Join(names, ", ")
	}
	e.record(journal.ActionFix, "system", "", true, detail)
	return res, nil
}
