package engine

import (
	"context"
	"fmt"

	"github.com/pkgops/dpm/internal/deb"
	"github.com/pkgops/dpm/internal/journal"
)

// Remove removes a package within the bounds of the safety policy.
//
// Algorithm steps:
//  1. Short-circuit when the package is not installed.
//  2. Refuse when the policy does not allow removing it, force or not.
//  3. Confirm with a strictness matching the removal risk: High risk
//     requires the exact literal "YES".
//  4. Save a snapshot, wait for locks, and remove. A failed safe
//     removal escalates through the force chain, either on request or
//     after an explicit prompt.
//  5. Record the outcome in the journal.
func (e *Engine) Remove(ctx context.Context, req *RemoveRequest) (*RemoveResult, error) {
	res := &RemoveResult{Package: deb.Package{Name: req.Name}}

	e.log.Info("removing package",
		"package", req.Name, "force", req.Force, "purge", req.Purge)

	installed, err := e.pkgs.IsInstalled(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if !installed {
		res.Outcome.Success = true
		res.Outcome.AddWarning(fmt.Sprintf("%s is not installed", req.Name))
		return res, nil
	}

	if info, err := e.pkgs.PackageInfo(ctx, req.Name); err == nil && info != nil {
		res.Package = e.classifier.Annotate(*info)
	}

	if !e.policy.CanRemove(req.Name) {
		return res, fmt.Errorf("%s is protected: no custom prefix and not in the removable list; allow it with 'dpm config allow %s'",
			req.Name, req.Name)
	}

	risk := e.classifier.Risk(req.Name)
	exact := risk == deb.RiskHigh ||
		(req.Force && e.settings.ForceConfirmationRequired())
	prompt := fmt.Sprintf("Remove %s?", req.Name)
	if risk == deb.RiskHigh {
		prompt = fmt.Sprintf("Removing %s is HIGH RISK and may break your system. Remove?", req.Name)
	}
	if !e.confirmer.Confirm(prompt, exact) {
		return res, ErrUserDeclined
	}

	reason := fmt.Sprintf("before removal of %s", req.Name)
	res.SnapshotID = e.snapshotBefore(ctx, reason, &res.Outcome)

	if err := e.waitForLock(ctx); err != nil {
		return res, err
	}

	if err := e.executeRemoval(ctx, req, &res.Outcome); err != nil {
		res.Outcome.AddError(err.Error())
		e.record(journal.ActionRemove, req.Name, res.Package.Version, false, err.Error())
		return res, nil
	}

	res.Outcome.Success = true
	res.Outcome.Affected = append(res.Outcome.Affected, res.Package)
	e.record(journal.ActionRemove, req.Name, res.Package.Version, true, "")
	return res, nil
}

// executeRemoval runs the removal, escalating through the force chain
// when the safe attempt fails.
func (e *Engine) executeRemoval(ctx context.Context, req *RemoveRequest, res *deb.Result) error {
	if req.Purge {
		return e.system.Purge(ctx, req.Name, req.Force)
	}

	err := e.system.SafeRemove(ctx, req.Name)
	if err == nil {
		return nil
	}
	e.log.Warn("safe removal failed", "package", req.Name, "error", err)

	if !req.Force {
		prompt := fmt.Sprintf("Normal removal of %s failed. Escalate to force removal?", req.Name)
		if !e.confirmer.Confirm(prompt, e.settings.ForceConfirmationRequired()) {
			return err
		}
	}

	if ferr := e.system.ForceRemove(ctx, req.Name); ferr == nil {
		res.AddWarning(fmt.Sprintf("%s required force removal", req.Name))
		return nil
	}
	if perr := e.system.Purge(ctx, req.Name, true); perr != nil {
		return fmt.Errorf("all removal attempts for %s failed: %w", req.Name, err)
	}
	res.AddWarning(fmt.Sprintf("had to purge %s", req.Name))
	return nil
}
