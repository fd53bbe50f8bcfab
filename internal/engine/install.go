package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkgops/dpm/internal/deb"
	"github.com/pkgops/dpm/internal/journal"
)

// Install plans and executes a package installation.
//
// Algorithm steps:
//  1. Refresh the package cache (online mode only) and pick the target
//     version for the active mode.
//  2. Short-circuit when the package is already installed.
//  3. Resolve the dependency plan, validate it, and put the installs in
//     dependency order. Validation failures abort unless force is set.
//  4. Arbitrate conflicts and proposed removals through the safety
//     policy and the confirmation port.
//  5. Execute removals first, then installs, then upgrades; a snapshot
//     is saved before any removal.
//  6. Record the outcome in the journal and mark the target manual.
//
// Gate failures (unknown package, invalid plan, declined confirmation)
// return an error; execution failures are collected on the result so a
// partially applied plan stays visible.
func (e *Engine) Install(ctx context.Context, req *InstallRequest) (*InstallResult, error) {
	settings := e.effectiveSettings(req.Mode)
	offline := settings.Offline()
	res := &InstallResult{PlanOnly: req.PlanOnly}

	e.log.Info("installing package",
		"package", req.Name, "offline", offline, "force", req.Force)

	if !offline && !req.PlanOnly {
		if err := e.pkgs.Update(ctx); err != nil {
			e.log.Warn("package cache refresh failed", "error", err)
			res.Outcome.AddWarning("package cache refresh failed: " + err.Error())
		}
	}

	info, err := e.pkgs.Show(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, req.Name)
	}

	version := req.Version
	if version == "" && offline {
		if pinned, ok := settings.PinnedVersion(req.Name); ok {
			version = pinned
			e.log.Debug("using pinned version", "package", req.Name, "version", pinned)
		}
	}

	installed, err := e.pkgs.IsInstalled(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if installed && !req.Force {
		res.Plan = deb.NewPlan()
		res.Outcome.Success = true
		res.Outcome.AddWarning(fmt.Sprintf("%s is already installed", req.Name))
		return res, nil
	}

	resolver := e.resolver(settings)
	plan, err := resolver.Resolve(ctx, deb.Package{Name: req.Name, Version: version})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve dependencies for %s: %w", req.Name, err)
	}
	res.Plan = plan

	valid, issues, err := resolver.ValidatePlan(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("failed to validate plan: %w", err)
	}
	res.Issues = issues

	ordered, err := resolver.InstallationOrder(ctx, plan.Install)
	if err != nil {
		return nil, fmt.Errorf("failed to order installations: %w", err)
	}
	plan.Install = ordered

	if req.PlanOnly {
		return res, nil
	}

	if !valid {
		if !req.Force {
			return res, fmt.Errorf("%w: %s", ErrPlanInvalid, strings.Join(issues, "; "))
		}
		res.Outcome.AddWarning("proceeding despite validation issues")
	}

	if plan.HasConflicts() || plan.HasRemovals() {
		approved, final, err := e.arbitrate(plan, req.Force)
		if err != nil {
			return res, err
		}
		if !approved {
			return res, ErrUserDeclined
		}
		plan = final
		res.Plan = final
	}

	if plan.Empty() {
		res.Outcome.Success = true
		res.Outcome.AddWarning("nothing to do")
		e.record(journal.ActionInstall, req.Name, version, true, "no changes needed")
		return res, nil
	}

	e.executePlan(ctx, settings, req, plan, version, res)

	detail := strings.Join(res.Outcome.Errors, "; ")
	e.record(journal.ActionInstall, req.Name, version, res.Outcome.Success, detail)
	return res, nil
}

// arbitrate clears a conflicted plan for execution. Without force the
// arbiter walks the user through policy-checked removals; with force the
// forced-resolution plan is built and confirmed in one step.
func (e *Engine) arbitrate(plan *deb.Plan, force bool) (bool, *deb.Plan, error) {
	if force {
		forced := e.arbiter.ForcedResolutionPlan(plan.Conflicts)
		final := *plan
		final.Remove = forced.Remove
		final.Conflicts = forced.Conflicts
		final.NeedsForce = forced.NeedsForce

		prompt := fmt.Sprintf("Force install: %d removal(s), %d unresolved conflict(s). Continue?",
			len(final.Remove), len(final.Conflicts))
		if !e.confirmer.Confirm(prompt, e.settings.ForceConfirmationRequired()) {
			return false, plan, nil
		}
		return true, &final, nil
	}

	if !e.settings.AutoResolveConflicts() {
		return false, plan, fmt.Errorf("%w: %d conflict(s) found and auto_resolve_conflicts is disabled",
			ErrManualResolution, len(plan.Conflicts))
	}

	approved, final, err := e.arbiter.HandleConflicts(plan)
	if err != nil {
		return false, plan, fmt.Errorf("failed to resolve conflicts: %w", err)
	}
	return approved, final, nil
}

// executePlan applies an approved plan, collecting per-package failures
// on the result instead of stopping at the first one.
func (e *Engine) executePlan(ctx context.Context, settings Settings, req *InstallRequest, plan *deb.Plan, targetVersion string, res *InstallResult) {
	if plan.HasRemovals() {
		reason := fmt.Sprintf("before install of %s", req.Name)
		res.SnapshotID = e.snapshotBefore(ctx, reason, &res.Outcome)
	}

	if err := e.waitForLock(ctx); err != nil {
		res.Outcome.AddError(err.Error())
		return
	}

	for _, pkg := range plan.Remove {
		e.log.Info("removing conflicting package", "package", pkg.Name)
		if e.removeConflicting(ctx, pkg.Name, req.Force, &res.Outcome) {
			res.Outcome.Affected = append(res.Outcome.Affected, pkg)
		}
	}

	for _, pkg := range plan.Install {
		version := ""
		if pkg.Name == req.Name {
			version = targetVersion
		} else if settings.Offline() {
			if pinned, ok := settings.PinnedVersion(pkg.Name); ok {
				version = pinned
			}
		}
		e.log.Info("installing", "package", pkg.Name, "version", version)
		if e.installOne(ctx, pkg.Name, version, req.Force, &res.Outcome) {
			res.Outcome.Affected = append(res.Outcome.Affected, pkg)
		}
	}

	for _, pkg := range plan.Upgrade {
		e.log.Info("upgrading", "package", pkg.Name, "version", pkg.Version)
		if err := e.pkgs.Install(ctx, pkg.Name, pkg.Version); err != nil {
			res.Outcome.AddWarning(fmt.Sprintf("failed to upgrade %s: %v", pkg.Name, err))
			continue
		}
		res.Outcome.Affected = append(res.Outcome.Affected, pkg)
	}

	if len(res.Outcome.Errors) > 0 && req.Force {
		if err := e.system.FixBroken(ctx); err == nil {
			res.Outcome.AddWarning("repaired broken package state after failed steps")
		}
	}

	res.Outcome.Success = len(res.Outcome.Errors) == 0 ||
		(req.Force && len(res.Outcome.Affected) > 0)

	if res.Outcome.Success && containsName(res.Outcome.Affected, req.Name) {
		if err := e.pkgs.MarkManual(ctx, req.Name); err != nil {
			res.Outcome.AddWarning(fmt.Sprintf("failed to mark %s as manually installed: %v", req.Name, err))
		}
	}
}

// removeConflicting removes one package cleared by arbitration. Forced
// removals fall back to a purge when the force removal itself fails.
func (e *Engine) removeConflicting(ctx context.Context, name string, force bool, res *deb.Result) bool {
	if !force {
		if err := e.system.SafeRemove(ctx, name); err != nil {
			res.AddError(fmt.Sprintf("failed to remove %s: %v", name, err))
			return false
		}
		return true
	}

	if err := e.system.ForceRemove(ctx, name); err != nil {
		if perr := e.system.Purge(ctx, name, true); perr != nil {
			res.AddError(fmt.Sprintf("failed to force remove %s: %v", name, err))
			return false
		}
		res.AddWarning(fmt.Sprintf("had to purge %s to clear the conflict", name))
	}
	return true
}

// installOne installs a single package. Under force a failed install is
// retried once after a repair pass.
func (e *Engine) installOne(ctx context.Context, name, version string, force bool, res *deb.Result) bool {
	err := e.pkgs.Install(ctx, name, version)
	if err == nil {
		return true
	}

	if force {
		e.log.Warn("install failed, repairing before retry", "package", name, "error", err)
		if fixErr := e.system.FixBroken(ctx); fixErr == nil {
			if err = e.pkgs.Install(ctx, name, version); err == nil {
				res.AddWarning(fmt.Sprintf("installed %s after repairing broken state", name))
				return true
			}
		}
	}

	res.AddError(fmt.Sprintf("failed to install %s: %v", name, err))
	return false
}

func containsName(pkgs []deb.Package, name string) bool {
	for _, p := range pkgs {
		if p.Name == name {
			return true
		}
	}
	return false
}
