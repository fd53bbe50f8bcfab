// Package conflict turns a plan's conflicts and proposed removals into a
// decision: interactively confirmed, auto-resolved within policy, or
// refused.
//
// The arbiter is the enforcement point for the safety policy. Removals
// the policy forbids are split out, reported, and never executed no
// matter what the user answers; the rest are categorized by risk and
// confirmed with a strictness matching the worst tier.
package conflict

import (
	"errors"
	"fmt"
	"io"

	"github.com/pkgops/dpm/internal/classify"
	"github.com/pkgops/dpm/internal/confirm"
	"github.com/pkgops/dpm/internal/deb"
	"github.com/pkgops/dpm/internal/safety"
)

// ErrNothingRemovable is returned when every proposed removal is blocked
// by the safety policy, leaving no legal way to clear the conflicts.
var ErrNothingRemovable = errors.New("no removable packages remain")

// Arbiter arbitrates conflict resolution. It owns no state; every call
// is a pure transformation plus prompts through the confirmation port.
type Arbiter struct {
	policy     *safety.Policy
	classifier *classify.Classifier
	confirmer  confirm.Confirmer
	out        io.Writer
}

// New creates an Arbiter. A nil out discards display output.
func New(policy *safety.Policy, classifier *classify.Classifier, confirmer confirm.Confirmer, out io.Writer) *Arbiter {
	if out == nil {
		out = io.Discard
	}
	return &Arbiter{
		policy:     policy,
		classifier: classifier,
		confirmer:  confirmer,
		out:        out,
	}
}

// HandleConflicts walks the user through a conflicted plan.
//
// Algorithm steps:
//  1. A plan with no conflicts and no removals passes untouched.
//  2. Proposed removals are partitioned by the safety policy; blocked
//     packages are reported and dropped unconditionally.
//  3. If nothing removable remains the resolution fails outright.
//  4. Allowed removals are confirmed by risk tier: Low/Medium with an
//     ordinary yes/no, High with the exact literal "YES".
//  5. A final summary confirmation covers the whole plan.
//
// Any refusal returns approved=false with the original plan unchanged.
func (a *Arbiter) HandleConflicts(plan *deb.Plan) (bool, *deb.Plan, error) {
	if !plan.HasConflicts() && !plan.HasRemovals() {
		return true, plan, nil
	}

	a.displayConflicts(plan.Conflicts)

	allowed, blocked := a.partition(plan.Remove)
	if len(blocked) > 0 {
		a.displayBlocked(blocked)
	}
	if len(allowed) == 0 && len(plan.Remove) > 0 {
		fmt.Fprintln(a.out, "Cannot resolve conflicts: none of the proposed removals are permitted.")
		return false, plan, ErrNothingRemovable
	}

	high, medium, low := a.categorize(allowed)
	a.displayCategories(high, medium, low)

	if len(low)+len(medium) > 0 {
		prompt := fmt.Sprintf("Remove %d package(s)?", len(low)+len(medium))
		if !a.confirmer.Confirm(prompt, false) {
			return false, plan, nil
		}
	}
	if len(high) > 0 {
		prompt := fmt.Sprintf("Remove %d HIGH RISK package(s)? This may break your system.", len(high))
		if !a.confirmer.Confirm(prompt, true) {
			return false, plan, nil
		}
	}

	summary := fmt.Sprintf("Proceed with plan (%d to install, %d to upgrade, %d to remove)?",
		len(plan.Install), len(plan.Upgrade), len(allowed))
	if !a.confirmer.Confirm(summary, false) {
		return false, plan, nil
	}

	final := *plan
	final.Remove = allowed
	return true, &final, nil
}

// SafeResolutionPlan resolves conflicts without prompting, removing only
// what the policy allows. When both sides are removable the installed
// (conflicting) side goes, keeping the requested target. Conflicts with
// no removable side are left unresolved and excluded from the removals.
func (a *Arbiter) SafeResolutionPlan(conflicts []deb.Conflict) *deb.Plan {
	plan := deb.NewPlan()
	seen := map[string]bool{}

	for _, c := range conflicts {
		var victim *deb.Package
		switch {
		case a.policy.CanRemove(c.ConflictsWith.Name):
			victim = &c.ConflictsWith
		case a.policy.CanRemove(c.Package.Name):
			victim = &c.Package
		default:
			continue
		}
		if !seen[victim.Name] {
			seen[victim.Name] = true
			plan.Remove = append(plan.Remove, *victim)
		}
	}

	plan.NeedsConfirmation = true
	return plan
}

// ForcedResolutionPlan builds on the safe plan: conflicts that resisted
// policy-bound resolution stay attached to the plan and NeedsForce is
// set, telling the execution layer these must be pushed through with
// explicit force rather than silently dropped.
func (a *Arbiter) ForcedResolutionPlan(conflicts []deb.Conflict) *deb.Plan {
	plan := a.SafeResolutionPlan(conflicts)

	resolved := map[string]bool{}
	for _, p := range plan.Remove {
		resolved[p.Name] = true
	}
	for _, c := range conflicts {
		if resolved[c.Package.Name] || resolved[c.ConflictsWith.Name] {
			continue
		}
		plan.AddConflict(c)
		plan.NeedsForce = true
	}

	return plan
}

// partition splits removals into policy-allowed and policy-blocked.
func (a *Arbiter) partition(removals []deb.Package) (allowed, blocked []deb.Package) {
	for _, p := range removals {
		if a.policy.CanRemove(p.Name) {
			allowed = append(allowed, p)
		} else {
			blocked = append(blocked, p)
		}
	}
	return allowed, blocked
}

// categorize buckets packages by removal risk tier.
func (a *Arbiter) categorize(pkgs []deb.Package) (high, medium, low []deb.Package) {
	for _, p := range pkgs {
		switch a.classifier.Risk(p.Name) {
		case deb.RiskHigh:
			high = append(high, p)
		case deb.RiskMedium:
			medium = append(medium, p)
		default:
			low = append(low, p)
		}
	}
	return high, medium, low
}

func (a *Arbiter) displayConflicts(conflicts []deb.Conflict) {
	if len(conflicts) == 0 {
		return
	}
	fmt.Fprintln(a.out, "Conflicts detected:")
	for _, c := range conflicts {
		fmt.Fprintf(a.out, "  %s conflicts with %s", c.Package.Name, c.ConflictsWith.Name)
		if c.Reason != "" {
			fmt.Fprintf(a.out, " (%s)", c.Reason)
		}
		fmt.Fprintln(a.out)
	}
}

func (a *Arbiter) displayBlocked(blocked []deb.Package) {
	fmt.Fprintln(a.out, "The following packages are protected and will not be removed:")
	for _, p := range blocked {
		fmt.Fprintf(a.out, "  - %s (no custom prefix and not whitelisted)\n", p.Name)
	}
	fmt.Fprintln(a.out, "System packages are never removed for safety.")
}

func (a *Arbiter) displayCategories(high, medium, low []deb.Package) {
	if len(high) > 0 {
		fmt.Fprintln(a.out, "High-risk removals:")
		for _, p := range high {
			fmt.Fprintf(a.out, "  ! %s\n", p.Name)
		}
	}
	if len(medium) > 0 {
		fmt.Fprintln(a.out, "Medium-risk removals:")
		for _, p := range medium {
			fmt.Fprintf(a.out, "  - %s\n", p.Name)
		}
	}
	if len(low) > 0 {
		fmt.Fprintln(a.out, "Low-risk removals:")
		for _, p := range low {
			fmt.Fprintf(a.out, "  - %s\n", p.Name)
		}
	}
}
