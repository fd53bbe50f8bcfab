package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkgops/dpm/internal/deb"
)

// ValidatePlan inspects a finished plan and reports every problem found.
// The plan is valid only when the issue list comes back empty.
//
// Checks, in order:
//   - a name appearing in both the install and remove lists
//   - circular dependencies within the plan's install and upgrade set
//   - removals of High-risk packages (always a hard failure)
//   - metapackages whose dependencies are neither installed nor planned
func (r *Resolver) ValidatePlan(ctx context.Context, plan *deb.Plan) (bool, []string, error) {
	issues := []string{}

	removeNames := map[string]bool{}
	for _, p := range plan.Remove {
		removeNames[p.Name] = true
	}
	for _, p := range plan.Install {
		if removeNames[p.Name] {
			issues = append(issues, fmt.Sprintf("contradictory plan: %s is both installed and removed", p.Name))
		}
	}

	planSet := map[string]bool{}
	targets := append(append([]deb.Package{}, plan.Install...), plan.Upgrade...)
	for _, p := range targets {
		planSet[p.Name] = true
	}
	for _, p := range targets {
		circular, err := r.hasCircular(ctx, p.Name, planSet)
		if err != nil {
			return false, nil, err
		}
		if circular {
			issues = append(issues, fmt.Sprintf("circular dependency involving %s", p.Name))
		}
	}

	for _, p := range plan.Remove {
		if r.classifier.Risk(p.Name) == deb.RiskHigh {
			issues = append(issues, fmt.Sprintf("high-risk removal: %s", p.Name))
		}
	}

	installSet := map[string]bool{}
	for _, p := range plan.Install {
		installSet[p.Name] = true
	}
	for _, p := range plan.Install {
		if !r.classifier.IsMetapackage(p.Name) {
			continue
		}
		missing, err := r.missingDependencies(ctx, p.Name, installSet)
		if err != nil {
			return false, nil, err
		}
		if len(missing) > 0 {
			issues = append(issues, fmt.Sprintf("metapackage %s has missing dependencies: %s", p.Name, strings.Join(missing, ", ")))
		}
	}

	return len(issues) == 0, issues, nil
}

// hasCircular reports whether start can reach itself by following direct
// dependencies restricted to the plan set. The path set backtracks per
// branch, so shared (diamond) dependencies are not misreported as cycles.
func (r *Resolver) hasCircular(ctx context.Context, start string, planSet map[string]bool) (bool, error) {
	var dfs func(current string, path map[string]bool) (bool, error)
	dfs = func(current string, path map[string]bool) (bool, error) {
		deps, err := r.querier.Dependencies(ctx, current)
		if err != nil {
			return false, err
		}
		for _, dep := range deps {
			if !planSet[dep.Name] {
				continue
			}
			if dep.Name == start {
				return true, nil
			}
			if path[dep.Name] {
				continue
			}
			path[dep.Name] = true
			found, err := dfs(dep.Name, path)
			if err != nil {
				return false, err
			}
			if found {
				return true, nil
			}
			delete(path, dep.Name)
		}
		return false, nil
	}
	return dfs(start, map[string]bool{start: true})
}

// missingDependencies lists closure members of a metapackage that are
// neither installed nor part of the planned install set.
func (r *Resolver) missingDependencies(ctx context.Context, name string, installSet map[string]bool) ([]string, error) {
	closure, err := r.AllDependencies(ctx, name)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, dep := range closure {
		if installSet[dep.Name] {
			continue
		}
		installed, err := r.querier.IsInstalled(ctx, dep.Name)
		if err != nil {
			return nil, err
		}
		if !installed {
			missing = append(missing, dep.Name)
		}
	}
	return missing, nil
}
