package resolve

import (
	"context"
	"sort"

	"github.com/pkgops/dpm/internal/classify"
	"github.com/pkgops/dpm/internal/deb"
)

// Removal priority scores. Lower scores are removed first, so custom
// packages go before unclassified ones and system packages go last.
const (
	priorityCustom = 10
	priorityOther  = 50
	prioritySystem = 100
)

// Querier is the read-only package-universe port the resolver consumes.
// Implementations return empty results, not errors, for unknown packages.
type Querier interface {
	// IsInstalled reports whether the package is on the system
	IsInstalled(ctx context.Context, name string) (bool, error)

	// Dependencies returns the direct dependencies of a package
	Dependencies(ctx context.Context, name string) ([]deb.Package, error)

	// Conflicts returns the conflicts installing the package would cause
	Conflicts(ctx context.Context, name string) ([]deb.Conflict, error)

	// PackageInfo returns the current state of a package, nil if unknown
	PackageInfo(ctx context.Context, name string) (*deb.Package, error)
}

// Settings supplies the mode-dependent knobs the resolver reads.
type Settings interface {
	// Offline reports whether offline mode is active
	Offline() bool

	// PinnedVersion returns the pinned version for a package, if any
	PinnedVersion(name string) (string, bool)
}

// Resolver computes dependency plans for one resolution request.
type Resolver struct {
	querier    Querier
	classifier *classify.Classifier
	settings   Settings

	// cache maps a top-level package name to its full dependency closure
	cache map[string][]deb.Package
}

// New creates a Resolver. Create a fresh one per resolution request; the
// closure cache is not synchronized.
func New(querier Querier, classifier *classify.Classifier, settings Settings) *Resolver {
	return &Resolver{
		querier:    querier,
		classifier: classifier,
		settings:   settings,
		cache:      make(map[string][]deb.Package),
	}
}

// Resolve builds the dependency plan for installing target: new
// dependencies to install, installed ones needing an upgrade, conflicts
// across the whole install set, and the removals proposed to clear them.
func (r *Resolver) Resolve(ctx context.Context, target deb.Package) (*deb.Plan, error) {
	plan := deb.NewPlan()

	deps, err := r.AllDependencies(ctx, target.Name)
	if err != nil {
		return nil, err
	}

	for _, dep := range deps {
		installed, err := r.querier.IsInstalled(ctx, dep.Name)
		if err != nil {
			return nil, err
		}
		dep = r.classifier.Annotate(dep)
		if !installed {
			dep.Status = deb.StatusNotInstalled
			plan.Install = append(plan.Install, dep)
			continue
		}
		upgrade, version, err := r.needsUpgrade(ctx, dep)
		if err != nil {
			return nil, err
		}
		if upgrade {
			dep.Status = deb.StatusUpgradable
			dep.Version = version
			plan.Upgrade = append(plan.Upgrade, dep)
		}
	}

	installed, err := r.querier.IsInstalled(ctx, target.Name)
	if err != nil {
		return nil, err
	}
	if !installed {
		target = r.classifier.Annotate(target)
		target.Status = deb.StatusNotInstalled
		plan.Install = append([]deb.Package{target}, plan.Install...)
	}

	for _, pkg := range append(append([]deb.Package{}, plan.Install...), plan.Upgrade...) {
		conflicts, err := r.querier.Conflicts(ctx, pkg.Name)
		if err != nil {
			return nil, err
		}
		plan.Conflicts = append(plan.Conflicts, conflicts...)
	}

	if plan.HasConflicts() {
		plan.Remove = r.PlanConflictResolution(plan.Conflicts)
		plan.NeedsConfirmation = true
	}

	return plan, nil
}

// needsUpgrade decides whether an installed dependency belongs in the
// upgrade list. Online, the package manager's upgradable state decides;
// offline, a mismatch against the pinned version does.
func (r *Resolver) needsUpgrade(ctx context.Context, dep deb.Package) (bool, string, error) {
	info, err := r.querier.PackageInfo(ctx, dep.Name)
	if err != nil {
		return false, "", err
	}
	if info == nil {
		return false, "", nil
	}

	if r.settings != nil && r.settings.Offline() {
		pinned, ok := r.settings.PinnedVersion(dep.Name)
		if ok && info.Version != pinned {
			return true, pinned, nil
		}
		return false, "", nil
	}

	if info.Status == deb.StatusUpgradable {
		return true, info.Version, nil
	}
	return false, "", nil
}

// AllDependencies returns the transitive dependency closure of name,
// deduplicated by name in first-seen order. Names already expanded are
// never expanded again, which breaks dependency cycles. The closure is
// memoized per top-level name.
func (r *Resolver) AllDependencies(ctx context.Context, name string) ([]deb.Package, error) {
	if cached, ok := r.cache[name]; ok {
		return cached, nil
	}

	visited := map[string]bool{name: true}
	closure := []deb.Package{}

	var walk func(string) error
	walk = func(current string) error {
		deps, err := r.querier.Dependencies(ctx, current)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if visited[dep.Name] {
				continue
			}
			visited[dep.Name] = true
			closure = append(closure, dep)
			if err := walk(dep.Name); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(name); err != nil {
		return nil, err
	}

	r.cache[name] = closure
	return closure, nil
}

// PlanConflictResolution proposes the packages to remove so the given
// conflicts clear. One candidate is chosen per conflict, duplicates are
// dropped, and the result is sorted least critical first so an
// interrupted resolution loses the cheapest packages.
//
// Removability is deliberately not checked here. The arbiter filters
// against the safety policy afterwards so blocked removals surface to
// the user instead of vanishing from the plan.
func (r *Resolver) PlanConflictResolution(conflicts []deb.Conflict) []deb.Package {
	seen := map[string]bool{}
	removals := []deb.Package{}

	for _, c := range conflicts {
		candidate := r.ChooseRemovalCandidate(c.Package, c.ConflictsWith)
		if candidate == nil || seen[candidate.Name] {
			continue
		}
		seen[candidate.Name] = true
		removals = append(removals, *candidate)
	}

	sort.SliceStable(removals, func(i, j int) bool {
		return r.removalPriority(removals[i]) < r.removalPriority(removals[j])
	})
	return removals
}

// ChooseRemovalCandidate picks which side of a conflict to sacrifice.
// The tie-break is total and deterministic: preserve critical packages,
// prefer removing custom packages, prefer removing the side that is not
// installed, and finally default to the first argument.
func (r *Resolver) ChooseRemovalCandidate(a, b deb.Package) *deb.Package {
	aPreserve := r.classifier.ShouldPreserve(a.Name)
	bPreserve := r.classifier.ShouldPreserve(b.Name)
	if aPreserve != bPreserve {
		if aPreserve {
			return &b
		}
		return &a
	}

	aCustom := r.classifier.IsCustom(a.Name)
	bCustom := r.classifier.IsCustom(b.Name)
	if aCustom != bCustom {
		if aCustom {
			return &a
		}
		return &b
	}

	if !a.Installed() && b.Installed() {
		return &a
	}
	if !b.Installed() && a.Installed() {
		return &b
	}
	return &a
}

// removalPriority scores a package for removal ordering.
func (r *Resolver) removalPriority(p deb.Package) int {
	switch r.classifier.Type(p.Name) {
	case deb.TypeSystem:
		return prioritySystem
	case deb.TypeCustom:
		return priorityCustom
	default:
		return priorityOther
	}
}
