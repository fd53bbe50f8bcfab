package snapshot

import (
	"sort"

	"github.com/pkgops/dpm/internal/deb"
)

// Change records a version difference for one package.
type Change struct {
	// Name is the package name
	Name string

	// From is the version in the older snapshot
	From string

	// To is the version in the newer snapshot
	To string
}

// DiffResult describes how two snapshots differ.
type DiffResult struct {
	// Added lists packages present only in the newer snapshot
	Added []deb.Package

	// Removed lists packages present only in the older snapshot
	Removed []deb.Package

	// Changed lists packages whose version differs
	Changed []Change
}

// Empty reports whether the two snapshots held the same package set.
func (d *DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

// Diff compares two snapshots. Results are sorted by package name.
func Diff(before, after *Snapshot) *DiffResult {
	oldSet := make(map[string]deb.Package, len(before.Packages))
	for _, pkg := range before.Packages {
		oldSet[pkg.Name] = pkg
	}
	newSet := make(map[string]deb.Package, len(after.Packages))
	for _, pkg := range after.Packages {
		newSet[pkg.Name] = pkg
	}

	result := &DiffResult{}
	for _, pkg := range after.Packages {
		old, ok := oldSet[pkg.Name]
		switch {
		case !ok:
			result.Added = append(result.Added, pkg)
		case old.Version != pkg.Version:
			result.Changed = append(result.Changed, Change{Name: pkg.Name, From: old.Version, To: pkg.Version})
		}
	}
	for _, pkg := range before.Packages {
		if _, ok := newSet[pkg.Name]; !ok {
			result.Removed = append(result.Removed, pkg)
		}
	}

	sort.Slice(result.Added, func(i, j int) bool { return result.Added[i].Name < result.Added[j].Name })
	sort.Slice(result.Removed, func(i, j int) bool { return result.Removed[i].Name < result.Removed[j].Name })
	sort.Slice(result.Changed, func(i, j int) bool { return result.Changed[i].Name < result.Changed[j].Name })
	return result
}
