package resolve

import (
	"context"
	"sort"

	"github.com/pkgops/dpm/internal/deb"
)

// InstallationOrder arranges packages so that dependencies come before
// their dependents.
//
// Algorithm steps:
//  1. Find every remaining package whose dependency closure contains no
//     other remaining package (the ready set).
//  2. Sort the ready set with preservation-priority packages first, then
//     by name, and append the first entry to the order.
//  3. Remove it from the remaining set and repeat.
//  4. If no package is ever ready the remaining set holds a true cycle;
//     it is appended in its original order rather than looping forever.
func (r *Resolver) InstallationOrder(ctx context.Context, pkgs []deb.Package) ([]deb.Package, error) {
	remaining := append([]deb.Package{}, pkgs...)
	ordered := make([]deb.Package, 0, len(pkgs))

	for len(remaining) > 0 {
		ready, err := r.readySet(ctx, remaining)
		if err != nil {
			return nil, err
		}
		if len(ready) == 0 {
			// in-set dependency cycle: degrade to original order
			ordered = append(ordered, remaining...)
			break
		}

		sort.SliceStable(ready, func(i, j int) bool {
			pi := r.classifier.ShouldPreserve(ready[i].Name)
			pj := r.classifier.ShouldPreserve(ready[j].Name)
			if pi != pj {
				return pi
			}
			return ready[i].Name < ready[j].Name
		})

		next := ready[0]
		ordered = append(ordered, next)
		remaining = dropName(remaining, next.Name)
	}

	return ordered, nil
}

// readySet returns the packages in remaining whose closures reference no
// other remaining package.
func (r *Resolver) readySet(ctx context.Context, remaining []deb.Package) ([]deb.Package, error) {
	names := map[string]bool{}
	for _, p := range remaining {
		names[p.Name] = true
	}

	var ready []deb.Package
	for _, p := range remaining {
		closure, err := r.AllDependencies(ctx, p.Name)
		if err != nil {
			return nil, err
		}
		blocked := false
		for _, dep := range closure {
			if dep.Name != p.Name && names[dep.Name] {
				blocked = true
				break
			}
		}
		if !blocked {
			ready = append(ready, p)
		}
	}
	return ready, nil
}

// dropName returns pkgs without the named package.
func dropName(pkgs []deb.Package, name string) []deb.Package {
	kept := make([]deb.Package, 0, len(pkgs))
	for _, p := range pkgs {
		if p.Name != name {
			kept = append(kept, p)
		}
	}
	return kept
}
