package engine

import (
	"context"
	"sort"

	"github.com/pkgops/dpm/internal/apt"
	"github.com/pkgops/dpm/internal/deb"
)

// List returns the selected package set, annotated with classification
// and sorted by name. The Custom selector filters whichever base set the
// other selectors choose.
func (e *Engine) List(ctx context.Context, req *ListRequest) (*ListResult, error) {
	var (
		pkgs []deb.Package
		err  error
	)
	switch {
	case req.Broken:
		pkgs, err = e.system.ListBroken(ctx)
	case req.Upgradable:
		pkgs, err = e.pkgs.Upgradable(ctx)
	default:
		pkgs, err = e.pkgs.InstalledPackages(ctx)
	}
	if err != nil {
		return nil, err
	}

	selected := make([]deb.Package, 0, len(pkgs))
	for _, p := range pkgs {
		p = e.classifier.Annotate(p)
		if req.Custom && !p.Custom {
			continue
		}
		selected = append(selected, p)
	}
	sort.Slice(selected, func(i, j int) bool {
		return selected[i].Name < selected[j].Name
	})

	return &ListResult{Packages: selected}, nil
}

// Search returns packages in the cache matching the query.
func (e *Engine) Search(ctx context.Context, query string) ([]apt.SearchResult, error) {
	return e.pkgs.Search(ctx, query)
}
