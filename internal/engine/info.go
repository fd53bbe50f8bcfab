package engine

import (
	"context"
	"fmt"

	"github.com/pkgops/dpm/internal/deb"
)

// Info returns detailed information about one package: its cache state,
// classification, removability under policy, and direct dependencies.
func (e *Engine) Info(ctx context.Context, name string) (*InfoResult, error) {
	info, err := e.pkgs.Show(ctx, name)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("%w: %s", ErrPackageNotFound, name)
	}

	pkg := e.classifier.Annotate(deb.Package{
		Name:    info.Name,
		Version: info.Version,
		Status:  info.Status,
	})

	deps, err := e.pkgs.Dependencies(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query dependencies of %s: %w", name, err)
	}
	for i := range deps {
		deps[i] = e.classifier.Annotate(deps[i])
	}

	res := &InfoResult{
		Package:      pkg,
		Description:  info.Description,
		Risk:         e.classifier.Risk(name),
		Removable:    e.policy.CanRemove(name),
		Dependencies: deps,
	}
	if pinned, ok := e.settings.PinnedVersion(name); ok {
		res.Pinned = pinned
	}
	return res, nil
}
