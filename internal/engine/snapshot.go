package engine

import (
	"context"

	"github.com/pkgops/dpm/internal/snapshot"
)

// SnapshotCreate captures the current installed package set.
func (e *Engine) SnapshotCreate(ctx context.Context, reason string) (*snapshot.Snapshot, error) {
	installed, err := e.pkgs.InstalledPackages(ctx)
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "manual snapshot"
	}
	return e.snapshots.Save(installed, reason)
}

// SnapshotList returns saved snapshots, newest first.
func (e *Engine) SnapshotList() ([]snapshot.Snapshot, error) {
	return e.snapshots.List()
}

// SnapshotDiff compares a saved snapshot against the live installed set.
// An empty id selects the most recent snapshot.
func (e *Engine) SnapshotDiff(ctx context.Context, id string) (*SnapshotDiffResult, error) {
	var (
		base *snapshot.Snapshot
		err  error
	)
	if id == "" {
		base, err = e.snapshots.Latest()
	} else {
		base, err = e.snapshots.Load(id)
	}
	if err != nil {
		return nil, err
	}

	installed, err := e.pkgs.InstalledPackages(ctx)
	if err != nil {
		return nil, err
	}
	current := &snapshot.Snapshot{Packages: installed}

	return &SnapshotDiffResult{
		Base: base,
		Diff: snapshot.Diff(base, current),
	}, nil
}
