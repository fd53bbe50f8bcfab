package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/pkgops/dpm/internal/confirm"
	"github.com/pkgops/dpm/internal/deb"
	"github.com/pkgops/dpm/internal/snapshot"
)

func TestSnapshotCreate(t *testing.T) {
	f := newFixture()
	f.addPackage("myco-app", "1.0.0", true)
	f.addPackage("zlib1g", "1.2.13", true)
	eng := f.engine(confirm.Auto(true))

	snap, err := eng.SnapshotCreate(context.Background(), "")
	if err != nil {
		t.Fatalf("SnapshotCreate() error = %v", err)
	}
	if snap.Reason != "manual snapshot" {
		t.Errorf("reason = %q, want the default", snap.Reason)
	}
	if len(snap.Packages) != 2 {
		t.Errorf("packages = %v, want the installed set", snap.Packages)
	}

	snap, err = eng.SnapshotCreate(context.Background(), "before migration")
	if err != nil {
		t.Fatalf("SnapshotCreate() error = %v", err)
	}
	if snap.Reason != "before migration" {
		t.Errorf("reason = %q", snap.Reason)
	}
	if len(f.snaps.saved) != 2 {
		t.Errorf("saved %d snapshots, want 2", len(f.snaps.saved))
	}
}

func TestSnapshotDiffAgainstLatest(t *testing.T) {
	f := newFixture()
	f.snaps.snaps = []snapshot.Snapshot{{
		ID: "snap-old",
		Packages: []deb.Package{
			{Name: "myco-app", Version: "1.0.0", Status: deb.StatusInstalled},
			{Name: "myco-old", Version: "0.9.0", Status: deb.StatusInstalled},
		},
	}}
	f.addPackage("myco-app", "2.0.0", true)
	f.addPackage("myco-new", "1.0.0", true)
	eng := f.engine(confirm.Auto(true))

	res, err := eng.SnapshotDiff(context.Background(), "")
	if err != nil {
		t.Fatalf("SnapshotDiff() error = %v", err)
	}
	if res.Base.ID != "snap-old" {
		t.Errorf("base = %q, want the latest snapshot", res.Base.ID)
	}
	diff := res.Diff
	if len(diff.Added) != 1 || diff.Added[0].Name != "myco-new" {
		t.Errorf("added = %v, want myco-new", diff.Added)
	}
	if len(diff.Removed) != 1 || diff.Removed[0].Name != "myco-old" {
		t.Errorf("removed = %v, want myco-old", diff.Removed)
	}
	if len(diff.Changed) != 1 || diff.Changed[0].From != "1.0.0" || diff.Changed[0].To != "2.0.0" {
		t.Errorf("changed = %v, want myco-app 1.0.0 to 2.0.0", diff.Changed)
	}
}

func TestSnapshotDiffByID(t *testing.T) {
	f := newFixture()
	f.snaps.snaps = []snapshot.Snapshot{
		{ID: "snap-new"},
		{ID: "snap-old", Packages: []deb.Package{{Name: "myco-app", Version: "1.0.0"}}},
	}
	f.addPackage("myco-app", "1.0.0", true)
	eng := f.engine(confirm.Auto(true))

	res, err := eng.SnapshotDiff(context.Background(), "snap-old")
	if err != nil {
		t.Fatalf("SnapshotDiff() error = %v", err)
	}
	if res.Base.ID != "snap-old" {
		t.Errorf("base = %q, want snap-old", res.Base.ID)
	}
	if !res.Diff.Empty() {
		t.Errorf("diff = %+v, want empty", res.Diff)
	}
}

func TestSnapshotDiffNoSnapshots(t *testing.T) {
	f := newFixture()
	eng := f.engine(confirm.Auto(true))

	_, err := eng.SnapshotDiff(context.Background(), "")
	if !errors.Is(err, snapshot.ErrNoSnapshots) {
		t.Fatalf("SnapshotDiff() error = %v, want ErrNoSnapshots", err)
	}
}

func TestSnapshotList(t *testing.T) {
	f := newFixture()
	f.snaps.snaps = []snapshot.Snapshot{{ID: "a"}, {ID: "b"}}
	eng := f.engine(confirm.Auto(true))

	snaps, err := eng.SnapshotList()
	if err != nil {
		t.Fatalf("SnapshotList() error = %v", err)
	}
	if len(snaps) != 2 {
		t.Errorf("snapshots = %v, want both", snaps)
	}
}
