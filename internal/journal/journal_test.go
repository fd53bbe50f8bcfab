package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pkgops/dpm/internal/clock"
)

func openTestJournal(t *testing.T) (*Journal, *clock.FakeClock, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))

	j, err := Open(path, clk)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j, clk, path
}

func TestJournal_RecordAndRecent(t *testing.T) {
	j, clk, _ := openTestJournal(t)

	if err := j.Record(ActionInstall, "myco-tools", "2.0.1", true, ""); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	clk.Advance(time.Minute)
	if err := j.Record(ActionRemove, "old-agent", "", false, "policy violation"); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	clk.Advance(time.Minute)
	if err := j.Record(ActionInstall, "myco-core", "2.1.0", true, ""); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	entries, err := j.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent(2) returned %d entries", len(entries))
	}
	if entries[0].Package != "myco-core" {
		t.Errorf("newest entry = %q, want myco-core", entries[0].Package)
	}
	if entries[1].Package != "old-agent" {
		t.Errorf("second entry = %q, want old-agent", entries[1].Package)
	}
	if entries[1].Success {
		t.Error("failed removal recorded as success")
	}
	if entries[1].Detail != "policy violation" {
		t.Errorf("Detail = %q", entries[1].Detail)
	}
}

func TestJournal_ByPackage(t *testing.T) {
	j, clk, _ := openTestJournal(t)

	if err := j.Record(ActionInstall, "myco-tools", "1.0.0", true, ""); err != nil {
		t.Fatal(err)
	}
	clk.Advance(time.Hour)
	if err := j.Record(ActionUpgrade, "myco-tools", "2.0.0", true, ""); err != nil {
		t.Fatal(err)
	}
	clk.Advance(time.Hour)
	if err := j.Record(ActionInstall, "unrelated", "1.0.0", true, ""); err != nil {
		t.Fatal(err)
	}

	entries, err := j.ByPackage("myco-tools")
	if err != nil {
		t.Fatalf("ByPackage() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ByPackage() returned %d entries, want 2", len(entries))
	}
	if entries[0].Action != ActionUpgrade {
		t.Errorf("newest action = %q, want upgrade", entries[0].Action)
	}
	if entries[0].Version != "2.0.0" {
		t.Errorf("Version = %q", entries[0].Version)
	}
}

func TestJournal_PersistsAcrossReopen(t *testing.T) {
	j, clk, path := openTestJournal(t)

	if err := j.Record(ActionFix, "", "", true, "configured pending packages"); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := Open(path, clk)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 1 || entries[0].Action != ActionFix {
		t.Errorf("entries = %+v, want the fix operation", entries)
	}
}

func TestJournal_RecordStampsTime(t *testing.T) {
	j, clk, _ := openTestJournal(t)

	if err := j.Record(ActionCleanup, "", "", true, ""); err != nil {
		t.Fatal(err)
	}

	entries, err := j.Recent(1)
	if err != nil {
		t.Fatal(err)
	}
	want := clk.Now().Unix()
	if entries[0].StartedAt.Unix() != want {
		t.Errorf("StartedAt = %v, want clock time %v", entries[0].StartedAt.Unix(), want)
	}
	if entries[0].ID == "" {
		t.Error("ID is empty")
	}
}
