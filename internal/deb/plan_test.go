package deb

import (
	"testing"
)

func TestNewPlan(t *testing.T) {
	plan := NewPlan()

	if plan.Install == nil || len(plan.Install) != 0 {
		t.Errorf("expected empty Install, got %v", plan.Install)
	}
	if plan.Remove == nil || len(plan.Remove) != 0 {
		t.Errorf("expected empty Remove, got %v", plan.Remove)
	}
	if plan.Upgrade == nil || len(plan.Upgrade) != 0 {
		t.Errorf("expected empty Upgrade, got %v", plan.Upgrade)
	}
	if plan.Conflicts == nil || len(plan.Conflicts) != 0 {
		t.Errorf("expected empty Conflicts, got %v", plan.Conflicts)
	}
	if plan.NeedsConfirmation {
		t.Error("new plan should not need confirmation")
	}
	if plan.NeedsForce {
		t.Error("new plan should not need force")
	}
}

func TestPlan_HasConflicts(t *testing.T) {
	tests := []struct {
		name      string
		conflicts []Conflict
		want      bool
	}{
		{
			name:      "no conflicts",
			conflicts: []Conflict{},
			want:      false,
		},
		{
			name: "one conflict",
			conflicts: []Conflict{
				{
					Package:       Package{Name: "newpkg"},
					ConflictsWith: Package{Name: "oldpkg"},
					Reason:        "installation would remove existing package",
				},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := NewPlan()
			plan.Conflicts = tt.conflicts

			if got := plan.HasConflicts(); got != tt.want {
				t.Errorf("HasConflicts() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlan_Empty(t *testing.T) {
	plan := NewPlan()
	if !plan.Empty() {
		t.Error("new plan should be empty")
	}

	plan.Install = append(plan.Install, Package{Name: "myco-tools"})
	if plan.Empty() {
		t.Error("plan with an install should not be empty")
	}

	plan = NewPlan()
	plan.Upgrade = append(plan.Upgrade, Package{Name: "libfoo"})
	if plan.Empty() {
		t.Error("plan with an upgrade should not be empty")
	}
}

func TestPackage_Installed(t *testing.T) {
	tests := []struct {
		name   string
		status Status
		want   bool
	}{
		{name: "installed", status: StatusInstalled, want: true},
		{name: "upgradable", status: StatusUpgradable, want: true},
		{name: "broken", status: StatusBroken, want: true},
		{name: "not installed", status: StatusNotInstalled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Package{Name: "libfoo", Status: tt.status}
			if got := p.Installed(); got != tt.want {
				t.Errorf("Installed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResult_AddError(t *testing.T) {
	r := Result{Success: true}
	r.AddWarning("held back: libbar")
	r.AddError("apt-get exited with status 100")

	if r.Success {
		t.Error("AddError should mark the result failed")
	}
	if len(r.Warnings) != 1 || len(r.Errors) != 1 {
		t.Errorf("expected 1 warning and 1 error, got %d and %d", len(r.Warnings), len(r.Errors))
	}
}

func TestRisk_String(t *testing.T) {
	if RiskLow.String() != "low" || RiskMedium.String() != "medium" || RiskHigh.String() != "high" {
		t.Errorf("unexpected risk names: %s %s %s", RiskLow, RiskMedium, RiskHigh)
	}
	if Risk(42).String() != "unknown" {
		t.Errorf("out-of-range risk should be unknown, got %s", Risk(42))
	}
}
