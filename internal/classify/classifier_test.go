package classify

import (
	"testing"

	"github.com/pkgops/dpm/internal/deb"
)

func testClassifier() *Classifier {
	return New([]string{"custom-", "local-", "myco-"})
}

func TestClassifier_IsCustom(t *testing.T) {
	tests := []struct {
		name    string
		pkgName string
		want    bool
	}{
		{name: "custom prefix", pkgName: "custom-app", want: true},
		{name: "second prefix", pkgName: "local-build-tools", want: true},
		{name: "third prefix", pkgName: "myco-tools", want: true},
		{name: "no prefix", pkgName: "vim", want: false},
		{name: "prefix not at start", pkgName: "not-custom-app", want: false},
		{name: "empty name", pkgName: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClassifier()
			if got := c.IsCustom(tt.pkgName); got != tt.want {
				t.Errorf("IsCustom(%q) = %v, want %v", tt.pkgName, got, tt.want)
			}
		})
	}
}

func TestClassifier_IsMetapackage(t *testing.T) {
	tests := []struct {
		name    string
		pkgName string
		want    bool
	}{
		{name: "meta indicator", pkgName: "meta-desktop", want: true},
		{name: "bundle indicator", pkgName: "app-bundle-extras", want: true},
		{name: "suite indicator", pkgName: "suite-office", want: true},
		{name: "collection indicator", pkgName: "collection-fonts", want: true},
		{name: "uppercase matches", pkgName: "Meta-Desktop", want: true},
		{name: "custom with all fragment", pkgName: "myco-all-tools", want: true},
		{name: "custom with full fragment", pkgName: "custom-full-stack", want: true},
		{name: "custom without fragment", pkgName: "myco-editor", want: false},
		{name: "plain package", pkgName: "vim", want: false},
		{name: "all fragment without custom prefix", pkgName: "install-all", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClassifier()
			if got := c.IsMetapackage(tt.pkgName); got != tt.want {
				t.Errorf("IsMetapackage(%q) = %v, want %v", tt.pkgName, got, tt.want)
			}
		})
	}
}

func TestClassifier_AddIndicator(t *testing.T) {
	c := testClassifier()
	if c.IsMetapackage("platform-stack") {
		t.Fatal("stack- should not be an indicator yet")
	}

	c.AddIndicator("stack-")
	if !c.IsMetapackage("platform-stack-base") {
		t.Error("stack- indicator should match after AddIndicator")
	}

	// duplicate registration must not grow the list
	before := len(c.indicators)
	c.AddIndicator("stack-")
	if len(c.indicators) != before {
		t.Errorf("duplicate indicator grew list from %d to %d", before, len(c.indicators))
	}
}

func TestClassifier_Type(t *testing.T) {
	tests := []struct {
		name    string
		pkgName string
		want    deb.Type
	}{
		{name: "system default", pkgName: "vim", want: deb.TypeSystem},
		{name: "custom", pkgName: "myco-editor", want: deb.TypeCustom},
		{name: "metapackage", pkgName: "meta-desktop", want: deb.TypeMetapackage},
		// metapackage wins over custom
		{name: "custom metapackage", pkgName: "myco-all-tools", want: deb.TypeMetapackage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClassifier()
			if got := c.Type(tt.pkgName); got != tt.want {
				t.Errorf("Type(%q) = %v, want %v", tt.pkgName, got, tt.want)
			}
		})
	}
}

func TestClassifier_ShouldPreserve(t *testing.T) {
	tests := []struct {
		name    string
		pkgName string
		want    bool
	}{
		{name: "system package", pkgName: "vim", want: true},
		{name: "libc pattern", pkgName: "libc6", want: true},
		{name: "systemd pattern", pkgName: "systemd-sysv", want: true},
		{name: "kernel pattern", pkgName: "linux-kernel-headers", want: true},
		{name: "critical pattern on custom name", pkgName: "myco-kernel-tweaks", want: true},
		{name: "custom package", pkgName: "myco-editor", want: false},
		{name: "plain metapackage", pkgName: "meta-games", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClassifier()
			if got := c.ShouldPreserve(tt.pkgName); got != tt.want {
				t.Errorf("ShouldPreserve(%q) = %v, want %v", tt.pkgName, got, tt.want)
			}
		})
	}
}

func TestClassifier_Risk(t *testing.T) {
	tests := []struct {
		name    string
		pkgName string
		want    deb.Risk
	}{
		{name: "critical is high", pkgName: "libc6", want: deb.RiskHigh},
		{name: "system is high", pkgName: "vim", want: deb.RiskHigh},
		{name: "metapackage is medium", pkgName: "meta-games", want: deb.RiskMedium},
		{name: "custom is low", pkgName: "myco-editor", want: deb.RiskLow},
		{name: "custom metapackage is medium", pkgName: "myco-all-tools", want: deb.RiskMedium},
		{name: "custom with critical pattern is high", pkgName: "custom-dpkg-helper", want: deb.RiskHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClassifier()
			if got := c.Risk(tt.pkgName); got != tt.want {
				t.Errorf("Risk(%q) = %v, want %v", tt.pkgName, got, tt.want)
			}
		})
	}
}

// Classification must be total and stable: repeated calls with unchanged
// configuration yield identical results.
func TestClassifier_Deterministic(t *testing.T) {
	c := testClassifier()
	names := []string{"vim", "myco-editor", "meta-desktop", "libc6", "myco-all-tools", ""}

	for _, name := range names {
		first := c.Type(name)
		firstRisk := c.Risk(name)
		for i := 0; i < 3; i++ {
			if got := c.Type(name); got != first {
				t.Errorf("Type(%q) changed between calls: %v then %v", name, first, got)
			}
			if got := c.Risk(name); got != firstRisk {
				t.Errorf("Risk(%q) changed between calls: %v then %v", name, firstRisk, got)
			}
		}
		switch first {
		case deb.TypeSystem, deb.TypeCustom, deb.TypeMetapackage:
		default:
			t.Errorf("Type(%q) returned unknown classification %v", name, first)
		}
	}
}

func TestClassifier_Annotate(t *testing.T) {
	c := testClassifier()

	p := c.Annotate(deb.Package{Name: "myco-all-tools", Status: deb.StatusNotInstalled})
	if !p.Custom || !p.Meta {
		t.Errorf("myco-all-tools should be custom and meta, got custom=%v meta=%v", p.Custom, p.Meta)
	}

	p = c.Annotate(deb.Package{Name: "vim", Status: deb.StatusInstalled})
	if p.Custom || p.Meta {
		t.Errorf("vim should be neither custom nor meta, got custom=%v meta=%v", p.Custom, p.Meta)
	}
}
