package apt

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pkgops/dpm/internal/deb"
	"github.com/pkgops/dpm/internal/runner"
)

// fakeRunner replays canned results keyed by the full command line.
// Unknown commands fail the way apt fails for unknown packages.
type fakeRunner struct {
	responses map[string]runner.Result
	calls     []string
}

func (f *fakeRunner) Run(ctx context.Context, cmd runner.Cmd) (runner.Result, error) {
	key := cmd.Name + " " + strings.Join(cmd.Args, " ")
	f.calls = append(f.calls, key)
	if res, ok := f.responses[key]; ok {
		return res, nil
	}
	return runner.Result{ExitCode: 100}, nil
}

func testClient(responses map[string]runner.Result) (*Client, *fakeRunner) {
	f := &fakeRunner{responses: responses}
	return &Client{run: f}, f
}

func TestClient_IsInstalled(t *testing.T) {
	c, _ := testClient(map[string]runner.Result{
		"dpkg -l vim":       {Stdout: dpkgListFixture},
		"dpkg -l old-agent": {Stdout: "rc  old-agent  1.7.2  amd64  retired telemetry agent\n"},
	})

	installed, err := c.IsInstalled(context.Background(), "vim")
	if err != nil {
		t.Fatalf("IsInstalled() error = %v", err)
	}
	if !installed {
		t.Error("IsInstalled(vim) = false, want true")
	}

	installed, err = c.IsInstalled(context.Background(), "old-agent")
	if err != nil {
		t.Fatalf("IsInstalled() error = %v", err)
	}
	if installed {
		t.Error("IsInstalled(old-agent) = true, want false for config-files state")
	}

	installed, err = c.IsInstalled(context.Background(), "no-such-pkg")
	if err != nil {
		t.Fatalf("IsInstalled() error = %v", err)
	}
	if installed {
		t.Error("IsInstalled(no-such-pkg) = true, want false")
	}
}

func TestClient_Dependencies(t *testing.T) {
	c, _ := testClient(map[string]runner.Result{
		"apt-cache depends myco-tools": {Stdout: dependsFixture},
	})

	deps, err := c.Dependencies(context.Background(), "myco-tools")
	if err != nil {
		t.Fatalf("Dependencies() error = %v", err)
	}
	if len(deps) != 2 || deps[0].Name != "myco-core" || deps[1].Name != "libfoo1" {
		t.Errorf("Dependencies() = %+v", deps)
	}
}

func TestClient_Dependencies_UnknownPackage(t *testing.T) {
	c, _ := testClient(nil)

	deps, err := c.Dependencies(context.Background(), "no-such-pkg")
	if err != nil {
		t.Fatalf("Dependencies() error = %v", err)
	}
	if len(deps) != 0 {
		t.Errorf("Dependencies() = %+v, want empty for unknown package", deps)
	}
}

func TestClient_Conflicts(t *testing.T) {
	c, _ := testClient(map[string]runner.Result{
		"apt-get install -s myco-tools": {Stdout: simulateFixture, ExitCode: 100},
	})

	conflicts, err := c.Conflicts(context.Background(), "myco-tools")
	if err != nil {
		t.Fatalf("Conflicts() error = %v", err)
	}
	if len(conflicts) != 3 {
		t.Fatalf("Conflicts() returned %d, want 3", len(conflicts))
	}
	first := conflicts[0]
	if first.Package.Name != "myco-tools" {
		t.Errorf("Package.Name = %q, want myco-tools", first.Package.Name)
	}
	if first.ConflictsWith.Name != "myco-legacy" {
		t.Errorf("ConflictsWith.Name = %q, want myco-legacy", first.ConflictsWith.Name)
	}
	if first.ConflictsWith.Status != deb.StatusInstalled {
		t.Errorf("ConflictsWith.Status = %q, want installed", first.ConflictsWith.Status)
	}
	if first.Reason == "" {
		t.Error("Reason is empty")
	}
}

func TestClient_Conflicts_CleanInstall(t *testing.T) {
	c, _ := testClient(map[string]runner.Result{
		"apt-get install -s myco-tools": {Stdout: "0 upgraded, 1 newly installed, 0 to remove\n"},
	})

	conflicts, err := c.Conflicts(context.Background(), "myco-tools")
	if err != nil {
		t.Fatalf("Conflicts() error = %v", err)
	}
	if len(conflicts) != 0 {
		t.Errorf("Conflicts() = %+v, want none", conflicts)
	}
}

func TestClient_Show(t *testing.T) {
	c, _ := testClient(map[string]runner.Result{
		"apt-cache show myco-core":        {Stdout: "Package: myco-core\nVersion: 2.1.0\nDescription-en: MyCo platform core\n"},
		"dpkg -l myco-core":               {Stdout: "ii  myco-core  2.0.3  amd64  MyCo platform core\n"},
		"apt list --upgradable myco-core": {Stdout: "Listing... Done\nmyco-core/stable 2.1.0 amd64 [upgradable from: 2.0.3]\n"},
	})

	info, err := c.Show(context.Background(), "myco-core")
	if err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if info == nil {
		t.Fatal("Show() = nil, want info")
	}
	if info.Version != "2.1.0" {
		t.Errorf("Version = %q, want 2.1.0", info.Version)
	}
	if info.Status != deb.StatusUpgradable {
		t.Errorf("Status = %q, want upgradable", info.Status)
	}
	if info.Description != "MyCo platform core" {
		t.Errorf("Description = %q", info.Description)
	}
}

func TestClient_Show_UnknownPackage(t *testing.T) {
	c, _ := testClient(nil)

	info, err := c.Show(context.Background(), "no-such-pkg")
	if err != nil {
		t.Fatalf("Show() error = %v", err)
	}
	if info != nil {
		t.Errorf("Show() = %+v, want nil for unknown package", info)
	}
}

func TestClient_PackageInfo_NotInstalled(t *testing.T) {
	c, _ := testClient(map[string]runner.Result{
		"apt-cache show myco-extras": {Stdout: "Package: myco-extras\nVersion: 1.4.0\nDescription-en: extras\n"},
		"dpkg -l myco-extras":        {ExitCode: 1},
	})

	pkg, err := c.PackageInfo(context.Background(), "myco-extras")
	if err != nil {
		t.Fatalf("PackageInfo() error = %v", err)
	}
	if pkg == nil {
		t.Fatal("PackageInfo() = nil, want package")
	}
	if pkg.Status != deb.StatusNotInstalled {
		t.Errorf("Status = %q, want not-installed", pkg.Status)
	}
	if pkg.Version != "1.4.0" {
		t.Errorf("Version = %q, want 1.4.0", pkg.Version)
	}
}

func TestClient_Search(t *testing.T) {
	c, _ := testClient(map[string]runner.Result{
		"apt-cache search myco": {Stdout: "myco-core - MyCo platform core\nmyco-tools - MyCo admin tool bundle\n"},
	})

	results, err := c.Search(context.Background(), "myco")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() returned %d results, want 2", len(results))
	}
	if results[0].Name != "myco-core" || results[0].Description != "MyCo platform core" {
		t.Errorf("first result = %+v", results[0])
	}
}

func TestClient_Install_VersionSpec(t *testing.T) {
	c, f := testClient(map[string]runner.Result{
		"apt-get install -y vim=2:9.0.1378-2": {},
	})

	if err := c.Install(context.Background(), "vim", "2:9.0.1378-2"); err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if len(f.calls) != 1 || f.calls[0] != "apt-get install -y vim=2:9.0.1378-2" {
		t.Errorf("calls = %v", f.calls)
	}
}

func TestClient_Install_LockHeld(t *testing.T) {
	c, _ := testClient(map[string]runner.Result{
		"apt-get install -y vim": {
			ExitCode: 100,
			Stderr:   "E: Could not get lock /var/lib/dpkg/lock-frontend. It is held by process 1234 (apt)",
		},
	})

	err := c.Install(context.Background(), "vim", "")
	if !errors.Is(err, ErrLockHeld) {
		t.Errorf("Install() error = %v, want ErrLockHeld", err)
	}
}

func TestClient_Install_Failure(t *testing.T) {
	c, _ := testClient(map[string]runner.Result{
		"apt-get install -y vim": {
			ExitCode: 100,
			Stderr:   "E: Unable to locate package vim",
		},
	})

	err := c.Install(context.Background(), "vim", "")
	if err == nil {
		t.Fatal("Install() error = nil, want failure")
	}
	if errors.Is(err, ErrLockHeld) {
		t.Error("Install() error is ErrLockHeld, want plain failure")
	}
	if !strings.Contains(err.Error(), "Unable to locate") {
		t.Errorf("error %q does not carry stderr detail", err)
	}
}

func TestClient_InvalidNameRejected(t *testing.T) {
	c, f := testClient(nil)

	if _, err := c.IsInstalled(context.Background(), "vim;rm -rf /"); err == nil {
		t.Error("IsInstalled() accepted invalid name")
	}
	if err := c.Install(context.Background(), "--force-yes", ""); err == nil {
		t.Error("Install() accepted invalid name")
	}
	if len(f.calls) != 0 {
		t.Errorf("invalid names reached the runner: %v", f.calls)
	}
}

func TestClient_SudoPrefix(t *testing.T) {
	f := &fakeRunner{responses: map[string]runner.Result{
		"sudo apt-get update": {},
	}}
	c := &Client{run: f, sudo: true}

	if err := c.Update(context.Background()); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if len(f.calls) != 1 || f.calls[0] != "sudo apt-get update" {
		t.Errorf("calls = %v, want sudo-wrapped update", f.calls)
	}
}

func TestIsLockMessage(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"frontend lock", "E: Could not get lock /var/lib/dpkg/lock-frontend", true},
		{"plain lock path", "waiting for /var/lib/dpkg/lock", true},
		{"unrelated error", "E: Unable to locate package foo", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsLockMessage(tt.output); got != tt.want {
				t.Errorf("IsLockMessage(%q) = %v, want %v", tt.output, got, tt.want)
			}
		})
	}
}
