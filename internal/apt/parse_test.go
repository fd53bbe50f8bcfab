package apt

import (
	"reflect"
	"testing"
)

const dependsFixture = `myco-tools
  Depends: myco-core
  Depends: libfoo1 (>= 1.2)
 |Depends: postfix
  Depends: <mail-transport-agent>
  Recommends: myco-extras
  Suggests: <vim-scripts>
  Conflicts: myco-legacy
`

func TestParseDependencyNames(t *testing.T) {
	got := parseDependencyNames(dependsFixture)
	want := []string{"myco-core", "libfoo1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseDependencyNames() = %v, want %v", got, want)
	}
}

const simulateFixture = `NOTE: This is only a simulation!
Reading package lists... Done
Building dependency tree... Done
Reading state information... Done
The following packages will be REMOVED:
  myco-legacy old-agent
  stale-helper
The following NEW packages will be installed:
  myco-tools
0 upgraded, 1 newly installed, 2 to remove and 0 not upgraded.
Remv myco-legacy [1.0]
Inst myco-tools (2.0 localrepo [amd64])
`

func TestParseRemovedPackages(t *testing.T) {
	got := parseRemovedPackages(simulateFixture)
	want := []string{"myco-legacy", "old-agent", "stale-helper"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseRemovedPackages() = %v, want %v", got, want)
	}
}

func TestParseRemovedPackages_NoStanza(t *testing.T) {
	out := `Reading package lists... Done
The following NEW packages will be installed:
  myco-tools
0 upgraded, 1 newly installed, 0 to remove and 0 not upgraded.
`
	if got := parseRemovedPackages(out); len(got) != 0 {
		t.Errorf("parseRemovedPackages() = %v, want empty", got)
	}
}

const policyFixture = `vim:
  Installed: 2:9.0.1378-2
  Candidate: 2:9.0.1378-2
  Version table:
 *** 2:9.0.1378-2 500
        500 http://deb.debian.org/debian bookworm/main amd64 Packages
        100 /var/lib/dpkg/status
     2:8.2.2434-3+deb11u1 500
        500 http://deb.debian.org/debian bullseye/main amd64 Packages
`

func TestParsePolicyVersions(t *testing.T) {
	got := parsePolicyVersions(policyFixture)
	want := []string{"2:9.0.1378-2", "2:8.2.2434-3+deb11u1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parsePolicyVersions() = %v, want %v", got, want)
	}
}

const showFixture = `Package: myco-tools
Version: 2.0.1
Priority: optional
Section: admin
Description-en: MyCo admin tool bundle
 Installs the complete MyCo administrative tooling.
Description-md5: 9fb3fd6750e6d0f9dfa02d0b8f5eaf69
`

func TestParseShowFields(t *testing.T) {
	version, description := parseShowFields(showFixture)
	if version != "2.0.1" {
		t.Errorf("version = %q, want %q", version, "2.0.1")
	}
	if description != "MyCo admin tool bundle" {
		t.Errorf("description = %q, want %q", description, "MyCo admin tool bundle")
	}
}

const dpkgListFixture = `Desired=Unknown/Install/Remove/Purge/Hold
| Status=Not/Inst/Conf-files/Unpacked/halF-conf/Half-inst/trig-aWait/Trig-pend
|/ Err?=(none)/Reinst-required (Status,Err: uppercase=bad)
||/ Name           Version               Architecture Description
+++-==============-=====================-============-=============================
ii  myco-core      2.0.3                 amd64        MyCo platform core
ii  vim            2:9.0.1378-2          amd64        Vi IMproved - enhanced vi editor
rc  old-agent      1.7.2                 amd64        retired telemetry agent
iU  stale-helper   0.9.1                 amd64        helper stuck mid-upgrade
`

func TestParseInstalledLines(t *testing.T) {
	got := parseInstalledLines(dpkgListFixture)
	if len(got) != 2 {
		t.Fatalf("parseInstalledLines() returned %d packages, want 2", len(got))
	}
	if got[0].Name != "myco-core" || got[0].Version != "2.0.3" {
		t.Errorf("first package = %+v", got[0])
	}
	if got[1].Name != "vim" {
		t.Errorf("second package = %+v", got[1])
	}
}

const upgradableFixture = `Listing... Done
myco-core/stable 2.1.0 amd64 [upgradable from: 2.0.3]
zlib1g/stable-security 1:1.2.13.dfsg-1 amd64 [upgradable from: 1:1.2.11]
`

func TestParseUpgradableLines(t *testing.T) {
	got := parseUpgradableLines(upgradableFixture)
	if len(got) != 2 {
		t.Fatalf("parseUpgradableLines() returned %d packages, want 2", len(got))
	}
	if got[0].Name != "myco-core" || got[0].Version != "2.1.0" {
		t.Errorf("first package = %+v", got[0])
	}
	if got[1].Name != "zlib1g" {
		t.Errorf("second package = %+v", got[1])
	}
}
