package deb

// Status is the install state of a package as reported by dpkg/apt.
type Status string

// Package install states
const (
	StatusInstalled    Status = "installed"
	StatusNotInstalled Status = "not_installed"
	StatusUpgradable   Status = "upgradable"
	StatusBroken       Status = "broken"
)

// Type is the classification of a package name. It is derived by the
// classifier from the name and configured prefixes, never stored.
type Type string

// Package classifications
const (
	TypeSystem      Type = "system"
	TypeCustom      Type = "custom"
	TypeMetapackage Type = "metapackage"
)

// Risk is the removal risk tier of a package. It drives confirmation
// strictness: High-risk removals require an exact "YES".
type Risk int

// Removal risk tiers, ordered from least to most severe.
const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
)

// String returns the human-readable name of the risk tier.
func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	default:
		return "unknown"
	}
}

// Package is a snapshot of one Debian package within a resolution run.
// Identity is by Name alone; Version is the target or installed version,
// informational rather than a key.
type Package struct {
	// Name is the package name as known to apt/dpkg
	Name string `json:"name"`

	// Version is the installed or target version (may be empty)
	Version string `json:"version,omitempty"`

	// Meta marks a metapackage (detected by name pattern)
	Meta bool `json:"meta,omitempty"`

	// Custom marks a package matching a configured custom prefix
	Custom bool `json:"custom,omitempty"`

	// Status is the install state at resolution time
	Status Status `json:"status"`
}

// Installed returns true if the package is currently on the system,
// including upgradable and broken installs.
func (p Package) Installed() bool {
	return p.Status == StatusInstalled || p.Status == StatusUpgradable || p.Status == StatusBroken
}
