// Package classify derives package type and removal risk from package
// names. Classification is a pure function of the name and the configured
// custom prefixes; nothing here touches apt or the filesystem.
//
// Key responsibilities:
//   - Custom-package detection by configured name prefix
//   - Metapackage detection by name indicator patterns
//   - Preservation priority for conflict-removal candidate selection
//   - Removal risk tiers driving confirmation strictness
package classify

import (
	"strings"

	"github.com/pkgops/dpm/internal/deb"
)

// defaultIndicators are name fragments that mark a metapackage outright.
var defaultIndicators = []string{"meta-", "bundle-", "suite-", "collection-"}

// customIndicators are fragments that mark a metapackage only when the
// name also carries a custom prefix.
var customIndicators = []string{"meta", "bundle", "suite", "all", "full"}

// criticalPatterns are name fragments of packages the system cannot
// function without. Any match forces preservation priority and High risk.
var criticalPatterns = []string{
	"libc",
	"systemd",
	"kernel",
	"init",
	"base-",
	"essential",
	"apt",
	"dpkg",
	"ubuntu-",
	"debian-",
}

// Classifier tags package names with a type and removal risk tier.
// Results are stable for a fixed prefix and indicator configuration.
type Classifier struct {
	prefixes   []string
	indicators []string
}

// New creates a Classifier for the given custom name prefixes.
func New(prefixes []string) *Classifier {
	c := &Classifier{
		prefixes:   append([]string{}, prefixes...),
		indicators: append([]string{}, defaultIndicators...),
	}
	return c
}

// AddIndicator registers an extra metapackage indicator fragment.
// Duplicates are ignored.
func (c *Classifier) AddIndicator(indicator string) {
	indicator = strings.ToLower(indicator)
	for _, existing := range c.indicators {
		if existing == indicator {
			return
		}
	}
	c.indicators = append(c.indicators, indicator)
}

// IsCustom returns true if the name starts with any configured custom
// prefix. The first match short-circuits.
func (c *Classifier) IsCustom(name string) bool {
	for _, prefix := range c.prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// IsMetapackage returns true if the name matches a metapackage indicator,
// or is a custom package whose name carries a bundle-style fragment.
func (c *Classifier) IsMetapackage(name string) bool {
	lower := strings.ToLower(name)
	for _, indicator := range c.indicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	if c.IsCustom(name) {
		for _, indicator := range customIndicators {
			if strings.Contains(lower, indicator) {
				return true
			}
		}
	}
	return false
}

// Type classifies a name. Metapackage takes precedence over Custom,
// which takes precedence over System (the default).
func (c *Classifier) Type(name string) deb.Type {
	if c.IsMetapackage(name) {
		return deb.TypeMetapackage
	}
	if c.IsCustom(name) {
		return deb.TypeCustom
	}
	return deb.TypeSystem
}

// ShouldPreserve reports whether the package should win conflict
// arbitration: system-typed packages and anything matching a critical
// name pattern are preserved at the expense of the other side.
func (c *Classifier) ShouldPreserve(name string) bool {
	if c.Type(name) == deb.TypeSystem {
		return true
	}
	lower := strings.ToLower(name)
	for _, pattern := range criticalPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// Risk returns the removal risk tier for a name. Preserved packages are
// High, metapackages Medium, custom packages Low, and anything else
// defaults to Medium.
func (c *Classifier) Risk(name string) deb.Risk {
	if c.ShouldPreserve(name) {
		return deb.RiskHigh
	}
	if c.IsMetapackage(name) {
		return deb.RiskMedium
	}
	if c.IsCustom(name) {
		return deb.RiskLow
	}
	return deb.RiskMedium
}

// Annotate returns a copy of p with the Custom and Meta flags set from
// the name classification.
func (c *Classifier) Annotate(p deb.Package) deb.Package {
	p.Custom = c.IsCustom(p.Name)
	p.Meta = c.IsMetapackage(p.Name)
	return p
}
