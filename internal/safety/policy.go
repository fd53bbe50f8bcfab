// Package safety enforces the removal policy: a package may be removed
// only if it is explicitly whitelisted or carries a custom prefix, and
// system-critical names can never enter the whitelist.
package safety

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPolicyViolation is returned when a system-critical package name is
// registered as removable.
var ErrPolicyViolation = errors.New("policy violation")

// criticalPackages are names that must never become removable. A candidate
// is rejected if it equals one of these exactly or starts with one of them
// followed by a dash.
var criticalPackages = []string{
	"libc6",
	"bash",
	"coreutils",
	"util-linux",
	"systemd",
	"init",
	"kernel",
	"linux-image",
	"grub",
	"apt",
	"dpkg",
	"base-files",
	"base-passwd",
	"login",
	"passwd",
	"sudo",
	"openssh-server",
}

// Store is the configuration backing the policy. Mutations persist.
type Store interface {
	// CustomPrefixes returns the configured custom name prefixes
	CustomPrefixes() []string

	// RemovablePackages returns the explicit removable whitelist
	RemovablePackages() []string

	// AddRemovablePackage adds a name to the whitelist
	AddRemovablePackage(name string) error

	// RemoveRemovablePackage deletes a name from the whitelist
	RemoveRemovablePackage(name string) error
}

// Policy answers "may this package be removed?". There are exactly two
// paths to removability: membership in the whitelist, or a custom prefix
// match. Force flags do not widen either path.
type Policy struct {
	store Store
}

// New creates a Policy over the given configuration store.
func New(store Store) *Policy {
	return &Policy{store: store}
}

// CanRemove returns true if name is whitelisted or custom-prefixed.
func (p *Policy) CanRemove(name string) bool {
	for _, removable := range p.store.RemovablePackages() {
		if name == removable {
			return true
		}
	}
	for _, prefix := range p.store.CustomPrefixes() {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// AddRemovable whitelists a package name. Critical system names are
// rejected here, at add time, so the whitelist can never hold one.
func (p *Policy) AddRemovable(name string) error {
	if critical, match := isCritical(name); critical {
		return fmt.Errorf("%w: %q matches protected system package %q", ErrPolicyViolation, name, match)
	}
	return p.store.AddRemovablePackage(name)
}

// RemoveRemovable drops a package name from the whitelist.
func (p *Policy) RemoveRemovable(name string) error {
	return p.store.RemoveRemovablePackage(name)
}

// Removable returns the current whitelist.
func (p *Policy) Removable() []string {
	return p.store.RemovablePackages()
}

// isCritical reports whether name equals a critical package or is
// prefixed by one followed by a dash, and which entry matched.
func isCritical(name string) (bool, string) {
	for _, critical := range criticalPackages {
		if name == critical || strings.HasPrefix(name, critical+"-") {
			return true, critical
		}
	}
	return false, ""
}
