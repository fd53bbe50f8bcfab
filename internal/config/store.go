package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pkgops/dpm/internal/fsops"
)

// Store persists Settings and answers the queries the safety policy and
// resolver make against them. Mutations are written through to disk
// immediately.
type Store struct {
	fs       fsops.FS
	path     string
	settings *Settings
}

// NewStore creates a Store persisting to path. Defaults apply until
// Load is called.
func NewStore(fs fsops.FS, path string) *Store {
	return &Store{
		fs:       fs,
		path:     path,
		settings: DefaultSettings(),
	}
}

// Load reads settings from disk. A missing file keeps the defaults;
// fields absent from the file keep their default values.
func (s *Store) Load() error {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	s.settings = settings
	return nil
}

// Save writes the settings atomically.
func (s *Store) Save() error {
	data, err := yaml.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := s.fs.AtomicWrite(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// All returns a copy of the current settings.
func (s *Store) All() Settings {
	out := *s.settings
	out.CustomPrefixes = copySlice(s.settings.CustomPrefixes)
	out.RemovablePackages = copySlice(s.settings.RemovablePackages)
	out.MetapackageIndicators = copySlice(s.settings.MetapackageIndicators)
	out.PinnedVersions = make(map[string]string, len(s.settings.PinnedVersions))
	for name, version := range s.settings.PinnedVersions {
		out.PinnedVersions[name] = version
	}
	return out
}

// CustomPrefixes returns the configured custom package prefixes.
func (s *Store) CustomPrefixes() []string {
	return copySlice(s.settings.CustomPrefixes)
}

// RemovablePackages returns the removal whitelist.
func (s *Store) RemovablePackages() []string {
	return copySlice(s.settings.RemovablePackages)
}

// MetapackageIndicators returns the user-added metapackage indicators.
func (s *Store) MetapackageIndicators() []string {
	return copySlice(s.settings.MetapackageIndicators)
}

// PinnedVersion returns the pinned version for a package, if any.
func (s *Store) PinnedVersion(name string) (string, bool) {
	version, ok := s.settings.PinnedVersions[name]
	return version, ok
}

// PinnedVersions returns a copy of all pinned versions.
func (s *Store) PinnedVersions() map[string]string {
	out := make(map[string]string, len(s.settings.PinnedVersions))
	for name, version := range s.settings.PinnedVersions {
		out[name] = version
	}
	return out
}

// Offline reports whether offline mode is active.
func (s *Store) Offline() bool {
	return s.settings.OfflineMode
}

// ForceConfirmationRequired reports whether force removals need strict
// confirmation.
func (s *Store) ForceConfirmationRequired() bool {
	return s.settings.ForceConfirmationRequired
}

// AutoResolveConflicts reports whether plans may propose conflict
// removals.
func (s *Store) AutoResolveConflicts() bool {
	return s.settings.AutoResolveConflicts
}

// LogLevel returns the configured minimum log level.
func (s *Store) LogLevel() string {
	return s.settings.LogLevel
}

// SetOffline switches offline mode and persists the change.
func (s *Store) SetOffline(offline bool) error {
	s.settings.OfflineMode = offline
	return s.Save()
}

// AddPrefix adds a custom prefix and persists the change.
func (s *Store) AddPrefix(prefix string) error {
	if prefix == "" {
		return fmt.Errorf("prefix must not be empty")
	}
	for _, existing := range s.settings.CustomPrefixes {
		if existing == prefix {
			return nil
		}
	}
	s.settings.CustomPrefixes = append(s.settings.CustomPrefixes, prefix)
	return s.Save()
}

// RemovePrefix removes a custom prefix and persists the change.
func (s *Store) RemovePrefix(prefix string) error {
	s.settings.CustomPrefixes = removeString(s.settings.CustomPrefixes, prefix)
	return s.Save()
}

// AddRemovablePackage whitelists a package for removal and persists the
// change. Criticality checks belong to the safety policy, not here.
func (s *Store) AddRemovablePackage(name string) error {
	if name == "" {
		return fmt.Errorf("package name must not be empty")
	}
	for _, existing := range s.settings.RemovablePackages {
		if existing == name {
			return nil
		}
	}
	s.settings.RemovablePackages = append(s.settings.RemovablePackages, name)
	return s.Save()
}

// RemoveRemovablePackage drops a package from the removal whitelist and
// persists the change.
func (s *Store) RemoveRemovablePackage(name string) error {
	s.settings.RemovablePackages = removeString(s.settings.RemovablePackages, name)
	return s.Save()
}

// AddMetapackageIndicator adds a metapackage indicator and persists the
// change.
func (s *Store) AddMetapackageIndicator(indicator string) error {
	if indicator == "" {
		return fmt.Errorf("indicator must not be empty")
	}
	for _, existing := range s.settings.MetapackageIndicators {
		if existing == indicator {
			return nil
		}
	}
	s.settings.MetapackageIndicators = append(s.settings.MetapackageIndicators, indicator)
	return s.Save()
}

// Pin records the version a package must hold in offline mode and
// persists the change.
func (s *Store) Pin(name, version string) error {
	if name == "" || version == "" {
		return fmt.Errorf("package and version must not be empty")
	}
	s.settings.PinnedVersions[name] = version
	return s.Save()
}

// Unpin removes a pinned version and persists the change.
func (s *Store) Unpin(name string) error {
	delete(s.settings.PinnedVersions, name)
	return s.Save()
}

func copySlice(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func removeString(in []string, target string) []string {
	out := in[:0]
	for _, v := range in {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
