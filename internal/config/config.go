package config

// Settings is the on-disk configuration schema.
type Settings struct {
	// CustomPrefixes marks packages as locally managed and removable
	CustomPrefixes []string `yaml:"custom_prefixes"`

	// RemovablePackages whitelists individual packages for removal
	RemovablePackages []string `yaml:"removable_packages"`

	// MetapackageIndicators extends the built-in metapackage detection
	MetapackageIndicators []string `yaml:"metapackage_indicators"`

	// PinnedVersions maps package names to the version required offline
	PinnedVersions map[string]string `yaml:"pinned_versions"`

	// OfflineMode resolves against pinned versions instead of the network
	OfflineMode bool `yaml:"offline_mode"`

	// ForceConfirmationRequired demands strict confirmation before
	// force removals
	ForceConfirmationRequired bool `yaml:"force_confirmation_required"`

	// AutoResolveConflicts lets plans propose conflict removals instead
	// of aborting
	AutoResolveConflicts bool `yaml:"auto_resolve_conflicts"`

	// LogLevel is the minimum log level (debug, info, warn, error)
	LogLevel string `yaml:"log_level"`
}

// DefaultSettings returns the configuration used until the user changes
// anything.
func DefaultSettings() *Settings {
	return &Settings{
		CustomPrefixes: []string{
			"mycompany-",
			"internal-",
			"custom-",
			"dev-",
			"local-",
			"meta-",
			"bundle-",
		},
		RemovablePackages:         []string{},
		MetapackageIndicators:     []string{},
		PinnedVersions:            map[string]string{},
		OfflineMode:               false,
		ForceConfirmationRequired: true,
		AutoResolveConflicts:      true,
		LogLevel:                  "info",
	}
}
