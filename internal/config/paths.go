// Package config manages dpm configuration and filesystem paths.
//
// Configuration lives under ~/.dpm/ by default, overridable via the
// DPM_HOME environment variable. The directory holds the YAML config
// file, the operation history database, snapshots, logs, and the
// remote host registry.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths contains all the filesystem paths used by dpm.
type Paths struct {
	// Root is the base directory for all dpm data (default: ~/.dpm)
	Root string

	// Config is the path to the YAML config file
	Config string

	// History is the path to the operation history database
	History string

	// Logs is the directory holding dated log files
	Logs string

	// Snapshots is the directory holding package state snapshots
	Snapshots string

	// Remote is the path to the remote host registry
	Remote string
}

// DefaultPaths returns the default paths for dpm.
// Paths can be overridden with environment variables:
// - DPM_HOME: Override the root directory
func DefaultPaths() (*Paths, error) {
	root := os.Getenv("DPM_HOME")
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".dpm")
	}

	return &Paths{
		Root:      root,
		Config:    filepath.Join(root, "config.yaml"),
		History:   filepath.Join(root, "history.db"),
		Logs:      filepath.Join(root, "logs"),
		Snapshots: filepath.Join(root, "snapshots"),
		Remote:    filepath.Join(root, "remote.json"),
	}, nil
}

// EnsureDirectories creates all necessary directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{
		p.Root,
		p.Logs,
		p.Snapshots,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
