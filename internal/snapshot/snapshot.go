// Package snapshot captures the installed package set before risky
// operations, so removals can be diffed and audited afterwards.
//
// Snapshots are JSON files under the snapshots directory, one per
// capture, identified by a UUID and fingerprinted over their package
// set for cheap equality checks.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkgops/dpm/internal/clock"
	"github.com/pkgops/dpm/internal/deb"
	"github.com/pkgops/dpm/internal/fsops"
)

// ErrNoSnapshots indicates no snapshot has been recorded yet.
var ErrNoSnapshots = errors.New("no snapshots recorded")

// fingerprintLen is the length of the short fingerprint in hex digits.
const fingerprintLen = 12

// Snapshot is one captured package state.
type Snapshot struct {
	// ID is the snapshot's unique identifier
	ID string `json:"id"`

	// CreatedAt is when the snapshot was taken
	CreatedAt time.Time `json:"created_at"`

	// Reason records what triggered the capture
	Reason string `json:"reason"`

	// Fingerprint is a short digest of the package set
	Fingerprint string `json:"fingerprint"`

	// Packages is the installed set, sorted by name
	Packages []deb.Package `json:"packages"`
}

// Store persists snapshots as JSON files.
type Store struct {
	fs    fsops.FS
	dir   string
	clock clock.Clock
}

// NewStore creates a Store writing into dir.
func NewStore(fs fsops.FS, dir string, clk clock.Clock) *Store {
	return &Store{fs: fs, dir: dir, clock: clk}
}

// Save captures the given package set. The packages are sorted by name
// so equal sets always produce equal fingerprints.
func (s *Store) Save(packages []deb.Package, reason string) (*Snapshot, error) {
	sorted := make([]deb.Package, len(packages))
	copy(sorted, packages)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	snap := &Snapshot{
		ID:          uuid.New().String(),
		CreatedAt:   s.clock.Now().UTC(),
		Reason:      reason,
		Fingerprint: fingerprint(sorted),
		Packages:    sorted,
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	path := filepath.Join(s.dir, snap.ID+".json")
	if err := s.fs.AtomicWrite(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}
	return snap, nil
}

// List returns all snapshots, newest first.
func (s *Store) List() ([]Snapshot, error) {
	entries, err := s.fs.ReadDir(s.dir)
	if err != nil {
		return nil, nil
	}

	var snapshots []Snapshot
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := s.fs.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			// Skip corrupt snapshots rather than failing the listing
			continue
		}
		snapshots = append(snapshots, snap)
	}

	sort.Slice(snapshots, func(i, j int) bool {
		if !snapshots[i].CreatedAt.Equal(snapshots[j].CreatedAt) {
			return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
		}
		return snapshots[i].ID < snapshots[j].ID
	})
	return snapshots, nil
}

// Latest returns the most recent snapshot.
func (s *Store) Latest() (*Snapshot, error) {
	snapshots, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, ErrNoSnapshots
	}
	return &snapshots[0], nil
}

// Load returns the snapshot with the given ID.
func (s *Store) Load(id string) (*Snapshot, error) {
	data, err := s.fs.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		return nil, fmt.Errorf("snapshot %s not found: %w", id, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", id, err)
	}
	return &snap, nil
}

// fingerprint digests a sorted package set into a short hex string.
func fingerprint(sorted []deb.Package) string {
	hasher := sha256.New()
	for _, pkg := range sorted {
		fmt.Fprintf(hasher, "%s=%s\n", pkg.Name, pkg.Version)
	}
	return hex.EncodeToString(hasher.Sum(nil))[:fingerprintLen]
}
