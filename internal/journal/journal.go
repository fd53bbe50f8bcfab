// Package journal records every package operation in a local SQLite
// database, so past installs and removals can be audited and replayed
// against snapshots.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkgops/dpm/internal/clock"

	_ "modernc.org/sqlite"
)

// Operation actions recorded in the journal.
const (
	ActionInstall = "install"
	ActionRemove  = "remove"
	ActionUpgrade = "upgrade"
	ActionFix     = "fix"
	ActionCleanup = "cleanup"
)

const schema = `
CREATE TABLE IF NOT EXISTS operations (
	id TEXT PRIMARY KEY,
	started_at INTEGER NOT NULL,
	action TEXT NOT NULL,
	package TEXT NOT NULL,
	version TEXT NOT NULL DEFAULT '',
	success INTEGER NOT NULL,
	detail TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_operations_package ON operations(package);
CREATE INDEX IF NOT EXISTS idx_operations_started ON operations(started_at);
`

// Entry is one recorded operation.
type Entry struct {
	// ID is the operation's unique identifier
	ID string

	// StartedAt is when the operation began
	StartedAt time.Time

	// Action is what was attempted (install, remove, ...)
	Action string

	// Package is the package operated on
	Package string

	// Version is the version involved, when known
	Version string

	// Success reports whether the operation completed
	Success bool

	// Detail carries the failure reason or extra context
	Detail string
}

// Journal persists operation history.
type Journal struct {
	db    *sql.DB
	clock clock.Clock
}

// Open opens or creates the journal database at path.
func Open(path string, clk clock.Clock) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}
	return &Journal{db: db, clock: clk}, nil
}

// Record appends one operation to the journal.
func (j *Journal) Record(action, pkg, version string, success bool, detail string) error {
	_, err := j.db.Exec(
		"INSERT INTO operations (id, started_at, action, package, version, success, detail) VALUES (?, ?, ?, ?, ?, ?, ?)",
		uuid.New().String(), j.clock.Now().Unix(), action, pkg, version, boolToInt(success), detail,
	)
	if err != nil {
		return fmt.Errorf("failed to record operation: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	rows, err := j.db.Query(
		"SELECT id, started_at, action, package, version, success, detail FROM operations ORDER BY started_at DESC, id LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ByPackage returns every entry for one package, most recent first.
func (j *Journal) ByPackage(name string) ([]Entry, error) {
	rows, err := j.db.Query(
		"SELECT id, started_at, action, package, version, success, detail FROM operations WHERE package = ? ORDER BY started_at DESC, id",
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedAt int64
		var success int
		if err := rows.Scan(&e.ID, &startedAt, &e.Action, &e.Package, &e.Version, &success, &e.Detail); err != nil {
			return nil, err
		}
		e.StartedAt = time.Unix(startedAt, 0)
		e.Success = success != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
