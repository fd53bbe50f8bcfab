// Package apt wraps the system package tooling behind a typed client.
//
// All queries and mutations go through a runner.Runner, so the client
// itself never spawns processes directly and tests can replay canned
// command transcripts.
//
// Key responsibilities:
//   - Query installed state, dependencies, and candidate versions
//   - Simulate installations to surface conflict removals
//   - Install, update, and mark packages
//   - Map lock contention to ErrLockHeld for retry handling
package apt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pkgops/dpm/internal/deb"
	"github.com/pkgops/dpm/internal/runner"
)

// ErrLockHeld indicates another process holds the package manager lock.
var ErrLockHeld = errors.New("package manager lock held")

// nonInteractive suppresses debconf prompts during unattended runs.
const nonInteractive = "DEBIAN_FRONTEND=noninteractive"

// Info holds the details published for one package.
type Info struct {
	// Name is the package name as queried
	Name string

	// Version is the candidate version from the package cache
	Version string

	// Description is the short description line
	Description string

	// Status is the current installation state
	Status deb.Status
}

// SearchResult is one package matched by a cache search.
type SearchResult struct {
	Name        string
	Description string
}

// Client executes apt and dpkg queries through a Runner.
type Client struct {
	run runner.Runner

	// sudo prefixes mutating commands when not running as root
	sudo bool
}

// NewClient creates a Client backed by the given runner.
func NewClient(run runner.Runner) *Client {
	return &Client{
		run:  run,
		sudo: os.Geteuid() != 0,
	}
}

// IsInstalled reports whether the package is installed on the system.
// A package known to dpkg but not in the installed state does not count.
func (c *Client) IsInstalled(ctx context.Context, name string) (bool, error) {
	if err := runner.ValidatePackageName(name); err != nil {
		return false, err
	}
	res, err := c.run.Run(ctx, runner.Cmd{Name: "dpkg", Args: []string{"-l", name}})
	if err != nil {
		return false, err
	}
	if res.ExitCode != 0 {
		return false, nil
	}
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.HasPrefix(line, "ii") {
			return true, nil
		}
	}
	return false, nil
}

// Dependencies returns the direct dependencies of a package. Virtual
// packages and alternate branches are skipped. Status is left unset;
// callers resolve installation state themselves.
func (c *Client) Dependencies(ctx context.Context, name string) ([]deb.Package, error) {
	if err := runner.ValidatePackageName(name); err != nil {
		return nil, err
	}
	res, err := c.run.Run(ctx, runner.Cmd{Name: "apt-cache", Args: []string{"depends", name}})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, nil
	}

	var deps []deb.Package
	for _, depName := range parseDependencyNames(res.Stdout) {
		deps = append(deps, deb.Package{Name: depName})
	}
	return deps, nil
}

// Conflicts simulates installing the package and reports every existing
// package the simulation would remove. The simulation itself never
// modifies the system.
func (c *Client) Conflicts(ctx context.Context, name string) ([]deb.Conflict, error) {
	if err := runner.ValidatePackageName(name); err != nil {
		return nil, err
	}
	res, err := c.run.Run(ctx, runner.Cmd{
		Name: "apt-get",
		Args: []string{"install", "-s", name},
		Env:  []string{nonInteractive},
	})
	if err != nil {
		return nil, err
	}

	var conflicts []deb.Conflict
	for _, removed := range parseRemovedPackages(res.Stdout + "\n" + res.Stderr) {
		conflicts = append(conflicts, deb.Conflict{
			Package: deb.Package{Name: name},
			ConflictsWith: deb.Package{
				Name:   removed,
				Status: deb.StatusInstalled,
			},
			Reason: "installation would remove existing package",
		})
	}
	return conflicts, nil
}

// Show returns the cache details for a package, or nil when the package
// is unknown to the cache.
func (c *Client) Show(ctx context.Context, name string) (*Info, error) {
	if err := runner.ValidatePackageName(name); err != nil {
		return nil, err
	}
	res, err := c.run.Run(ctx, runner.Cmd{Name: "apt-cache", Args: []string{"show", name}})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, nil
	}

	version, description := parseShowFields(res.Stdout)
	info := &Info{
		Name:        name,
		Version:     version,
		Description: description,
		Status:      deb.StatusNotInstalled,
	}

	installed, err := c.IsInstalled(ctx, name)
	if err != nil {
		return nil, err
	}
	if installed {
		info.Status = deb.StatusInstalled
		upgradable, err := c.isUpgradable(ctx, name)
		if err != nil {
			return nil, err
		}
		if upgradable {
			info.Status = deb.StatusUpgradable
		}
	}
	return info, nil
}

// PackageInfo returns the current state of a package, nil if unknown.
func (c *Client) PackageInfo(ctx context.Context, name string) (*deb.Package, error) {
	info, err := c.Show(ctx, name)
	if err != nil || info == nil {
		return nil, err
	}
	return &deb.Package{
		Name:    name,
		Version: info.Version,
		Status:  info.Status,
	}, nil
}

// AvailableVersions returns the versions the cache offers for a package,
// highest first, deduplicated.
func (c *Client) AvailableVersions(ctx context.Context, name string) ([]string, error) {
	if err := runner.ValidatePackageName(name); err != nil {
		return nil, err
	}
	res, err := c.run.Run(ctx, runner.Cmd{Name: "apt-cache", Args: []string{"policy", name}})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, nil
	}
	return parsePolicyVersions(res.Stdout), nil
}

// Search returns the packages whose name or description matches query.
// The query is free text, not a package name.
func (c *Client) Search(ctx context.Context, query string) ([]SearchResult, error) {
	res, err := c.run.Run(ctx, runner.Cmd{Name: "apt-cache", Args: []string{"search", query}})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, nil
	}

	var results []SearchResult
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, desc, _ := strings.Cut(line, " - ")
		results = append(results, SearchResult{
			Name:        strings.TrimSpace(name),
			Description: strings.TrimSpace(desc),
		})
	}
	return results, nil
}

// InstalledPackages returns every package currently installed.
func (c *Client) InstalledPackages(ctx context.Context) ([]deb.Package, error) {
	res, err := c.run.Run(ctx, runner.Cmd{Name: "dpkg", Args: []string{"-l"}})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, fmt.Errorf("failed to list installed packages: %s", firstLine(res.Stderr))
	}
	return parseInstalledLines(res.Stdout), nil
}

// Upgradable returns the installed packages with a newer candidate.
func (c *Client) Upgradable(ctx context.Context) ([]deb.Package, error) {
	res, err := c.run.Run(ctx, runner.Cmd{Name: "apt", Args: []string{"list", "--upgradable"}})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, nil
	}
	return parseUpgradableLines(res.Stdout), nil
}

// isUpgradable reports whether a single package has a newer candidate.
func (c *Client) isUpgradable(ctx context.Context, name string) (bool, error) {
	res, err := c.run.Run(ctx, runner.Cmd{Name: "apt", Args: []string{"list", "--upgradable", name}})
	if err != nil {
		return false, err
	}
	for _, pkg := range parseUpgradableLines(res.Stdout) {
		if pkg.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// Install installs a package, pinning to version when non-empty.
func (c *Client) Install(ctx context.Context, name, version string) error {
	if err := runner.ValidatePackageName(name); err != nil {
		return err
	}
	spec := name
	if version != "" {
		spec = name + "=" + version
	}
	res, err := c.run.Run(ctx, c.privileged("apt-get", "install", "-y", spec))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return c.commandError("install "+name, res)
	}
	return nil
}

// Update refreshes the package cache.
func (c *Client) Update(ctx context.Context) error {
	res, err := c.run.Run(ctx, c.privileged("apt-get", "update"))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return c.commandError("update package cache", res)
	}
	return nil
}

// ProbeRepositories checks whether the configured repositories answer,
// without touching the cache.
func (c *Client) ProbeRepositories(ctx context.Context) error {
	res, err := c.run.Run(ctx, runner.Cmd{Name: "apt-get", Args: []string{"update", "--dry-run"}})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return c.commandError("reach package repositories", res)
	}
	return nil
}

// MarkManual marks a package as manually installed so autoremove will
// not reclaim it.
func (c *Client) MarkManual(ctx context.Context, name string) error {
	if err := runner.ValidatePackageName(name); err != nil {
		return err
	}
	res, err := c.run.Run(ctx, c.privileged("apt-mark", "manual", name))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return c.commandError("mark "+name+" as manual", res)
	}
	return nil
}

// AutoClean removes cached package files that can no longer be
// downloaded.
func (c *Client) AutoClean(ctx context.Context) error {
	res, err := c.run.Run(ctx, c.privileged("apt-get", "autoclean"))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return c.commandError("autoclean package cache", res)
	}
	return nil
}

// Orphans lists packages apt-get autoremove would reclaim, without
// removing anything.
func (c *Client) Orphans(ctx context.Context) ([]string, error) {
	res, err := c.run.Run(ctx, runner.Cmd{Name: "apt-get", Args: []string{"autoremove", "--dry-run"}})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, c.commandError("list orphaned packages", res)
	}
	return parseRemovedPackages(res.Stdout), nil
}

// AutoRemove removes packages nothing installed depends on anymore.
func (c *Client) AutoRemove(ctx context.Context) error {
	res, err := c.run.Run(ctx, c.privileged("apt-get", "autoremove", "-y"))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return c.commandError("autoremove orphaned packages", res)
	}
	return nil
}

// Clean empties the package download cache.
func (c *Client) Clean(ctx context.Context) error {
	res, err := c.run.Run(ctx, c.privileged("apt-get", "clean"))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return c.commandError("clean package cache", res)
	}
	return nil
}

// privileged builds a mutating command, wrapped in sudo when the
// process is not running as root.
func (c *Client) privileged(name string, args ...string) runner.Cmd {
	cmd := runner.Cmd{Name: name, Args: args, Env: []string{nonInteractive}}
	if c.sudo {
		cmd.Args = append([]string{name}, args...)
		cmd.Name = "sudo"
	}
	return cmd
}

// commandError turns a failed command into an error, mapping lock
// contention to ErrLockHeld.
func (c *Client) commandError(op string, res runner.Result) error {
	if IsLockMessage(res.Stderr) {
		return fmt.Errorf("%s: %w", op, ErrLockHeld)
	}
	detail := firstLine(res.Stderr)
	if detail == "" {
		detail = fmt.Sprintf("exit status %d", res.ExitCode)
	}
	return fmt.Errorf("failed to %s: %s", op, detail)
}

// IsLockMessage reports whether command output indicates the dpkg or
// apt lock is held by another process.
func IsLockMessage(output string) bool {
	return strings.Contains(output, "/var/lib/dpkg/lock") ||
		strings.Contains(output, "Could not get lock")
}

// firstLine returns the first non-empty line of s.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}
