// Package dpkg performs package removal and system repair.
//
// Removal is split into a safe path, which is gated by the safety
// policy and uses the ordinary package manager, and a force path,
// which escalates through increasingly aggressive dpkg invocations.
// Lock files are only ever waited on, never deleted.
package dpkg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pkgops/dpm/internal/apt"
	"github.com/pkgops/dpm/internal/deb"
	"github.com/pkgops/dpm/internal/runner"
	"github.com/pkgops/dpm/internal/safety"
)

// ErrAllAttemptsFailed indicates every force-removal escalation failed.
var ErrAllAttemptsFailed = errors.New("all removal attempts failed")

// defaultLockFiles are the lock paths the package manager contends on.
var defaultLockFiles = []string{
	"/var/lib/dpkg/lock",
	"/var/lib/dpkg/lock-frontend",
	"/var/cache/apt/archives/lock",
}

// forceFlags is the first force escalation stage.
var forceFlags = []string{
	"--force-depends",
	"--force-remove-essential",
}

// aggressiveFlags is the final force escalation stage.
var aggressiveFlags = []string{
	"--force-depends",
	"--force-remove-essential",
	"--force-remove-reinstreq",
	"--force-confmiss",
	"--force-confold",
}

// Tool executes removal and repair operations through a Runner.
type Tool struct {
	run    runner.Runner
	policy *safety.Policy

	// sudo prefixes commands when not running as root
	sudo bool

	// lockFiles are the paths polled for lock contention
	lockFiles []string
}

// NewTool creates a Tool gated by the given safety policy.
func NewTool(run runner.Runner, policy *safety.Policy) *Tool {
	return &Tool{
		run:       run,
		policy:    policy,
		sudo:      os.Geteuid() != 0,
		lockFiles: defaultLockFiles,
	}
}

// SafeRemove removes a package with the ordinary package manager. The
// safety policy is checked again here so a removal can never bypass it,
// regardless of how the caller built its plan.
func (t *Tool) SafeRemove(ctx context.Context, name string) error {
	if err := runner.ValidatePackageName(name); err != nil {
		return err
	}
	if !t.policy.CanRemove(name) {
		return fmt.Errorf("%w: %s is not removable", safety.ErrPolicyViolation, name)
	}

	res, err := t.run.Run(ctx, t.privileged("apt-get", "remove", "-y", name))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return t.commandError("remove "+name, res)
	}
	return nil
}

// ForceRemove removes a package directly through dpkg, escalating to
// more aggressive force flags when the first attempt fails. The safety
// policy still applies; force weakens dpkg's checks, not ours.
func (t *Tool) ForceRemove(ctx context.Context, name string) error {
	if err := runner.ValidatePackageName(name); err != nil {
		return err
	}
	if !t.policy.CanRemove(name) {
		return fmt.Errorf("%w: %s is not removable", safety.ErrPolicyViolation, name)
	}

	stages := [][]string{forceFlags, aggressiveFlags}
	for _, flags := range stages {
		args := append([]string{"--remove"}, flags...)
		args = append(args, name)
		res, err := t.run.Run(ctx, t.privileged("dpkg", args...))
		if err != nil {
			return err
		}
		if res.ExitCode == 0 {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrAllAttemptsFailed, name)
}

// Purge removes a package together with its configuration files. With
// force set, dpkg's dependency and essential checks are bypassed.
func (t *Tool) Purge(ctx context.Context, name string, force bool) error {
	if err := runner.ValidatePackageName(name); err != nil {
		return err
	}
	if !t.policy.CanRemove(name) {
		return fmt.Errorf("%w: %s is not removable", safety.ErrPolicyViolation, name)
	}

	args := []string{"--purge"}
	if force {
		args = append(args, "--force-depends", "--force-remove-essential", "--force-confmiss")
	}
	args = append(args, name)

	res, err := t.run.Run(ctx, t.privileged("dpkg", args...))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return t.commandError("purge "+name, res)
	}
	return nil
}

// FixBroken repairs interrupted package state. Pending configuration is
// finished first; if that is not enough, the package manager's broken
// dependency repair runs.
func (t *Tool) FixBroken(ctx context.Context) error {
	res, err := t.run.Run(ctx, t.privileged("dpkg", "--configure", "-a"))
	if err != nil {
		return err
	}
	if res.ExitCode == 0 {
		return nil
	}

	res, err = t.run.Run(ctx, t.privileged("apt-get", "install", "-f", "-y"))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return t.commandError("fix broken packages", res)
	}
	return nil
}

// Reconfigure re-runs a package's configuration step.
func (t *Tool) Reconfigure(ctx context.Context, name string) error {
	if err := runner.ValidatePackageName(name); err != nil {
		return err
	}
	res, err := t.run.Run(ctx, t.privileged("dpkg-reconfigure", name))
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return t.commandError("reconfigure "+name, res)
	}
	return nil
}

// ListBroken returns the packages stuck in a partial install state.
func (t *Tool) ListBroken(ctx context.Context) ([]deb.Package, error) {
	res, err := t.run.Run(ctx, runner.Cmd{Name: "dpkg", Args: []string{"-l"}})
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, t.commandError("list package states", res)
	}
	return parseBrokenLines(res.Stdout), nil
}

// DetectLocks returns the lock files currently present on disk.
func (t *Tool) DetectLocks() []string {
	var active []string
	for _, path := range t.lockFiles {
		if _, err := os.Stat(path); err == nil {
			active = append(active, path)
		}
	}
	return active
}

// WaitForLock polls until the package manager locks clear, sleeping
// delay between attempts. It returns ErrLockHeld when the locks are
// still present after the final attempt.
func (t *Tool) WaitForLock(ctx context.Context, attempts int, delay time.Duration) error {
	for i := 0; i < attempts; i++ {
		if len(t.DetectLocks()) == 0 {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("locks still held after %d attempts: %w", attempts, apt.ErrLockHeld)
}

// privileged builds a mutating command, wrapped in sudo when the
// process is not running as root.
func (t *Tool) privileged(name string, args ...string) runner.Cmd {
	cmd := runner.Cmd{Name: name, Args: args, Env: []string{"DEBIAN_FRONTEND=noninteractive"}}
	if t.sudo {
		cmd.Args = append([]string{name}, args...)
		cmd.Name = "sudo"
	}
	return cmd
}

// commandError turns a failed command into an error, mapping lock
// contention to apt.ErrLockHeld.
func (t *Tool) commandError(op string, res runner.Result) error {
	if apt.IsLockMessage(res.Stderr) {
		return fmt.Errorf("%s: %w", op, apt.ErrLockHeld)
	}
	return fmt.Errorf("failed to %s: exit status %d", op, res.ExitCode)
}
