// Package runner provides subprocess execution behind a small port.
//
// Every apt, dpkg, and diagnostic subprocess in dpm goes through the
// Runner interface, so higher layers never touch os/exec directly and
// tests can serve canned command output instead of spawning processes.
//
// Key features:
//   - Context-driven cancellation and timeouts
//   - Non-zero exit codes returned as data, not errors
//   - Package-name validation before anything reaches a shell
//   - Testable via the Runner interface
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Cmd describes one subprocess invocation.
type Cmd struct {
	// Name is the binary to run (resolved via PATH)
	Name string

	// Args are the arguments, one per element, never shell-joined
	Args []string

	// Env holds extra KEY=VALUE entries appended to the environment
	Env []string

	// Stdin is fed to the process when non-empty
	Stdin string
}

// Result captures what a finished subprocess produced.
type Result struct {
	// Stdout is the captured standard output
	Stdout string

	// Stderr is the captured standard error
	Stderr string

	// ExitCode is the process exit status (0 on success)
	ExitCode int
}

// Runner executes subprocesses. A command that starts and exits non-zero
// is a successful Run; only failure to start or a cancelled context is
// an error.
type Runner interface {
	Run(ctx context.Context, cmd Cmd) (Result, error)
}

// SystemRunner implements Runner with real processes.
type SystemRunner struct{}

// NewSystemRunner creates a new SystemRunner.
func NewSystemRunner() *SystemRunner {
	return &SystemRunner{}
}

// Run executes the command and waits for it to finish.
func (r *SystemRunner) Run(ctx context.Context, cmd Cmd) (Result, error) {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}

	err := c.Run()
	result := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("failed to run %s: %w", cmd.Name, err)
	}
	return result, nil
}

// ValidatePackageName checks a Debian package name before it is passed
// to a subprocess. Valid names are at least two characters, start with
// an alphanumeric, and contain only lowercase letters, digits, and the
// characters +, -, and period.
func ValidatePackageName(name string) error {
	if len(name) < 2 {
		return fmt.Errorf("invalid package name %q: too short", name)
	}
	if !isAlnum(name[0]) {
		return fmt.Errorf("invalid package name %q: must start with a letter or digit", name)
	}
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if isAlnum(ch) || ch == '+' || ch == '-' || ch == '.' {
			continue
		}
		return fmt.Errorf("invalid package name %q: character %q not allowed", name, ch)
	}
	return nil
}

func isAlnum(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9')
}
