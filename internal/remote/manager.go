package remote

import (
	"context"
	"fmt"
	"io"
)

// Manager tracks the active host and forwards dpm invocations to it.
// The active selection persists in the registry, so a connection set up
// in one invocation carries to the next; the SSH session itself is
// redialed on demand.
type Manager struct {
	registry *Registry
	dialer   Dialer
	session  Session
}

// NewManager creates a Manager over the given registry.
func NewManager(registry *Registry, dialer Dialer) *Manager {
	return &Manager{registry: registry, dialer: dialer}
}

// Connect dials the named host, verifies dpm is installed there, and
// marks it active.
func (m *Manager) Connect(ctx context.Context, name string) error {
	host, ok := m.registry.Host(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrHostNotFound, name)
	}

	session, err := m.dialer.Dial(ctx, host)
	if err != nil {
		return err
	}

	code, err := session.Run(ctx, []string{"command", "-v", "dpm"}, io.Discard)
	if err != nil || code != 0 {
		session.Close()
		if err != nil {
			return fmt.Errorf("failed to check remote host: %w", err)
		}
		return fmt.Errorf("%w: %s", ErrRemoteToolMissing, host.Target())
	}

	if m.session != nil {
		m.session.Close()
	}
	m.session = session
	return m.registry.SetActive(name)
}

// Disconnect clears the active host and closes any open session.
func (m *Manager) Disconnect() error {
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
	return m.registry.SetActive("")
}

// Connected reports whether a host is active.
func (m *Manager) Connected() bool {
	_, ok := m.registry.Active()
	return ok
}

// Target describes where operations execute: the active host, or
// "local".
func (m *Manager) Target() string {
	if host, ok := m.registry.Active(); ok {
		return host.Target()
	}
	return "local"
}

// Exec runs `dpm argv...` on the active host, streaming combined output
// to out, and returns the remote exit code. The session is dialed
// lazily when this process has not connected yet.
func (m *Manager) Exec(ctx context.Context, argv []string, out io.Writer) (int, error) {
	host, ok := m.registry.Active()
	if !ok {
		return -1, ErrNotConnected
	}

	if m.session == nil {
		session, err := m.dialer.Dial(ctx, host)
		if err != nil {
			return -1, err
		}
		m.session = session
	}

	return m.session.Run(ctx, append([]string{"dpm"}, argv...), out)
}

// Close releases the SSH session without touching the active selection.
func (m *Manager) Close() error {
	if m.session == nil {
		return nil
	}
	err := m.session.Close()
	m.session = nil
	return err
}
