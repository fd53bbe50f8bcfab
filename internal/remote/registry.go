// Package remote forwards package operations to another machine over
// SSH. A host registry persists named targets; while one is active,
// every package command runs there instead of locally.
package remote

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkgops/dpm/internal/fsops"
)

// DefaultPort is the SSH port used when a host does not name one.
const DefaultPort = 22

// Host is one registered remote target.
type Host struct {
	// Name is the registry key for this host
	Name string `json:"name"`

	// Addr is the hostname or IP address
	Addr string `json:"addr"`

	// Port is the SSH port
	Port int `json:"port"`

	// User is the SSH login user
	User string `json:"user"`

	// KeyFile is an explicit private key path (default keys when empty)
	KeyFile string `json:"key_file,omitempty"`
}

// Target returns the user@addr:port form of the host.
func (h Host) Target() string {
	return fmt.Sprintf("%s@%s:%d", h.User, h.Addr, h.Port)
}

// ParseTarget splits a user@host[:port] argument into a Host. The name
// is left for the caller to fill in.
func ParseTarget(s string) (Host, error) {
	user, rest, ok := strings.Cut(s, "@")
	if !ok || user == "" || rest == "" {
		return Host{}, fmt.Errorf("invalid target %q, want user@host[:port]", s)
	}

	host := Host{User: user, Addr: rest, Port: DefaultPort}
	if addr, portStr, err := net.SplitHostPort(rest); err == nil {
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return Host{}, fmt.Errorf("invalid port in target %q", s)
		}
		host.Addr = addr
		host.Port = port
	}
	if host.Addr == "" {
		return Host{}, fmt.Errorf("invalid target %q, want user@host[:port]", s)
	}
	return host, nil
}

// registryFile is the persisted shape of remote.json.
type registryFile struct {
	// Hosts are the registered targets
	Hosts []Host `json:"hosts"`

	// Active names the host operations are forwarded to, if any
	Active string `json:"active,omitempty"`
}

// Registry persists named hosts and the active selection.
type Registry struct {
	fs   fsops.FS
	path string
	data registryFile
}

// NewRegistry creates a Registry persisting to path.
func NewRegistry(fs fsops.FS, path string) *Registry {
	return &Registry{fs: fs, path: path}
}

// Load reads the registry from disk. A missing file leaves it empty.
func (r *Registry) Load() error {
	data, err := r.fs.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read host registry: %w", err)
	}
	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse host registry: %w", err)
	}
	r.data = file
	return nil
}

// save writes the registry atomically.
func (r *Registry) save() error {
	data, err := json.MarshalIndent(r.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal host registry: %w", err)
	}
	if err := r.fs.AtomicWrite(r.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write host registry: %w", err)
	}
	return nil
}

// AddHost registers a host, replacing any existing entry with the same
// name, and persists the change.
func (r *Registry) AddHost(host Host) error {
	if host.Name == "" || host.Addr == "" || host.User == "" {
		return fmt.Errorf("host needs a name, an address, and a user")
	}
	if host.Port == 0 {
		host.Port = DefaultPort
	}

	replaced := false
	for i, existing := range r.data.Hosts {
		if existing.Name == host.Name {
			r.data.Hosts[i] = host
			replaced = true
			break
		}
	}
	if !replaced {
		r.data.Hosts = append(r.data.Hosts, host)
	}
	return r.save()
}

// RemoveHost drops a host and persists the change. Removing the active
// host deactivates it first.
func (r *Registry) RemoveHost(name string) error {
	kept := r.data.Hosts[:0]
	found := false
	for _, host := range r.data.Hosts {
		if host.Name == name {
			found = true
			continue
		}
		kept = append(kept, host)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrHostNotFound, name)
	}
	r.data.Hosts = kept
	if r.data.Active == name {
		r.data.Active = ""
	}
	return r.save()
}

// Hosts returns all registered hosts sorted by name.
func (r *Registry) Hosts() []Host {
	out := make([]Host, len(r.data.Hosts))
	copy(out, r.data.Hosts)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Host returns the named host.
func (r *Registry) Host(name string) (Host, bool) {
	for _, host := range r.data.Hosts {
		if host.Name == name {
			return host, true
		}
	}
	return Host{}, false
}

// SetActive marks a host as the forwarding target and persists the
// change. An empty name clears the selection.
func (r *Registry) SetActive(name string) error {
	if name != "" {
		if _, ok := r.Host(name); !ok {
			return fmt.Errorf("%w: %s", ErrHostNotFound, name)
		}
	}
	r.data.Active = name
	return r.save()
}

// Active returns the currently active host, if any.
func (r *Registry) Active() (Host, bool) {
	if r.data.Active == "" {
		return Host{}, false
	}
	return r.Host(r.data.Active)
}
