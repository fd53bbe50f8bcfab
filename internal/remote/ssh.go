package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// dialTimeout bounds the TCP connect and SSH handshake.
const dialTimeout = 10 * time.Second

// defaultKeyNames are tried under ~/.ssh when a host has no explicit
// key file.
var defaultKeyNames = []string{"id_ed25519", "id_rsa"}

// Session runs commands on a connected host.
type Session interface {
	// Run executes argv remotely, streaming combined output to out, and
	// returns the remote exit code.
	Run(ctx context.Context, argv []string, out io.Writer) (int, error)

	// Close tears the connection down.
	Close() error
}

// Dialer opens sessions to registered hosts.
type Dialer interface {
	Dial(ctx context.Context, host Host) (Session, error)
}

// SSHDialer connects over SSH with public-key auth. Host keys are
// verified against known_hosts; unknown hosts are rejected, never
// silently accepted.
type SSHDialer struct {
	knownHostsPath string
	sshDir         string
}

// NewSSHDialer creates a dialer using the invoking user's ~/.ssh.
func NewSSHDialer() *SSHDialer {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	sshDir := filepath.Join(home, ".ssh")
	return &SSHDialer{
		knownHostsPath: filepath.Join(sshDir, "known_hosts"),
		sshDir:         sshDir,
	}
}

// Dial opens an SSH connection to the host.
func (d *SSHDialer) Dial(ctx context.Context, host Host) (Session, error) {
	signers, err := d.loadSigners(host.KeyFile)
	if err != nil {
		return nil, err
	}

	hostKeyCallback, err := knownhosts.New(d.knownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", d.knownHostsPath, err)
	}

	config := &ssh.ClientConfig{
		User:            host.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signers...)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         dialTimeout,
	}

	addr := net.JoinHostPort(host.Addr, strconv.Itoa(host.Port))
	netConn, err := (&net.Dialer{Timeout: dialTimeout}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", addr, err)
	}
	conn, chans, reqs, err := ssh.NewClientConn(netConn, addr, config)
	if err != nil {
		netConn.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	return &sshSession{client: ssh.NewClient(conn, chans, reqs)}, nil
}

// loadSigners parses the host's key file, or the default keys when none
// is configured.
func (d *SSHDialer) loadSigners(keyFile string) ([]ssh.Signer, error) {
	paths := []string{keyFile}
	if keyFile == "" {
		paths = paths[:0]
		for _, name := range defaultKeyNames {
			paths = append(paths, filepath.Join(d.sshDir, name))
		}
	}

	var signers []ssh.Signer
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			continue
		}
		signers = append(signers, signer)
	}
	if len(signers) == 0 {
		return nil, ErrNoKey
	}
	return signers, nil
}

// sshSession wraps one ssh.Client; each Run opens a fresh channel.
type sshSession struct {
	client *ssh.Client
}

func (s *sshSession) Run(ctx context.Context, argv []string, out io.Writer) (int, error) {
	sess, err := s.client.NewSession()
	if err != nil {
		return -1, fmt.Errorf("failed to open session: %w", err)
	}
	defer sess.Close()

	sess.Stdout = out
	sess.Stderr = out

	done := make(chan error, 1)
	go func() { done <- sess.Run(shellJoin(argv)) }()

	select {
	case <-ctx.Done():
		sess.Signal(ssh.SIGKILL)
		return -1, ctx.Err()
	case err := <-done:
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitStatus(), nil
		}
		if err != nil {
			return -1, fmt.Errorf("remote command failed: %w", err)
		}
		return 0, nil
	}
}

func (s *sshSession) Close() error {
	return s.client.Close()
}

// shellJoin quotes argv for the remote shell. Every token is wrapped in
// single quotes with embedded quotes escaped, so package names or
// versions can never be interpreted as shell syntax.
func shellJoin(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}
