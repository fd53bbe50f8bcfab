package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkgops/dpm/internal/fsops"
)

type fakeSession struct {
	commands []string
	exitCode int
	output   string
	closed   bool
}

func (f *fakeSession) Run(ctx context.Context, argv []string, out io.Writer) (int, error) {
	f.commands = append(f.commands, strings.Join(argv, " "))
	if f.output != "" {
		io.WriteString(out, f.output)
	}
	return f.exitCode, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

type fakeDialer struct {
	session *fakeSession
	err     error
	dials   int
}

func (f *fakeDialer) Dial(ctx context.Context, host Host) (Session, error) {
	f.dials++
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

func testManager(t *testing.T, dialer Dialer) (*Manager, *Registry) {
	t.Helper()
	reg := NewRegistry(fsops.NewRealFS(), filepath.Join(t.TempDir(), "remote.json"))
	if err := reg.AddHost(buildHost("staging")); err != nil {
		t.Fatalf("AddHost failed: %v", err)
	}
	return NewManager(reg, dialer), reg
}

func TestManager_Connect(t *testing.T) {
	session := &fakeSession{}
	mgr, reg := testManager(t, &fakeDialer{session: session})

	if err := mgr.Connect(context.Background(), "staging"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if active, ok := reg.Active(); !ok || active.Name != "staging" {
		t.Errorf("Active() = %+v, %v", active, ok)
	}
	if len(session.commands) != 1 || session.commands[0] != "command -v dpm" {
		t.Errorf("commands = %v, want the dpm presence check", session.commands)
	}
	if mgr.Target() != "deploy@10.0.0.5:22" {
		t.Errorf("Target() = %q", mgr.Target())
	}
}

func TestManager_ConnectUnknownHost(t *testing.T) {
	mgr, _ := testManager(t, &fakeDialer{session: &fakeSession{}})

	if err := mgr.Connect(context.Background(), "ghost"); !errors.Is(err, ErrHostNotFound) {
		t.Errorf("expected ErrHostNotFound, got %v", err)
	}
}

func TestManager_ConnectRemoteToolMissing(t *testing.T) {
	session := &fakeSession{exitCode: 127}
	mgr, reg := testManager(t, &fakeDialer{session: session})

	err := mgr.Connect(context.Background(), "staging")
	if !errors.Is(err, ErrRemoteToolMissing) {
		t.Fatalf("expected ErrRemoteToolMissing, got %v", err)
	}
	if !session.closed {
		t.Error("session left open after a failed check")
	}
	if _, ok := reg.Active(); ok {
		t.Error("host marked active despite the failed check")
	}
}

func TestManager_ConnectDialFailure(t *testing.T) {
	mgr, _ := testManager(t, &fakeDialer{err: errors.New("connection refused")})

	if err := mgr.Connect(context.Background(), "staging"); err == nil {
		t.Error("expected a dial error")
	}
}

func TestManager_ExecNotConnected(t *testing.T) {
	mgr, _ := testManager(t, &fakeDialer{session: &fakeSession{}})

	_, err := mgr.Exec(context.Background(), []string{"install", "vim"}, io.Discard)
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestManager_ExecForwardsArgv(t *testing.T) {
	session := &fakeSession{output: "remote says hi\n"}
	mgr, _ := testManager(t, &fakeDialer{session: session})

	if err := mgr.Connect(context.Background(), "staging"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	var out bytes.Buffer
	code, err := mgr.Exec(context.Background(), []string{"install", "myco-core", "--yes"}, &out)
	if err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d", code)
	}
	if got := session.commands[len(session.commands)-1]; got != "dpm install myco-core --yes" {
		t.Errorf("forwarded %q", got)
	}
	if out.String() != "remote says hi\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestManager_ExecRedialsAfterRestart(t *testing.T) {
	session := &fakeSession{}
	dialer := &fakeDialer{session: session}
	mgr, reg := testManager(t, dialer)

	// An active selection from a previous process: registry set, no
	// live session.
	if err := reg.SetActive("staging"); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	if _, err := mgr.Exec(context.Background(), []string{"health"}, io.Discard); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if dialer.dials != 1 {
		t.Errorf("dials = %d, want 1", dialer.dials)
	}
}

func TestManager_Disconnect(t *testing.T) {
	session := &fakeSession{}
	mgr, _ := testManager(t, &fakeDialer{session: session})

	if err := mgr.Connect(context.Background(), "staging"); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := mgr.Disconnect(); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	if !session.closed {
		t.Error("session not closed")
	}
	if mgr.Connected() {
		t.Error("still connected after Disconnect")
	}
	if mgr.Target() != "local" {
		t.Errorf("Target() = %q, want local", mgr.Target())
	}
}

func TestShellJoin(t *testing.T) {
	got := shellJoin([]string{"install", "name with space", "it's"})
	want := `'install' 'name with space' 'it'\''s'`
	if got != want {
		t.Errorf("shellJoin = %s, want %s", got, want)
	}
}
