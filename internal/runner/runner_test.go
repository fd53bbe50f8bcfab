package runner

import (
	"context"
	"strings"
	"testing"
)

func TestSystemRunner_CapturesStdout(t *testing.T) {
	r := NewSystemRunner()
	res, err := r.Run(context.Background(), Cmd{Name: "echo", Args: []string{"hello"}})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := strings.TrimSpace(res.Stdout); got != "hello" {
		t.Errorf("Stdout = %q, want %q", got, "hello")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestSystemRunner_NonZeroExitIsNotError(t *testing.T) {
	r := NewSystemRunner()
	res, err := r.Run(context.Background(), Cmd{Name: "sh", Args: []string{"-c", "exit 3"}})
	if err != nil {
		t.Fatalf("Run() error = %v, want nil for non-zero exit", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
}

func TestSystemRunner_MissingBinaryIsError(t *testing.T) {
	r := NewSystemRunner()
	_, err := r.Run(context.Background(), Cmd{Name: "dpm-no-such-binary-xyzzy"})
	if err == nil {
		t.Fatal("Run() error = nil, want error for missing binary")
	}
}

func TestSystemRunner_Stdin(t *testing.T) {
	r := NewSystemRunner()
	res, err := r.Run(context.Background(), Cmd{Name: "cat", Stdin: "piped\n"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Stdout != "piped\n" {
		t.Errorf("Stdout = %q, want %q", res.Stdout, "piped\n")
	}
}

func TestSystemRunner_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewSystemRunner()
	_, err := r.Run(ctx, Cmd{Name: "sleep", Args: []string{"10"}})
	if err == nil {
		t.Fatal("Run() error = nil, want error for cancelled context")
	}
}

func TestValidatePackageName(t *testing.T) {
	tests := []struct {
		name    string
		pkg     string
		wantErr bool
	}{
		{"simple", "vim", false},
		{"with digits", "libc6", false},
		{"with dots", "python3.11", false},
		{"with plus", "g++-12", false},
		{"with hyphen", "base-files", false},
		{"single char", "a", true},
		{"empty", "", true},
		{"leading hyphen", "-oops", true},
		{"uppercase", "Vim", true},
		{"shell metachar", "vim;rm", true},
		{"space", "vim extra", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePackageName(tt.pkg)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePackageName(%q) error = %v, wantErr %v", tt.pkg, err, tt.wantErr)
			}
		})
	}
}
