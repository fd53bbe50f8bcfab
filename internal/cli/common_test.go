package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/pkgops/dpm/internal/deb"
)

func TestFormatJSON(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
	}{
		{"simple map", map[string]string{"key": "value"}},
		{"empty map", map[string]string{}},
		{"array", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatJSON(tt.input)
			if err != nil {
				t.Fatalf("formatJSON() error = %v", err)
			}

			var v interface{}
			if err := json.Unmarshal([]byte(got), &v); err != nil {
				t.Errorf("formatJSON() produced invalid JSON: %v", err)
			}
		})
	}
}

func TestFormatError(t *testing.T) {
	got := formatError(os.ErrNotExist)
	if got == "" {
		t.Error("formatError() returned empty string")
	}
	if !strings.Contains(got, "Error:") {
		t.Errorf("formatError() = %q, expected to contain 'Error:'", got)
	}
}

func TestOutputJSON(t *testing.T) {
	data := map[string]string{"test": "value"}

	output := captureStdout(t, func() {
		if err := outputJSON(data); err != nil {
			t.Errorf("outputJSON() error = %v", err)
		}
	})

	var v interface{}
	if err := json.Unmarshal([]byte(output), &v); err != nil {
		t.Errorf("outputJSON() produced invalid JSON: %v", err)
	}
}

func TestPrintFunctions(t *testing.T) {
	oldStdout := os.Stdout
	oldStderr := os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	PrintSuccess("Success message")
	PrintWarning("Warning message")
	PrintError("Error message")
	PrintInfo("Info message")

	_ = wOut.Close()
	_ = wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var bufOut, bufErr bytes.Buffer
	_, _ = bufOut.ReadFrom(rOut)
	_, _ = bufErr.ReadFrom(rErr)

	if bufOut.String() == "" {
		t.Error("PrintInfo should write to stdout")
	}
	if bufErr.String() == "" {
		t.Error("PrintError should write to stderr")
	}
}

func TestPrintCount(t *testing.T) {
	if got := PrintCount(1, "package", "packages"); got != "1 package" {
		t.Errorf("PrintCount(1) = %q", got)
	}
	if got := PrintCount(3, "package", "packages"); got != "3 packages" {
		t.Errorf("PrintCount(3) = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{2048, "2.0 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPackageType(t *testing.T) {
	tests := []struct {
		name string
		pkg  deb.Package
		want string
	}{
		{"metapackage", deb.Package{Name: "meta-dev", Meta: true}, "metapackage"},
		{"custom", deb.Package{Name: "myco-app", Custom: true}, "custom"},
		{"meta wins over custom", deb.Package{Name: "myco-all", Meta: true, Custom: true}, "metapackage"},
		{"system", deb.Package{Name: "libssl3"}, "system"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := packageType(tt.pkg); got != tt.want {
				t.Errorf("packageType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPackageLines(t *testing.T) {
	pkgs := []deb.Package{
		{Name: "myco-app", Version: "2.0.1"},
		{Name: "myco-lib"},
	}
	got := packageLines(pkgs)
	if len(got) != 2 || got[0] != "myco-app 2.0.1" || got[1] != "myco-lib" {
		t.Errorf("packageLines() = %v", got)
	}
}
