package safety

import (
	"errors"
	"testing"
)

// fakeStore is an in-memory Store for policy tests.
type fakeStore struct {
	prefixes  []string
	removable []string
}

func (s *fakeStore) CustomPrefixes() []string    { return s.prefixes }
func (s *fakeStore) RemovablePackages() []string { return s.removable }

func (s *fakeStore) AddRemovablePackage(name string) error {
	s.removable = append(s.removable, name)
	return nil
}

func (s *fakeStore) RemoveRemovablePackage(name string) error {
	kept := s.removable[:0]
	for _, r := range s.removable {
		if r != name {
			kept = append(kept, r)
		}
	}
	s.removable = kept
	return nil
}

func TestPolicy_CanRemove(t *testing.T) {
	tests := []struct {
		name      string
		prefixes  []string
		removable []string
		pkgName   string
		want      bool
	}{
		{
			name:     "custom prefix match",
			prefixes: []string{"myco-"},
			pkgName:  "myco-editor",
			want:     true,
		},
		{
			name:      "whitelisted name",
			removable: []string{"oldtool"},
			pkgName:   "oldtool",
			want:      true,
		},
		{
			name:     "no prefix and not whitelisted",
			prefixes: []string{"myco-"},
			pkgName:  "vim",
			want:     false,
		},
		{
			name:      "whitelist is exact, not prefix",
			removable: []string{"oldtool"},
			pkgName:   "oldtool-extras",
			want:      false,
		},
		{
			name:    "nothing configured",
			pkgName: "anything",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&fakeStore{prefixes: tt.prefixes, removable: tt.removable})
			if got := p.CanRemove(tt.pkgName); got != tt.want {
				t.Errorf("CanRemove(%q) = %v, want %v", tt.pkgName, got, tt.want)
			}
		})
	}
}

func TestPolicy_AddRemovable_CriticalRejected(t *testing.T) {
	tests := []struct {
		name    string
		pkgName string
	}{
		{name: "exact critical name", pkgName: "libc6"},
		{name: "critical dash prefix", pkgName: "systemd-shim"},
		{name: "grub variant", pkgName: "grub-pc"},
		{name: "dpkg variant", pkgName: "dpkg-extra"},
		{name: "linux-image variant", pkgName: "linux-image-6.1.0-13-amd64"},
		{name: "sudo exact", pkgName: "sudo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			p := New(store)

			err := p.AddRemovable(tt.pkgName)
			if !errors.Is(err, ErrPolicyViolation) {
				t.Fatalf("AddRemovable(%q) = %v, want ErrPolicyViolation", tt.pkgName, err)
			}
			if len(store.removable) != 0 {
				t.Errorf("whitelist must stay empty after rejection, got %v", store.removable)
			}
		})
	}
}

func TestPolicy_AddRemovable_Allowed(t *testing.T) {
	tests := []struct {
		name    string
		pkgName string
	}{
		{name: "custom tool", pkgName: "myco-tool"},
		{name: "plain name", pkgName: "oldtool"},
		// substring of a critical name without the dash boundary is fine
		{name: "bash lookalike", pkgName: "bashful"},
		{name: "apt lookalike", pkgName: "aptitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			p := New(store)

			if err := p.AddRemovable(tt.pkgName); err != nil {
				t.Fatalf("AddRemovable(%q) = %v, want nil", tt.pkgName, err)
			}
			if !p.CanRemove(tt.pkgName) {
				t.Errorf("package should be removable after AddRemovable")
			}
		})
	}
}

func TestPolicy_RemoveRemovable(t *testing.T) {
	store := &fakeStore{removable: []string{"oldtool", "other"}}
	p := New(store)

	if err := p.RemoveRemovable("oldtool"); err != nil {
		t.Fatalf("RemoveRemovable: %v", err)
	}
	if p.CanRemove("oldtool") {
		t.Error("oldtool should no longer be removable")
	}
	if !p.CanRemove("other") {
		t.Error("other should still be removable")
	}
}

// The whitelist and the prefixes are the only two paths to removability;
// adding a name never makes unrelated names removable.
func TestPolicy_Monotonicity(t *testing.T) {
	store := &fakeStore{prefixes: []string{"myco-"}}
	p := New(store)

	if err := p.AddRemovable("oldtool"); err != nil {
		t.Fatalf("AddRemovable: %v", err)
	}

	for _, name := range []string{"vim", "libc6", "oldtool2", "myco"} {
		if p.CanRemove(name) {
			t.Errorf("CanRemove(%q) = true, want false", name)
		}
	}
}
