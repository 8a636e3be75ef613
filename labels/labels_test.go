package labels

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultLookup(t *testing.T) {
	table := Default()

	tests := []struct {
		category string
		code     int64
		want     string
		ok       bool
	}{
		{"action_state", 14, "WAIT", true},
		{"action_state", 1, "DEAD_LEFT", true},
		{"character", 14, "ICE_CLIMBERS", true},
		{"character_internal", 11, "NANA", true},
		{"stage", 32, "FINAL_DESTINATION", true},
		{"game_end_method", 7, "NO_CONTEST", true},
		{"action_state", 9999, "", false},
		{"no_such_category", 1, "", false},
	}
	for _, tt := range tests {
		got, ok := table.Lookup(tt.category, tt.code)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Lookup(%s, %d) = %q, %v, want %q, %v",
				tt.category, tt.code, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNilTableLookup(t *testing.T) {
	var table *Table
	if _, ok := table.Lookup("action_state", 14); ok {
		t.Error("nil table lookup should miss")
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "overlay.yaml")
	overlay := `
action_state:
  14: IDLE
item:
  48: BOB_OMB
`
	if err := os.WriteFile(path, []byte(overlay), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Overlay wins on conflict.
	if got, _ := table.Lookup("action_state", 14); got != "IDLE" {
		t.Errorf("Lookup(action_state, 14) = %q, want IDLE", got)
	}
	// Untouched entries survive.
	if got, _ := table.Lookup("action_state", 1); got != "DEAD_LEFT" {
		t.Errorf("Lookup(action_state, 1) = %q, want DEAD_LEFT", got)
	}
	// New categories merge in.
	if got, _ := table.Lookup("item", 48); got != "BOB_OMB" {
		t.Errorf("Lookup(item, 48) = %q, want BOB_OMB", got)
	}
	// The shared default is not mutated by the overlay.
	if got, _ := Default().Lookup("action_state", 14); got != "WAIT" {
		t.Errorf("Default() Lookup(action_state, 14) = %q, want WAIT", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() should fail for a missing file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("action_state: [not, a, map]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() should fail for malformed tables")
	}
}
