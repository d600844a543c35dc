package sanitizer

import (
	"testing"
)

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty string", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"no changes needed", "Team sync", "Team sync"},
		{"leading and trailing spaces", "  Team sync  ", "Team sync"},
		{"internal runs collapsed", "Team   sync    meeting", "Team sync meeting"},
		{"tabs and newlines", "Team\tsync\nmeeting", "Team sync meeting"},
		{"unicode preserved", "Réunion  d'équipe", "Réunion d'équipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.expected {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTrimAndNormalize_Idempotent(t *testing.T) {
	inputs := []string{"  a   b  ", "already clean", "", "\t\n"}
	for _, in := range inputs {
		once := TrimAndNormalize(in)
		twice := TrimAndNormalize(once)
		if once != twice {
			t.Errorf("TrimAndNormalize not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestUsernameKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercases", "Alice", "alice"},
		{"trims before lowering", "  Rutvik ", "rutvik"},
		{"collapses inner whitespace", "Mary  Ann", "mary ann"},
		{"already a key", "bob", "bob"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UsernameKey(tt.input)
			if got != tt.expected {
				t.Errorf("UsernameKey(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestUsernameKey_CaseVariantsCollide(t *testing.T) {
	variants := []string{"Alice", "alice", "ALICE", " aLiCe "}
	key := UsernameKey(variants[0])
	for _, v := range variants[1:] {
		if UsernameKey(v) != key {
			t.Errorf("expected %q to share key %q, got %q", v, key, UsernameKey(v))
		}
	}
}
