package util

import "testing"

func TestFirstNonEmpty(t *testing.T) {
	if got := FirstNonEmpty("fallback", "", "  ", "winner", "later"); got != "winner" {
		t.Errorf("got %q, want winner", got)
	}
	if got := FirstNonEmpty("fallback"); got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
	if got := FirstNonEmpty("fallback", "", ""); got != "fallback" {
		t.Errorf("got %q, want fallback", got)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  MixedCase  "); got != "mixedcase" {
		t.Errorf("got %q", got)
	}
}
