package helpers

import "testing"

func TestContentHashIgnoresWhitespaceAndCase(t *testing.T) {
	a := ContentHash("Troops  advance\n on the CAPITAL")
	b := ContentHash("troops advance on the capital")
	if a != b {
		t.Fatalf("expected equal hashes, got %s vs %s", a, b)
	}
	if a == ContentHash("troops retreat") {
		t.Fatalf("different content should hash differently")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 0); got != "hello" {
		t.Fatalf("max 0 should not truncate: %q", got)
	}
	if got := Truncate("hello", 3); got != "hel" {
		t.Fatalf("got %q", got)
	}
	// "é" is two bytes; cutting inside it must back off.
	if got := Truncate("café", 4); got != "caf" {
		t.Fatalf("split rune: %q", got)
	}
}
