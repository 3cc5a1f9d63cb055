package id

import (
	"encoding/hex"
	"strings"
	"testing"
)

func TestRandomGenerator_NewID(t *testing.T) {
	g := NewRandomGenerator()

	first, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}

	if !strings.HasPrefix(first, Prefix) {
		t.Fatalf("expected prefix %q, got %q", Prefix, first)
	}
	suffix := strings.TrimPrefix(first, Prefix)
	if len(suffix) != 32 {
		t.Fatalf("expected 32 hex characters, got %d in %q", len(suffix), first)
	}
	if _, err := hex.DecodeString(suffix); err != nil {
		t.Fatalf("suffix is not hex: %v", err)
	}

	second, err := g.NewID()
	if err != nil {
		t.Fatalf("new id: %v", err)
	}
	if second == first {
		t.Fatalf("expected distinct ids, got %q twice", first)
	}
}
