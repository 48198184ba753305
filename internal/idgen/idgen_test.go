package idgen

import "testing"

func TestNewProducesDistinctSortableIDs(t *testing.T) {
	g := New()
	a := g.New()
	b := g.New()
	if a == b {
		t.Fatal("expected distinct ids on successive calls")
	}
	if len(a) != 26 || len(b) != 26 {
		t.Fatalf("expected 26-char ULIDs, got %d and %d", len(a), len(b))
	}
}

func TestNewIDPackageConvenience(t *testing.T) {
	if NewID() == "" {
		t.Fatal("expected non-empty id")
	}
}
