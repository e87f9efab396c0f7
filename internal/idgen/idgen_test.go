package idgen

import (
	"regexp"
	"testing"
)

func TestNew_Length(t *testing.T) {
	id, err := New(Crew)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	wantLen := len(Crew) + Length
	if len(id) != wantLen {
		t.Errorf("New() length = %d, want %d (id=%q)", len(id), wantLen, id)
	}
}

func TestNew_KindPrefix(t *testing.T) {
	for _, k := range []Kind{Building, Diagram, Network, Stage, Precedence, Space, Line, Crew, Package, Link} {
		id, err := New(k)
		if err != nil {
			t.Fatalf("New(%q) error: %v", k, err)
		}
		pattern := regexp.MustCompile(`^` + regexp.QuoteMeta(string(k)) + `[a-zA-Z0-9]+$`)
		if !pattern.MatchString(id) {
			t.Errorf("New(%q) = %q, does not match expected pattern", k, id)
		}
	}
}

func TestNew_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := New(Package)
		if err != nil {
			t.Fatalf("New() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}

func TestSequence(t *testing.T) {
	next := Sequence()
	for _, want := range []struct {
		kind Kind
		id   string
	}{
		{Crew, "cr-0001"},
		{Crew, "cr-0002"},
		{Package, "pk-0001"},
		{Crew, "cr-0003"},
	} {
		got, err := next(want.kind)
		if err != nil {
			t.Fatalf("Sequence()(%q) error: %v", want.kind, err)
		}
		if got != want.id {
			t.Errorf("Sequence()(%q) = %q, want %q", want.kind, got, want.id)
		}
	}
}
