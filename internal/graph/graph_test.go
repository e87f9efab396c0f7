package graph

import (
	"errors"
	"testing"
	"time"
)

// mustOK fails the test on a non-nil error.
func mustOK(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// newFixture builds a building with one unit split into two floors, one
// network of two stages with a precedence, one line and a crew per stage
// holding one package per floor.
func newFixture(t *testing.T) *Building {
	t.Helper()
	b := NewBuilding("bl-1", "Tower", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	_, err := b.AddUnit("sp-u", "Unit")
	mustOK(t, err)
	_, err = b.AddChild("sp-u", "sp-f1", "Floor 1")
	mustOK(t, err)
	_, err = b.AddChild("sp-u", "sp-f2", "Floor 2")
	mustOK(t, err)
	_, err = b.AddDiagram("dg-1", "Main")
	mustOK(t, err)
	_, err = b.AppendNetwork("dg-1", "nw-1", "Structure")
	mustOK(t, err)
	_, err = b.AppendStage("nw-1", "st-a", "Masonry", 5, 0)
	mustOK(t, err)
	_, err = b.AppendStage("nw-1", "st-b", "Plaster", 3, 0)
	mustOK(t, err)
	_, err = b.AddPrecedence("pr-1", "st-a", "st-b", 0, 0)
	mustOK(t, err)
	b.Changes().Drain()

	_, err = b.AddLine("ln-1", "nw-1", "sp-u")
	mustOK(t, err)
	_, err = b.AddCrew("ln-1", "cr-a", "st-a")
	mustOK(t, err)
	_, err = b.AddCrew("ln-1", "cr-b", "st-b")
	mustOK(t, err)
	_, err = b.AddPackage("cr-a", "pk-a1", "sp-f1", 1, 5)
	mustOK(t, err)
	_, err = b.AddPackage("cr-a", "pk-a2", "sp-f2", 6, 10)
	mustOK(t, err)
	_, err = b.AddPackage("cr-b", "pk-b1", "sp-f1", 6, 8)
	mustOK(t, err)
	_, err = b.AddPackage("cr-b", "pk-b2", "sp-f2", 11, 13)
	mustOK(t, err)
	return b
}

func TestSpaceTree(t *testing.T) {
	b := newFixture(t)
	u := b.Space("sp-u")
	if got := len(u.Leaves()); got != 2 {
		t.Fatalf("Leaves() = %d spaces, want 2", got)
	}
	f1 := b.Space("sp-f1")
	if f1.Level != 1 || f1.Root() != u {
		t.Errorf("floor level=%d root=%v, want level 1 under unit", f1.Level, f1.Root().ID)
	}
	if _, err := b.AddChild("sp-missing", "sp-x", "X"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddChild(missing parent) err = %v, want ErrNotFound", err)
	}
	if _, err := b.AddUnit("sp-u", "again"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("AddUnit(duplicate) err = %v, want ErrDuplicate", err)
	}
}

func TestAddPrecedence_Invariants(t *testing.T) {
	b := newFixture(t)
	_, err := b.AppendStage("nw-1", "st-c", "Paint", 2, 0)
	mustOK(t, err)
	_, err = b.AddPrecedence("pr-2", "st-b", "st-c", 0, 0)
	mustOK(t, err)

	_, err = b.AddDiagram("dg-2", "Other")
	mustOK(t, err)
	_, err = b.AppendNetwork("dg-2", "nw-2", "Finish")
	mustOK(t, err)
	_, err = b.AppendStage("nw-2", "st-x", "Floors", 2, 0)
	mustOK(t, err)

	for _, tc := range []struct {
		name     string
		src, dst string
		want     error
	}{
		{"self loop", "st-a", "st-a", ErrSelfLoop},
		{"duplicate", "st-a", "st-b", ErrDuplicate},
		{"cycle", "st-c", "st-a", ErrCycle},
		{"cross diagram", "st-a", "st-x", ErrInvalid},
		{"missing stage", "st-a", "st-zz", ErrNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.AddPrecedence("pr-new", tc.src, tc.dst, 0, 0)
			if !errors.Is(err, tc.want) {
				t.Errorf("AddPrecedence(%s, %s) err = %v, want %v", tc.src, tc.dst, err, tc.want)
			}
		})
	}
}

func TestAddLink_Invariants(t *testing.T) {
	b := newFixture(t)
	l, err := b.AddLink("lk-1", "pk-a1", "pk-b1", 0)
	mustOK(t, err)
	if !l.Locked {
		t.Error("new link should default to locked")
	}

	for _, tc := range []struct {
		name     string
		src, dst string
		want     error
	}{
		{"self loop", "pk-a1", "pk-a1", ErrSelfLoop},
		{"same crew", "pk-a1", "pk-a2", ErrSameCrew},
		{"duplicate", "pk-a1", "pk-b1", ErrDuplicate},
		{"cycle", "pk-b1", "pk-a1", ErrCycle},
		{"missing package", "pk-a1", "pk-nope", ErrNotFound},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := b.AddLink("lk-new", tc.src, tc.dst, 0)
			if !errors.Is(err, tc.want) {
				t.Errorf("AddLink(%s, %s) err = %v, want %v", tc.src, tc.dst, err, tc.want)
			}
		})
	}
}

func TestRemovePackage_DropsLinks(t *testing.T) {
	b := newFixture(t)
	_, err := b.AddLink("lk-1", "pk-a2", "pk-b2", 1)
	mustOK(t, err)
	mustOK(t, b.RemovePackage("pk-a2"))
	if b.Link("lk-1") != nil {
		t.Error("link should be removed with its source package")
	}
	if got := len(b.Package("pk-b2").Incoming); got != 0 {
		t.Errorf("dest still has %d incoming links", got)
	}
	if b.HasPackage("pk-a2") {
		t.Error("package still registered")
	}
}

func TestCrewPositionsStayContiguous(t *testing.T) {
	b := newFixture(t)
	c, err := b.InsertCrew("ln-1", 1, "cr-a2", "st-a")
	mustOK(t, err)
	if c.Position() != 1 || b.Crew("cr-b").Position() != 2 {
		t.Fatalf("positions after insert: new=%d b=%d", c.Position(), b.Crew("cr-b").Position())
	}
	mustOK(t, b.RemoveCrew("cr-a"))
	for i, c := range b.Line("ln-1").Crews {
		if c.Position() != i {
			t.Errorf("crew %s position = %d, want %d", c.ID, c.Position(), i)
		}
	}
	if b.HasPackage("pk-a1") {
		t.Error("packages of removed crew should be unregistered")
	}
}

func TestInsertCrew_ForeignStage(t *testing.T) {
	b := newFixture(t)
	_, err := b.AppendNetwork("dg-1", "nw-2", "Finish")
	mustOK(t, err)
	_, err = b.AppendStage("nw-2", "st-x", "Floors", 2, 0)
	mustOK(t, err)
	if _, err := b.AddCrew("ln-1", "cr-x", "st-x"); !errors.Is(err, ErrInvalid) {
		t.Errorf("AddCrew(foreign stage) err = %v, want ErrInvalid", err)
	}
}

func TestRemoveStage_DetachesPrecedences(t *testing.T) {
	b := newFixture(t)
	_, err := b.RemoveStage("st-a")
	mustOK(t, err)
	if b.Precedence("pr-1") != nil {
		t.Error("precedence should be removed with its stage")
	}
	if got := len(b.Stage("st-b").Incoming); got != 0 {
		t.Errorf("st-b has %d incoming precedences, want 0", got)
	}
	changes := b.Changes().Drain()
	if len(changes) != 1 || changes[0].Kind != StageRemoved || changes[0].Stage.ID != "st-a" {
		t.Errorf("changes = %+v, want one StageRemoved for st-a", changes)
	}
	if b.Changes().Len() != 0 {
		t.Error("queue should be empty after Drain")
	}
}

func TestChangeQueue_RecordsStructuralEdits(t *testing.T) {
	b := NewBuilding("bl-1", "Tower", time.Time{})
	_, err := b.AddDiagram("dg-1", "Main")
	mustOK(t, err)
	_, err = b.AppendNetwork("dg-1", "nw-1", "Structure")
	mustOK(t, err)
	_, err = b.AppendStage("nw-1", "st-a", "Masonry", 5, 0)
	mustOK(t, err)
	_, err = b.UpdateStage("st-a", 5, 0)
	mustOK(t, err)
	_, err = b.UpdateStage("st-a", 6, 0)
	mustOK(t, err)

	var kinds []ChangeKind
	for _, c := range b.Changes().Drain() {
		kinds = append(kinds, c.Kind)
	}
	want := []ChangeKind{NetworkInserted, StageInserted, StageResized}
	if len(kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("kinds[%d] = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestRemoveSpace_Subtree(t *testing.T) {
	b := newFixture(t)
	_, err := b.AddLink("lk-1", "pk-a1", "pk-b2", 0)
	mustOK(t, err)
	mustOK(t, b.RemoveSpace("sp-f1"))
	if b.Space("sp-f1") != nil || b.HasPackage("pk-a1") || b.HasPackage("pk-b1") {
		t.Error("floor and its packages should be removed")
	}
	if b.Link("lk-1") != nil {
		t.Error("link from removed package should be removed")
	}
	mustOK(t, b.RemoveSpace("sp-u"))
	if len(b.Lines) != 0 || len(b.Units) != 0 || b.HasCrew("cr-a") {
		t.Error("removing the unit should remove its line and crews")
	}
}

func TestExport(t *testing.T) {
	b := newFixture(t)
	_, err := b.AddLink("lk-1", "pk-a1", "pk-b1", 2)
	mustOK(t, err)
	b.Link("lk-1").Locked = false

	ds := Export(b)
	if len(ds.Spaces) != 3 || len(ds.Stages) != 2 || len(ds.Crews) != 2 || len(ds.Packages) != 4 || len(ds.Links) != 1 {
		t.Fatalf("unexpected dataset sizes: %d spaces %d stages %d crews %d packages %d links",
			len(ds.Spaces), len(ds.Stages), len(ds.Crews), len(ds.Packages), len(ds.Links))
	}
	if ds.Spaces[2].ParentID != "sp-u" || ds.Spaces[2].Position != 1 {
		t.Errorf("floor 2 row = %+v", ds.Spaces[2])
	}
	if ds.Lines[0].DiagramID != "dg-1" {
		t.Errorf("line diagram = %q, want dg-1", ds.Lines[0].DiagramID)
	}
	if ds.Links[0].Locked || ds.Links[0].Latency != 2 {
		t.Errorf("link row = %+v", ds.Links[0])
	}
	for _, p := range ds.Packages {
		if p.StageID == "" || p.CrewID == "" {
			t.Errorf("package row missing references: %+v", p)
		}
	}
}
