// Package propagation persists the effects of scheduling engine calls.
//
// A caller captures a Snapshot of the crews and packages the engine may touch,
// lets the engine mutate the graph in memory, then calls ApplyAndPersist. The
// synchronizer diffs the scope against the snapshot and writes only the delta
// in one transaction:
//
//	created = after - before
//	deleted = before - registered
//	moved   = before ∩ after with a different state
package propagation

import "github.com/IgorAraujoV/agilean-core-api/internal/graph"

// ScopeKind selects which lines a snapshot walks.
type ScopeKind int

const (
	ScopeNetwork ScopeKind = iota + 1
	ScopeDiagram
	ScopeLine
	ScopeBuilding
)

// Scope names the part of a building an engine call starts from. A snapshot
// of a scope also covers every line reachable from it through package links.
type Scope struct {
	Kind ScopeKind
	ID   string
}

// NetworkScope covers every line bound to a network.
func NetworkScope(networkID string) Scope { return Scope{Kind: ScopeNetwork, ID: networkID} }

// DiagramScope covers every line bound to any network of a diagram. Use it
// for precedence edits, which may cross networks.
func DiagramScope(diagramID string) Scope { return Scope{Kind: ScopeDiagram, ID: diagramID} }

// LineScope covers a single line.
func LineScope(lineID string) Scope { return Scope{Kind: ScopeLine, ID: lineID} }

// BuildingScope covers every line of the building.
func BuildingScope() Scope { return Scope{Kind: ScopeBuilding} }

// lines returns the scope's own lines followed by every line reachable from
// them through package links.
func (s Scope) lines(b *graph.Building) []*graph.Line {
	if s.Kind == ScopeBuilding {
		return b.Lines
	}
	return reach(s.seedLines(b))
}

func (s Scope) seedLines(b *graph.Building) []*graph.Line {
	switch s.Kind {
	case ScopeNetwork:
		return b.LinesByNetwork(s.ID)
	case ScopeDiagram:
		d := b.Diagram(s.ID)
		if d == nil {
			return nil
		}
		var out []*graph.Line
		for _, n := range d.Networks {
			out = append(out, b.LinesByNetwork(n.ID)...)
		}
		return out
	case ScopeLine:
		if l := b.Line(s.ID); l != nil {
			return []*graph.Line{l}
		}
		return nil
	}
	return nil
}

// reach extends lines with the lines of every link destination, transitively.
func reach(lines []*graph.Line) []*graph.Line {
	seen := make(map[*graph.Line]bool, len(lines))
	var out []*graph.Line
	add := func(l *graph.Line) {
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	for _, l := range lines {
		add(l)
	}
	for i := 0; i < len(out); i++ {
		for _, c := range out[i].Crews {
			for _, p := range c.Packages {
				for _, lk := range p.Outgoing {
					add(lk.Dest.Crew.Line)
				}
			}
		}
	}
	return out
}

type crewState struct {
	LineID   string
	StageID  string
	Position int
}

type packageState struct {
	CrewID string
	Start  int
	End    int
}

// Snapshot is an immutable capture of crew and package state within a scope.
type Snapshot struct {
	scope    Scope
	lineIDs  []string
	crews    map[string]crewState
	packages map[string]packageState
}

// Capture records the state of every crew and package reachable in scope.
func Capture(b *graph.Building, scope Scope) *Snapshot {
	s := &Snapshot{
		scope:    scope,
		crews:    make(map[string]crewState),
		packages: make(map[string]packageState),
	}
	for _, l := range scope.lines(b) {
		s.lineIDs = append(s.lineIDs, l.ID)
		for i, c := range l.Crews {
			s.crews[c.ID] = crewState{LineID: l.ID, StageID: c.Stage.ID, Position: i}
			for _, p := range c.Packages {
				s.packages[p.ID] = packageState{CrewID: c.ID, Start: p.Start, End: p.End}
			}
		}
	}
	return s
}

// lines returns the captured lines still in b together with every line the
// scope reaches now.
func (s *Snapshot) lines(b *graph.Building) []*graph.Line {
	if s.scope.Kind == ScopeBuilding {
		return b.Lines
	}
	var seeds []*graph.Line
	for _, id := range s.lineIDs {
		if l := b.Line(id); l != nil {
			seeds = append(seeds, l)
		}
	}
	return reach(append(seeds, s.scope.seedLines(b)...))
}

// Scope returns the scope the snapshot was captured with.
func (s *Snapshot) Scope() Scope { return s.scope }

// Len returns the number of crews and packages captured.
func (s *Snapshot) Len() (crews, packages int) {
	return len(s.crews), len(s.packages)
}
