// Package graph holds the in-memory object graph of one building: its space
// tree, precedence diagrams, lines with their crews and packages, and the
// links between packages.
//
// The graph enforces its own structural invariants (no self-loops, duplicate
// edges or cycles in precedences and links; crew/stage consistency) and keeps
// an owned queue of structural edits that the scheduling engine drains.
// It is not safe for concurrent use.
package graph

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a referenced entity is not registered.
	ErrNotFound = errors.New("graph: not found")
	// ErrDuplicate is returned when an id or an edge is already registered.
	ErrDuplicate = errors.New("graph: duplicate")
	// ErrSelfLoop is returned for an edge whose endpoints are the same entity.
	ErrSelfLoop = errors.New("graph: self loop")
	// ErrCycle is returned when an edge would close a cycle.
	ErrCycle = errors.New("graph: cycle")
	// ErrSameCrew is returned for a link between two packages of one crew.
	ErrSameCrew = errors.New("graph: packages belong to the same crew")
	// ErrInvalid is returned for any other structural violation.
	ErrInvalid = errors.New("graph: invalid")
)

func notFound(kind, id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, kind, id)
}

// Building is the root of the graph.
type Building struct {
	ID        string
	Name      string
	FirstDate time.Time

	Units    []*Space
	Diagrams []*Diagram
	Lines    []*Line

	spaces      map[string]*Space
	diagrams    map[string]*Diagram
	networks    map[string]*Network
	stages      map[string]*Stage
	precedences map[string]*Precedence
	lines       map[string]*Line
	crews       map[string]*Crew
	packages    map[string]*Package
	links       map[string]*Link

	changes ChangeQueue
}

// NewBuilding returns an empty building graph.
func NewBuilding(id, name string, firstDate time.Time) *Building {
	return &Building{
		ID:          id,
		Name:        name,
		FirstDate:   firstDate,
		spaces:      make(map[string]*Space),
		diagrams:    make(map[string]*Diagram),
		networks:    make(map[string]*Network),
		stages:      make(map[string]*Stage),
		precedences: make(map[string]*Precedence),
		lines:       make(map[string]*Line),
		crews:       make(map[string]*Crew),
		packages:    make(map[string]*Package),
		links:       make(map[string]*Link),
	}
}

// Changes returns the building's structural change queue.
func (b *Building) Changes() *ChangeQueue { return &b.changes }

func (b *Building) Space(id string) *Space           { return b.spaces[id] }
func (b *Building) Diagram(id string) *Diagram       { return b.diagrams[id] }
func (b *Building) Network(id string) *Network       { return b.networks[id] }
func (b *Building) Stage(id string) *Stage           { return b.stages[id] }
func (b *Building) Precedence(id string) *Precedence { return b.precedences[id] }
func (b *Building) Line(id string) *Line             { return b.lines[id] }
func (b *Building) Crew(id string) *Crew             { return b.crews[id] }
func (b *Building) Package(id string) *Package       { return b.packages[id] }
func (b *Building) Link(id string) *Link             { return b.links[id] }

// HasCrew reports whether a crew with the given id is registered.
func (b *Building) HasCrew(id string) bool {
	_, ok := b.crews[id]
	return ok
}

// HasPackage reports whether a package with the given id is registered.
func (b *Building) HasPackage(id string) bool {
	_, ok := b.packages[id]
	return ok
}

// LinesByNetwork returns the lines bound to the given network, in building order.
func (b *Building) LinesByNetwork(networkID string) []*Line {
	var out []*Line
	for _, l := range b.Lines {
		if l.Network.ID == networkID {
			out = append(out, l)
		}
	}
	return out
}

// Crews returns every crew of the building in line order.
func (b *Building) Crews() []*Crew {
	var out []*Crew
	for _, l := range b.Lines {
		out = append(out, l.Crews...)
	}
	return out
}

// Links returns every registered link in package order.
func (b *Building) Links() []*Link {
	var out []*Link
	for _, c := range b.Crews() {
		for _, p := range c.Packages {
			out = append(out, p.Outgoing...)
		}
	}
	return out
}

func (b *Building) idTaken(id string) bool {
	if id == "" {
		return true
	}
	_, a := b.spaces[id]
	_, c := b.diagrams[id]
	_, d := b.networks[id]
	_, e := b.stages[id]
	_, f := b.precedences[id]
	_, g := b.lines[id]
	_, h := b.crews[id]
	_, i := b.packages[id]
	_, j := b.links[id]
	return a || c || d || e || f || g || h || i || j
}

func (b *Building) checkID(kind, id string) error {
	if b.idTaken(id) {
		return fmt.Errorf("%w: %s id %q", ErrDuplicate, kind, id)
	}
	return nil
}
