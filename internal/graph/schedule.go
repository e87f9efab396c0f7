package graph

import (
	"fmt"
	"sort"

	"github.com/IgorAraujoV/agilean-core-api/internal/model"
)

// Line binds a network to a unit and owns the crews that execute it there.
type Line struct {
	ID      string
	Network *Network
	Space   *Space
	Crews   []*Crew
}

// CrewsForStage returns the line's crews working the given stage, in
// position order.
func (l *Line) CrewsForStage(stageID string) []*Crew {
	var out []*Crew
	for _, c := range l.Crews {
		if c.Stage.ID == stageID {
			out = append(out, c)
		}
	}
	return out
}

// Crew is a team assigned to one stage of a line. Its position is its index
// in the line's crew list, so positions are always contiguous.
type Crew struct {
	ID       string
	Line     *Line
	Stage    *Stage
	Packages []*Package
}

// Position returns the crew's index inside its line.
func (c *Crew) Position() int {
	for i, o := range c.Line.Crews {
		if o == c {
			return i
		}
	}
	return -1
}

// SortPackages orders the crew's packages by start column, then id.
func (c *Crew) SortPackages() {
	sort.SliceStable(c.Packages, func(i, j int) bool {
		a, b := c.Packages[i], c.Packages[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.ID < b.ID
	})
}

// Package is a unit of work occupying the closed column interval [Start, End].
type Package struct {
	ID       string
	Crew     *Crew
	Space    *Space
	Start    int
	End      int
	Status   model.PackageStatus
	Progress float64
	Cost     float64

	Outgoing []*Link
	Incoming []*Link
}

// Stage returns the stage of the owning crew.
func (p *Package) Stage() *Stage { return p.Crew.Stage }

// Duration returns End-Start+1.
func (p *Package) Duration() int { return p.End - p.Start + 1 }

// ShiftTo moves the package to start at col, keeping its duration.
func (p *Package) ShiftTo(col int) {
	d := p.End - p.Start
	p.Start = col
	p.End = col + d
}

// Link orders two packages of different crews. When Locked, Dest may start no
// earlier than Latency columns after Source ends.
type Link struct {
	ID      string
	Source  *Package
	Dest    *Package
	Latency int
	Locked  bool
}

// AddLine binds a network to a unit.
func (b *Building) AddLine(id, networkID, spaceID string) (*Line, error) {
	n := b.networks[networkID]
	if n == nil {
		return nil, notFound("network", networkID)
	}
	s := b.spaces[spaceID]
	if s == nil {
		return nil, notFound("space", spaceID)
	}
	if !s.IsUnit() {
		return nil, fmt.Errorf("%w: line space %q is not a unit", ErrInvalid, spaceID)
	}
	if err := b.checkID("line", id); err != nil {
		return nil, err
	}
	l := &Line{ID: id, Network: n, Space: s}
	b.lines[id] = l
	b.Lines = append(b.Lines, l)
	return l, nil
}

// RemoveLine removes a line with its crews and their packages.
func (b *Building) RemoveLine(id string) error {
	l := b.lines[id]
	if l == nil {
		return notFound("line", id)
	}
	for _, c := range append([]*Crew(nil), l.Crews...) {
		if err := b.RemoveCrew(c.ID); err != nil {
			return err
		}
	}
	b.Lines = removeFrom(b.Lines, l)
	delete(b.lines, id)
	return nil
}

// AddCrew appends a crew to a line.
func (b *Building) AddCrew(lineID, id, stageID string) (*Crew, error) {
	l := b.lines[lineID]
	if l == nil {
		return nil, notFound("line", lineID)
	}
	return b.InsertCrew(lineID, len(l.Crews), id, stageID)
}

// InsertCrew inserts a crew at index (clamped) in the line. The stage must
// belong to the line's network.
func (b *Building) InsertCrew(lineID string, index int, id, stageID string) (*Crew, error) {
	l := b.lines[lineID]
	if l == nil {
		return nil, notFound("line", lineID)
	}
	s := b.stages[stageID]
	if s == nil {
		return nil, notFound("stage", stageID)
	}
	if s.Network != l.Network {
		return nil, fmt.Errorf("%w: stage %q is not part of line %q network", ErrInvalid, stageID, lineID)
	}
	if err := b.checkID("crew", id); err != nil {
		return nil, err
	}
	if index < 0 || index > len(l.Crews) {
		index = len(l.Crews)
	}
	c := &Crew{ID: id, Line: l, Stage: s}
	b.crews[id] = c
	l.Crews = append(l.Crews, nil)
	copy(l.Crews[index+1:], l.Crews[index:])
	l.Crews[index] = c
	return c, nil
}

// RemoveCrew removes a crew and every package it still owns. Positions of
// the remaining crews close up.
func (b *Building) RemoveCrew(id string) error {
	c := b.crews[id]
	if c == nil {
		return notFound("crew", id)
	}
	for _, p := range append([]*Package(nil), c.Packages...) {
		b.removePackage(p)
	}
	c.Line.Crews = removeFrom(c.Line.Crews, c)
	delete(b.crews, id)
	return nil
}

// AddPackage places a package on a crew at the exact interval given.
func (b *Building) AddPackage(crewID, id, spaceID string, start, end int) (*Package, error) {
	c := b.crews[crewID]
	if c == nil {
		return nil, notFound("crew", crewID)
	}
	s := b.spaces[spaceID]
	if s == nil {
		return nil, notFound("space", spaceID)
	}
	if s.Root() != c.Line.Space {
		return nil, fmt.Errorf("%w: space %q is outside line %q", ErrInvalid, spaceID, c.Line.ID)
	}
	if err := b.checkID("package", id); err != nil {
		return nil, err
	}
	p := &Package{ID: id, Crew: c, Space: s, Start: start, End: end, Status: model.StatusPlanning}
	b.packages[id] = p
	c.Packages = append(c.Packages, p)
	c.SortPackages()
	return p, nil
}

// Reassign moves a package to another crew of the same stage.
func (b *Building) Reassign(packageID, crewID string) error {
	p := b.packages[packageID]
	if p == nil {
		return notFound("package", packageID)
	}
	c := b.crews[crewID]
	if c == nil {
		return notFound("crew", crewID)
	}
	if p.Crew == c {
		return nil
	}
	if c.Stage != p.Crew.Stage {
		return fmt.Errorf("%w: crew %q works a different stage", ErrInvalid, crewID)
	}
	p.Crew.Packages = removeFrom(p.Crew.Packages, p)
	p.Crew = c
	c.Packages = append(c.Packages, p)
	c.SortPackages()
	return nil
}

// RemovePackage removes a package and every link touching it.
func (b *Building) RemovePackage(id string) error {
	p := b.packages[id]
	if p == nil {
		return notFound("package", id)
	}
	b.removePackage(p)
	return nil
}

func (b *Building) removePackage(p *Package) {
	for _, l := range append(append([]*Link(nil), p.Outgoing...), p.Incoming...) {
		b.detachLink(l)
	}
	p.Crew.Packages = removeFrom(p.Crew.Packages, p)
	delete(b.packages, p.ID)
}

// AddLink registers a locked link between packages of different crews.
func (b *Building) AddLink(id, sourceID, destID string, latency int) (*Link, error) {
	src, dst := b.packages[sourceID], b.packages[destID]
	if src == nil {
		return nil, notFound("package", sourceID)
	}
	if dst == nil {
		return nil, notFound("package", destID)
	}
	if src == dst {
		return nil, fmt.Errorf("%w: link on package %q", ErrSelfLoop, sourceID)
	}
	if src.Crew == dst.Crew {
		return nil, fmt.Errorf("%w: %q and %q", ErrSameCrew, sourceID, destID)
	}
	if err := b.checkID("link", id); err != nil {
		return nil, err
	}
	for _, l := range src.Outgoing {
		if l.Dest == dst {
			return nil, fmt.Errorf("%w: link %q -> %q", ErrDuplicate, sourceID, destID)
		}
	}
	if packageReaches(dst, src) {
		return nil, fmt.Errorf("%w: link %q -> %q", ErrCycle, sourceID, destID)
	}
	l := &Link{ID: id, Source: src, Dest: dst, Latency: latency, Locked: true}
	b.links[id] = l
	src.Outgoing = append(src.Outgoing, l)
	dst.Incoming = append(dst.Incoming, l)
	return l, nil
}

// RemoveLink detaches a link.
func (b *Building) RemoveLink(id string) error {
	l := b.links[id]
	if l == nil {
		return notFound("link", id)
	}
	b.detachLink(l)
	return nil
}

func (b *Building) detachLink(l *Link) {
	l.Source.Outgoing = removeFrom(l.Source.Outgoing, l)
	l.Dest.Incoming = removeFrom(l.Dest.Incoming, l)
	delete(b.links, l.ID)
}

func packageReaches(from, to *Package) bool {
	seen := map[*Package]bool{}
	stack := []*Package{from}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p == to {
			return true
		}
		if seen[p] {
			continue
		}
		seen[p] = true
		for _, l := range p.Outgoing {
			stack = append(stack, l.Dest)
		}
	}
	return false
}
