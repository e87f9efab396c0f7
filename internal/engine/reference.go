package engine

import (
	"fmt"
	"sort"

	"github.com/IgorAraujoV/agilean-core-api/internal/graph"
	"github.com/IgorAraujoV/agilean-core-api/internal/idgen"
)

// DefaultMaxSteps bounds the number of crew visits in one cascade.
const DefaultMaxSteps = 10000

// Reference is a push-only scheduling engine. Constraints are lower bounds on
// a package's start column:
//
//   - crew sequencing: a package starts after the previous package of its
//     crew ends, plus the stage latency;
//   - precedences: on the same space, a package of the destination stage
//     starts Latency-Opening columns after the source stage's package ends;
//   - locked links: the destination starts Latency columns after the source
//     ends.
//
// Packages are pushed later to satisfy a bound and are never pulled earlier,
// except by stacking and unstacking which lay a crew group out afresh.
type Reference struct {
	// NewID generates ids for crews and packages created by cascades.
	// Defaults to idgen.New.
	NewID idgen.Func
	// MaxSteps caps crew visits per cascade. Defaults to DefaultMaxSteps.
	MaxSteps int
	// FirstColumn is where packages of a line without any work start.
	// Defaults to 1.
	FirstColumn int
}

var _ Engine = (*Reference)(nil)

// NewReference returns a reference engine with default settings.
func NewReference() *Reference {
	return &Reference{}
}

func (r *Reference) newID(k idgen.Kind) (string, error) {
	if r.NewID != nil {
		return r.NewID(k)
	}
	return idgen.New(k)
}

func (r *Reference) maxSteps() int {
	if r.MaxSteps > 0 {
		return r.MaxSteps
	}
	return DefaultMaxSteps
}

func (r *Reference) firstColumn() int {
	if r.FirstColumn != 0 {
		return r.FirstColumn
	}
	return 1
}

// ApplyStructuralChanges replays queued structural edits.
func (r *Reference) ApplyStructuralChanges(b *graph.Building) error {
	var seeds []*graph.Crew
	for _, ch := range b.Changes().Drain() {
		switch ch.Kind {
		case graph.StageInserted:
			if b.Stage(ch.Stage.ID) == nil {
				continue
			}
			created, err := r.populateStage(b, ch.Stage)
			if err != nil {
				return fmt.Errorf("populate stage %s: %w", ch.Stage.ID, err)
			}
			seeds = append(seeds, created...)
		case graph.StageRemoved:
			for _, l := range b.LinesByNetwork(ch.Network.ID) {
				for _, c := range l.CrewsForStage(ch.Stage.ID) {
					if err := b.RemoveCrew(c.ID); err != nil {
						return err
					}
				}
			}
		case graph.StageResized:
			for _, l := range b.LinesByNetwork(ch.Network.ID) {
				for _, c := range l.CrewsForStage(ch.Stage.ID) {
					for _, p := range c.Packages {
						p.End = p.Start + ch.Stage.Duration - 1
					}
					seeds = append(seeds, c)
				}
			}
		case graph.PrecedenceChanged:
			for _, n := range ch.Diagram.Networks {
				for _, l := range b.LinesByNetwork(n.ID) {
					seeds = append(seeds, l.CrewsForStage(ch.Stage.ID)...)
				}
			}
		}
	}
	return r.RepositionFrom(b, seeds)
}

// populateStage creates a crew for the stage on every line of its network,
// with one package per leaf space under the line's unit.
func (r *Reference) populateStage(b *graph.Building, s *graph.Stage) ([]*graph.Crew, error) {
	var created []*graph.Crew
	for _, l := range b.LinesByNetwork(s.Network.ID) {
		index := 0
		for i, c := range l.Crews {
			if c.Stage.Index() <= s.Index() {
				index = i + 1
			}
		}
		start := r.firstColumn()
		if min, ok := lineStart(l); ok {
			start = min
		}
		id, err := r.newID(idgen.Crew)
		if err != nil {
			return nil, err
		}
		c, err := b.InsertCrew(l.ID, index, id, s.ID)
		if err != nil {
			return nil, err
		}
		cursor := start
		for _, leaf := range l.Space.Leaves() {
			pid, err := r.newID(idgen.Package)
			if err != nil {
				return nil, err
			}
			p, err := b.AddPackage(c.ID, pid, leaf.ID, cursor, cursor+s.Duration-1)
			if err != nil {
				return nil, err
			}
			cursor = p.End + 1 + s.Latency
		}
		created = append(created, c)
	}
	return created, nil
}

func lineStart(l *graph.Line) (int, bool) {
	min, ok := 0, false
	for _, c := range l.Crews {
		for _, p := range c.Packages {
			if !ok || p.Start < min {
				min, ok = p.Start, true
			}
		}
	}
	return min, ok
}

// RepositionFrom settles every crew reachable from the seeds.
func (r *Reference) RepositionFrom(b *graph.Building, seeds []*graph.Crew) error {
	queue := make([]*graph.Crew, 0, len(seeds))
	queued := make(map[*graph.Crew]bool)
	seeded := make(map[*graph.Crew]bool, len(seeds))
	enqueue := func(c *graph.Crew) {
		if !queued[c] {
			queued[c] = true
			queue = append(queue, c)
		}
	}
	for _, c := range seeds {
		seeded[c] = true
		enqueue(c)
	}

	limit := r.maxSteps()
	steps := 0
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		delete(queued, c)
		if !b.HasCrew(c.ID) {
			continue
		}
		steps++
		if steps > limit {
			return fmt.Errorf("%w: %d crew visits", ErrCascadeLimit, limit)
		}
		// Seeds were edited by the caller, so their dependents are revisited
		// even when the seed itself needs no push.
		if settle(c) || seeded[c] {
			delete(seeded, c)
			for _, d := range dependents(c) {
				enqueue(d)
			}
		}
	}
	return nil
}

// settle pushes each package of c to its earliest allowed start and reports
// whether any package moved.
func settle(c *graph.Crew) bool {
	c.SortPackages()
	changed := false
	var prev *graph.Package
	for _, p := range c.Packages {
		if bound := earliest(p, prev); p.Start < bound {
			p.ShiftTo(bound)
			changed = true
		}
		prev = p
	}
	return changed
}

func earliest(p, prev *graph.Package) int {
	bound := p.Start
	raise := func(v int) {
		if v > bound {
			bound = v
		}
	}
	stage := p.Stage()
	if prev != nil {
		raise(prev.End + 1 + stage.Latency)
	}
	for _, pr := range stage.Incoming {
		for _, c := range p.Crew.Line.CrewsForStage(pr.Source.ID) {
			for _, q := range c.Packages {
				if q.Space == p.Space {
					raise(q.End + 1 + pr.Latency - pr.Opening)
				}
			}
		}
	}
	for _, l := range p.Incoming {
		if l.Locked {
			raise(l.Source.End + 1 + l.Latency)
		}
	}
	return bound
}

// dependents returns the crews whose bounds depend on c's packages.
func dependents(c *graph.Crew) []*graph.Crew {
	var out []*graph.Crew
	for _, pr := range c.Stage.Outgoing {
		out = append(out, c.Line.CrewsForStage(pr.Dest.ID)...)
	}
	for _, p := range c.Packages {
		for _, l := range p.Outgoing {
			if l.Locked {
				out = append(out, l.Dest.Crew)
			}
		}
	}
	return out
}

// Stack adds a parallel crew to the package's stage group and redistributes
// the group's packages round-robin.
func (r *Reference) Stack(b *graph.Building, packageID string) error {
	p := b.Package(packageID)
	if p == nil {
		return fmt.Errorf("%w: package %q", graph.ErrNotFound, packageID)
	}
	line, stage := p.Crew.Line, p.Stage()
	group := line.CrewsForStage(stage.ID)
	pkgs := groupPackages(group)

	id, err := r.newID(idgen.Crew)
	if err != nil {
		return err
	}
	last := group[len(group)-1]
	c, err := b.InsertCrew(line.ID, last.Position()+1, id, stage.ID)
	if err != nil {
		return err
	}
	group = append(group, c)
	if err := distribute(b, group, pkgs); err != nil {
		return err
	}
	return r.RepositionFrom(b, group)
}

// Unstack merges the highest-position crew of the package's stage group
// back into the others and removes it.
func (r *Reference) Unstack(b *graph.Building, packageID string) error {
	p := b.Package(packageID)
	if p == nil {
		return fmt.Errorf("%w: package %q", graph.ErrNotFound, packageID)
	}
	group := p.Crew.Line.CrewsForStage(p.Stage().ID)
	if len(group) < 2 {
		return fmt.Errorf("%w: stage %q", ErrSingleCrew, p.Stage().ID)
	}
	pkgs := groupPackages(group)
	removed := group[len(group)-1]
	group = group[:len(group)-1]
	if err := distribute(b, group, pkgs); err != nil {
		return err
	}
	if err := b.RemoveCrew(removed.ID); err != nil {
		return err
	}
	return r.RepositionFrom(b, group)
}

// groupPackages returns the packages of a crew group ordered by start column,
// then crew position, then id.
func groupPackages(group []*graph.Crew) []*graph.Package {
	var pkgs []*graph.Package
	for _, c := range group {
		pkgs = append(pkgs, c.Packages...)
	}
	sort.SliceStable(pkgs, func(i, j int) bool {
		a, b := pkgs[i], pkgs[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if pa, pb := a.Crew.Position(), b.Crew.Position(); pa != pb {
			return pa < pb
		}
		return a.ID < b.ID
	})
	return pkgs
}

// distribute assigns pkgs round-robin over group and lays each crew out
// back to back from the group's earliest start, keeping every package's
// duration.
func distribute(b *graph.Building, group []*graph.Crew, pkgs []*graph.Package) error {
	if len(pkgs) == 0 {
		return nil
	}
	start := pkgs[0].Start
	lists := make([][]*graph.Package, len(group))
	for i, p := range pkgs {
		j := i % len(group)
		if err := b.Reassign(p.ID, group[j].ID); err != nil {
			return err
		}
		lists[j] = append(lists[j], p)
	}
	for j, c := range group {
		cursor := start
		for _, p := range lists[j] {
			p.ShiftTo(cursor)
			cursor = p.End + 1 + c.Stage.Latency
		}
		c.SortPackages()
	}
	return nil
}

// Move places the package at column and cascades from its crew.
func (r *Reference) Move(b *graph.Building, packageID string, column int) ([]*graph.Package, error) {
	p := b.Package(packageID)
	if p == nil {
		return nil, fmt.Errorf("%w: package %q", graph.ErrNotFound, packageID)
	}
	type span struct{ start, end int }
	before := make(map[*graph.Package]span)
	for _, c := range b.Crews() {
		for _, q := range c.Packages {
			before[q] = span{q.Start, q.End}
		}
	}

	p.ShiftTo(column)
	if err := r.RepositionFrom(b, []*graph.Crew{p.Crew}); err != nil {
		return nil, err
	}

	var moved []*graph.Package
	for _, c := range b.Crews() {
		for _, q := range c.Packages {
			if s := before[q]; s.start != q.Start || s.end != q.End {
				moved = append(moved, q)
			}
		}
	}
	return moved, nil
}
