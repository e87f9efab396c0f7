package graph

import "fmt"

// Diagram owns networks of stages and the precedences between them.
type Diagram struct {
	ID          string
	Name        string
	Networks    []*Network
	Precedences []*Precedence
}

// Network is an ordered list of stages.
type Network struct {
	ID      string
	Name    string
	Diagram *Diagram
	Stages  []*Stage
}

// Stage is one work phase. Latency is the minimum gap, in columns, between
// consecutive packages of one crew working the stage.
type Stage struct {
	ID       string
	Name     string
	Duration int
	Latency  int
	Network  *Network

	// Outgoing and Incoming precedences, in creation order.
	Outgoing []*Precedence
	Incoming []*Precedence
}

// Index returns the stage's position inside its network, or -1 if detached.
func (s *Stage) Index() int {
	if s.Network == nil {
		return -1
	}
	for i, o := range s.Network.Stages {
		if o == s {
			return i
		}
	}
	return -1
}

// Precedence orders two stages of the same diagram. A package of Dest on a
// space may start no earlier than Latency-Opening columns after the package
// of Source on the same space ends.
type Precedence struct {
	ID      string
	Diagram *Diagram
	Source  *Stage
	Dest    *Stage
	Opening int
	Latency int
}

// AddDiagram appends an empty diagram.
func (b *Building) AddDiagram(id, name string) (*Diagram, error) {
	if err := b.checkID("diagram", id); err != nil {
		return nil, err
	}
	d := &Diagram{ID: id, Name: name}
	b.diagrams[id] = d
	b.Diagrams = append(b.Diagrams, d)
	return d, nil
}

// AppendNetwork appends a network to a diagram and queues NetworkInserted.
func (b *Building) AppendNetwork(diagramID, id, name string) (*Network, error) {
	d := b.diagrams[diagramID]
	if d == nil {
		return nil, notFound("diagram", diagramID)
	}
	if err := b.checkID("network", id); err != nil {
		return nil, err
	}
	n := &Network{ID: id, Name: name, Diagram: d}
	b.networks[id] = n
	d.Networks = append(d.Networks, n)
	b.changes.push(Change{Kind: NetworkInserted, Network: n})
	return n, nil
}

// AppendStage appends a stage to the end of a network.
func (b *Building) AppendStage(networkID, id, name string, duration, latency int) (*Stage, error) {
	n := b.networks[networkID]
	if n == nil {
		return nil, notFound("network", networkID)
	}
	return b.InsertStage(networkID, len(n.Stages), id, name, duration, latency)
}

// InsertStage inserts a stage at index (clamped to the network bounds) and
// queues StageInserted.
func (b *Building) InsertStage(networkID string, index int, id, name string, duration, latency int) (*Stage, error) {
	n := b.networks[networkID]
	if n == nil {
		return nil, notFound("network", networkID)
	}
	if duration < 1 || latency < 0 {
		return nil, fmt.Errorf("%w: stage duration %d latency %d", ErrInvalid, duration, latency)
	}
	if err := b.checkID("stage", id); err != nil {
		return nil, err
	}
	if index < 0 || index > len(n.Stages) {
		index = len(n.Stages)
	}
	s := &Stage{ID: id, Name: name, Duration: duration, Latency: latency, Network: n}
	b.stages[id] = s
	n.Stages = append(n.Stages, nil)
	copy(n.Stages[index+1:], n.Stages[index:])
	n.Stages[index] = s
	b.changes.push(Change{Kind: StageInserted, Network: n, Stage: s})
	return s, nil
}

// UpdateStage changes a stage's duration and latency and queues StageResized
// when either differs.
func (b *Building) UpdateStage(id string, duration, latency int) (*Stage, error) {
	s := b.stages[id]
	if s == nil {
		return nil, notFound("stage", id)
	}
	if duration < 1 || latency < 0 {
		return nil, fmt.Errorf("%w: stage duration %d latency %d", ErrInvalid, duration, latency)
	}
	if s.Duration == duration && s.Latency == latency {
		return s, nil
	}
	s.Duration, s.Latency = duration, latency
	b.changes.push(Change{Kind: StageResized, Network: s.Network, Stage: s})
	return s, nil
}

// RemoveStage detaches a stage and every precedence touching it, and queues
// StageRemoved. Crews working the stage are left for the engine to remove.
func (b *Building) RemoveStage(id string) (*Stage, error) {
	s := b.stages[id]
	if s == nil {
		return nil, notFound("stage", id)
	}
	for _, p := range append(append([]*Precedence(nil), s.Outgoing...), s.Incoming...) {
		b.detachPrecedence(p)
	}
	n := s.Network
	n.Stages = removeFrom(n.Stages, s)
	delete(b.stages, id)
	b.changes.push(Change{Kind: StageRemoved, Network: n, Stage: s})
	return s, nil
}

// AddPrecedence registers a precedence between two stages of one diagram.
func (b *Building) AddPrecedence(id, sourceID, destID string, opening, latency int) (*Precedence, error) {
	src, dst := b.stages[sourceID], b.stages[destID]
	if src == nil {
		return nil, notFound("stage", sourceID)
	}
	if dst == nil {
		return nil, notFound("stage", destID)
	}
	if src == dst {
		return nil, fmt.Errorf("%w: precedence on stage %q", ErrSelfLoop, sourceID)
	}
	d := src.Network.Diagram
	if dst.Network.Diagram != d {
		return nil, fmt.Errorf("%w: stages %q and %q belong to different diagrams", ErrInvalid, sourceID, destID)
	}
	if err := b.checkID("precedence", id); err != nil {
		return nil, err
	}
	for _, p := range src.Outgoing {
		if p.Dest == dst {
			return nil, fmt.Errorf("%w: precedence %q -> %q", ErrDuplicate, sourceID, destID)
		}
	}
	if stageReaches(dst, src) {
		return nil, fmt.Errorf("%w: precedence %q -> %q", ErrCycle, sourceID, destID)
	}
	p := &Precedence{ID: id, Diagram: d, Source: src, Dest: dst, Opening: opening, Latency: latency}
	b.precedences[id] = p
	d.Precedences = append(d.Precedences, p)
	src.Outgoing = append(src.Outgoing, p)
	dst.Incoming = append(dst.Incoming, p)
	b.changes.push(Change{Kind: PrecedenceChanged, Diagram: d, Stage: dst})
	return p, nil
}

// UpdatePrecedence changes opening and latency.
func (b *Building) UpdatePrecedence(id string, opening, latency int) (*Precedence, error) {
	p := b.precedences[id]
	if p == nil {
		return nil, notFound("precedence", id)
	}
	if p.Opening == opening && p.Latency == latency {
		return p, nil
	}
	p.Opening, p.Latency = opening, latency
	b.changes.push(Change{Kind: PrecedenceChanged, Diagram: p.Diagram, Stage: p.Dest})
	return p, nil
}

// RemovePrecedence detaches a precedence.
func (b *Building) RemovePrecedence(id string) error {
	p := b.precedences[id]
	if p == nil {
		return notFound("precedence", id)
	}
	b.detachPrecedence(p)
	b.changes.push(Change{Kind: PrecedenceChanged, Diagram: p.Diagram, Stage: p.Dest})
	return nil
}

func (b *Building) detachPrecedence(p *Precedence) {
	p.Source.Outgoing = removeFrom(p.Source.Outgoing, p)
	p.Dest.Incoming = removeFrom(p.Dest.Incoming, p)
	p.Diagram.Precedences = removeFrom(p.Diagram.Precedences, p)
	delete(b.precedences, p.ID)
}

// stageReaches reports whether to is reachable from from along precedences.
func stageReaches(from, to *Stage) bool {
	seen := map[*Stage]bool{}
	stack := []*Stage{from}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s == to {
			return true
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		for _, p := range s.Outgoing {
			stack = append(stack, p.Dest)
		}
	}
	return false
}
