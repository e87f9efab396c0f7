package graph

// ChangeKind identifies a queued structural edit.
type ChangeKind int

const (
	NetworkInserted ChangeKind = iota + 1
	StageInserted
	StageRemoved
	StageResized
	PrecedenceChanged
)

func (k ChangeKind) String() string {
	switch k {
	case NetworkInserted:
		return "network_inserted"
	case StageInserted:
		return "stage_inserted"
	case StageRemoved:
		return "stage_removed"
	case StageResized:
		return "stage_resized"
	case PrecedenceChanged:
		return "precedence_changed"
	}
	return "unknown"
}

// Change is one structural edit awaiting recomputation.
type Change struct {
	Kind    ChangeKind
	Diagram *Diagram
	Network *Network
	Stage   *Stage
}

// ChangeQueue collects structural edits in the order they were made. The
// engine drains it when it recomputes dependents; the loader drains it once
// after hydrating the structure so that rows read from the store are never
// replayed as fresh insertions.
type ChangeQueue struct {
	pending []Change
}

func (q *ChangeQueue) push(c Change) {
	q.pending = append(q.pending, c)
}

// Len returns the number of pending changes.
func (q *ChangeQueue) Len() int { return len(q.pending) }

// Drain returns the pending changes and empties the queue.
func (q *ChangeQueue) Drain() []Change {
	out := q.pending
	q.pending = nil
	return out
}
