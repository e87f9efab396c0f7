// Package engine defines the scheduling engine contract used by the
// synchronizer's call sites, and a small in-process reference engine.
//
// An engine mutates a graph.Building in place. Callers never inspect how; they
// snapshot observable state before the call and diff it afterwards.
package engine

import (
	"errors"

	"github.com/IgorAraujoV/agilean-core-api/internal/graph"
)

var (
	// ErrCascadeLimit is returned when repositioning does not settle within
	// the configured number of crew visits.
	ErrCascadeLimit = errors.New("engine: cascade limit exceeded")
	// ErrSingleCrew is returned when unstacking a stage that has one crew.
	ErrSingleCrew = errors.New("engine: stage has a single crew in this line")
)

// Engine executes edits and cascading recomputation on an in-memory graph.
type Engine interface {
	// ApplyStructuralChanges drains the building's change queue and
	// recomputes every dependent package.
	ApplyStructuralChanges(b *graph.Building) error
	// RepositionFrom cascades position constraints outward from the seeds.
	RepositionFrom(b *graph.Building, seeds []*graph.Crew) error
	// Stack splits the package's crew group into one more parallel crew.
	Stack(b *graph.Building, packageID string) error
	// Unstack merges the package's crew group into one fewer crew.
	Unstack(b *graph.Building, packageID string) error
	// Move places a package at column and returns every package whose
	// interval changed as a result.
	Move(b *graph.Building, packageID string, column int) ([]*graph.Package, error)
}
