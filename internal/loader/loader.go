// Package loader hydrates a graph.Building from the relational store.
//
// Loading is a pure read. Rows are attached in an order that satisfies every
// in-graph reference: building, diagrams, networks, stages, precedences, then
// (after draining the structural change queue) spaces by level, lines, and
// for packaged hydration crews, packages and links.
package loader

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/IgorAraujoV/agilean-core-api/internal/graph"
	"github.com/IgorAraujoV/agilean-core-api/internal/store"
)

// ErrNotFound is returned when the building does not exist.
var ErrNotFound = errors.New("loader: building not found")

// ErrConsistency matches every *ConsistencyError.
var ErrConsistency = errors.New("loader: consistency violation")

// ConsistencyError reports a hydrated row that references an id missing from
// the graph. Hydration is aborted when one occurs.
type ConsistencyError struct {
	Entity string // kind of the row being attached
	ID     string
	Ref    string // kind of the missing target
	RefID  string
	Err    error
}

func (e *ConsistencyError) Error() string {
	msg := fmt.Sprintf("loader: %s %q references %s %q", e.Entity, e.ID, e.Ref, e.RefID)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConsistencyError) Is(target error) bool { return target == ErrConsistency }

func (e *ConsistencyError) Unwrap() error { return e.Err }

// Loader reads buildings from a store.
type Loader struct {
	store  store.Store
	logger *slog.Logger
}

// New returns a Loader. A nil logger falls back to slog.Default().
func New(s store.Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: s, logger: logger}
}

// LoadStructure hydrates diagrams, networks, stages, precedences, spaces and
// lines. Lines carry no crews.
func (l *Loader) LoadStructure(ctx context.Context, buildingID string) (*graph.Building, error) {
	return l.load(ctx, buildingID, false)
}

// LoadWithPackages hydrates the full graph, including crews, packages and
// links.
func (l *Loader) LoadWithPackages(ctx context.Context, buildingID string) (*graph.Building, error) {
	return l.load(ctx, buildingID, true)
}

func (l *Loader) load(ctx context.Context, buildingID string, packages bool) (*graph.Building, error) {
	row, err := l.store.GetBuilding(ctx, buildingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, buildingID)
		}
		return nil, fmt.Errorf("get building %s: %w", buildingID, err)
	}
	b := graph.NewBuilding(row.ID, row.Name, row.FirstDate)

	if err := l.loadDiagrams(ctx, b); err != nil {
		return nil, err
	}
	if err := l.loadPrecedences(ctx, b); err != nil {
		return nil, err
	}
	// Rows read from the store are not fresh insertions; replaying them
	// later would recompute packages that already exist.
	b.Changes().Drain()

	if err := l.loadSpaces(ctx, b); err != nil {
		return nil, err
	}
	if err := l.loadLines(ctx, b); err != nil {
		return nil, err
	}
	if packages {
		if err := l.loadCrews(ctx, b); err != nil {
			return nil, err
		}
		if err := l.loadPackages(ctx, b); err != nil {
			return nil, err
		}
		if err := l.loadLinks(ctx, b); err != nil {
			return nil, err
		}
	}

	l.logger.Debug("building hydrated", "building_id", b.ID, "packages", packages)
	return b, nil
}

func (l *Loader) loadDiagrams(ctx context.Context, b *graph.Building) error {
	diagrams, err := l.store.ListDiagrams(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list diagrams: %w", err)
	}
	for _, d := range diagrams {
		if _, err := b.AddDiagram(d.ID, d.Name); err != nil {
			return fmt.Errorf("attach diagram %s: %w", d.ID, err)
		}
		networks, err := l.store.ListNetworks(ctx, d.ID)
		if err != nil {
			return fmt.Errorf("list networks of %s: %w", d.ID, err)
		}
		for _, n := range networks {
			if _, err := b.AppendNetwork(d.ID, n.ID, n.Name); err != nil {
				return fmt.Errorf("attach network %s: %w", n.ID, err)
			}
			stages, err := l.store.ListStages(ctx, n.ID)
			if err != nil {
				return fmt.Errorf("list stages of %s: %w", n.ID, err)
			}
			for _, s := range stages {
				if _, err := b.AppendStage(n.ID, s.ID, s.Name, s.Duration, s.Latency); err != nil {
					return fmt.Errorf("attach stage %s: %w", s.ID, err)
				}
			}
		}
	}
	return nil
}

func (l *Loader) loadPrecedences(ctx context.Context, b *graph.Building) error {
	rows, err := l.store.ListPrecedences(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list precedences: %w", err)
	}
	for _, p := range rows {
		if b.Stage(p.SourceStageID) == nil {
			return &ConsistencyError{Entity: "precedence", ID: p.ID, Ref: "stage", RefID: p.SourceStageID}
		}
		if b.Stage(p.DestStageID) == nil {
			return &ConsistencyError{Entity: "precedence", ID: p.ID, Ref: "stage", RefID: p.DestStageID}
		}
		if _, err := b.AddPrecedence(p.ID, p.SourceStageID, p.DestStageID, p.Opening, p.Latency); err != nil {
			return &ConsistencyError{Entity: "precedence", ID: p.ID, Ref: "diagram", RefID: p.DiagramID, Err: err}
		}
	}
	return nil
}

func (l *Loader) loadSpaces(ctx context.Context, b *graph.Building) error {
	rows, err := l.store.ListSpaces(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list spaces: %w", err)
	}
	for _, r := range rows {
		var s *graph.Space
		switch {
		case r.ParentID == "":
			s, err = b.AddUnit(r.ID, r.Name)
		case b.Space(r.ParentID) == nil:
			l.logger.Warn("space parent not resolvable, attaching as unit",
				"building_id", b.ID, "space_id", r.ID, "parent_id", r.ParentID)
			s, err = b.AddUnit(r.ID, r.Name)
		default:
			s, err = b.AddChild(r.ParentID, r.ID, r.Name)
		}
		if err != nil {
			return fmt.Errorf("attach space %s: %w", r.ID, err)
		}
		s.StartDate, s.EndDate = r.StartDate, r.EndDate
	}
	return nil
}

func (l *Loader) loadLines(ctx context.Context, b *graph.Building) error {
	rows, err := l.store.ListLines(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list lines: %w", err)
	}
	for _, r := range rows {
		n := b.Network(r.NetworkID)
		if n == nil {
			return &ConsistencyError{Entity: "line", ID: r.ID, Ref: "network", RefID: r.NetworkID}
		}
		if n.Diagram.ID != r.DiagramID {
			return &ConsistencyError{Entity: "line", ID: r.ID, Ref: "diagram", RefID: r.DiagramID}
		}
		if b.Space(r.SpaceID) == nil {
			return &ConsistencyError{Entity: "line", ID: r.ID, Ref: "space", RefID: r.SpaceID}
		}
		if _, err := b.AddLine(r.ID, r.NetworkID, r.SpaceID); err != nil {
			return &ConsistencyError{Entity: "line", ID: r.ID, Ref: "space", RefID: r.SpaceID, Err: err}
		}
	}
	return nil
}

func (l *Loader) loadCrews(ctx context.Context, b *graph.Building) error {
	rows, err := l.store.ListCrews(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list crews: %w", err)
	}
	for _, r := range rows {
		if b.Line(r.LineID) == nil {
			return &ConsistencyError{Entity: "crew", ID: r.ID, Ref: "line", RefID: r.LineID}
		}
		if b.Stage(r.StageID) == nil {
			return &ConsistencyError{Entity: "crew", ID: r.ID, Ref: "stage", RefID: r.StageID}
		}
		if _, err := b.AddCrew(r.LineID, r.ID, r.StageID); err != nil {
			return &ConsistencyError{Entity: "crew", ID: r.ID, Ref: "stage", RefID: r.StageID, Err: err}
		}
	}
	return nil
}

func (l *Loader) loadPackages(ctx context.Context, b *graph.Building) error {
	rows, err := l.store.ListPackages(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list packages: %w", err)
	}
	for _, r := range rows {
		c := b.Crew(r.CrewID)
		if c == nil {
			return &ConsistencyError{Entity: "package", ID: r.ID, Ref: "crew", RefID: r.CrewID}
		}
		if c.Stage.ID != r.StageID {
			return &ConsistencyError{Entity: "package", ID: r.ID, Ref: "stage", RefID: r.StageID,
				Err: fmt.Errorf("crew %s works stage %s", c.ID, c.Stage.ID)}
		}
		if b.Space(r.SpaceID) == nil {
			return &ConsistencyError{Entity: "package", ID: r.ID, Ref: "space", RefID: r.SpaceID}
		}
		// The persisted interval is restored as is, never recomputed from
		// the stage duration.
		p, err := b.AddPackage(r.CrewID, r.ID, r.SpaceID, r.StartColumn, r.EndColumn)
		if err != nil {
			return &ConsistencyError{Entity: "package", ID: r.ID, Ref: "space", RefID: r.SpaceID, Err: err}
		}
		p.Status, p.Progress, p.Cost = r.Status, r.Progress, r.Cost
	}
	return nil
}

func (l *Loader) loadLinks(ctx context.Context, b *graph.Building) error {
	rows, err := l.store.ListLinks(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("list links: %w", err)
	}
	for _, r := range rows {
		if !b.HasPackage(r.SourcePackageID) {
			return &ConsistencyError{Entity: "link", ID: r.ID, Ref: "package", RefID: r.SourcePackageID}
		}
		if !b.HasPackage(r.DestPackageID) {
			return &ConsistencyError{Entity: "link", ID: r.ID, Ref: "package", RefID: r.DestPackageID}
		}
		lk, err := b.AddLink(r.ID, r.SourcePackageID, r.DestPackageID, r.Latency)
		if err != nil {
			return &ConsistencyError{Entity: "link", ID: r.ID, Ref: "package", RefID: r.DestPackageID, Err: err}
		}
		lk.Locked = r.Locked
	}
	return nil
}
