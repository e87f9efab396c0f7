package propagation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/IgorAraujoV/agilean-core-api/internal/calendar"
	"github.com/IgorAraujoV/agilean-core-api/internal/graph"
	"github.com/IgorAraujoV/agilean-core-api/internal/model"
	"github.com/IgorAraujoV/agilean-core-api/internal/store"
)

// ErrTransaction matches every *TxError.
var ErrTransaction = errors.New("propagation: transaction failed")

// TxError reports a failed persistence transaction. Nothing of the delta was
// committed; the in-memory graph is left mutated and must be discarded.
type TxError struct {
	Err error
}

func (e *TxError) Error() string { return "propagation: transaction failed: " + e.Err.Error() }

func (e *TxError) Is(target error) bool { return target == ErrTransaction }

func (e *TxError) Unwrap() error { return e.Err }

// Writer performs extra writes inside the delta transaction.
type Writer func(ctx context.Context, tx store.Store) error

// Option configures one ApplyAndPersist call.
type Option func(*applyOptions)

type applyOptions struct {
	before []Writer
	after  []Writer
}

// Before runs fn inside the transaction ahead of the delta writes.
func Before(fn Writer) Option {
	return func(o *applyOptions) { o.before = append(o.before, fn) }
}

// After runs fn inside the transaction once the delta writes are done.
func After(fn Writer) Option {
	return func(o *applyOptions) { o.after = append(o.after, fn) }
}

// MapperFunc returns the column/date mapping of a building.
type MapperFunc func(b *graph.Building) calendar.Mapper

// LinearMapper maps columns from the building's first date with the given
// number of slots per day.
func LinearMapper(slotsPerDay int) MapperFunc {
	return func(b *graph.Building) calendar.Mapper {
		return calendar.NewLinear(b.FirstDate, slotsPerDay)
	}
}

// Synchronizer persists graph deltas.
type Synchronizer struct {
	store  store.Store
	mapper MapperFunc
	logger *slog.Logger
}

// New returns a Synchronizer. A nil mapper selects LinearMapper with the
// default slots per day; a nil logger falls back to slog.Default().
func New(s store.Store, mapper MapperFunc, logger *slog.Logger) *Synchronizer {
	if mapper == nil {
		mapper = LinearMapper(calendar.DefaultSlotsPerDay)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{store: s, mapper: mapper, logger: logger}
}

// delta is the set of writes derived from a snapshot and the current graph.
type delta struct {
	createdCrews    []*graph.Crew
	crewPackages    []*graph.Package // new packages of created crews
	newPackages     []*graph.Package // created in pre-existing crews
	moved           []*graph.Package
	repositioned    []*graph.Crew
	deletedPackages []string
	deletedCrews    []string
}

func (d *delta) empty() bool {
	return len(d.createdCrews) == 0 && len(d.crewPackages) == 0 && len(d.newPackages) == 0 &&
		len(d.moved) == 0 && len(d.repositioned) == 0 &&
		len(d.deletedPackages) == 0 && len(d.deletedCrews) == 0
}

func diff(b *graph.Building, snap *Snapshot) *delta {
	d := &delta{}
	created := make(map[string]bool)
	for _, l := range snap.lines(b) {
		for i, c := range l.Crews {
			before, existed := snap.crews[c.ID]
			if !existed {
				created[c.ID] = true
				d.createdCrews = append(d.createdCrews, c)
			} else if before.Position != i {
				d.repositioned = append(d.repositioned, c)
			}
			for _, p := range c.Packages {
				prev, ok := snap.packages[p.ID]
				switch {
				case !ok && created[c.ID]:
					d.crewPackages = append(d.crewPackages, p)
				case !ok:
					d.newPackages = append(d.newPackages, p)
				case prev.CrewID != c.ID || prev.Start != p.Start || prev.End != p.End:
					d.moved = append(d.moved, p)
				}
			}
		}
	}
	for id := range snap.packages {
		if !b.HasPackage(id) {
			d.deletedPackages = append(d.deletedPackages, id)
		}
	}
	for id := range snap.crews {
		if !b.HasCrew(id) {
			d.deletedCrews = append(d.deletedCrews, id)
		}
	}
	sort.Strings(d.deletedPackages)
	sort.Strings(d.deletedCrews)
	return d
}

// ApplyAndPersist diffs the scope of snap against b and writes the delta in
// a single transaction:
//
//	before writers
//	delete links of deleted packages, then the packages
//	insert created crews and their packages
//	insert packages created in pre-existing crews
//	update moved packages (crew, start, end)
//	update crew positions
//	delete removed crews
//	after writers
//
// No transaction is opened when there is nothing to write. On failure the
// returned error matches ErrTransaction and no row is changed.
func (s *Synchronizer) ApplyAndPersist(ctx context.Context, b *graph.Building, snap *Snapshot, opts ...Option) (*Patch, error) {
	var o applyOptions
	for _, opt := range opts {
		opt(&o)
	}

	d := diff(b, snap)
	if d.empty() && len(o.before) == 0 && len(o.after) == 0 {
		return emptyPatch(), nil
	}

	err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		for _, w := range o.before {
			if err := w(ctx, tx); err != nil {
				return err
			}
		}
		if err := writeDelta(ctx, tx, d); err != nil {
			return err
		}
		for _, w := range o.after {
			if err := w(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, &TxError{Err: err}
	}

	patch := s.buildPatch(b, d)
	s.logger.Debug("delta persisted",
		"building", b.ID,
		"created_crews", len(d.createdCrews),
		"created_packages", len(d.crewPackages)+len(d.newPackages),
		"moved", len(d.moved),
		"deleted_packages", len(d.deletedPackages),
		"deleted_crews", len(d.deletedCrews),
	)
	return patch, nil
}

func writeDelta(ctx context.Context, tx store.Store, d *delta) error {
	if len(d.deletedPackages) > 0 {
		if err := tx.DeleteLinksForPackages(ctx, d.deletedPackages); err != nil {
			return fmt.Errorf("delete links: %w", err)
		}
		if err := tx.DeletePackages(ctx, d.deletedPackages); err != nil {
			return fmt.Errorf("delete packages: %w", err)
		}
	}
	for _, c := range d.createdCrews {
		if err := tx.CreateCrew(ctx, graph.CrewRow(c)); err != nil {
			return fmt.Errorf("create crew %s: %w", c.ID, err)
		}
	}
	if err := tx.CreatePackages(ctx, packageRows(d.crewPackages)); err != nil {
		return fmt.Errorf("create crew packages: %w", err)
	}
	if err := tx.CreatePackages(ctx, packageRows(d.newPackages)); err != nil {
		return fmt.Errorf("create packages: %w", err)
	}
	if err := tx.UpdatePackagePositions(ctx, packageRows(d.moved)); err != nil {
		return fmt.Errorf("update packages: %w", err)
	}
	if len(d.repositioned) > 0 {
		rows := make([]*model.Crew, len(d.repositioned))
		for i, c := range d.repositioned {
			rows[i] = graph.CrewRow(c)
		}
		if err := tx.UpdateCrewPositions(ctx, rows); err != nil {
			return fmt.Errorf("update crews: %w", err)
		}
	}
	if len(d.deletedCrews) > 0 {
		if err := tx.DeleteCrews(ctx, d.deletedCrews); err != nil {
			return fmt.Errorf("delete crews: %w", err)
		}
	}
	return nil
}

func packageRows(pkgs []*graph.Package) []*model.Package {
	rows := make([]*model.Package, len(pkgs))
	for i, p := range pkgs {
		rows[i] = graph.PackageRow(p)
	}
	return rows
}

func (s *Synchronizer) buildPatch(b *graph.Building, d *delta) *Patch {
	m := s.mapper(b)
	patch := emptyPatch()
	for _, group := range [][]*graph.Package{d.crewPackages, d.newPackages, d.moved} {
		for _, p := range group {
			patch.Packages = append(patch.Packages, PatchPackage{
				ID:          p.ID,
				CrewID:      p.Crew.ID,
				StartColumn: p.Start,
				EndColumn:   p.End,
				StartDate:   m.DateOf(p.Start).Format(model.DateLayout),
				EndDate:     m.DateOf(p.End).Format(model.DateLayout),
			})
		}
	}
	for _, c := range d.createdCrews {
		patch.CreatedCrews = append(patch.CreatedCrews, PatchCrew{
			ID: c.ID, StageID: c.Stage.ID, LineID: c.Line.ID, Position: c.Position(),
		})
	}
	patch.DeletedCrewIDs = append(patch.DeletedCrewIDs, d.deletedCrews...)
	patch.MovedCount = len(patch.Packages)
	return patch
}
