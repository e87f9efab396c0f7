package service

import (
	"context"
	"fmt"
	"time"

	"github.com/IgorAraujoV/agilean-core-api/internal/graph"
	"github.com/IgorAraujoV/agilean-core-api/internal/model"
	"github.com/IgorAraujoV/agilean-core-api/internal/propagation"
)

// Stack adds a parallel crew to the package's stage group in its line.
func (s *Service) Stack(ctx context.Context, userID, buildingID, packageID string) (*propagation.Patch, error) {
	return s.restack(ctx, userID, buildingID, packageID, "stack", s.engine.Stack)
}

// Unstack removes one crew from the package's stage group in its line.
func (s *Service) Unstack(ctx context.Context, userID, buildingID, packageID string) (*propagation.Patch, error) {
	return s.restack(ctx, userID, buildingID, packageID, "unstack", s.engine.Unstack)
}

func (s *Service) restack(ctx context.Context, userID, buildingID, packageID, op string, fn func(*graph.Building, string) error) (*propagation.Patch, error) {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	p := b.Package(packageID)
	if p == nil {
		return nil, classify(fmt.Errorf("%w: package %q", graph.ErrNotFound, packageID))
	}

	snap := propagation.Capture(b, propagation.LineScope(p.Crew.Line.ID))
	if err := fn(b, packageID); err != nil {
		return nil, s.abort(userID, buildingID, op, err)
	}
	return s.persist(ctx, userID, b, snap, op)
}

// Move places a package at column and pushes everything that depends on it.
func (s *Service) Move(ctx context.Context, userID, buildingID, packageID string, column int) (*propagation.Patch, error) {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	return s.move(ctx, userID, b, packageID, func() int { return column })
}

// MoveToDate places a package on the first column of date.
func (s *Service) MoveToDate(ctx context.Context, userID, buildingID, packageID string, date time.Time) (*propagation.Patch, error) {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	return s.move(ctx, userID, b, packageID, func() int { return s.mapper(b).ColumnOf(date) })
}

func (s *Service) move(ctx context.Context, userID string, b *graph.Building, packageID string, column func() int) (*propagation.Patch, error) {
	p := b.Package(packageID)
	if p == nil {
		return nil, classify(fmt.Errorf("%w: package %q", graph.ErrNotFound, packageID))
	}
	if p.Status == model.StatusDone {
		return nil, fmt.Errorf("%w: package %q is done", ErrConflict, packageID)
	}
	col := column()
	if col < 1 {
		return nil, fmt.Errorf("%w: column %d is before the schedule start", ErrInvalid, col)
	}

	snap := propagation.Capture(b, propagation.BuildingScope())
	if _, err := s.engine.Move(b, packageID, col); err != nil {
		return nil, s.abort(userID, b.ID, "move", err)
	}
	return s.persist(ctx, userID, b, snap, "move")
}

// PackageView is a package row with its calendar dates resolved.
type PackageView struct {
	*model.Package
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// LinePackages lists the packages of a line as persisted, ordered by crew
// position then start column.
func (s *Service) LinePackages(ctx context.Context, userID, buildingID, lineID string) ([]PackageView, error) {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	if b.Line(lineID) == nil {
		return nil, classify(fmt.Errorf("%w: line %q", graph.ErrNotFound, lineID))
	}
	pkgs, err := s.store.ListLinePackages(ctx, lineID)
	if err != nil {
		return nil, fmt.Errorf("list line packages: %w", err)
	}
	m := s.mapper(b)
	views := make([]PackageView, len(pkgs))
	for i, p := range pkgs {
		views[i] = PackageView{
			Package:   p,
			StartDate: m.DateOf(p.StartColumn).Format(model.DateLayout),
			EndDate:   m.DateOf(p.EndColumn).Format(model.DateLayout),
		}
	}
	return views, nil
}
