package service

import (
	"context"
	"fmt"

	"github.com/IgorAraujoV/agilean-core-api/internal/events"
	"github.com/IgorAraujoV/agilean-core-api/internal/graph"
	"github.com/IgorAraujoV/agilean-core-api/internal/idgen"
	"github.com/IgorAraujoV/agilean-core-api/internal/model"
	"github.com/IgorAraujoV/agilean-core-api/internal/propagation"
	"github.com/IgorAraujoV/agilean-core-api/internal/store"
)

// LinkInput describes a link between two packages.
type LinkInput struct {
	SourcePackageID string `json:"source_package_id"`
	DestPackageID   string `json:"dest_package_id"`
	Latency         int    `json:"latency"`
	// Locked defaults to true.
	Locked *bool `json:"locked,omitempty"`
}

// LinkResult is a persisted link with the delta its edit caused.
type LinkResult struct {
	Link  *model.Link        `json:"link"`
	Patch *propagation.Patch `json:"patch"`
}

// CreateLink registers a link and, when locked, pushes the destination.
func (s *Service) CreateLink(ctx context.Context, userID, buildingID string, in LinkInput) (*LinkResult, error) {
	locked := in.Locked == nil || *in.Locked
	if err := model.ValidateLink(&model.Link{
		SourcePackageID: in.SourcePackageID, DestPackageID: in.DestPackageID, Latency: in.Latency, Locked: locked,
	}); err != nil {
		return nil, classify(err)
	}

	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	id, err := s.newID(idgen.Link)
	if err != nil {
		return nil, err
	}

	snap := propagation.Capture(b, propagation.BuildingScope())
	l, err := b.AddLink(id, in.SourcePackageID, in.DestPackageID, in.Latency)
	if err != nil {
		return nil, classify(err)
	}
	l.Locked = locked
	row := graph.LinkRow(l)
	return s.relink(ctx, userID, b, snap, l, "create_link", func(ctx context.Context, tx store.Store) error {
		return tx.CreateLink(ctx, row)
	})
}

// UpdateLink changes a link's latency and lock.
func (s *Service) UpdateLink(ctx context.Context, userID, buildingID, linkID string, latency int, locked bool) (*LinkResult, error) {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	return s.updateLink(ctx, userID, b, linkID, func(l *graph.Link) (int, bool) { return latency, locked }, "update_link")
}

// ToggleLock flips a link's lock.
func (s *Service) ToggleLock(ctx context.Context, userID, buildingID, linkID string) (*LinkResult, error) {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	return s.updateLink(ctx, userID, b, linkID, func(l *graph.Link) (int, bool) { return l.Latency, !l.Locked }, "toggle_lock")
}

func (s *Service) updateLink(ctx context.Context, userID string, b *graph.Building, linkID string, next func(*graph.Link) (int, bool), op string) (*LinkResult, error) {
	l := b.Link(linkID)
	if l == nil {
		return nil, classify(fmt.Errorf("%w: link %q", graph.ErrNotFound, linkID))
	}
	latency, locked := next(l)
	row := graph.LinkRow(l)
	row.Latency, row.Locked = latency, locked
	if err := model.ValidateLink(row); err != nil {
		return nil, classify(err)
	}

	snap := propagation.Capture(b, propagation.BuildingScope())
	l.Latency, l.Locked = latency, locked
	return s.relink(ctx, userID, b, snap, l, op, func(ctx context.Context, tx store.Store) error {
		return tx.UpdateLink(ctx, row)
	})
}

// relink repositions from the link's destination crew and persists the link
// row with the resulting delta.
func (s *Service) relink(ctx context.Context, userID string, b *graph.Building, snap *propagation.Snapshot, l *graph.Link, op string, write propagation.Writer) (*LinkResult, error) {
	if l.Locked {
		if err := s.engine.RepositionFrom(b, []*graph.Crew{l.Dest.Crew}); err != nil {
			return nil, s.abort(userID, b.ID, op, err)
		}
	}
	patch, err := s.persist(ctx, userID, b, snap, op, propagation.Before(write))
	if err != nil {
		return nil, err
	}
	return &LinkResult{Link: graph.LinkRow(l), Patch: patch}, nil
}

// DeleteLink removes a link. Removing a constraint never moves a package, so
// the row is deleted directly.
func (s *Service) DeleteLink(ctx context.Context, userID, buildingID, linkID string) error {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return err
	}
	if b.Link(linkID) == nil {
		return classify(fmt.Errorf("%w: link %q", graph.ErrNotFound, linkID))
	}
	if err := s.store.RunInTransaction(ctx, func(tx store.Store) error {
		return tx.DeleteLink(ctx, linkID)
	}); err != nil {
		return s.abort(userID, buildingID, "delete_link", err)
	}
	if err := b.RemoveLink(linkID); err != nil {
		return s.abort(userID, buildingID, "delete_link", err)
	}
	s.committed(userID, b)
	s.publish(ctx, events.TopicLinkDeleted, buildingID, events.LinkDeleted{
		BuildingID: buildingID, UserID: userID, LinkID: linkID,
	})
	return nil
}
