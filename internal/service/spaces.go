package service

import (
	"context"
	"fmt"

	"github.com/IgorAraujoV/agilean-core-api/internal/events"
	"github.com/IgorAraujoV/agilean-core-api/internal/graph"
	"github.com/IgorAraujoV/agilean-core-api/internal/store"
)

// DeleteSpace removes a space with its subtree, the packages placed on it and
// every link touching those packages. The delete is not diffed: the store
// cascades it in one transaction and every cached graph of the building is
// dropped so the next request re-hydrates.
func (s *Service) DeleteSpace(ctx context.Context, userID, buildingID, spaceID string) ([]string, error) {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	sp := b.Space(spaceID)
	if sp == nil {
		return nil, classify(fmt.Errorf("%w: space %q", graph.ErrNotFound, spaceID))
	}
	if p := activeUnder(b, sp); p != nil {
		return nil, fmt.Errorf("%w: space %q holds package %q in execution", ErrConflict, spaceID, p.ID)
	}

	var removed []string
	err = s.store.RunInTransaction(ctx, func(tx store.Store) error {
		var err error
		removed, err = tx.DeleteSpaceTree(ctx, spaceID)
		return err
	})
	if err != nil {
		return nil, s.abort(userID, buildingID, "delete_space", err)
	}
	n := s.cache.InvalidateBuilding(buildingID)
	s.logger.Info("space deleted", "building_id", buildingID, "space_id", spaceID,
		"spaces", len(removed), "invalidated_sessions", n)
	s.publish(ctx, events.TopicSpaceDeleted, buildingID, events.SpaceDeleted{
		BuildingID: buildingID, UserID: userID, SpaceIDs: removed,
	})
	return removed, nil
}

// activeUnder returns a package in execution on sp's subtree, or on a line
// rooted at sp.
func activeUnder(b *graph.Building, sp *graph.Space) *graph.Package {
	under := make(map[*graph.Space]bool)
	sp.Walk(func(x *graph.Space) { under[x] = true })
	for _, c := range b.Crews() {
		for _, p := range c.Packages {
			if (under[p.Space] || c.Line.Space == sp) && p.Status.IsActive() {
				return p
			}
		}
	}
	return nil
}
