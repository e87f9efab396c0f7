// Package service exposes the schedule operations served over the API.
//
// Every mutating operation follows the same shape: fetch the caller's graph
// from the session cache (hydrating it on a miss), capture a snapshot of the
// scope the edit can reach, run the graph edit and the scheduling engine,
// then persist the delta with the synchronizer. A committed write drops every
// other user's graph of the building. When anything fails after the graph was
// touched, the caller's cache slot is dropped so the next request re-hydrates
// from the unchanged store.
//
// Operations on one building are serialized.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IgorAraujoV/agilean-core-api/internal/cache"
	"github.com/IgorAraujoV/agilean-core-api/internal/engine"
	"github.com/IgorAraujoV/agilean-core-api/internal/events"
	"github.com/IgorAraujoV/agilean-core-api/internal/graph"
	"github.com/IgorAraujoV/agilean-core-api/internal/idgen"
	"github.com/IgorAraujoV/agilean-core-api/internal/loader"
	"github.com/IgorAraujoV/agilean-core-api/internal/model"
	"github.com/IgorAraujoV/agilean-core-api/internal/propagation"
	"github.com/IgorAraujoV/agilean-core-api/internal/store"
)

var (
	// ErrNotFound is returned when the building or a referenced entity does
	// not exist.
	ErrNotFound = errors.New("service: not found")
	// ErrInvalid is returned for requests the graph rejects as malformed.
	ErrInvalid = errors.New("service: invalid request")
	// ErrConflict is returned for requests that clash with the current
	// schedule (duplicates, cycles, packages in execution).
	ErrConflict = errors.New("service: conflict")
)

// classify maps lower-level errors onto the service sentinels, keeping the
// original chain.
func classify(err error) error {
	var ve *model.ValidationError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ve):
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	case errors.Is(err, loader.ErrNotFound), errors.Is(err, graph.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, graph.ErrInvalid), errors.Is(err, graph.ErrSelfLoop),
		errors.Is(err, graph.ErrSameCrew), errors.Is(err, engine.ErrSingleCrew):
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	case errors.Is(err, graph.ErrDuplicate), errors.Is(err, graph.ErrCycle),
		errors.Is(err, engine.ErrCascadeLimit):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	Engine    engine.Engine
	Cache     *cache.Sessions
	Publisher events.Publisher
	NewID     idgen.Func
	// SlotsPerDay configures the linear column/date mapping.
	SlotsPerDay int
	Logger      *slog.Logger
}

// Service implements the schedule operations.
type Service struct {
	store     store.Store
	loader    *loader.Loader
	sync      *propagation.Synchronizer
	engine    engine.Engine
	cache     *cache.Sessions
	publisher events.Publisher
	newID     idgen.Func
	mapper    propagation.MapperFunc
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*buildingLock
}

type buildingLock struct {
	mu   sync.Mutex
	refs int // holders and waiters, guarded by Service.mu
}

// New returns a Service backed by st.
func New(st store.Store, opts Options) *Service {
	if opts.Engine == nil {
		opts.Engine = engine.NewReference()
	}
	if opts.Cache == nil {
		opts.Cache = cache.New(cache.DefaultTTL)
	}
	if opts.Publisher == nil {
		opts.Publisher = events.NoopPublisher{}
	}
	if opts.NewID == nil {
		opts.NewID = idgen.New
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	mapper := propagation.LinearMapper(opts.SlotsPerDay)
	return &Service{
		store:     st,
		loader:    loader.New(st, opts.Logger),
		sync:      propagation.New(st, mapper, opts.Logger),
		engine:    opts.Engine,
		cache:     opts.Cache,
		publisher: opts.Publisher,
		newID:     opts.NewID,
		mapper:    mapper,
		logger:    opts.Logger,
		locks:     make(map[string]*buildingLock),
	}
}

// Cache returns the session cache.
func (s *Service) Cache() *cache.Sessions { return s.cache }

// lock serializes operations on one building. The entry is dropped once no
// caller holds or waits for it.
func (s *Service) lock(buildingID string) func() {
	s.mu.Lock()
	l, ok := s.locks[buildingID]
	if !ok {
		l = &buildingLock{}
		s.locks[buildingID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, buildingID)
		}
		s.mu.Unlock()
	}
}

// building returns the user's cached graph, hydrating it on a miss.
func (s *Service) building(ctx context.Context, userID, buildingID string) (*graph.Building, error) {
	if b, ok := s.cache.Get(userID, buildingID); ok {
		return b, nil
	}
	b, err := s.loader.LoadWithPackages(ctx, buildingID)
	if err != nil {
		return nil, classify(err)
	}
	s.cache.Set(userID, buildingID, b)
	return b, nil
}

// abort drops the user's graph after a failure that may have left it edited.
func (s *Service) abort(userID, buildingID, op string, err error) error {
	s.cache.Invalidate(userID)
	s.logger.Error("operation failed, graph discarded",
		"op", op, "building_id", buildingID, "user_id", userID, "err", err)
	return classify(err)
}

// persist writes the delta of b against snap and publishes it.
func (s *Service) persist(ctx context.Context, userID string, b *graph.Building, snap *propagation.Snapshot, op string, opts ...propagation.Option) (*propagation.Patch, error) {
	patch, err := s.sync.ApplyAndPersist(ctx, b, snap, opts...)
	if err != nil {
		return nil, s.abort(userID, b.ID, op, err)
	}
	s.committed(userID, b)
	s.publish(ctx, events.TopicPatchApplied, b.ID, events.PatchApplied{
		BuildingID: b.ID,
		UserID:     userID,
		Operation:  op,
		Patch:      patch,
	})
	return patch, nil
}

// committed leaves b as the only cached graph of its building. Other users
// re-hydrate the committed rows on their next request.
func (s *Service) committed(userID string, b *graph.Building) {
	if n := s.cache.InvalidateBuilding(b.ID); n > 1 {
		s.logger.Debug("stale sessions dropped", "building_id", b.ID, "sessions", n-1)
	}
	s.cache.Set(userID, b.ID, b)
}

func (s *Service) publish(ctx context.Context, topic, buildingID string, event any) {
	if err := s.publisher.Publish(ctx, events.Subject(topic, buildingID), event); err != nil {
		s.logger.Warn("publish event failed", "topic", topic, "building_id", buildingID, "err", err)
	}
}

// Dataset returns the user's view of a building in row form.
func (s *Service) Dataset(ctx context.Context, userID, buildingID string) (*model.Dataset, error) {
	unlock := s.lock(buildingID)
	defer unlock()

	b, err := s.building(ctx, userID, buildingID)
	if err != nil {
		return nil, err
	}
	return graph.Export(b), nil
}

// Buildings lists every building in the store.
func (s *Service) Buildings(ctx context.Context) ([]*model.Building, error) {
	return s.store.ListBuildings(ctx)
}
