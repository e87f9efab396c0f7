// Package cache keeps hydrated building graphs resident between requests.
//
// Each user owns a single slot: setting a building for a user displaces any
// graph previously cached for that user. Entries whose last access is older
// than the TTL are removed by EvictStale, which callers invoke periodically,
// either directly or through the janitor started with StartJanitor.
package cache

import (
	"log/slog"
	"sync"
	"time"

	"github.com/IgorAraujoV/agilean-core-api/internal/graph"
)

// DefaultTTL is the idle time after which an entry becomes stale.
const DefaultTTL = 10 * time.Minute

type entry struct {
	buildingID string
	graph      *graph.Building
	lastAccess time.Time
}

// Sessions is a per-user single-slot graph cache. It is safe for concurrent
// use; the graphs it hands out are not.
type Sessions struct {
	mu      sync.Mutex
	entries map[string]*entry
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger

	janitorStop chan struct{}
	janitorDone chan struct{}
}

// Option configures Sessions.
type Option func(*Sessions)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Sessions) { s.now = now }
}

// WithLogger sets the logger used by the janitor.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sessions) { s.logger = logger }
}

// New returns an empty cache. ttl <= 0 selects DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Sessions {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Sessions{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the user's cached graph when it holds buildingID, refreshing
// its last access.
func (s *Sessions) Get(userID, buildingID string) (*graph.Building, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok || e.buildingID != buildingID {
		return nil, false
	}
	e.lastAccess = s.now()
	return e.graph, true
}

// Set caches b in the user's slot, displacing any previous graph.
func (s *Sessions) Set(userID, buildingID string, b *graph.Building) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[userID] = &entry{buildingID: buildingID, graph: b, lastAccess: s.now()}
}

// Invalidate empties the user's slot.
func (s *Sessions) Invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, userID)
}

// InvalidateBuilding empties every slot holding buildingID and returns how
// many were removed.
func (s *Sessions) InvalidateBuilding(buildingID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for user, e := range s.entries {
		if e.buildingID == buildingID {
			delete(s.entries, user)
			n++
		}
	}
	return n
}

// EvictStale removes entries idle for longer than the TTL and returns how
// many were removed.
func (s *Sessions) EvictStale() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for user, e := range s.entries {
		if e.lastAccess.Before(cutoff) {
			delete(s.entries, user)
			n++
		}
	}
	return n
}

// Len returns the number of resident graphs.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartJanitor launches a goroutine that calls EvictStale every interval.
// Call Stop to shut it down. interval <= 0 does nothing.
func (s *Sessions) StartJanitor(interval time.Duration) {
	if interval <= 0 || s.janitorStop != nil {
		return
	}
	s.janitorStop = make(chan struct{})
	s.janitorDone = make(chan struct{})

	go s.janitorLoop(interval)
	s.logger.Info("cache: janitor started", "ttl", s.ttl, "sweep_interval", interval)
}

// Stop shuts down the janitor goroutine.
func (s *Sessions) Stop() {
	if s.janitorStop != nil {
		close(s.janitorStop)
		<-s.janitorDone
		s.janitorStop = nil
		s.janitorDone = nil
	}
}

func (s *Sessions) janitorLoop(interval time.Duration) {
	defer close(s.janitorDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.janitorStop:
			return
		case <-ticker.C:
			if n := s.EvictStale(); n > 0 {
				s.logger.Info("cache: evicted stale graphs", "count", n)
			}
		}
	}
}
