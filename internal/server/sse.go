package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/IgorAraujoV/agilean-core-api/internal/events"
)

const (
	// historySize is the number of recent events kept for Last-Event-ID
	// replay, across all buildings.
	historySize = 1000

	keepaliveInterval = 15 * time.Second

	// subscriberBuffer is the per-stream backlog; events beyond it are
	// dropped for that stream.
	subscriberBuffer = 64
)

// hubEvent is one published event as streamed to clients.
type hubEvent struct {
	ID         uint64
	Kind       string // e.g. "patch.applied"
	BuildingID string
	Data       []byte // JSON payload
}

// subscription is one open event stream of a building.
type subscription struct {
	buildingID string
	kinds      map[string]bool // empty means every kind
	ch         chan *hubEvent
}

func (s *subscription) wants(e *hubEvent) bool {
	if e.BuildingID != s.buildingID {
		return false
	}
	return len(s.kinds) == 0 || s.kinds[e.Kind]
}

// EventHub fans schedule events out to the SSE streams of each building and
// keeps a short history for reconnecting clients. It is an events.Publisher,
// wired next to NATS with events.Multi.
type EventHub struct {
	mu      sync.Mutex
	seq     uint64
	history []*hubEvent // oldest first
	subs    map[*subscription]struct{}
}

var _ events.Publisher = (*EventHub)(nil)

// NewEventHub returns an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{subs: make(map[*subscription]struct{})}
}

// Publish encodes event and delivers it to the streams of the building named
// by subject.
func (h *EventHub) Publish(_ context.Context, subject string, event any) error {
	kind, buildingID, ok := events.ParseSubject(subject)
	if !ok {
		return fmt.Errorf("event subject %q names no building", subject)
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for %s: %w", subject, err)
	}
	h.publish(kind, buildingID, data)
	return nil
}

// Close is a no-op; streams end with their requests.
func (h *EventHub) Close() error { return nil }

func (h *EventHub) publish(kind, buildingID string, data []byte) *hubEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	e := &hubEvent{ID: h.seq, Kind: kind, BuildingID: buildingID, Data: data}
	if len(h.history) == historySize {
		h.history = h.history[1:]
	}
	h.history = append(h.history, e)

	for s := range h.subs {
		if !s.wants(e) {
			continue
		}
		select {
		case s.ch <- e:
		default:
		}
	}
	return e
}

func (h *EventHub) subscribe(buildingID string, kinds []string) *subscription {
	s := &subscription{
		buildingID: buildingID,
		kinds:      make(map[string]bool, len(kinds)),
		ch:         make(chan *hubEvent, subscriberBuffer),
	}
	for _, k := range kinds {
		s.kinds[k] = true
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

func (h *EventHub) unsubscribe(s *subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// since returns the retained events after lastID that s wants, oldest first.
func (h *EventHub) since(s *subscription, lastID uint64) []*hubEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []*hubEvent
	for _, e := range h.history {
		if e.ID > lastID && s.wants(e) {
			out = append(out, e)
		}
	}
	return out
}

// parseKinds reads the comma-separated ?kinds= filter.
func parseKinds(q string) []string {
	var kinds []string
	for _, k := range strings.Split(q, ",") {
		if k = strings.TrimSpace(k); k != "" {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

// handleEventStream serves GET /v1/buildings/{id}/events. Each SSE event is
// named after its kind and carries the JSON payload published by the
// service. A Last-Event-ID header replays retained events first.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		writeError(w, http.StatusNotFound, "event stream disabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	sub := s.hub.subscribe(r.PathValue("id"), parseKinds(r.URL.Query().Get("kinds")))
	defer s.hub.unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	// last suppresses events delivered both by replay and by the live
	// channel.
	var last uint64
	if v := r.Header.Get("Last-Event-ID"); v != "" {
		if lastID, err := strconv.ParseUint(v, 10, 64); err == nil {
			for _, e := range s.hub.since(sub, lastID) {
				writeSSEEvent(w, e)
				last = e.ID
			}
		}
	}
	flusher.Flush()

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case e := <-sub.ch:
			if e.ID <= last {
				continue
			}
			writeSSEEvent(w, e)
			last = e.ID
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ":keepalive\n\n")
			flusher.Flush()
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, e *hubEvent) {
	fmt.Fprintf(w, "id:%d\nevent:%s\ndata:%s\n\n", e.ID, e.Kind, e.Data)
}
