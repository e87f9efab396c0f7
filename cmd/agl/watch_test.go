package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/IgorAraujoV/agilean-core-api/internal/events"
	"github.com/IgorAraujoV/agilean-core-api/internal/propagation"
	"github.com/IgorAraujoV/agilean-core-api/internal/ui"
)

func TestWatchSubject(t *testing.T) {
	for _, tc := range []struct {
		building, kind string
		want           string
	}{
		{"", "", "agl.>"},
		{"bl-1", "", "agl.*.*.bl-1"},
		{"", "patch.applied", "agl.patch.applied.*"},
		{"bl-1", "space.deleted", "agl.space.deleted.bl-1"},
	} {
		if got := watchSubject(tc.building, tc.kind); got != tc.want {
			t.Errorf("watchSubject(%q, %q) = %q, want %q", tc.building, tc.kind, got, tc.want)
		}
	}
}

func TestDescribeEvent(t *testing.T) {
	ui.ForceNoColor()
	for _, tc := range []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{
			name: "patch",
			data: `{"building_id":"bl-1","user_id":"u-1","operation":"move","patch":{"movedCount":2,"packages":[],"createdCrews":[],"deletedCrewIds":["cr-9"]}}`,
			want: "bl-1 move by u-1: 2 moved, 0 crew(s) created, 1 crew(s) deleted",
		},
		{
			name: "space deleted",
			data: `{"building_id":"bl-1","space_ids":["sp-f3","sp-f3a"]}`,
			want: "bl-1 space deleted: sp-f3, sp-f3a",
		},
		{
			name: "link deleted",
			data: `{"building_id":"bl-1","user_id":"u-2","link_id":"lk-1"}`,
			want: "bl-1 link deleted by u-2: lk-1",
		},
		{name: "no building", data: `{"link_id":"lk-1"}`, wantErr: true},
		{name: "unknown shape", data: `{"building_id":"bl-1"}`, wantErr: true},
		{name: "not json", data: `nope`, wantErr: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := describeEvent([]byte(tc.data))
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchNATS(t *testing.T) {
	ui.ForceNoColor()
	srv, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("starting embedded NATS: %v", err)
	}
	srv.Start()
	t.Cleanup(srv.Shutdown)
	if !srv.ReadyForConnections(5 * time.Second) {
		t.Fatal("embedded NATS not ready")
	}

	pub, err := events.NewNATSPublisher(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	defer pub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- watchNATS(ctx, &out, srv.ClientURL(), watchSubject("bl-1", "")) }()

	other := events.PatchApplied{BuildingID: "bl-2", Operation: "move", Patch: &propagation.Patch{MovedCount: 9}}
	mine := events.PatchApplied{BuildingID: "bl-1", Operation: "move", Patch: &propagation.Patch{MovedCount: 2}}

	// The watcher subscribes asynchronously, so publish until it reports.
	deadline := time.Now().Add(5 * time.Second)
	for !strings.Contains(out.String(), "bl-1 move: 2 moved") {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for event, output:\n%s", out.String())
		}
		_ = pub.Publish(ctx, events.Subject(events.TopicPatchApplied, "bl-2"), other)
		_ = pub.Publish(ctx, events.Subject(events.TopicPatchApplied, "bl-1"), mine)
		time.Sleep(50 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("watchNATS: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watchNATS did not return after cancel")
	}
	if strings.Contains(out.String(), "bl-2") {
		t.Errorf("event of another building leaked:\n%s", out.String())
	}
}

// chanSubscriber delivers the payloads of a prepared channel.
type chanSubscriber struct {
	ch      chan []byte
	subject string
}

func (s *chanSubscriber) Subscribe(subject string) (<-chan []byte, func(), error) {
	s.subject = subject
	return s.ch, func() {}, nil
}

func (s *chanSubscriber) Close() error { return nil }

func TestWatch_SkipsUndecodable(t *testing.T) {
	ui.ForceNoColor()
	sub := &chanSubscriber{ch: make(chan []byte, 3)}
	sub.ch <- []byte(`garbage`)
	sub.ch <- []byte(`{"building_id":"bl-1","link_id":"lk-2"}`)
	close(sub.ch)

	var out bytes.Buffer
	if err := watch(context.Background(), &out, sub, "agl.>", slog.New(slog.NewTextHandler(io.Discard, nil))); err != nil {
		t.Fatalf("watch: %v", err)
	}
	if sub.subject != "agl.>" {
		t.Errorf("subscribed to %q", sub.subject)
	}
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 1 || !strings.HasSuffix(lines[0], "bl-1 link deleted: lk-2") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}
