package backup_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/IgorAraujoV/agilean-core-api/internal/backup"
	"github.com/IgorAraujoV/agilean-core-api/internal/store/storetest"
)

// mockDestination records calls to Write.
type mockDestination struct {
	writes atomic.Int64
	last   atomic.Value // []byte
	err    error
}

func (d *mockDestination) Write(_ context.Context, data []byte) error {
	d.writes.Add(1)
	cp := make([]byte, len(data))
	copy(cp, data)
	d.last.Store(cp)
	return d.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func TestSchedulerStartStop(t *testing.T) {
	st := storetest.NewSeeded(t)
	dest := &mockDestination{}

	sched := backup.NewScheduler(st, []backup.Destination{dest}, 50*time.Millisecond, testLogger())
	sched.Start()

	// Wait for at least the initial backup and one tick.
	time.Sleep(120 * time.Millisecond)
	sched.Stop()

	if writes := dest.writes.Load(); writes < 2 {
		t.Fatalf("expected at least 2 writes, got %d", writes)
	}

	data, ok := dest.last.Load().([]byte)
	if !ok || len(data) == 0 {
		t.Fatal("expected non-empty data")
	}
	// 1 header + 1 building
	if lines := nonEmptyLines(string(data)); len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
}

func TestSchedulerStop_NoStart(t *testing.T) {
	sched := backup.NewScheduler(storetest.NewSQLite(t), nil, time.Minute, nil)
	// Stop without Start should not panic.
	sched.Stop()
}

func TestSchedulerRunOnce_FailingDestinationDoesNotBlockOthers(t *testing.T) {
	st := storetest.NewSeeded(t)
	failing := &mockDestination{err: errors.New("bucket gone")}
	ok := &mockDestination{}

	sched := backup.NewScheduler(st, []backup.Destination{failing, ok}, time.Minute, testLogger())
	sched.RunOnce(context.Background())

	if failing.writes.Load() != 1 || ok.writes.Load() != 1 {
		t.Fatalf("writes = %d, %d, want 1 each", failing.writes.Load(), ok.writes.Load())
	}
}
