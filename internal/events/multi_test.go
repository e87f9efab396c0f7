package events

import (
	"context"
	"errors"
	"testing"
)

type countingPublisher struct {
	subjects []string
	err      error
	closed   bool
}

func (p *countingPublisher) Publish(_ context.Context, subject string, _ any) error {
	p.subjects = append(p.subjects, subject)
	return p.err
}

func (p *countingPublisher) Close() error {
	p.closed = true
	return p.err
}

func TestMulti(t *testing.T) {
	boom := errors.New("boom")
	failing := &countingPublisher{err: boom}
	ok := &countingPublisher{}
	pub := Multi(failing, ok)

	err := pub.Publish(context.Background(), "agl.patch.applied.bl-1", PatchApplied{})
	if !errors.Is(err, boom) {
		t.Fatalf("Publish err = %v, want boom", err)
	}
	if len(ok.subjects) != 1 || ok.subjects[0] != "agl.patch.applied.bl-1" {
		t.Fatalf("second publisher got %v", ok.subjects)
	}

	if err := pub.Close(); !errors.Is(err, boom) {
		t.Fatalf("Close err = %v, want boom", err)
	}
	if !failing.closed || !ok.closed {
		t.Fatal("expected every publisher to be closed")
	}
}

func TestMulti_Empty(t *testing.T) {
	pub := Multi()
	if err := pub.Publish(context.Background(), TopicPatchApplied, nil); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
