package events

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestPublishRunsEveryHandler(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	d := NewInMemoryDispatcher(zap.New(core))

	var calls []string
	d.Subscribe(EventShiftClaimed, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("store down")
	})
	d.Subscribe(EventShiftClaimed, func(context.Context, Event) error {
		calls = append(calls, "second")
		panic("boom")
	})
	d.Subscribe(EventShiftClaimed, func(context.Context, Event) error {
		calls = append(calls, "third")
		return nil
	})
	d.Subscribe(EventShiftLocked, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "evt-1", Type: EventShiftClaimed})
	if len(calls) != 3 || calls[0] != "first" || calls[2] != "third" {
		t.Fatalf("unexpected handler calls %v", calls)
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 combined errors, got %d (%v)", got, err)
	}
	if logs.FilterMessage("event handler failed").Len() != 2 {
		t.Fatalf("expected two warnings, got %d", logs.Len())
	}
}

func TestPublishWithoutSubscribers(t *testing.T) {
	t.Parallel()

	d := NewInMemoryDispatcher(nil)
	if err := d.Publish(context.Background(), Event{Type: EventSwapReviewed}); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
