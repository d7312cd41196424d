package watch

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestHooksEnabled(t *testing.T) {
	var none Hooks
	if none.Enabled() {
		t.Fatalf("empty hook set should be disabled")
	}
	some := Hooks{&CaptureHook{}}
	if !some.Enabled() {
		t.Fatalf("non-empty hook set should be enabled")
	}
}

func TestNotifyNormalizesAndFansOut(t *testing.T) {
	first := &CaptureHook{}
	second := &CaptureHook{}
	hooks := Hooks{first, nil, second}

	err := hooks.Notify(context.Background(), Event{Op: " set ", Proxy: " counter "})
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	for _, capture := range []*CaptureHook{first, second} {
		events := capture.Snapshot()
		if len(events) != 1 {
			t.Fatalf("expected 1 event, got %d", len(events))
		}
		event := events[0]
		if event.Op != "set" || event.Proxy != "counter" {
			t.Fatalf("labels should be trimmed, got %+v", event)
		}
		if event.ID == "" {
			t.Fatalf("notify should assign an event id")
		}
		if event.OccurredAt.IsZero() {
			t.Fatalf("notify should stamp the event time")
		}
	}
}

func TestNotifyDropsEventsWithoutOp(t *testing.T) {
	capture := &CaptureHook{}
	hooks := Hooks{capture}
	if err := hooks.Notify(context.Background(), Event{Proxy: "counter"}); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if len(capture.Snapshot()) != 0 {
		t.Fatalf("events without an op must be dropped")
	}
}

func TestNotifyJoinsHookErrors(t *testing.T) {
	firstErr := errors.New("first sink down")
	secondErr := errors.New("second sink down")
	witness := &CaptureHook{}
	hooks := Hooks{
		&CaptureHook{Err: firstErr},
		witness,
		&CaptureHook{Err: secondErr},
	}

	err := hooks.Notify(context.Background(), Event{Op: "set"})
	if !errors.Is(err, firstErr) || !errors.Is(err, secondErr) {
		t.Fatalf("joined error should carry both causes, got %v", err)
	}
	if len(witness.Snapshot()) != 1 {
		t.Fatalf("a failing sibling must not starve other hooks")
	}
}

func TestHookFunc(t *testing.T) {
	var got Event
	fn := HookFunc(func(_ context.Context, event Event) error {
		got = event
		return nil
	})
	if err := fn.Notify(context.Background(), Event{Op: "set"}); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if got.Op != "set" {
		t.Fatalf("hook func should receive the event, got %+v", got)
	}

	var nilFn HookFunc
	if err := nilFn.Notify(context.Background(), Event{Op: "set"}); err != nil {
		t.Fatalf("nil hook func should be a no-op, got %v", err)
	}
}

func TestNormalizeEventKeepsExistingIdentity(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	event := NormalizeEvent(Event{ID: "fixed", Op: "set", OccurredAt: at})
	if event.ID != "fixed" {
		t.Fatalf("existing id must survive, got %q", event.ID)
	}
	if !event.OccurredAt.Equal(at) {
		t.Fatalf("existing timestamp must survive, got %v", event.OccurredAt)
	}
}

func TestEmitterAppliesDefaultProxyLabel(t *testing.T) {
	capture := &CaptureHook{}
	emitter := NewEmitter(Hooks{capture}, Config{Enabled: true, Proxy: "counter"})
	if !emitter.Enabled() {
		t.Fatalf("emitter with hooks should be enabled")
	}

	if err := emitter.Emit(context.Background(), Event{Op: "set"}); err != nil {
		t.Fatalf("emit failed: %v", err)
	}
	events := capture.Snapshot()
	if len(events) != 1 || events[0].Proxy != "counter" {
		t.Fatalf("emitter should label events, got %+v", events)
	}

	disabled := NewEmitter(Hooks{capture}, Config{Enabled: false})
	if disabled.Enabled() {
		t.Fatalf("disabled emitter should report disabled")
	}
	if err := disabled.Emit(context.Background(), Event{Op: "set"}); err != nil {
		t.Fatalf("disabled emit should be a no-op, got %v", err)
	}
	if len(capture.Snapshot()) != 1 {
		t.Fatalf("disabled emitter must not deliver events")
	}
}
