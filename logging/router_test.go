package logging

import (
	"context"
	"testing"
	"time"
)

// collectSink records events synchronously for assertions.
type collectSink struct {
	events []Event
}

func (s *collectSink) Write(event Event) error {
	s.events = append(s.events, event)
	return nil
}

func (s *collectSink) Close(context.Context) error { return nil }

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

func closeRouter(t *testing.T, r *Router) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRouterDeliversToSinks(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	sink := &collectSink{}
	r, err := NewRouter(fixedClock(now), DefaultConfig(), []NamedSink{{Name: "mem", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	r.Publish(context.Background(), Event{
		Type:     "run.started",
		Severity: SeverityInfo,
		Actor:    EntityRef{ID: "guardianCat", Kind: EntityKindPlayer},
		RunID:    "run-1",
	})
	closeRouter(t, r)

	if len(sink.events) != 1 {
		t.Fatalf("%d events delivered, want 1", len(sink.events))
	}
	got := sink.events[0]
	if got.Type != "run.started" || got.RunID != "run-1" {
		t.Fatalf("event %+v", got)
	}
	if !got.Time.Equal(now) {
		t.Fatalf("missing timestamp, got %v", got.Time)
	}
	stats := r.Stats()
	if stats.EventsTotal != 1 || stats.DroppedTotal != 0 {
		t.Fatalf("stats %+v", stats)
	}
}

func TestRouterSeverityFilter(t *testing.T) {
	sink := &collectSink{}
	cfg := DefaultConfig()
	cfg.MinimumSeverity = SeverityWarn
	r, err := NewRouter(nil, cfg, []NamedSink{{Name: "mem", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	r.Publish(context.Background(), Event{Type: "combat.enemy_defeated", Severity: SeverityInfo})
	r.Publish(context.Background(), Event{Type: "session.error", Severity: SeverityError})
	closeRouter(t, r)

	if len(sink.events) != 1 || sink.events[0].Type != "session.error" {
		t.Fatalf("severity filter failed: %+v", sink.events)
	}
}

func TestRouterIgnoresUntypedAndClosed(t *testing.T) {
	sink := &collectSink{}
	r, err := NewRouter(nil, DefaultConfig(), []NamedSink{{Name: "mem", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	r.Publish(context.Background(), Event{Severity: SeverityInfo})
	closeRouter(t, r)
	r.Publish(context.Background(), Event{Type: "run.started", Severity: SeverityInfo})

	if len(sink.events) != 0 {
		t.Fatalf("unexpected deliveries: %+v", sink.events)
	}
}

func TestRouterMergesConfigFields(t *testing.T) {
	sink := &collectSink{}
	cfg := DefaultConfig()
	cfg.Fields = map[string]any{"node": "test-1"}
	r, err := NewRouter(nil, cfg, []NamedSink{{Name: "mem", Sink: sink}})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	r.Publish(context.Background(), Event{
		Type:     "run.started",
		Severity: SeverityInfo,
		Extra:    map[string]any{"node": "event-wins"},
	})
	r.Publish(context.Background(), Event{Type: "run.finished", Severity: SeverityInfo})
	closeRouter(t, r)

	if len(sink.events) != 2 {
		t.Fatalf("%d events, want 2", len(sink.events))
	}
	if sink.events[0].Extra["node"] != "event-wins" {
		t.Fatalf("event fields must win: %+v", sink.events[0].Extra)
	}
	if sink.events[1].Extra["node"] != "test-1" {
		t.Fatalf("config fields missing: %+v", sink.events[1].Extra)
	}
}

func TestWithFieldsAnnotates(t *testing.T) {
	var got Event
	pub := WithFields(PublisherFunc(func(_ context.Context, event Event) {
		got = event
	}), map[string]any{"player": "player-1"})

	pub.Publish(context.Background(), Event{Type: "session.joined"})
	if got.Extra["player"] != "player-1" {
		t.Fatalf("fields missing: %+v", got.Extra)
	}

	// The original event must stay untouched.
	original := Event{Type: "session.joined", Extra: map[string]any{"a": 1}}
	pub.Publish(context.Background(), original)
	if _, leaked := original.Extra["player"]; leaked {
		t.Fatal("caller's event was mutated")
	}
}

func TestNopPublisher(t *testing.T) {
	NopPublisher().Publish(context.Background(), Event{Type: "run.started"})
	WithFields(nil, map[string]any{"k": "v"}).Publish(context.Background(), Event{Type: "x"})
}
