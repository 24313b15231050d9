package observe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (s *captureSink) Emit(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestEventNormalizeDefaults(t *testing.T) {
	var event Event
	event.Normalize()

	if event.Timestamp.IsZero() {
		t.Fatal("timestamp not set")
	}
	if event.Kind != KindCustom {
		t.Fatalf("unexpected kind %q", event.Kind)
	}
	if event.Status != StatusCompleted {
		t.Fatalf("unexpected status %q", event.Status)
	}
	if event.Attributes == nil {
		t.Fatal("attributes not initialised")
	}
}

func TestEventNormalizeKeepsExplicitValues(t *testing.T) {
	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	event := Event{Timestamp: stamp, Kind: KindChat, Status: StatusFailed}
	event.Normalize()

	if !event.Timestamp.Equal(stamp) || event.Kind != KindChat || event.Status != StatusFailed {
		t.Fatalf("normalize overwrote explicit values: %+v", event)
	}
}

func TestSinkFuncNilIsNoop(t *testing.T) {
	var f SinkFunc
	if err := f.Emit(context.Background(), Event{}); err != nil {
		t.Fatalf("nil SinkFunc returned %v", err)
	}
}

func TestDiscardSwallowsEvents(t *testing.T) {
	if err := Discard.Emit(context.Background(), Event{Name: "ignored"}); err != nil {
		t.Fatalf("discard returned %v", err)
	}
}

func TestFanoutCollapses(t *testing.T) {
	if err := Fanout().Emit(context.Background(), Event{}); err != nil {
		t.Fatalf("empty fanout returned %v", err)
	}

	single := &captureSink{}
	if got := Fanout(nil, single, nil); got != Sink(single) {
		t.Fatal("single-sink fanout should collapse to the sink itself")
	}
}

func TestFanoutDeliversToEverySink(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	failing := &captureSink{err: boom}
	healthy := &captureSink{}

	sink := Fanout(failing, healthy)
	err := sink.Emit(ctx, Event{Name: "a"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if healthy.count() != 1 {
		t.Fatal("failing sink shadowed delivery to the healthy one")
	}

	if err := Fanout(healthy, healthy).Emit(ctx, Event{Name: "b"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if healthy.count() != 3 {
		t.Fatalf("expected 3 deliveries, got %d", healthy.count())
	}
}

func TestAsyncSinkDeliversAndNormalizes(t *testing.T) {
	downstream := &captureSink{}
	sink := NewAsyncSink(downstream, 8)

	if err := sink.Emit(context.Background(), Event{Name: "async"}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	sink.Close()

	if downstream.count() != 1 {
		t.Fatalf("expected 1 delivery after close, got %d", downstream.count())
	}
	downstream.mu.Lock()
	event := downstream.events[0]
	downstream.mu.Unlock()
	if event.Kind != KindCustom || event.Timestamp.IsZero() {
		t.Fatalf("event not normalized: %+v", event)
	}
	if sink.Dropped() != 0 {
		t.Fatalf("unexpected drops: %d", sink.Dropped())
	}
}

func TestAsyncSinkDropsAndCancelsUnderPressure(t *testing.T) {
	release := make(chan struct{})
	blocking := SinkFunc(func(context.Context, Event) error {
		<-release
		return nil
	})

	sink := NewAsyncSink(blocking, 1)
	defer sink.Close()
	defer close(release)

	// First event occupies the worker, the rest fill the buffer. Once full,
	// further emits must drop and a cancelled context must win the select.
	background := context.Background()
	_ = sink.Emit(background, Event{Name: "worker"})
	deadline := time.Now().Add(2 * time.Second)
	for sink.Dropped() == 0 {
		if err := sink.Emit(background, Event{Name: "buffered"}); err != nil {
			t.Fatalf("emit: %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatal("queue never filled")
		}
	}

	ctx, cancel := context.WithCancel(background)
	cancel()
	if err := sink.Emit(ctx, Event{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAsyncSinkCloseIsIdempotent(t *testing.T) {
	sink := NewAsyncSink(&captureSink{}, 1)
	sink.Close()
	sink.Close()
}
