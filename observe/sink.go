package observe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Sink receives one event per archival mutation.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// SinkFunc adapts a plain function to the Sink interface.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Emit(ctx context.Context, event Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// Discard swallows every event. It is the manager's default sink.
var Discard Sink = SinkFunc(func(context.Context, Event) error { return nil })

// Fanout delivers each event to every sink, best effort: a failing sink does
// not shadow delivery to the others, and the collected failures surface as
// one joined error. Nil sinks are skipped.
func Fanout(sinks ...Sink) Sink {
	live := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	switch len(live) {
	case 0:
		return Discard
	case 1:
		return live[0]
	}
	return SinkFunc(func(ctx context.Context, event Event) error {
		var errs []error
		for _, s := range live {
			if err := s.Emit(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// AsyncSink decouples archival operations from slow downstreams. Events are
// normalized, queued into a bounded buffer, and delivered by one worker.
// When the buffer is full the event is counted and dropped so ingestion
// never stalls on telemetry.
type AsyncSink struct {
	downstream Sink
	queue      chan Event
	done       chan struct{}
	dropped    atomic.Int64
	closeOnce  sync.Once
}

func NewAsyncSink(downstream Sink, buffer int) *AsyncSink {
	if downstream == nil {
		downstream = Discard
	}
	if buffer <= 0 {
		buffer = 256
	}
	s := &AsyncSink{
		downstream: downstream,
		queue:      make(chan Event, buffer),
		done:       make(chan struct{}),
	}
	go s.drain()
	return s
}

func (s *AsyncSink) Emit(ctx context.Context, event Event) error {
	if s == nil {
		return nil
	}
	event.Normalize()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.queue <- event:
		return nil
	default:
		s.dropped.Add(1)
		return nil
	}
}

// Dropped reports how many events were discarded under buffer pressure.
func (s *AsyncSink) Dropped() int64 {
	if s == nil {
		return 0
	}
	return s.dropped.Load()
}

// Close stops accepting events and blocks until the queued ones are
// delivered. Safe to call more than once.
func (s *AsyncSink) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.queue)
		<-s.done
	})
}

func (s *AsyncSink) drain() {
	defer close(s.done)
	for event := range s.queue {
		_ = s.downstream.Emit(context.Background(), event)
	}
}

var _ Sink = SinkFunc(nil)
var _ Sink = (*AsyncSink)(nil)
