// Package otel bridges the observe.Sink to OpenTelemetry tracing.
//
// It converts archival events into OTel spans so that project mutations,
// chat ingests, and report promotions are visible in any
// OpenTelemetry-compatible backend (Jaeger, Zipkin, Grafana, etc.).
package otel

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/replayops/agent-archive-go/observe"
)

const instrumentationName = "github.com/replayops/agent-archive-go"

// Sink implements observe.Sink by emitting OpenTelemetry spans.
type Sink struct {
	tracer trace.Tracer
}

// NewSink creates an OTel sink using the given TracerProvider.
// If tp is nil, it uses a noop tracer provider.
func NewSink(tp trace.TracerProvider) *Sink {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Sink{
		tracer: tp.Tracer(instrumentationName),
	}
}

// Emit converts an archival event into an OTel span.
func (s *Sink) Emit(_ context.Context, event observe.Event) error {
	event.Normalize()

	startTime := event.Timestamp
	_, span := s.tracer.Start(context.Background(), spanNameFor(event), trace.WithTimestamp(startTime))

	attrs := []attribute.KeyValue{
		attribute.String("archive.event.kind", string(event.Kind)),
	}
	if event.Project != "" {
		attrs = append(attrs, attribute.String("archive.project", event.Project))
	}
	if event.ScopeID != "" {
		attrs = append(attrs, attribute.String("archive.scope.id", event.ScopeID))
	}
	if event.AgentID != "" {
		attrs = append(attrs, attribute.String("archive.agent.id", event.AgentID))
	}
	if event.Name != "" {
		attrs = append(attrs, attribute.String("archive.event.name", event.Name))
	}
	if event.Status != "" {
		attrs = append(attrs, attribute.String("archive.status", string(event.Status)))
	}
	if event.DurationMs > 0 {
		attrs = append(attrs, attribute.Int64("archive.duration_ms", event.DurationMs))
	}
	for k, v := range event.Attributes {
		attrs = append(attrs, attribute.String("archive.attr."+k, fmt.Sprintf("%v", v)))
	}
	span.SetAttributes(attrs...)

	if event.Status == observe.StatusFailed {
		span.SetStatus(codes.Error, event.Error)
		if event.Error != "" {
			span.RecordError(fmt.Errorf("%s", event.Error))
		}
	} else {
		span.SetStatus(codes.Ok, "")
	}

	endTime := startTime
	if event.DurationMs > 0 {
		endTime = startTime.Add(time.Duration(event.DurationMs) * time.Millisecond)
	}
	span.End(trace.WithTimestamp(endTime))
	return nil
}

func spanNameFor(event observe.Event) string {
	switch event.Kind {
	case observe.KindProject:
		return "archive.project"
	case observe.KindChat:
		return "archive.chat.ingest"
	case observe.KindReport:
		return "archive.report.promote"
	case observe.KindAgent:
		return "archive.agent"
	default:
		if event.Name != "" {
			return "archive." + event.Name
		}
		return "archive.event"
	}
}

var _ observe.Sink = (*Sink)(nil)
