// Package observe publishes archival lifecycle events. The project manager
// emits one event per mutating operation; sinks fan them out to logs,
// tracing backends, or custom consumers.
package observe

import "time"

type Kind string

type Status string

const (
	KindProject Kind = "project"
	KindChat    Kind = "chat"
	KindReport  Kind = "report"
	KindAgent   Kind = "agent"
	KindCustom  Kind = "custom"
)

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Event struct {
	ID         string         `json:"id,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Project    string         `json:"project,omitempty"`
	Kind       Kind           `json:"kind"`
	Status     Status         `json:"status,omitempty"`
	Name       string         `json:"name,omitempty"`
	ScopeID    string         `json:"scopeId,omitempty"`
	AgentID    string         `json:"agentId,omitempty"`
	Error      string         `json:"error,omitempty"`
	DurationMs int64          `json:"durationMs,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

func (e *Event) Normalize() {
	if e == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Kind == "" {
		e.Kind = KindCustom
	}
	if e.Status == "" {
		e.Status = StatusCompleted
	}
	if e.Attributes == nil {
		e.Attributes = map[string]any{}
	}
}
