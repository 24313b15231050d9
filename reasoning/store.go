// Package reasoning defines the append-only, queryable log of reasoning
// steps kept alongside a project's artifact files. The log is the canonical
// audit trail even if the JSON artifacts are deleted.
package reasoning

import (
	"context"

	"github.com/replayops/agent-archive-go/record"
)

// Scopes partitioning the log. The same table serves chat traces and report
// traces, keyed by (scope, scope_id).
const (
	ScopeChat   = "chat"
	ScopeReport = "report"
)

// StoredStep is one persisted reasoning step. Metadata is present only when
// it was recorded, never an empty map.
type StoredStep struct {
	StepIndex  int            `json:"step_index"`
	Name       string         `json:"name"`
	InputText  string         `json:"input_text"`
	OutputText string         `json:"output_text"`
	Tool       string         `json:"tool,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

type Store interface {
	// Append inserts all steps as one batch, tagging each with its 0-based
	// position within the call. An empty batch performs no I/O.
	Append(ctx context.Context, scope, scopeID string, steps []record.ReasoningStep) error

	// GetReasoning returns the steps for a scope ordered by step index
	// ascending, insertion order as tiebreaker across batches.
	GetReasoning(ctx context.Context, scope, scopeID string) ([]StoredStep, error)

	Close() error
}
