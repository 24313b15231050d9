// Package record defines the value types archived into a project folder:
// chat sessions, synthesized reports, derived agent process records, and the
// replay plans reconstructed from them.
//
// Struct fields are declared in the alphabetical order of their JSON keys so
// the canonical encoding (two-space indent, sorted keys) is byte-stable
// without a custom marshaller; maps inside a record sort automatically.
package record

import "errors"

// ErrMalformed marks stored JSON that is missing a required field.
var ErrMalformed = errors.New("record: malformed")

// Persona identifies the viewpoint used during an interaction.
// Empty optional fields are omitted from the encoding.
type Persona struct {
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Name        string         `json:"name"`
}

// ReasoningStep captures one unit of an agent's intermediate reasoning.
type ReasoningStep struct {
	InputText  string         `json:"input_text"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Name       string         `json:"name"`
	OutputText string         `json:"output_text"`
	Tool       string         `json:"tool,omitempty"`
}

// ChatSessionRecord represents one archived chat turn. The zero ChatID means
// "assign one at ingestion time"; the manager never mutates the caller's
// record, it works on a canonicalized copy.
type ChatSessionRecord struct {
	ChatID        string          `json:"chat_id"`
	CreatedAt     Timestamp       `json:"created_at"`
	GraphSnapshot map[string]any  `json:"graph_snapshot"`
	InputPrompt   string          `json:"input_prompt"`
	OutputText    string          `json:"output_text"`
	Persona       Persona         `json:"persona"`
	Reasoning     []ReasoningStep `json:"reasoning"`
	SkillsUsed    []string        `json:"skills_used"`
}

// Normalize fills capture-time defaults and guarantees non-nil collections
// so the encoding always carries [] and {} rather than null.
func (r *ChatSessionRecord) Normalize() {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = Now()
	}
	if r.SkillsUsed == nil {
		r.SkillsUsed = []string{}
	}
	if r.Reasoning == nil {
		r.Reasoning = []ReasoningStep{}
	}
	if r.GraphSnapshot == nil {
		r.GraphSnapshot = map[string]any{}
	}
}

// ReportSynthesisRecord is a synthesized report that can later be promoted
// into an agent process record.
type ReportSynthesisRecord struct {
	CreatedAt          Timestamp       `json:"created_at"`
	OutputText         string          `json:"output_text"`
	Persona            Persona         `json:"persona"`
	Question           string          `json:"question"`
	Reasoning          []ReasoningStep `json:"reasoning"`
	ReferencedAgentIDs []string        `json:"referenced_agent_ids"`
	ReportID           string          `json:"report_id"`
}

func (r *ReportSynthesisRecord) Normalize() {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = Now()
	}
	if r.Reasoning == nil {
		r.Reasoning = []ReasoningStep{}
	}
	if r.ReferencedAgentIDs == nil {
		r.ReferencedAgentIDs = []string{}
	}
}

func cloneSteps(steps []ReasoningStep) []ReasoningStep {
	out := make([]ReasoningStep, len(steps))
	copy(out, steps)
	return out
}

func cloneStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
