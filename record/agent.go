package record

import (
	"encoding/json"
	"fmt"
)

// AgentProcessRecord is the durable unit describing what an archived agent
// did, derived from either a chat session or a promoted report. It is
// written once and only ever re-read.
type AgentProcessRecord struct {
	AgentID        string          `json:"agent_id"`
	CreatedAt      Timestamp       `json:"created_at"`
	ExpectedOutput string          `json:"expected_output"`
	GraphSnapshot  map[string]any  `json:"graph_snapshot"`
	InputPrompt    string          `json:"input_prompt"`
	Persona        Persona         `json:"persona"`
	Skills         []string        `json:"skills"`
	SourceChatID   string          `json:"source_chat_id"`
	Workflow       []ReasoningStep `json:"workflow"`
}

func (r *AgentProcessRecord) Normalize() {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = Now()
	}
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.Workflow == nil {
		r.Workflow = []ReasoningStep{}
	}
	if r.GraphSnapshot == nil {
		r.GraphSnapshot = map[string]any{}
	}
}

// AgentFromChat derives an agent process record from a canonicalized chat
// session. The chat's skills become the agent's skills and its reasoning
// trace becomes the replayable workflow.
func AgentFromChat(chat ChatSessionRecord) AgentProcessRecord {
	agent := AgentProcessRecord{
		AgentID:        "agent-" + chat.ChatID,
		SourceChatID:   chat.ChatID,
		Persona:        chat.Persona,
		Skills:         cloneStrings(chat.SkillsUsed),
		Workflow:       cloneSteps(chat.Reasoning),
		InputPrompt:    chat.InputPrompt,
		ExpectedOutput: chat.OutputText,
		GraphSnapshot:  cloneMap(chat.GraphSnapshot),
	}
	agent.Normalize()
	return agent
}

// AgentFromReport derives an agent process record from a promoted report.
// The report's referenced agent ids become the new record's skills and its
// question becomes the input prompt. An empty agentID selects the default
// "agent-report-<report_id>".
func AgentFromReport(report ReportSynthesisRecord, agentID string) AgentProcessRecord {
	if agentID == "" {
		agentID = "agent-report-" + report.ReportID
	}
	agent := AgentProcessRecord{
		AgentID:        agentID,
		SourceChatID:   report.ReportID,
		Persona:        report.Persona,
		Skills:         cloneStrings(report.ReferencedAgentIDs),
		Workflow:       cloneSteps(report.Reasoning),
		InputPrompt:    report.Question,
		ExpectedOutput: report.OutputText,
	}
	agent.Normalize()
	return agent
}

type agentEnvelope struct {
	AgentID        *string         `json:"agent_id"`
	CreatedAt      *Timestamp      `json:"created_at"`
	ExpectedOutput *string         `json:"expected_output"`
	GraphSnapshot  map[string]any  `json:"graph_snapshot"`
	InputPrompt    *string         `json:"input_prompt"`
	Persona        *Persona        `json:"persona"`
	Skills         []string        `json:"skills"`
	SourceChatID   *string         `json:"source_chat_id"`
	Workflow       []ReasoningStep `json:"workflow"`
}

// DecodeAgent reconstructs an agent process record from its stored JSON.
// Missing optional fields (tool, metadata, graph_snapshot, skills, workflow,
// created_at) decode to their empty defaults; missing required fields fail
// with an ErrMalformed-wrapped error.
func DecodeAgent(data []byte) (AgentProcessRecord, error) {
	var env agentEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return AgentProcessRecord{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for field, ok := range map[string]bool{
		"agent_id":        env.AgentID != nil,
		"source_chat_id":  env.SourceChatID != nil,
		"input_prompt":    env.InputPrompt != nil,
		"expected_output": env.ExpectedOutput != nil,
		"persona":         env.Persona != nil,
	} {
		if !ok {
			return AgentProcessRecord{}, fmt.Errorf("%w: missing field %q", ErrMalformed, field)
		}
	}
	if env.Persona.Name == "" {
		return AgentProcessRecord{}, fmt.Errorf("%w: missing field %q", ErrMalformed, "persona.name")
	}

	agent := AgentProcessRecord{
		AgentID:        *env.AgentID,
		SourceChatID:   *env.SourceChatID,
		Persona:        *env.Persona,
		Skills:         env.Skills,
		Workflow:       env.Workflow,
		InputPrompt:    *env.InputPrompt,
		ExpectedOutput: *env.ExpectedOutput,
		GraphSnapshot:  env.GraphSnapshot,
	}
	if env.CreatedAt != nil {
		agent.CreatedAt = *env.CreatedAt
	}
	agent.Normalize()
	return agent, nil
}
