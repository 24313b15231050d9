package record

import (
	"encoding/json"
	"fmt"
)

// WorkflowHint is a replay-oriented projection of one reasoning step.
// Index is the 1-based position of the step within the source workflow.
type WorkflowHint struct {
	Expected    string         `json:"expected"`
	Index       int            `json:"index"`
	Instruction string         `json:"instruction"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Name        string         `json:"name"`
	Tool        string         `json:"tool,omitempty"`
}

// AgentReplayPlan gives a downstream replayer step-by-step guidance for
// reproducing an archived agent's behaviour without re-running any model.
type AgentReplayPlan struct {
	AgentID        string         `json:"agent_id"`
	ExpectedOutput string         `json:"expected_output"`
	GraphSnapshot  map[string]any `json:"graph_snapshot"`
	Hints          []WorkflowHint `json:"hints"`
	InputPrompt    string         `json:"input_prompt"`
	Persona        Persona        `json:"persona"`
	Skills         []string       `json:"skills"`
}

func (p *AgentReplayPlan) Normalize() {
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Hints == nil {
		p.Hints = []WorkflowHint{}
	}
	if p.GraphSnapshot == nil {
		p.GraphSnapshot = map[string]any{}
	}
}

// PlanFromAgent derives a replay plan from an agent process record. Hint
// ordering follows the workflow; Hints[i].Index == i+1.
func PlanFromAgent(agent AgentProcessRecord) AgentReplayPlan {
	hints := make([]WorkflowHint, 0, len(agent.Workflow))
	for i, step := range agent.Workflow {
		hints = append(hints, WorkflowHint{
			Index:       i + 1,
			Name:        step.Name,
			Instruction: step.InputText,
			Expected:    step.OutputText,
			Tool:        step.Tool,
			Metadata:    step.Metadata,
		})
	}
	plan := AgentReplayPlan{
		AgentID:        agent.AgentID,
		Persona:        agent.Persona,
		InputPrompt:    agent.InputPrompt,
		ExpectedOutput: agent.ExpectedOutput,
		Skills:         cloneStrings(agent.Skills),
		Hints:          hints,
		GraphSnapshot:  cloneMap(agent.GraphSnapshot),
	}
	plan.Normalize()
	return plan
}

// DecodePlan reconstructs a persisted replay plan from its stored JSON.
func DecodePlan(data []byte) (AgentReplayPlan, error) {
	var plan AgentReplayPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return AgentReplayPlan{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if plan.AgentID == "" {
		return AgentReplayPlan{}, fmt.Errorf("%w: missing field %q", ErrMalformed, "agent_id")
	}
	plan.Normalize()
	return plan, nil
}
