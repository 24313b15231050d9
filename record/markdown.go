package record

import (
	"fmt"
	"strings"
)

// Markdown renders the plan as a human-browsable document. Formatting only;
// every value is emitted verbatim.
func (p AgentReplayPlan) Markdown() string {
	var b strings.Builder

	b.WriteString("# Agent Replay Plan\n\n")
	fmt.Fprintf(&b, "Agent: `%s`\n\n", p.AgentID)

	b.WriteString("## Persona\n\n")
	fmt.Fprintf(&b, "- Name: %s\n", p.Persona.Name)
	if p.Persona.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", p.Persona.Description)
	}
	b.WriteString("\n")

	b.WriteString("## Skills\n\n")
	if len(p.Skills) == 0 {
		b.WriteString("(none)\n")
	}
	for _, skill := range p.Skills {
		fmt.Fprintf(&b, "- %s\n", skill)
	}
	b.WriteString("\n")

	b.WriteString("## Input Prompt\n\n")
	b.WriteString(p.InputPrompt)
	b.WriteString("\n\n")

	b.WriteString("## Expected Output\n\n")
	b.WriteString(p.ExpectedOutput)
	b.WriteString("\n\n")

	b.WriteString("## Workflow Hints\n")
	for _, hint := range p.Hints {
		fmt.Fprintf(&b, "\n### %d. %s\n\n", hint.Index, hint.Name)
		fmt.Fprintf(&b, "- Instruction: %s\n", hint.Instruction)
		fmt.Fprintf(&b, "- Expected: %s\n", hint.Expected)
		if hint.Tool != "" {
			fmt.Fprintf(&b, "- Tool: %s\n", hint.Tool)
		}
	}

	return b.String()
}
