package conduct

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/batonhq/baton/internal/score"
)

// decompositionPromptTemplate frames the leader call of a team-lead
// movement. The leader receives the movement instruction and answers with a
// subtask plan wrapped in <subtasks> tags.
const decompositionPromptTemplate = `You are the team leader for the %q movement. Split the work below into independent subtasks that can run in parallel. Do not do the work yourself.

## Work to Split

%s

## Answering

Respond with JSON wrapped in <subtasks></subtasks> tags:

<subtasks>
{
  "subtasks": [
    {"id": "subtask-1", "title": "short name", "instruction": "full prompt for this subtask"}
  ]
}
</subtasks>

Plan at most %d subtasks. Each instruction must stand alone: a subtask sees nothing but its own instruction.`

// BuildDecompositionPrompt renders the leader invocation for a team-lead
// movement.
func BuildDecompositionPrompt(m *score.Movement) string {
	return fmt.Sprintf(decompositionPromptTemplate, m.Name, m.Instruction, m.TeamLeader.MaxSubtasks)
}

// subtasksBlockRe extracts the JSON payload between <subtasks> tags.
var subtasksBlockRe = regexp.MustCompile(`(?s)<subtasks>\s*(.*?)\s*</subtasks>`)

// ParseSubtasks parses a leader's decomposition output into subtask
// definitions, capped at maxSubtasks. A leader proposing more than the cap
// is truncated, never failed; a leader whose output carries no parsable
// plan is an error.
//
// The payload is JSON wrapped in <subtasks></subtasks> tags; a bare JSON
// object is accepted as a fallback for leaders that drop the tags. Subtasks
// without an id are assigned positional ids, and ids are deduplicated so
// every subtask owns a distinct movementOutputs key.
func ParseSubtasks(output string, maxSubtasks int) ([]score.SubtaskDefinition, error) {
	payload := output
	if matches := subtasksBlockRe.FindStringSubmatch(output); len(matches) >= 2 {
		payload = matches[1]
	}

	var plan struct {
		Subtasks []score.SubtaskDefinition `json:"subtasks"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &plan); err != nil {
		return nil, fmt.Errorf("failed to parse subtask plan JSON: %w", err)
	}
	if len(plan.Subtasks) == 0 {
		return nil, fmt.Errorf("subtask plan contains no subtasks")
	}

	defs := plan.Subtasks
	if maxSubtasks > 0 && len(defs) > maxSubtasks {
		defs = defs[:maxSubtasks]
	}

	seen := make(map[string]bool, len(defs))
	for i := range defs {
		id := strings.TrimSpace(defs[i].ID)
		if id == "" {
			id = fmt.Sprintf("subtask-%d", i+1)
		}
		for seen[id] {
			id += "x"
		}
		seen[id] = true
		defs[i].ID = id

		if strings.TrimSpace(defs[i].Title) == "" {
			defs[i].Title = id
		}
		if strings.TrimSpace(defs[i].Instruction) == "" {
			return nil, fmt.Errorf("subtask %q has no instruction", id)
		}
	}

	return defs, nil
}
