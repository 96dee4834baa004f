package conduct

import (
	"fmt"
	"strings"

	"github.com/batonhq/baton/internal/score"
)

// tagGuidanceHeader introduces the outcome tags appended to a movement
// instruction when the movement carries tag-based rules.
const tagGuidanceHeader = `## Declaring the Outcome

When you finish, declare which outcome applies by writing its tag on its own line:`

// BuildInstruction renders the instruction for one movement execution: the
// configured instruction text, tag guidance for every tag-based rule, and
// any rule appendices.
//
// AI-judged rules are deliberately absent from the guidance — the judge
// callback evaluates those against the raw output, so asking the agent to
// tag them would bias the judgment. Aggregate rules match team-lead
// aggregates, where the tags arrive via subtask content.
func BuildInstruction(m *score.Movement) string {
	var b strings.Builder
	b.WriteString(m.Instruction)

	var guidance []string
	for i := range m.Rules {
		if m.Rules[i].Kind != score.RuleTagBased {
			continue
		}
		guidance = append(guidance, fmt.Sprintf("%s when %s", m.TagFor(i+1), m.Rules[i].Condition))
	}

	if len(guidance) > 0 {
		b.WriteString("\n\n")
		b.WriteString(tagGuidanceHeader)
		b.WriteString("\n\n")
		b.WriteString(strings.Join(guidance, "\n"))
		fmt.Fprintf(&b, "\n\nIf you cannot determine the outcome, write [%s:CANNOT_JUDGE] instead.",
			strings.ToUpper(m.Name))
	}

	for i := range m.Rules {
		if m.Rules[i].Appendix == "" {
			continue
		}
		b.WriteString("\n\n")
		b.WriteString(strings.TrimSpace(m.Rules[i].Appendix))
	}

	return b.String()
}
