package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/batonhq/baton/internal/errors"
)

// -----------------------------------------------------------------------------
// Follow-up Consults
// -----------------------------------------------------------------------------

// StatusConsultPromptTemplate is the prompt used to ask an agent, inside its
// own resumed session, which transition condition its earlier work satisfied.
// Placeholders: movement name, numbered condition list, tag example.
const StatusConsultPromptTemplate = `You have just completed the "%s" step. Review the work you did in this session and decide which one of the following outcomes it matches.

## Candidate Outcomes

%s

## Output Format

Reply with the single tag for the matching outcome, for example: %s

Reply with exactly CANNOT_JUDGE if none of the outcomes can be determined from the work in this session. Do not add any other commentary.`

// MisalignmentConsultPromptTemplate is the prompt used during health checks
// to ask an agent whether the latest response actually addresses the open
// findings. Placeholders: movement name, findings summary, latest response.
const MisalignmentConsultPromptTemplate = `You are reviewing an automated run that appears stuck on the "%s" step. Compare the open findings against the most recent response and decide whether the response addresses them.

## Open Findings

%s

## Most Recent Response

%s

## Output Format

If the response does NOT address the findings, reply starting with the word MISALIGNED followed by a one-paragraph justification.

If the response does address the findings, reply starting with the word ALIGNED followed by a one-paragraph justification.`

// BuildStatusConsultPrompt renders the status consult prompt for a movement
// and its candidate conditions. Conditions are numbered from 1 so the reply
// tag indexes align with rule order.
func BuildStatusConsultPrompt(movementName string, conditions []string) string {
	var list strings.Builder
	for i, cond := range conditions {
		fmt.Fprintf(&list, "%d. %s\n", i+1, cond)
	}
	example := fmt.Sprintf("[%s:1]", strings.ToUpper(movementName))
	return fmt.Sprintf(StatusConsultPromptTemplate, movementName, strings.TrimRight(list.String(), "\n"), example)
}

// BuildMisalignmentConsultPrompt renders the misalignment consult prompt.
func BuildMisalignmentConsultPrompt(movementName, findingsSummary, lastResponse string) string {
	return fmt.Sprintf(MisalignmentConsultPromptTemplate, movementName, findingsSummary, lastResponse)
}

// Consult resumes an existing agent session with a follow-up question.
// The session id is mandatory; consulting without one is a caller bug.
func Consult(ctx context.Context, inv Invoker, persona, sessionID, question string) (Response, error) {
	if sessionID == "" {
		return Response{}, errors.ErrSessionIDMissing
	}
	return inv.Invoke(ctx, persona, question, InvokeOptions{SessionID: sessionID})
}
