package conduct

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/batonhq/baton/internal/agent"
	"github.com/batonhq/baton/internal/errors"
	"github.com/batonhq/baton/internal/event"
	"github.com/batonhq/baton/internal/logging"
	"github.com/batonhq/baton/internal/score"
)

// TeamLead runs one movement as a parallel decomposition: a leader call
// plans subtasks, the subtasks execute concurrently with independent
// cancellation, and the settled results aggregate into one movement
// response. No state survives between invocations.
type TeamLead struct {
	invoker agent.Invoker
	bus     *event.Bus
	log     *logging.Logger
}

// NewTeamLead builds a runner over the given invoker. The bus may be nil
// when no observer cares about subtask progress.
func NewTeamLead(invoker agent.Invoker, bus *event.Bus, log *logging.Logger) *TeamLead {
	if log == nil {
		log = logging.NopLogger()
	}
	return &TeamLead{invoker: invoker, bus: bus, log: log}
}

// subtaskOutcome is one settled fan-out slot. Exactly one of the response
// being usable or failure being set holds; a failed slot still carries a
// synthetic error response so aggregation is total over planned subtasks.
type subtaskOutcome struct {
	def      score.SubtaskDefinition
	response agent.Response
	failure  error
}

// failed reports whether the slot settled without a successful response.
func (o *subtaskOutcome) failed() bool {
	return o.failure != nil || o.response.IsError()
}

// reason returns the failure message for a failed slot.
func (o *subtaskOutcome) reason() string {
	if o.failure != nil {
		return o.failure.Error()
	}
	return o.response.Error
}

// Run executes the movement as a decomposition and returns the aggregated
// response. Two failures are fatal: the leader call itself erroring
// (errors.ErrDecompositionFailed) and every planned subtask failing
// (errors.ErrAllSubtasksFailed). An individual subtask failure is folded
// into the aggregate as an [ERROR] section instead.
//
// Every subtask response, synthetic or real, is also recorded in state
// under "{movement}.{subtaskID}" so later movements can reference a single
// subtask's output rather than the aggregate.
func (t *TeamLead) Run(ctx context.Context, m *score.Movement, state *PieceState) (agent.Response, error) {
	log := t.log.WithMovement(m.Name)

	defs, err := t.decompose(ctx, m, state)
	if err != nil {
		return agent.Response{}, err
	}
	log.Info("decomposition planned", "subtasks", len(defs))

	outcomes := t.fanOut(ctx, m, defs)

	for i := range outcomes {
		o := &outcomes[i]
		state.RecordOutput(OutputKey(m.Name, o.def.ID), o.response)

		reason := ""
		if o.failed() {
			reason = o.reason()
		}
		t.publish(event.NewSubtaskFinishedEvent(m.Name, o.def.ID, !o.failed(), reason))
	}

	if err := allFailed(m.Name, outcomes); err != nil {
		return agent.Response{}, err
	}

	return agent.Response{
		Persona:   m.Persona,
		Status:    agent.StatusDone,
		Content:   aggregate(defs, outcomes),
		Timestamp: time.Now(),
	}, nil
}

// decompose runs the leader call and parses its plan. Any leader failure is
// fatal for the whole movement.
func (t *TeamLead) decompose(ctx context.Context, m *score.Movement, state *PieceState) ([]score.SubtaskDefinition, error) {
	sessionID, _ := state.Session(m.Persona)

	resp, err := t.invoker.Invoke(ctx, m.Persona, BuildDecompositionPrompt(m), agent.InvokeOptions{
		SessionID: sessionID,
	})
	if err != nil {
		return nil, errors.NewMovementError(
			fmt.Sprintf("leader decomposition call failed: %v", err),
			errors.ErrDecompositionFailed).WithMovement(m.Name)
	}
	state.RecordSession(m.Persona, resp.SessionID)
	if resp.IsError() {
		return nil, errors.NewMovementError(
			fmt.Sprintf("leader decomposition returned error: %s", resp.Error),
			errors.ErrDecompositionFailed).WithMovement(m.Name)
	}

	defs, err := ParseSubtasks(resp.Content, m.TeamLeader.MaxSubtasks)
	if err != nil {
		return nil, errors.NewMovementError(err.Error(), errors.ErrNoSubtasks).WithMovement(m.Name)
	}
	return defs, nil
}

// fanOut launches every subtask concurrently and waits for all of them to
// settle. Results land in planned order regardless of completion order;
// a subtask that fails or panics settles into an error outcome rather than
// tearing down its siblings.
func (t *TeamLead) fanOut(ctx context.Context, m *score.Movement, defs []score.SubtaskDefinition) []subtaskOutcome {
	tl := m.TeamLeader
	persona := tl.SubtaskPersona
	if persona == "" {
		persona = m.Persona
	}

	outcomes := make([]subtaskOutcome, len(defs))
	var wg sync.WaitGroup

	for i := range defs {
		outcomes[i].def = defs[i]

		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = t.runSubtask(ctx, m, persona, defs[i])
		}(i)
	}
	wg.Wait()

	return outcomes
}

// runSubtask executes one subtask under its own derived context: the
// movement context composed with the subtask's effective timeout, so either
// source aborts this subtask alone.
func (t *TeamLead) runSubtask(ctx context.Context, m *score.Movement, persona string, def score.SubtaskDefinition) subtaskOutcome {
	subCtx := ctx
	if timeout := m.TeamLeader.SubtaskTimeout(def); timeout > 0 {
		var cancel context.CancelFunc
		subCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.publish(event.NewSubtaskStartedEvent(m.Name, def.ID, def.Title, persona))
	log := t.log.WithMovement(m.Name).WithSubtask(def.ID)
	log.Debug("subtask started", "title", def.Title, "persona", persona)

	resp, err := t.invoker.Invoke(subCtx, persona, def.Instruction, agent.InvokeOptions{
		OnChunk: func(chunk string) {
			t.publish(event.NewSubtaskProgressEvent(m.Name, def.ID, chunk))
		},
	})
	if err != nil {
		log.Warn("subtask failed", "error", err)
		return subtaskOutcome{
			def:     def,
			failure: err,
			response: agent.Response{
				Persona:   persona,
				Status:    agent.StatusError,
				Error:     fmt.Sprintf("%s: %v", def.ID, err),
				Timestamp: time.Now(),
			},
		}
	}

	log.Debug("subtask settled", "status", resp.Status)
	return subtaskOutcome{def: def, response: resp}
}

// allFailed returns the fatal all-subtasks-failed error when no subtask
// succeeded, with every subtask's failure joined into the message.
func allFailed(movement string, outcomes []subtaskOutcome) error {
	reasons := make([]string, 0, len(outcomes))
	for i := range outcomes {
		if !outcomes[i].failed() {
			return nil
		}
		reasons = append(reasons, fmt.Sprintf("%s: %s", outcomes[i].def.ID, outcomes[i].reason()))
	}
	return errors.NewMovementError(
		fmt.Sprintf("every subtask failed: %s", strings.Join(reasons, "; ")),
		errors.ErrAllSubtasksFailed).WithMovement(movement)
}

// aggregate builds the movement's combined content: the plan echo, then one
// section per subtask in planned order holding its content or its error.
// The result feeds the rule resolver exactly like a single-agent response.
func aggregate(defs []score.SubtaskDefinition, outcomes []subtaskOutcome) string {
	var b strings.Builder

	b.WriteString("## decomposition\n\n")
	for i := range defs {
		fmt.Fprintf(&b, "- %s: %s\n", defs[i].ID, defs[i].Title)
	}

	for i := range outcomes {
		o := &outcomes[i]
		fmt.Fprintf(&b, "\n## %s: %s\n\n", o.def.ID, o.def.Title)
		if o.failed() {
			fmt.Fprintf(&b, "[ERROR] %s\n", o.reason())
			continue
		}
		b.WriteString(strings.TrimRight(o.response.Content, "\n"))
		b.WriteString("\n")
	}

	return b.String()
}

// publish sends an event when a bus is attached.
func (t *TeamLead) publish(e event.Event) {
	if t.bus != nil {
		t.bus.Publish(e)
	}
}
