package conduct

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/batonhq/baton/internal/agent"
	"github.com/batonhq/baton/internal/errors"
	"github.com/batonhq/baton/internal/event"
	"github.com/batonhq/baton/internal/score"
)

func teamLeadMovement() *score.Movement {
	return &score.Movement{
		Name:        "build",
		Persona:     "builder",
		Instruction: "Build the feature.",
		TeamLeader:  &score.TeamLeaderConfig{MaxSubtasks: 5},
		Rules: []score.Rule{
			{Condition: "all subtasks succeeded", Next: "review", Kind: score.RuleAggregate},
		},
	}
}

const twoSubtaskPlan = `<subtasks>{"subtasks": [
  {"id": "api", "title": "API endpoints", "instruction": "Build the endpoints."},
  {"id": "tests", "title": "Test suite", "instruction": "Write the tests."}
]}</subtasks>`

// planThen scripts a leader call returning plan, then per-subtask behavior.
func planThen(plan string, subtask func(call invocation) (agent.Response, error)) func(call invocation) (agent.Response, error) {
	return func(call invocation) (agent.Response, error) {
		if strings.Contains(call.instruction, "team leader") {
			return doneResponse(call.persona, plan), nil
		}
		return subtask(call)
	}
}

func TestTeamLead_AggregatesPartialFailure(t *testing.T) {
	inv := &fakeInvoker{fn: planThen(twoSubtaskPlan, func(call invocation) (agent.Response, error) {
		if strings.Contains(call.instruction, "endpoints") {
			return doneResponse(call.persona, "API done"), nil
		}
		return errorResponse(call.persona, "test failed"), nil
	})}

	tl := NewTeamLead(inv, nil, nil)
	state := NewPieceState("sonata")

	resp, err := tl.Run(context.Background(), teamLeadMovement(), state)
	if err != nil {
		t.Fatalf("Run() error = %v, want partial failure to succeed", err)
	}
	if resp.IsError() {
		t.Fatalf("Run() response status = %v, want done", resp.Status)
	}

	for _, want := range []string{
		"## decomposition",
		"## api: API endpoints",
		"API done",
		"## tests: Test suite",
		"[ERROR] test failed",
	} {
		if !strings.Contains(resp.Content, want) {
			t.Errorf("aggregate missing %q\ncontent:\n%s", want, resp.Content)
		}
	}
}

func TestTeamLead_AllSubtasksFailedIsFatal(t *testing.T) {
	inv := &fakeInvoker{fn: planThen(twoSubtaskPlan, func(call invocation) (agent.Response, error) {
		return errorResponse(call.persona, "boom"), nil
	})}

	tl := NewTeamLead(inv, nil, nil)
	_, err := tl.Run(context.Background(), teamLeadMovement(), NewPieceState("sonata"))

	if !errors.Is(err, errors.ErrAllSubtasksFailed) {
		t.Fatalf("Run() error = %v, want ErrAllSubtasksFailed", err)
	}
	// Both subtask failures must survive into the message.
	if msg := err.Error(); !strings.Contains(msg, "api") || !strings.Contains(msg, "tests") {
		t.Errorf("error message %q missing per-subtask failures", msg)
	}
}

func TestTeamLead_DecompositionErrorIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		fn      func(call invocation) (agent.Response, error)
		wantMsg string
	}{
		{
			name: "leader returns error status",
			fn: func(call invocation) (agent.Response, error) {
				return errorResponse(call.persona, "no context"), nil
			},
			wantMsg: "no context",
		},
		{
			name: "leader call fails",
			fn: func(call invocation) (agent.Response, error) {
				return agent.Response{}, errors.New("process died")
			},
			wantMsg: "process died",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &fakeInvoker{fn: tt.fn}
			tl := NewTeamLead(inv, nil, nil)

			_, err := tl.Run(context.Background(), teamLeadMovement(), NewPieceState("sonata"))
			if !errors.Is(err, errors.ErrDecompositionFailed) {
				t.Errorf("Run() error = %v, want ErrDecompositionFailed", err)
			}
			// The originating failure must survive into the message.
			if err != nil && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error message %q missing %q", err.Error(), tt.wantMsg)
			}
			if inv.callCount() != 1 {
				t.Errorf("invocations = %d, want 1 (no subtasks attempted)", inv.callCount())
			}
		})
	}
}

func TestTeamLead_RecordsSubtaskOutputs(t *testing.T) {
	inv := &fakeInvoker{fn: planThen(twoSubtaskPlan, func(call invocation) (agent.Response, error) {
		return doneResponse(call.persona, "done: "+call.instruction), nil
	})}

	tl := NewTeamLead(inv, nil, nil)
	state := NewPieceState("sonata")
	if _, err := tl.Run(context.Background(), teamLeadMovement(), state); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, key := range []string{"build.api", "build.tests"} {
		if _, ok := state.Output(key); !ok {
			t.Errorf("Output(%s) missing", key)
		}
	}
}

func TestTeamLead_AggregationIsInPlannedOrder(t *testing.T) {
	// The first planned subtask finishes last; the aggregate must still
	// list it first.
	release := make(chan struct{})
	inv := &fakeInvoker{fn: planThen(twoSubtaskPlan, func(call invocation) (agent.Response, error) {
		if strings.Contains(call.instruction, "endpoints") {
			<-release
			return doneResponse(call.persona, "slow api"), nil
		}
		close(release)
		return doneResponse(call.persona, "fast tests"), nil
	})}

	tl := NewTeamLead(inv, nil, nil)
	resp, err := tl.Run(context.Background(), teamLeadMovement(), NewPieceState("sonata"))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	apiAt := strings.Index(resp.Content, "## api:")
	testsAt := strings.Index(resp.Content, "## tests:")
	if apiAt < 0 || testsAt < 0 || apiAt > testsAt {
		t.Errorf("sections out of planned order (api at %d, tests at %d)", apiAt, testsAt)
	}
}

func TestTeamLead_SubtaskTimeoutSettlesAsError(t *testing.T) {
	plan := `<subtasks>{"subtasks": [
	  {"id": "slow", "title": "Slow", "instruction": "take forever", "timeout_ms": 20},
	  {"id": "quick", "title": "Quick", "instruction": "finish fast"}
	]}</subtasks>`

	tl := NewTeamLead(&ctxAwareInvoker{plan: plan}, nil, nil)
	resp, err := tl.Run(context.Background(), teamLeadMovement(), NewPieceState("sonata"))
	if err != nil {
		t.Fatalf("Run() error = %v, want timeout folded into aggregate", err)
	}
	if !strings.Contains(resp.Content, "[ERROR]") {
		t.Errorf("aggregate missing [ERROR] section for timed-out subtask:\n%s", resp.Content)
	}
	if !strings.Contains(resp.Content, "quick done") {
		t.Errorf("aggregate missing surviving subtask content:\n%s", resp.Content)
	}
}

// ctxAwareInvoker returns the plan for leader calls, blocks on ctx for the
// "take forever" subtask, and succeeds otherwise.
type ctxAwareInvoker struct {
	plan string
}

func (c *ctxAwareInvoker) Invoke(ctx context.Context, persona, instruction string, opts agent.InvokeOptions) (agent.Response, error) {
	switch {
	case strings.Contains(instruction, "team leader"):
		return doneResponse(persona, c.plan), nil
	case strings.Contains(instruction, "forever"):
		<-ctx.Done()
		return agent.Response{}, ctx.Err()
	default:
		return doneResponse(persona, "quick done"), nil
	}
}

func TestTeamLead_PublishesSubtaskEvents(t *testing.T) {
	inv := &fakeInvoker{fn: planThen(twoSubtaskPlan, func(call invocation) (agent.Response, error) {
		if call.opts.OnChunk != nil {
			call.opts.OnChunk("partial output")
		}
		return doneResponse(call.persona, "done"), nil
	})}

	bus := event.NewBus()
	var mu sync.Mutex
	counts := make(map[string]int)
	bus.SubscribeAll(func(e event.Event) {
		mu.Lock()
		counts[e.EventType()]++
		mu.Unlock()
	})

	tl := NewTeamLead(inv, bus, nil)
	if _, err := tl.Run(context.Background(), teamLeadMovement(), NewPieceState("sonata")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if counts["subtask.started"] != 2 {
		t.Errorf("subtask.started events = %d, want 2", counts["subtask.started"])
	}
	if counts["subtask.finished"] != 2 {
		t.Errorf("subtask.finished events = %d, want 2", counts["subtask.finished"])
	}
	if counts["subtask.progress"] != 2 {
		t.Errorf("subtask.progress events = %d, want 2", counts["subtask.progress"])
	}
}

func TestTeamLead_TruncatesPlanToMaxSubtasks(t *testing.T) {
	plan := `<subtasks>{"subtasks": [
	  {"id": "a", "title": "A", "instruction": "a"},
	  {"id": "b", "title": "B", "instruction": "b"},
	  {"id": "c", "title": "C", "instruction": "c"}
	]}</subtasks>`

	inv := &fakeInvoker{fn: planThen(plan, func(call invocation) (agent.Response, error) {
		return doneResponse(call.persona, "done"), nil
	})}

	m := teamLeadMovement()
	m.TeamLeader.MaxSubtasks = 2

	tl := NewTeamLead(inv, nil, nil)
	if _, err := tl.Run(context.Background(), m, NewPieceState("sonata")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	// One leader call plus exactly two subtask calls.
	if got := inv.callCount(); got != 3 {
		t.Errorf("invocations = %d, want 3 (plan truncated to 2 subtasks)", got)
	}
}

func TestTeamLead_SubtaskPersonaOverride(t *testing.T) {
	inv := &fakeInvoker{fn: planThen(twoSubtaskPlan, func(call invocation) (agent.Response, error) {
		return doneResponse(call.persona, "done"), nil
	})}

	m := teamLeadMovement()
	m.TeamLeader.SubtaskPersona = "worker"

	tl := NewTeamLead(inv, nil, nil)
	if _, err := tl.Run(context.Background(), m, NewPieceState("sonata")); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if leader := inv.call(0); leader.persona != "builder" {
		t.Errorf("leader persona = %q, want builder", leader.persona)
	}
	for i := 1; i < inv.callCount(); i++ {
		if call := inv.call(i); call.persona != "worker" {
			t.Errorf("subtask persona = %q, want worker", call.persona)
		}
	}
}

func TestTeamLead_SubtaskTimeoutResolution(t *testing.T) {
	cfg := &score.TeamLeaderConfig{MaxSubtasks: 3, TimeoutMs: 5000}

	if got := cfg.SubtaskTimeout(score.SubtaskDefinition{}); got != 5*time.Second {
		t.Errorf("SubtaskTimeout(default) = %v, want 5s", got)
	}
	if got := cfg.SubtaskTimeout(score.SubtaskDefinition{TimeoutMs: 100}); got != 100*time.Millisecond {
		t.Errorf("SubtaskTimeout(override) = %v, want 100ms", got)
	}
}
