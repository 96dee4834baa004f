package conduct

import (
	"context"
	"fmt"
	"time"

	"github.com/batonhq/baton/internal/agent"
	"github.com/batonhq/baton/internal/errors"
	"github.com/batonhq/baton/internal/event"
	"github.com/batonhq/baton/internal/health"
	"github.com/batonhq/baton/internal/logging"
	"github.com/batonhq/baton/internal/score"
	"github.com/batonhq/baton/internal/util"
)

// DefaultMaxIterations bounds a run when neither the piece nor the engine
// config sets a ceiling.
const DefaultMaxIterations = 50

// EngineConfig wires an Engine. Piece and Invoker are required; everything
// else has a working zero value.
type EngineConfig struct {
	// Piece is the validated piece definition to conduct.
	Piece *score.Piece

	// Invoker dispatches agent calls.
	Invoker agent.Invoker

	// Judge is the optional AI-judge callback for AI-judged rules.
	Judge JudgeFunc

	// Chain overrides the judgment strategy chain. Nil means DefaultChain.
	Chain *Chain

	// Bus receives engine events. Nil disables publishing.
	Bus *event.Bus

	// Logger receives engine logs. Nil means no logging.
	Logger *logging.Logger

	// Thresholds configure the health tracker's trend classification.
	Thresholds health.Thresholds

	// ReportDir is where report-phase movements leave their artifacts.
	// Empty disables report-based judgment.
	ReportDir string

	// Cwd is handed to the AI-judge callback.
	Cwd string

	// MaxIterations caps total movement executions when the piece itself
	// does not. Zero means DefaultMaxIterations.
	MaxIterations int

	// AgentTimeout bounds each single-call agent invocation. Zero means no
	// ceiling. Team-lead subtasks carry their own per-subtask timeouts.
	AgentTimeout time.Duration
}

// RunResult is the terminal outcome of one piece run.
type RunResult struct {
	// Outcome is the terminal target reached: score.TargetComplete or
	// score.TargetAbort.
	Outcome string

	// Reason carries context for aborted runs (iteration ceiling, the
	// configured ABORT rule that fired).
	Reason string

	// Iterations is the total number of movement executions.
	Iterations int

	// State is the final run state, including every recorded output.
	State *PieceState

	// LastHealth is the most recent health snapshot, when any
	// report-phase movement ran.
	LastHealth *health.Snapshot
}

// Completed returns true if the run reached COMPLETE.
func (r *RunResult) Completed() bool {
	return r.Outcome == score.TargetComplete
}

// Engine conducts one piece: movements execute one at a time, each
// movement's output resolves into the next movement, and the loop ends at a
// terminal target or the iteration ceiling.
type Engine struct {
	piece    *score.Piece
	invoker  agent.Invoker
	judge    JudgeFunc
	chain    *Chain
	bus      *event.Bus
	log      *logging.Logger
	tracker  *health.Tracker
	teamLead *TeamLead

	reportDir     string
	cwd           string
	maxIterations int
	agentTimeout  time.Duration

	// lastHealth is the most recent snapshot from observeHealth. The run
	// loop is single-threaded, so no lock guards it.
	lastHealth *health.Snapshot
}

// NewEngine validates the config and builds an engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Piece == nil {
		return nil, errors.NewValidationError("piece is required").WithField("piece")
	}
	if cfg.Piece.EntryMovement() == nil {
		return nil, errors.NewValidationError("piece has no entry movement").WithField("piece")
	}
	if cfg.Invoker == nil {
		return nil, errors.NewValidationError("invoker is required").WithField("invoker")
	}

	chain := cfg.Chain
	if chain == nil {
		chain = DefaultChain()
	}
	log := cfg.Logger
	if log == nil {
		log = logging.NopLogger()
	}

	maxIterations := cfg.Piece.MaxIterations
	if maxIterations <= 0 {
		maxIterations = cfg.MaxIterations
	}
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}

	return &Engine{
		piece:         cfg.Piece,
		invoker:       cfg.Invoker,
		judge:         cfg.Judge,
		chain:         chain,
		bus:           cfg.Bus,
		log:           log,
		tracker:       health.NewTracker(cfg.Thresholds),
		teamLead:      NewTeamLead(cfg.Invoker, cfg.Bus, log),
		reportDir:     cfg.ReportDir,
		cwd:           cfg.Cwd,
		maxIterations: maxIterations,
		agentTimeout:  cfg.AgentTimeout,
	}, nil
}

// Tracker exposes the engine's health tracker for end-of-run reporting.
func (e *Engine) Tracker() *health.Tracker {
	return e.tracker
}

// Run conducts the piece until COMPLETE, ABORT, the iteration ceiling, or a
// fatal movement error. The returned state is valid even on error.
func (e *Engine) Run(ctx context.Context) (*RunResult, error) {
	runID := util.NewID()
	state := NewPieceState(e.piece.Name)
	log := e.log.WithRun(runID)

	current := e.piece.EntryMovement()
	e.publish(event.NewRunStartedEvent(runID, e.piece.Name, current.Name))
	log.Info("run started", "piece", e.piece.Name, "entry", current.Name)

	result := &RunResult{State: state}
	for {
		if err := ctx.Err(); err != nil {
			result.Outcome = score.TargetAbort
			result.Reason = "canceled"
			result.Iterations = state.Iteration()
			e.finish(runID, result, log)
			return result, errors.Wrap(errors.ErrCanceled, "piece run")
		}
		if state.Iteration() >= e.maxIterations {
			result.Outcome = score.TargetAbort
			result.Reason = fmt.Sprintf("iteration ceiling (%d) reached", e.maxIterations)
			result.Iterations = state.Iteration()
			e.finish(runID, result, log)
			return result, errors.NewMovementError(result.Reason, errors.ErrMaxIterations).
				WithPiece(e.piece.Name).WithMovement(current.Name)
		}

		next, err := e.runMovement(ctx, current, state, log)
		result.Iterations = state.Iteration()
		if err != nil {
			result.Outcome = score.TargetAbort
			result.Reason = err.Error()
			e.finish(runID, result, log)
			return result, err
		}

		if score.IsTerminalTarget(next) {
			result.Outcome = next
			if next == score.TargetAbort {
				result.Reason = fmt.Sprintf("movement %q transitioned to ABORT", current.Name)
			}
			e.finish(runID, result, log)
			return result, nil
		}

		current = e.piece.MovementByName(next)
		if current == nil {
			// Load-time validation rejects unknown targets; reaching this
			// means the piece was mutated after validation.
			result.Outcome = score.TargetAbort
			result.Reason = fmt.Sprintf("transition to unknown movement %q", next)
			e.finish(runID, result, log)
			return result, errors.NewNotFoundError("movement", next)
		}
	}
}

// finish records the terminal health snapshot and publishes run completion.
func (e *Engine) finish(runID string, result *RunResult, log *logging.Logger) {
	result.LastHealth = e.lastHealth
	e.publish(event.NewRunFinishedEvent(runID, result.Outcome, result.Iterations, result.Reason))
	log.Info("run finished", "outcome", result.Outcome, "iterations", result.Iterations, "reason", result.Reason)
}

// runMovement executes one movement and resolves its transition target.
func (e *Engine) runMovement(ctx context.Context, m *score.Movement, state *PieceState, log *logging.Logger) (string, error) {
	iteration := state.BeginIteration(m.Name)
	mlog := log.WithMovement(m.Name)
	e.publish(event.NewMovementStartedEvent(m.Name, m.Persona, iteration))
	mlog.Info("movement started", "iteration", iteration, "team_lead", m.HasTeamLeader())

	started := time.Now()
	var (
		resp agent.Response
		err  error
	)
	if m.HasTeamLeader() {
		resp, err = e.teamLead.Run(ctx, m, state)
	} else {
		resp, err = e.invokeSingle(ctx, m, state)
	}
	if err != nil {
		e.publish(event.NewMovementFinishedEvent(m.Name, string(agent.StatusError), time.Since(started)))
		return "", err
	}

	state.RecordOutput(OutputKey(m.Name, ""), resp)
	e.publish(event.NewMovementFinishedEvent(m.Name, string(resp.Status), time.Since(started)))
	mlog.Info("movement finished", "status", resp.Status, "duration", time.Since(started))

	if m.ReportPhase {
		e.observeHealth(ctx, m, state, resp, iteration, mlog)
	}

	return e.resolveTransition(ctx, m, state, resp, mlog)
}

// invokeSingle runs the movement as one agent call, resuming the persona's
// recorded session when one exists. An error-status response is fatal for
// the movement: single calls have no sibling results to absorb the failure.
func (e *Engine) invokeSingle(ctx context.Context, m *score.Movement, state *PieceState) (agent.Response, error) {
	sessionID, _ := state.Session(m.Persona)

	resp, err := e.invoker.Invoke(ctx, m.Persona, BuildInstruction(m), agent.InvokeOptions{
		SessionID: sessionID,
		Timeout:   e.agentTimeout,
	})
	if err != nil {
		return agent.Response{}, errors.NewMovementError("agent call failed", err).
			WithMovement(m.Name)
	}
	state.RecordSession(m.Persona, resp.SessionID)
	if resp.IsError() {
		return agent.Response{}, errors.NewMovementError(
			fmt.Sprintf("agent returned error: %s", resp.Error),
			errors.ErrAgentInvocation).WithMovement(m.Name)
	}
	return resp, nil
}

// resolveTransition picks the next movement from the movement's output:
// literal tag first, then the AI judge for AI-judged rules, then the
// judgment strategy chain. A movement with no rules falls through to
// COMPLETE. An unresolved transition aborts the run.
func (e *Engine) resolveTransition(ctx context.Context, m *score.Movement, state *PieceState, resp agent.Response, log *logging.Logger) (string, error) {
	if !m.HasRules() {
		e.publish(event.NewTransitionEvent(m.Name, score.TargetComplete, -1, "fallthrough"))
		return score.TargetComplete, nil
	}

	det := m.DetectTag(resp.Content)
	if det.Matched {
		if next, ok := m.NextByRuleIndex(det.RuleIndex); ok {
			e.publish(event.NewTransitionEvent(m.Name, next, det.RuleIndex, "tag"))
			log.Info("transition by tag", "tag", det.Tag, "next", next)
			return next, nil
		}
		log.Warn("tag names a rule without a transition", "tag", det.Tag)
	}

	if !det.Matched && e.judge != nil && hasAIJudgedRules(m) {
		if next, idx, ok := e.judgeByAI(ctx, m, resp.Content, log); ok {
			e.publish(event.NewTransitionEvent(m.Name, next, idx, "ai-judge"))
			return next, nil
		}
	}

	if m.StatusJudgment || m.HasOnlyOneBranch() {
		judgment, err := e.chain.Judge(ctx, &JudgmentContext{
			Movement:  m,
			State:     state,
			ReportDir: e.reportDir,
			Invoker:   e.invoker,
		})
		if err != nil {
			return "", err
		}
		if judgment.Matched {
			if next, ok := m.NextByRuleIndex(judgment.RuleIndex); ok {
				e.publish(event.NewTransitionEvent(m.Name, next, judgment.RuleIndex, judgment.Strategy))
				log.Info("transition by judgment", "strategy", judgment.Strategy, "next", next)
				return next, nil
			}
		}
		log.Warn("judgment did not resolve a transition", "strategy", judgment.Strategy, "reason", judgment.Reason)
	}

	return "", errors.NewMovementError("no transition resolved from movement output", errors.ErrOperationFailed).
		WithMovement(m.Name)
}

// hasAIJudgedRules reports whether any rule delegates to the AI judge.
func hasAIJudgedRules(m *score.Movement) bool {
	for i := range m.Rules {
		if m.Rules[i].Kind == score.RuleAIJudged {
			return true
		}
	}
	return false
}

// judgeByAI consults the injected judge callback over every rule condition.
func (e *Engine) judgeByAI(ctx context.Context, m *score.Movement, output string, log *logging.Logger) (string, int, bool) {
	conditions := make([]string, len(m.Rules))
	for i := range m.Rules {
		conditions[i] = m.Rules[i].Condition
	}

	idx, err := e.judge(ctx, output, conditions, e.cwd)
	if err != nil {
		log.Warn("ai judge failed", "error", err)
		return "", -1, false
	}
	next, ok := m.NextByRuleIndex(idx)
	if !ok {
		return "", idx, false
	}
	log.Info("transition by ai judge", "index", idx, "next", next)
	return next, idx, true
}

// observeHealth runs the post-movement health check. It is observational
// only: it never alters the transition and never fails the movement.
func (e *Engine) observeHealth(ctx context.Context, m *score.Movement, state *PieceState, resp agent.Response, iteration int, log *logging.Logger) {
	findings, err := health.ExtractFindings(resp.Content)
	if err != nil {
		log.Warn("findings extraction failed", "error", err)
	}

	// A missing or unparsable findings block says nothing about which
	// findings are still open, so the tracker keeps its state for this
	// iteration instead of ingesting an empty snapshot.
	var snapshot health.Snapshot
	if err != nil || !health.HasFindingsBlock(resp.Content) {
		snapshot = health.CheckWithoutUpdate(e.tracker, state.PreviousActive(), true,
			m.Name, iteration, e.maxIterations)
	} else {
		snapshot = health.RunHealthCheck(e.tracker, findings, state.PreviousActive(), false,
			m.Name, iteration, e.maxIterations)
	}

	if snapshot.Verdict.NeedsConsult() {
		e.consultAlignment(ctx, m, state, &snapshot, log)
	}

	state.SetPreviousActive(snapshot.ActiveCount)
	e.publish(event.NewHealthEvaluatedEvent(m.Name, iteration, snapshot.Verdict.String(),
		snapshot.ActiveCount, snapshot.Justification))
	log.Info("health evaluated", "verdict", snapshot.Verdict, "active", snapshot.ActiveCount)

	result := snapshot
	e.lastHealth = &result
}

// consultAlignment asks the movement persona whether the loop's fixes
// address the reviewer's actual concerns. A MISALIGNED answer upgrades the
// snapshot verdict; consult failures are logged and otherwise ignored.
func (e *Engine) consultAlignment(ctx context.Context, m *score.Movement, state *PieceState, snapshot *health.Snapshot, log *logging.Logger) {
	sessionID, ok := state.Session(m.Persona)
	if !ok {
		return
	}

	question := agent.BuildMisalignmentConsultPrompt(m.Name, snapshot.ActiveSummary(), state.LastOutput())
	resp, err := agent.Consult(ctx, e.invoker, m.Persona, sessionID, question)
	if err != nil {
		log.Warn("misalignment consult failed", "error", err)
		return
	}
	state.RecordSession(m.Persona, resp.SessionID)
	if snapshot.ApplyConsult(resp.Content) {
		log.Warn("verdict upgraded to misaligned", "justification", snapshot.Justification)
	}
}

// publish sends an event when a bus is attached.
func (e *Engine) publish(ev event.Event) {
	if e.bus != nil {
		e.bus.Publish(ev)
	}
}
