package conduct

import (
	"context"

	"github.com/batonhq/baton/internal/agent"
	"github.com/batonhq/baton/internal/errors"
	"github.com/batonhq/baton/internal/report"
	"github.com/batonhq/baton/internal/score"
)

// JudgeFunc is the injected AI-judge callback, consulted only when a rule is
// marked AI-judged and the output carries no literal tag. It receives the
// agent output, every rule condition in order, and the working directory,
// and returns the zero-based index of the matching condition. A negative
// index means no condition matched.
type JudgeFunc func(ctx context.Context, output string, conditions []string, cwd string) (int, error)

// -----------------------------------------------------------------------------
// Judgment
// -----------------------------------------------------------------------------

// Judgment is the typed outcome of the strategy chain. An unmatched
// judgment is not an error: the reason distinguishes "no tag found" from an
// explicit cannot-judge declaration.
type Judgment struct {
	// Matched is true when a strategy determined which rule applies.
	Matched bool

	// RuleIndex is the zero-based matched rule position. Meaningful only
	// when Matched.
	RuleIndex int

	// Tag is the literal tag that decided the judgment, when one did.
	Tag string

	// Strategy names the strategy that produced this judgment.
	Strategy string

	// Reason explains the miss when Matched is false.
	Reason score.DetectionReason
}

// fromDetection lifts a tag-detection result into a judgment.
func fromDetection(det score.Detection) Judgment {
	return Judgment{
		Matched:   det.Matched,
		RuleIndex: det.RuleIndex,
		Tag:       det.Tag,
		Reason:    det.Reason,
	}
}

// -----------------------------------------------------------------------------
// Strategy Chain
// -----------------------------------------------------------------------------

// JudgmentContext carries everything a strategy may inspect or use. CanApply
// must treat it as read-only; Execute may invoke an agent.
type JudgmentContext struct {
	// Movement is the movement whose transition is being judged.
	Movement *score.Movement

	// State is the current run state. Strategies read LastOutput and
	// session ids from it.
	State *PieceState

	// ReportDir is the directory output contracts resolve against.
	// Empty disables report-based judgment.
	ReportDir string

	// Invoker dispatches consult calls. Nil disables agent consults.
	Invoker agent.Invoker
}

// Strategy is one fallback in the judgment chain.
type Strategy interface {
	// Name identifies the strategy in judgments, events, and logs.
	Name() string

	// CanApply reports whether the strategy has the inputs it needs.
	// It is a pure predicate with no side effects.
	CanApply(jctx *JudgmentContext) bool

	// Execute produces the judgment. May invoke an agent.
	Execute(ctx context.Context, jctx *JudgmentContext) (Judgment, error)
}

// Chain is an ordered list of judgment strategies. The chain is walked once
// per judgment: the first strategy whose CanApply returns true executes and
// its result is final, whether or not it matched. Later strategies are
// never attempted.
type Chain struct {
	strategies []Strategy
}

// NewChain builds a chain from explicit strategies, in the order given.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// DefaultChain returns the standard fallback order: auto-select, report
// artifacts, last response, agent consult.
func DefaultChain() *Chain {
	return NewChain(
		AutoSelectStrategy{},
		ReportBasedStrategy{},
		ResponseBasedStrategy{},
		AgentConsultStrategy{},
	)
}

// Judge walks the chain once and returns the first applicable strategy's
// result. Returns errors.ErrNoApplicableStrategy when nothing applies.
func (c *Chain) Judge(ctx context.Context, jctx *JudgmentContext) (Judgment, error) {
	for _, s := range c.strategies {
		if !s.CanApply(jctx) {
			continue
		}
		j, err := s.Execute(ctx, jctx)
		j.Strategy = s.Name()
		return j, err
	}
	return Judgment{}, errors.NewJudgmentError("no strategy can judge this movement", errors.ErrNoApplicableStrategy).
		WithMovement(jctx.Movement.Name)
}

// -----------------------------------------------------------------------------
// Strategies
// -----------------------------------------------------------------------------

// AutoSelectStrategy short-circuits movements with exactly one rule: no
// genuine decision exists, so the single rule is selected without reading
// any output.
type AutoSelectStrategy struct{}

// Name implements Strategy.
func (AutoSelectStrategy) Name() string { return "auto-select" }

// CanApply implements Strategy.
func (AutoSelectStrategy) CanApply(jctx *JudgmentContext) bool {
	return jctx.Movement.HasOnlyOneBranch()
}

// Execute implements Strategy.
func (AutoSelectStrategy) Execute(_ context.Context, jctx *JudgmentContext) (Judgment, error) {
	tag, err := jctx.Movement.AutoSelectedTag()
	if err != nil {
		return Judgment{}, err
	}
	return Judgment{Matched: true, RuleIndex: 0, Tag: tag}, nil
}

// ReportBasedStrategy judges from the movement's report artifacts: it
// resolves the movement's output contracts against the report directory and
// scans the combined artifact content for a tag.
type ReportBasedStrategy struct{}

// Name implements Strategy.
func (ReportBasedStrategy) Name() string { return "report-based" }

// CanApply implements Strategy.
func (ReportBasedStrategy) CanApply(jctx *JudgmentContext) bool {
	return jctx.ReportDir != "" && jctx.Movement.HasOutputs()
}

// Execute implements Strategy.
func (ReportBasedStrategy) Execute(_ context.Context, jctx *JudgmentContext) (Judgment, error) {
	result, err := report.CheckContracts(jctx.ReportDir, jctx.Movement.Outputs)
	if err != nil {
		return Judgment{}, err
	}
	if !result.AnySatisfied() {
		return Judgment{Reason: score.ReasonNoTag}, nil
	}

	combined, err := report.Combined(result.Artifacts())
	if err != nil {
		return Judgment{}, errors.Wrap(err, "reading report artifacts")
	}
	return fromDetection(jctx.Movement.DetectTag(combined)), nil
}

// ResponseBasedStrategy re-scans the most recent agent response. It exists
// for movements whose tag landed somewhere the first-pass detection did not
// look, and as the cheap fallback before consulting an agent.
type ResponseBasedStrategy struct{}

// Name implements Strategy.
func (ResponseBasedStrategy) Name() string { return "response-based" }

// CanApply implements Strategy.
func (ResponseBasedStrategy) CanApply(jctx *JudgmentContext) bool {
	return jctx.State.LastOutput() != ""
}

// Execute implements Strategy.
func (ResponseBasedStrategy) Execute(_ context.Context, jctx *JudgmentContext) (Judgment, error) {
	return fromDetection(jctx.Movement.DetectTag(jctx.State.LastOutput())), nil
}

// AgentConsultStrategy resumes the movement persona's session and asks it
// directly which outcome its work matched. The most expensive strategy, so
// it sits last in the default chain.
type AgentConsultStrategy struct{}

// Name implements Strategy.
func (AgentConsultStrategy) Name() string { return "agent-consult" }

// CanApply implements Strategy.
func (AgentConsultStrategy) CanApply(jctx *JudgmentContext) bool {
	if jctx.Invoker == nil {
		return false
	}
	_, ok := jctx.State.Session(jctx.Movement.Persona)
	return ok
}

// Execute implements Strategy. Calling it without a recorded session fails
// with errors.ErrSessionIDMissing, guarding against callers that skip
// CanApply.
func (AgentConsultStrategy) Execute(ctx context.Context, jctx *JudgmentContext) (Judgment, error) {
	m := jctx.Movement
	sessionID, ok := jctx.State.Session(m.Persona)
	if !ok {
		return Judgment{}, errors.NewJudgmentError("cannot consult agent", errors.ErrSessionIDMissing).
			WithMovement(m.Name).WithStrategy("agent-consult")
	}

	conditions := make([]string, len(m.Rules))
	for i := range m.Rules {
		conditions[i] = m.Rules[i].Condition
	}

	question := agent.BuildStatusConsultPrompt(m.Name, conditions)
	resp, err := agent.Consult(ctx, jctx.Invoker, m.Persona, sessionID, question)
	if err != nil {
		return Judgment{}, errors.Wrap(err, "status consult")
	}
	jctx.State.RecordSession(m.Persona, resp.SessionID)
	if resp.IsError() {
		return Judgment{}, errors.NewJudgmentError("consult returned error status", errors.ErrAgentInvocation).
			WithMovement(m.Name).WithStrategy("agent-consult")
	}

	return fromDetection(m.DetectTag(resp.Content)), nil
}

// Compile-time interface checks.
var (
	_ Strategy = AutoSelectStrategy{}
	_ Strategy = ReportBasedStrategy{}
	_ Strategy = ResponseBasedStrategy{}
	_ Strategy = AgentConsultStrategy{}
)
