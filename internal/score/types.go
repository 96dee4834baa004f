// Package score defines the static shape of a piece: the ordered movements
// it conducts, each movement's transition rules, and optional team-leader
// decomposition settings.
//
// A piece is loaded once from YAML (see Load) and treated as immutable for
// the duration of a run. The types here are pure configuration plus the
// rule-resolution logic that operates on them (see resolver.go); execution
// state lives in the conduct package.
//
// Type groups:
//   - Definition: Piece, Movement, Rule, RuleKind
//   - Decomposition: TeamLeaderConfig, SubtaskDefinition
//   - Resolution: Detection, DetectionReason (resolver.go)
package score

import "time"

// -----------------------------------------------------------------------------
// Transition Targets
// -----------------------------------------------------------------------------

// Reserved transition targets. A rule's Next names either another movement
// or one of these two terminals.
const (
	// TargetComplete ends the piece run successfully.
	TargetComplete = "COMPLETE"

	// TargetAbort ends the piece run as failed.
	TargetAbort = "ABORT"
)

// IsTerminalTarget returns true if the given transition target ends the run.
func IsTerminalTarget(target string) bool {
	return target == TargetComplete || target == TargetAbort
}

// -----------------------------------------------------------------------------
// Rule Kind
// -----------------------------------------------------------------------------

// RuleKind discriminates how a rule's condition is evaluated.
//
// The YAML surface uses optional boolean flags (ai_condition,
// aggregate_condition); Load normalizes those into exactly one RuleKind per
// rule so downstream code can switch exhaustively instead of testing flag
// combinations.
type RuleKind string

const (
	// RuleTagBased matches a literal [NAME:N] tag in the agent's output.
	// This is the default kind when no flag is set.
	RuleTagBased RuleKind = "tag_based"

	// RuleAIJudged delegates matching to an AI judge callback when no
	// literal tag is present.
	RuleAIJudged RuleKind = "ai_judged"

	// RuleAggregate matches only against aggregated team-leader output.
	// Aggregate rules frequently omit Next; they exist to feed a parent
	// movement's aggregate conditions, not to transition directly.
	RuleAggregate RuleKind = "aggregate"
)

// String returns the string representation of the rule kind.
func (k RuleKind) String() string {
	return string(k)
}

// IsValid returns true if this is a recognized rule kind.
func (k RuleKind) IsValid() bool {
	switch k {
	case RuleTagBased, RuleAIJudged, RuleAggregate:
		return true
	default:
		return false
	}
}

// -----------------------------------------------------------------------------
// Rule
// -----------------------------------------------------------------------------

// Rule is one transition candidate attached to a movement.
//
// Rules are ordered; the 1-based position of a rule is the N an agent emits
// in its [NAME:N] tag. Next may be another movement's name, TargetComplete,
// TargetAbort, or empty — empty is valid only for rules consumed solely for
// aggregate matching, which never drive a transition directly.
type Rule struct {
	// Condition is the human-readable description of when this rule applies.
	// For tag-based rules it is documentation shown to the agent; for
	// AI-judged rules it is the candidate text handed to the judge.
	Condition string `yaml:"condition" json:"condition"`

	// Next is the transition target when this rule matches.
	// Empty means "no direct transition" (aggregate-feeding rules).
	Next string `yaml:"next,omitempty" json:"next,omitempty"`

	// AICondition marks the rule as judged by an AI callback when no
	// literal tag is found. Normalized into Kind at load time.
	AICondition bool `yaml:"ai_condition,omitempty" json:"ai_condition,omitempty"`

	// AggregateCondition marks the rule as matching only aggregated
	// team-leader output. Normalized into Kind at load time.
	AggregateCondition bool `yaml:"aggregate_condition,omitempty" json:"aggregate_condition,omitempty"`

	// Appendix is optional extra instruction text appended to the movement
	// instruction when this rule is a candidate.
	Appendix string `yaml:"appendix,omitempty" json:"appendix,omitempty"`

	// Kind is the normalized discriminant, derived from the flags above.
	// Populated by Load/Normalize; zero value means not yet normalized.
	Kind RuleKind `yaml:"-" json:"kind"`
}

// HasNext returns true if this rule defines a direct transition target.
func (r *Rule) HasNext() bool {
	return r.Next != ""
}

// -----------------------------------------------------------------------------
// Team Leader Configuration
// -----------------------------------------------------------------------------

// TeamLeaderConfig turns a movement into a parallel decomposition: the
// movement's persona acts as a leader that splits the instruction into
// subtasks executed concurrently.
type TeamLeaderConfig struct {
	// MaxSubtasks bounds how many subtasks one decomposition may plan.
	// A leader proposing more is truncated, never failed.
	MaxSubtasks int `yaml:"max_subtasks" json:"max_subtasks"`

	// TimeoutMs is the default per-subtask timeout in milliseconds.
	// Zero means no timeout beyond the movement's own cancellation.
	TimeoutMs int `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty"`

	// SubtaskPersona overrides the persona used for subtask execution.
	// Empty means subtasks run under the movement's persona.
	SubtaskPersona string `yaml:"subtask_persona,omitempty" json:"subtask_persona,omitempty"`

	// SubtaskTool overrides the tool profile subtasks run with.
	SubtaskTool string `yaml:"subtask_tool,omitempty" json:"subtask_tool,omitempty"`

	// SubtaskPermission overrides the permission mode subtasks run with.
	SubtaskPermission string `yaml:"subtask_permission,omitempty" json:"subtask_permission,omitempty"`
}

// Timeout returns the default per-subtask timeout as a duration.
// Zero means no timeout is configured.
func (c *TeamLeaderConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// SubtaskTimeout resolves the effective timeout for one subtask: the
// subtask's own timeout when set, otherwise the team-leader default.
func (c *TeamLeaderConfig) SubtaskTimeout(def SubtaskDefinition) time.Duration {
	if def.TimeoutMs > 0 {
		return time.Duration(def.TimeoutMs) * time.Millisecond
	}
	return c.Timeout()
}

// -----------------------------------------------------------------------------
// Subtask Definition
// -----------------------------------------------------------------------------

// SubtaskDefinition is one planned unit of work produced by a team-leader
// decomposition. Definitions are created fresh per movement execution and
// discarded after aggregation; they are never persisted independently.
type SubtaskDefinition struct {
	// ID uniquely identifies the subtask within one decomposition.
	// Used as the section header key and the movementOutputs suffix.
	ID string `json:"id" yaml:"id"`

	// Title is a short human-readable name shown in progress output and
	// aggregate section headers.
	Title string `json:"title" yaml:"title"`

	// Instruction is the full prompt for the subtask's agent call.
	Instruction string `json:"instruction" yaml:"instruction"`

	// TimeoutMs optionally overrides the team-leader default timeout.
	TimeoutMs int `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`
}

// -----------------------------------------------------------------------------
// Movement
// -----------------------------------------------------------------------------

// Movement is one node in a piece's execution graph: one agent call, or one
// team-leader fan-out when TeamLeader is set. Movements are immutable
// configuration; per-run counters live in conduct.PieceState.
type Movement struct {
	// Name identifies the movement within its piece. Also the stem of the
	// [NAME:N] tags agents emit to select a rule.
	Name string `yaml:"name" json:"name"`

	// Persona is the agent role/configuration reference this movement
	// invokes. Resolution of the reference is the invoker's concern.
	Persona string `yaml:"persona" json:"persona"`

	// Instruction is the prompt template for the movement's agent call.
	Instruction string `yaml:"instruction" json:"instruction"`

	// Rules is the ordered list of transition candidates. May be empty for
	// movements that always fall through to the judgment chain.
	Rules []Rule `yaml:"rules,omitempty" json:"rules,omitempty"`

	// TeamLeader, when set, runs this movement as a parallel decomposition
	// instead of a single agent call.
	TeamLeader *TeamLeaderConfig `yaml:"team_leader,omitempty" json:"team_leader,omitempty"`

	// ReportPhase marks the movement as producing review-style findings
	// whose report files land in the configured report directory.
	ReportPhase bool `yaml:"report_phase,omitempty" json:"report_phase,omitempty"`

	// Outputs declares the artifacts the movement is expected to leave in
	// the report directory, as glob patterns relative to it (for example
	// "reviews/*.md"). Report-based judgment applies only to movements
	// that declare at least one.
	Outputs []string `yaml:"outputs,omitempty" json:"outputs,omitempty"`

	// StatusJudgment requests the judgment strategy chain when the
	// movement's output carries no literal tag.
	StatusJudgment bool `yaml:"status_judgment,omitempty" json:"status_judgment,omitempty"`
}

// HasRules returns true if the movement declares at least one rule.
func (m *Movement) HasRules() bool {
	return len(m.Rules) > 0
}

// HasTeamLeader returns true if the movement runs as a decomposition.
func (m *Movement) HasTeamLeader() bool {
	return m.TeamLeader != nil
}

// HasOutputs returns true if the movement declares output contracts.
func (m *Movement) HasOutputs() bool {
	return len(m.Outputs) > 0
}

// -----------------------------------------------------------------------------
// Piece
// -----------------------------------------------------------------------------

// Piece is a configured multi-movement workflow definition.
type Piece struct {
	// Name identifies the piece in logs and run directories.
	Name string `yaml:"name" json:"name"`

	// Description is optional human-readable context.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Entry names the first movement to conduct. Defaults to the first
	// entry of Movements when empty.
	Entry string `yaml:"entry,omitempty" json:"entry,omitempty"`

	// MaxIterations bounds the total number of movement executions in one
	// run. Zero means the engine's configured default applies.
	MaxIterations int `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty"`

	// Movements is the ordered set of movements. Order matters only for
	// the default entry; transitions are always by name.
	Movements []Movement `yaml:"movements" json:"movements"`
}

// MovementCount returns the number of movements in the piece.
func (p *Piece) MovementCount() int {
	return len(p.Movements)
}

// MovementByName returns the movement with the given name, or nil.
func (p *Piece) MovementByName(name string) *Movement {
	for i := range p.Movements {
		if p.Movements[i].Name == name {
			return &p.Movements[i]
		}
	}
	return nil
}

// EntryMovement returns the movement the run starts with: the one named by
// Entry, or the first movement when Entry is empty. Returns nil for an
// empty piece.
func (p *Piece) EntryMovement() *Movement {
	if p.Entry != "" {
		return p.MovementByName(p.Entry)
	}
	if len(p.Movements) == 0 {
		return nil
	}
	return &p.Movements[0]
}

// HasMovement returns true if a movement with the given name exists.
func (p *Piece) HasMovement(name string) bool {
	return p.MovementByName(name) != nil
}
