// Package event defines the event types emitted while conducting a piece.
// Events let the TUI, logging, and any other observers follow a run without
// the conduct engine depending on them directly.
package event

import "time"

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g. "movement.started", "subtask.progress")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Run Lifecycle Events
// -----------------------------------------------------------------------------

// RunStartedEvent is emitted when a piece run begins.
type RunStartedEvent struct {
	baseEvent
	RunID string // Unique identifier for this run
	Piece string // Piece name
	Entry string // Entry movement name
}

// NewRunStartedEvent creates a RunStartedEvent.
func NewRunStartedEvent(runID, piece, entry string) RunStartedEvent {
	return RunStartedEvent{
		baseEvent: newBaseEvent("run.started"),
		RunID:     runID,
		Piece:     piece,
		Entry:     entry,
	}
}

// RunFinishedEvent is emitted when a run reaches a terminal state.
type RunFinishedEvent struct {
	baseEvent
	RunID      string // Unique identifier for this run
	Outcome    string // Terminal target reached ("COMPLETE" or "ABORT")
	Iterations int    // Total movement executions across the run
	Reason     string // Additional context (abort cause, limit hit)
}

// NewRunFinishedEvent creates a RunFinishedEvent.
func NewRunFinishedEvent(runID, outcome string, iterations int, reason string) RunFinishedEvent {
	return RunFinishedEvent{
		baseEvent:  newBaseEvent("run.finished"),
		RunID:      runID,
		Outcome:    outcome,
		Iterations: iterations,
		Reason:     reason,
	}
}

// -----------------------------------------------------------------------------
// Movement Events
// -----------------------------------------------------------------------------

// MovementStartedEvent is emitted when a movement begins executing.
type MovementStartedEvent struct {
	baseEvent
	Movement  string // Movement name
	Persona   string // Agent persona the movement runs under
	Iteration int    // Run-wide iteration counter (1-based)
}

// NewMovementStartedEvent creates a MovementStartedEvent.
func NewMovementStartedEvent(movement, persona string, iteration int) MovementStartedEvent {
	return MovementStartedEvent{
		baseEvent: newBaseEvent("movement.started"),
		Movement:  movement,
		Persona:   persona,
		Iteration: iteration,
	}
}

// MovementFinishedEvent is emitted when a movement's invocation settles,
// before transition rules are evaluated.
type MovementFinishedEvent struct {
	baseEvent
	Movement string // Movement name
	Status   string // Agent response status
	Duration time.Duration
}

// NewMovementFinishedEvent creates a MovementFinishedEvent.
func NewMovementFinishedEvent(movement, status string, duration time.Duration) MovementFinishedEvent {
	return MovementFinishedEvent{
		baseEvent: newBaseEvent("movement.finished"),
		Movement:  movement,
		Status:    status,
		Duration:  duration,
	}
}

// TransitionEvent is emitted when the engine resolves where to go next.
type TransitionEvent struct {
	baseEvent
	From      string // Movement that just finished
	To        string // Next movement or terminal target
	RuleIndex int    // Index of the matched rule (-1 when none matched)
	Strategy  string // Judgment strategy that produced the outcome
}

// NewTransitionEvent creates a TransitionEvent.
func NewTransitionEvent(from, to string, ruleIndex int, strategy string) TransitionEvent {
	return TransitionEvent{
		baseEvent: newBaseEvent("movement.transition"),
		From:      from,
		To:        to,
		RuleIndex: ruleIndex,
		Strategy:  strategy,
	}
}

// -----------------------------------------------------------------------------
// Subtask Events (Team-Leader Fan-Out)
// -----------------------------------------------------------------------------

// SubtaskStartedEvent is emitted when a fan-out subtask begins.
type SubtaskStartedEvent struct {
	baseEvent
	Movement  string // Movement that owns the fan-out
	SubtaskID string // Subtask identifier from the decomposition
	Title     string // Human-readable subtask title
	Persona   string // Persona the subtask runs under
}

// NewSubtaskStartedEvent creates a SubtaskStartedEvent.
func NewSubtaskStartedEvent(movement, subtaskID, title, persona string) SubtaskStartedEvent {
	return SubtaskStartedEvent{
		baseEvent: newBaseEvent("subtask.started"),
		Movement:  movement,
		SubtaskID: subtaskID,
		Title:     title,
		Persona:   persona,
	}
}

// SubtaskProgressEvent carries one incremental output chunk from a running
// subtask. Chunks from concurrent subtasks interleave on the bus; the
// SubtaskID keys each chunk back to its own stream.
type SubtaskProgressEvent struct {
	baseEvent
	Movement  string // Movement that owns the fan-out
	SubtaskID string // Subtask the chunk belongs to
	Chunk     string // Raw output fragment
}

// NewSubtaskProgressEvent creates a SubtaskProgressEvent.
func NewSubtaskProgressEvent(movement, subtaskID, chunk string) SubtaskProgressEvent {
	return SubtaskProgressEvent{
		baseEvent: newBaseEvent("subtask.progress"),
		Movement:  movement,
		SubtaskID: subtaskID,
		Chunk:     chunk,
	}
}

// SubtaskFinishedEvent is emitted when a fan-out subtask settles.
type SubtaskFinishedEvent struct {
	baseEvent
	Movement  string // Movement that owns the fan-out
	SubtaskID string // Subtask identifier
	Success   bool   // Whether the subtask produced a non-error response
	Reason    string // Error message when Success is false
}

// NewSubtaskFinishedEvent creates a SubtaskFinishedEvent.
func NewSubtaskFinishedEvent(movement, subtaskID string, success bool, reason string) SubtaskFinishedEvent {
	return SubtaskFinishedEvent{
		baseEvent: newBaseEvent("subtask.finished"),
		Movement:  movement,
		SubtaskID: subtaskID,
		Success:   success,
		Reason:    reason,
	}
}

// -----------------------------------------------------------------------------
// Report Events
// -----------------------------------------------------------------------------

// ReportArtifactEvent is emitted when files land in the report directory.
type ReportArtifactEvent struct {
	baseEvent
	Paths []string // Changed paths relative to the report directory
}

// NewReportArtifactEvent creates a ReportArtifactEvent.
func NewReportArtifactEvent(paths []string) ReportArtifactEvent {
	return ReportArtifactEvent{
		baseEvent: newBaseEvent("report.artifact"),
		Paths:     paths,
	}
}

// -----------------------------------------------------------------------------
// Health Events
// -----------------------------------------------------------------------------

// HealthEvaluatedEvent is emitted after each post-movement health check.
type HealthEvaluatedEvent struct {
	baseEvent
	Movement      string // Movement the check followed
	Iteration     int    // Run-wide iteration counter
	Verdict       string // Health verdict string
	ActiveCount   int    // Findings currently open
	Justification string // Consult justification, when one ran
}

// NewHealthEvaluatedEvent creates a HealthEvaluatedEvent.
func NewHealthEvaluatedEvent(movement string, iteration int, verdict string, activeCount int, justification string) HealthEvaluatedEvent {
	return HealthEvaluatedEvent{
		baseEvent:     newBaseEvent("health.evaluated"),
		Movement:      movement,
		Iteration:     iteration,
		Verdict:       verdict,
		ActiveCount:   activeCount,
		Justification: justification,
	}
}
