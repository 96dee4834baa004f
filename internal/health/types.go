// Package health tracks reviewer findings across iterations and classifies
// how a run is trending: whether findings are getting fixed, stagnating, or
// looping between the same states.
//
// The package is observational only. It never blocks a run, never retries
// anything, and never mutates engine state; the conduct layer reads the
// snapshot and decides for itself.
//
// Type groups:
//   - Input: Finding (findings.go extracts them from agent output)
//   - Tracking: Tracker, TrackedFinding, FindingStatus, Trend, Thresholds
//   - Evaluation: Verdict, Snapshot, FindingReport, RunHealthCheck
package health

import "time"

// -----------------------------------------------------------------------------
// Raw Findings
// -----------------------------------------------------------------------------

// Finding is one reviewer-reported issue in its wire form. Each tracker
// update receives the full set of currently open findings; presence and
// absence across updates drive the lifecycle, not the Status field, which is
// carried through as reviewer metadata.
type Finding struct {
	ID       string `json:"id"`
	Status   string `json:"status,omitempty"`
	Category string `json:"category,omitempty"`
	Location string `json:"location,omitempty"`
}

// -----------------------------------------------------------------------------
// Finding Lifecycle
// -----------------------------------------------------------------------------

// FindingStatus is the tracker's own lifecycle state for a finding.
type FindingStatus string

const (
	// StatusNew marks a finding seen for the first time, or one that
	// recurred after being resolved.
	StatusNew FindingStatus = "new"

	// StatusPersists marks a finding reported again in consecutive updates.
	StatusPersists FindingStatus = "persists"

	// StatusResolved marks a finding absent from the latest update.
	StatusResolved FindingStatus = "resolved"
)

// String returns the string representation of the status.
func (s FindingStatus) String() string {
	return string(s)
}

// Trend classifies a finding's trajectory across updates.
type Trend string

const (
	// TrendNew is the default for findings below every threshold.
	TrendNew Trend = "new"

	// TrendImproving marks a resolved finding.
	TrendImproving Trend = "improving"

	// TrendStagnating marks a finding that persisted past the stagnation
	// threshold without being resolved.
	TrendStagnating Trend = "stagnating"

	// TrendLooping marks a finding that either recurred past the
	// recurrence threshold or persisted past the loop threshold.
	TrendLooping Trend = "looping"
)

// String returns the string representation of the trend.
func (t Trend) String() string {
	return string(t)
}

// -----------------------------------------------------------------------------
// Thresholds
// -----------------------------------------------------------------------------

// Thresholds are the trend-classification boundaries, measured in updates.
type Thresholds struct {
	// Stagnation is the consecutive-persist count at which a finding
	// trends stagnating.
	Stagnation int

	// Loop is the consecutive-persist count at which a finding trends
	// looping.
	Loop int

	// Recurrence is the resolve-then-reappear count at which a finding
	// trends looping regardless of persist counts.
	Recurrence int
}

// DefaultThresholds returns the standard trend boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Stagnation: 3,
		Loop:       5,
		Recurrence: 2,
	}
}

// -----------------------------------------------------------------------------
// Verdict
// -----------------------------------------------------------------------------

// Verdict is the single per-iteration health classification of a run.
type Verdict string

const (
	// VerdictConverging means no findings exist, or every finding has
	// been resolved.
	VerdictConverging Verdict = "converging"

	// VerdictImproving means findings exist but nothing is stuck.
	VerdictImproving Verdict = "improving"

	// VerdictNeedsAttention means a phase error occurred or the active
	// finding count is growing.
	VerdictNeedsAttention Verdict = "needs_attention"

	// VerdictStagnating means at least one finding trends stagnating.
	VerdictStagnating Verdict = "stagnating"

	// VerdictLooping means at least one finding trends looping.
	VerdictLooping Verdict = "looping"

	// VerdictMisaligned means a consult judged the fixer's work to be
	// missing the reviewer's actual concerns.
	VerdictMisaligned Verdict = "misaligned"
)

// String returns the string representation of the verdict.
func (v Verdict) String() string {
	return string(v)
}

// IsValid returns true if this is a recognized verdict value.
func (v Verdict) IsValid() bool {
	switch v {
	case VerdictConverging, VerdictImproving, VerdictNeedsAttention,
		VerdictStagnating, VerdictLooping, VerdictMisaligned:
		return true
	default:
		return false
	}
}

// NeedsConsult returns true for verdicts that warrant the optional
// misalignment consult.
func (v Verdict) NeedsConsult() bool {
	return v == VerdictStagnating || v == VerdictLooping
}

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// FindingReport is one finding's state as exposed in a snapshot.
type FindingReport struct {
	ID                  string        `json:"id"`
	Category            string        `json:"category,omitempty"`
	Location            string        `json:"location,omitempty"`
	Status              FindingStatus `json:"status"`
	Trend               Trend         `json:"trend"`
	ConsecutivePersists int           `json:"consecutive_persists"`
	RecurrenceCount     int           `json:"recurrence_count"`
}

// Snapshot is the result of one health check: the verdict plus everything a
// consumer needs to render or log it.
type Snapshot struct {
	Movement       string          `json:"movement"`
	Iteration      int             `json:"iteration"`
	MaxIterations  int             `json:"max_iterations"`
	Verdict        Verdict         `json:"verdict"`
	ActiveCount    int             `json:"active_count"`
	ResolvedCount  int             `json:"resolved_count"`
	PreviousActive int             `json:"previous_active"`
	PhaseError     bool            `json:"phase_error"`
	Findings       []FindingReport `json:"findings,omitempty"`
	Justification  string          `json:"justification,omitempty"`
	EvaluatedAt    time.Time       `json:"evaluated_at"`
}
