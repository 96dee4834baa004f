package health

import (
	"fmt"
	"strings"
	"time"
)

// MisalignedMarker is the token a consult response must start with for the
// verdict to be upgraded to misaligned.
const MisalignedMarker = "MISALIGNED"

// Evaluate classifies the run from the tracker's current state. Rules run in
// priority order; the first match wins:
//
//  1. nothing was ever tracked and no phase error: converging
//  2. any finding trends looping: looping
//  3. any finding trends stagnating: stagnating
//  4. a phase error occurred: needs_attention
//  5. active findings grew versus the previous check (and the previous
//     check had some): needs_attention
//  6. findings exist and all are resolved: converging
//  7. otherwise: improving
func (t *Tracker) Evaluate(previousActive int, phaseError bool) Verdict {
	t.mu.Lock()
	defer t.mu.Unlock()

	total, active := t.countsLocked()
	switch {
	case total == 0 && !phaseError:
		return VerdictConverging
	case t.anyTrendLocked(TrendLooping):
		return VerdictLooping
	case t.anyTrendLocked(TrendStagnating):
		return VerdictStagnating
	case phaseError:
		return VerdictNeedsAttention
	case previousActive > 0 && active > previousActive:
		return VerdictNeedsAttention
	case total > 0 && active == 0:
		return VerdictConverging
	default:
		return VerdictImproving
	}
}

// RunHealthCheck ingests one findings snapshot and evaluates the run in a
// single step: update the tracker with the raw findings, classify the
// verdict, and package everything into a Snapshot for the caller.
//
// previousActive is the active count from the prior check (zero on the
// first). hasPhaseError reports whether the movement's latest step failed at
// the phase level, independent of findings.
func RunHealthCheck(tracker *Tracker, raw []Finding, previousActive int, hasPhaseError bool, movement string, iteration, maxIterations int) Snapshot {
	tracker.Update(raw)
	return CheckWithoutUpdate(tracker, previousActive, hasPhaseError, movement, iteration, maxIterations)
}

// CheckWithoutUpdate evaluates the run from the tracker's existing state
// without ingesting a snapshot. Update expects the full set of currently
// open findings, so an iteration whose reviewer output carried no findings
// block (or one that did not parse) must not be fed to it as an empty list:
// that would resolve every open finding, clear its persist history, and turn
// its next appearance into a spurious recurrence.
func CheckWithoutUpdate(tracker *Tracker, previousActive int, hasPhaseError bool, movement string, iteration, maxIterations int) Snapshot {
	verdict := tracker.Evaluate(previousActive, hasPhaseError)

	return Snapshot{
		Movement:       movement,
		Iteration:      iteration,
		MaxIterations:  maxIterations,
		Verdict:        verdict,
		ActiveCount:    tracker.ActiveCount(),
		ResolvedCount:  tracker.ResolvedCount(),
		PreviousActive: previousActive,
		PhaseError:     hasPhaseError,
		Findings:       tracker.Reports(),
		EvaluatedAt:    time.Now(),
	}
}

// ApplyConsult folds a misalignment consult response into the snapshot. A
// response whose first token is MISALIGNED upgrades the verdict to
// misaligned and carries the rest of the response as justification. Any
// other response leaves the snapshot unchanged.
//
// Returns true if the verdict was upgraded.
func (s *Snapshot) ApplyConsult(response string) bool {
	text := strings.TrimSpace(response)
	if !strings.HasPrefix(text, MisalignedMarker) {
		return false
	}
	s.Verdict = VerdictMisaligned
	just := strings.TrimPrefix(text, MisalignedMarker)
	s.Justification = strings.TrimLeft(just, ":- \t\n")
	return true
}

// ActiveSummary renders the unresolved findings as a bullet list suitable
// for embedding in a consult prompt. Empty when nothing is active.
func (s *Snapshot) ActiveSummary() string {
	var b strings.Builder
	for _, f := range s.Findings {
		if f.Status == StatusResolved {
			continue
		}
		b.WriteString("- ")
		b.WriteString(f.ID)
		if f.Category != "" {
			fmt.Fprintf(&b, " [%s]", f.Category)
		}
		if f.Location != "" {
			fmt.Fprintf(&b, " at %s", f.Location)
		}
		switch {
		case f.RecurrenceCount > 0:
			fmt.Fprintf(&b, " (recurred %d time(s))", f.RecurrenceCount)
		case f.ConsecutivePersists > 0:
			fmt.Fprintf(&b, " (persisted %d update(s))", f.ConsecutivePersists)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
