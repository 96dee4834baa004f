package health

import (
	"sync"
	"time"
)

// TrackedFinding is the tracker's internal record for one finding ID.
type TrackedFinding struct {
	// Finding holds the most recently reported wire form.
	Finding Finding

	// Status is the lifecycle state after the latest update.
	Status FindingStatus

	// ConsecutivePersists counts uninterrupted re-reports since the
	// finding was last new. Reset to zero on resolution and recurrence.
	ConsecutivePersists int

	// RecurrenceCount counts resolve-then-reappear cycles. Never reset.
	RecurrenceCount int

	// FirstSeen and LastSeen are the update numbers (1-based) in which
	// the finding first and most recently appeared.
	FirstSeen int
	LastSeen  int

	// FirstSeenAt is when the finding entered the tracker.
	FirstSeenAt time.Time
}

// Tracker follows finding lifecycles across full-snapshot updates. Each
// update receives every currently open finding; the tracker works out which
// are new, which persist, which resolved, and which came back from the dead.
//
// Safe for concurrent use.
type Tracker struct {
	mu         sync.Mutex
	thresholds Thresholds
	findings   map[string]*TrackedFinding
	order      []string
	updates    int
}

// NewTracker returns an empty tracker using the given thresholds. Zero or
// negative threshold fields fall back to the defaults.
func NewTracker(thresholds Thresholds) *Tracker {
	defaults := DefaultThresholds()
	if thresholds.Stagnation <= 0 {
		thresholds.Stagnation = defaults.Stagnation
	}
	if thresholds.Loop <= 0 {
		thresholds.Loop = defaults.Loop
	}
	if thresholds.Recurrence <= 0 {
		thresholds.Recurrence = defaults.Recurrence
	}
	return &Tracker{
		thresholds: thresholds,
		findings:   make(map[string]*TrackedFinding),
	}
}

// Update ingests one full snapshot of currently open findings and applies
// the lifecycle transitions:
//
//   - tracked but absent, not yet resolved: becomes resolved, persist
//     counter cleared
//   - present and unknown: inserted as new with zeroed counters
//   - present and previously resolved: recurrence; back to new, persist
//     counter cleared, recurrence counter incremented
//   - present and previously new or persists: persists, persist counter
//     incremented
//
// Findings absent while already resolved are left untouched, so resolution
// timestamps and counters survive quiet updates.
func (t *Tracker) Update(current []Finding) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.updates++
	now := time.Now()

	present := make(map[string]Finding, len(current))
	for _, f := range current {
		if f.ID == "" {
			continue
		}
		present[f.ID] = f
	}

	for id, tf := range t.findings {
		if _, ok := present[id]; ok {
			continue
		}
		if tf.Status != StatusResolved {
			tf.Status = StatusResolved
			tf.ConsecutivePersists = 0
		}
	}

	for _, id := range orderedIDs(current) {
		f := present[id]
		tf, known := t.findings[id]
		if !known {
			t.findings[id] = &TrackedFinding{
				Finding:     f,
				Status:      StatusNew,
				FirstSeen:   t.updates,
				LastSeen:    t.updates,
				FirstSeenAt: now,
			}
			t.order = append(t.order, id)
			continue
		}

		tf.Finding = f
		tf.LastSeen = t.updates
		if tf.Status == StatusResolved {
			tf.Status = StatusNew
			tf.ConsecutivePersists = 0
			tf.RecurrenceCount++
			continue
		}
		tf.Status = StatusPersists
		tf.ConsecutivePersists++
	}
}

// orderedIDs returns the distinct non-empty IDs of the snapshot in report
// order, so insertion order in the tracker matches the reviewer's output.
func orderedIDs(current []Finding) []string {
	seen := make(map[string]bool, len(current))
	ids := make([]string, 0, len(current))
	for _, f := range current {
		if f.ID == "" || seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		ids = append(ids, f.ID)
	}
	return ids
}

// Trend classifies one tracked finding. Checks run in priority order; the
// first match wins:
//
//  1. recurrence count at or past the recurrence threshold: looping
//  2. consecutive persists at or past the loop threshold: looping
//  3. consecutive persists at or past the stagnation threshold: stagnating
//  4. resolved: improving
//  5. otherwise: new
func (t *Tracker) Trend(id string) Trend {
	t.mu.Lock()
	defer t.mu.Unlock()

	tf, ok := t.findings[id]
	if !ok {
		return TrendNew
	}
	return t.trendLocked(tf)
}

func (t *Tracker) trendLocked(tf *TrackedFinding) Trend {
	switch {
	case tf.RecurrenceCount >= t.thresholds.Recurrence:
		return TrendLooping
	case tf.ConsecutivePersists >= t.thresholds.Loop:
		return TrendLooping
	case tf.ConsecutivePersists >= t.thresholds.Stagnation:
		return TrendStagnating
	case tf.Status == StatusResolved:
		return TrendImproving
	default:
		return TrendNew
	}
}

// Get returns a copy of the tracked finding for id, or false if the tracker
// has never seen it.
func (t *Tracker) Get(id string) (TrackedFinding, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tf, ok := t.findings[id]
	if !ok {
		return TrackedFinding{}, false
	}
	return *tf, true
}

// All returns copies of every tracked finding in first-seen order.
func (t *Tracker) All() []TrackedFinding {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]TrackedFinding, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, *t.findings[id])
	}
	return out
}

// Reports returns per-finding snapshot rows in first-seen order, with each
// finding's current trend attached.
func (t *Tracker) Reports() []FindingReport {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]FindingReport, 0, len(t.order))
	for _, id := range t.order {
		tf := t.findings[id]
		out = append(out, FindingReport{
			ID:                  tf.Finding.ID,
			Category:            tf.Finding.Category,
			Location:            tf.Finding.Location,
			Status:              tf.Status,
			Trend:               t.trendLocked(tf),
			ConsecutivePersists: tf.ConsecutivePersists,
			RecurrenceCount:     tf.RecurrenceCount,
		})
	}
	return out
}

// ActiveCount returns the number of findings not yet resolved.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, tf := range t.findings {
		if tf.Status != StatusResolved {
			count++
		}
	}
	return count
}

// ResolvedCount returns the number of findings currently resolved.
func (t *Tracker) ResolvedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, tf := range t.findings {
		if tf.Status == StatusResolved {
			count++
		}
	}
	return count
}

// Len returns the total number of findings ever tracked.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.order)
}

// Updates returns how many snapshots the tracker has ingested.
func (t *Tracker) Updates() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updates
}

// anyTrendLocked reports whether any tracked finding currently has the given
// trend. Caller holds the lock.
func (t *Tracker) anyTrendLocked(trend Trend) bool {
	for _, tf := range t.findings {
		if t.trendLocked(tf) == trend {
			return true
		}
	}
	return false
}

// countsLocked returns (total, active). Caller holds the lock.
func (t *Tracker) countsLocked() (int, int) {
	active := 0
	for _, tf := range t.findings {
		if tf.Status != StatusResolved {
			active++
		}
	}
	return len(t.order), active
}
