package conduct

import (
	"sync"

	"github.com/batonhq/baton/internal/agent"
)

// OutputKey builds the movementOutputs key for a response. Single-call
// movements record under their own name; subtask responses record under
// "{movement}.{subtaskID}" so each fan-out writer owns a distinct key.
func OutputKey(movement, subtaskID string) string {
	if subtaskID == "" {
		return movement
	}
	return movement + "." + subtaskID
}

// PieceState is the mutable run-scoped record for one piece run: every
// recorded agent response, per-persona session ids, and iteration counters.
// The engine owns it for the duration of a run; movements and the team-lead
// runner write into it but never replace it.
//
// Safe for concurrent use. Fan-out subtasks record concurrently, each under
// its own key; session bookkeeping is last-writer-wins per persona.
type PieceState struct {
	mu sync.Mutex

	piece        string
	outputs      map[string]agent.Response
	order        []string
	lastOutput   string
	sessions     map[string]string
	iteration    int
	movementRuns map[string]int
	prevActive   int
}

// NewPieceState returns empty run state for the named piece.
func NewPieceState(piece string) *PieceState {
	return &PieceState{
		piece:        piece,
		outputs:      make(map[string]agent.Response),
		sessions:     make(map[string]string),
		movementRuns: make(map[string]int),
	}
}

// Piece returns the name of the piece this state belongs to.
func (s *PieceState) Piece() string {
	return s.piece
}

// RecordOutput stores a response under the given key, refreshes lastOutput,
// and folds the response's session id into the per-persona bookkeeping.
// Recording the same key again overwrites the previous response.
func (s *PieceState) RecordOutput(key string, resp agent.Response) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.outputs[key]; !exists {
		s.order = append(s.order, key)
	}
	s.outputs[key] = resp
	s.lastOutput = resp.Content

	if resp.Persona != "" && resp.SessionID != "" {
		s.sessions[resp.Persona] = resp.SessionID
	}
}

// Output returns the recorded response for key.
func (s *PieceState) Output(key string) (agent.Response, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, ok := s.outputs[key]
	return resp, ok
}

// OutputKeys returns every recorded key in first-write order.
func (s *PieceState) OutputKeys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys
}

// LastOutput returns the content of the most recently recorded response.
func (s *PieceState) LastOutput() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOutput
}

// RecordSession stores the session id for a persona. Empty values are
// ignored so a session is never clobbered by a response without one.
func (s *PieceState) RecordSession(persona, sessionID string) {
	if persona == "" || sessionID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[persona] = sessionID
}

// Session returns the most recent session id recorded for a persona.
func (s *PieceState) Session(persona string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.sessions[persona]
	return id, ok
}

// BeginIteration bumps both the overall iteration count and the named
// movement's own counter, returning the new overall count (1-based).
func (s *PieceState) BeginIteration(movement string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.iteration++
	s.movementRuns[movement]++
	return s.iteration
}

// Iteration returns the overall iteration count so far.
func (s *PieceState) Iteration() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iteration
}

// MovementRuns returns how many times the named movement has executed.
func (s *PieceState) MovementRuns(movement string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.movementRuns[movement]
}

// PreviousActive returns the active finding count from the last health
// check. Zero before the first check.
func (s *PieceState) PreviousActive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prevActive
}

// SetPreviousActive records the active finding count after a health check.
func (s *PieceState) SetPreviousActive(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prevActive = n
}
