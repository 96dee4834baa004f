// Package conduct drives a piece run: it executes movements one at a time,
// resolves each movement's transition from agent output, and advances until
// a terminal target or the iteration ceiling.
//
// The engine composes the other core packages. A movement runs as either a
// single agent call or a team-leader fan-out (teamlead.go); its output is
// resolved into a next movement through tag detection, the optional AI-judge
// callback, and the judgment strategy chain (judge.go); report-phase
// movements additionally feed the health tracker as a side observer. All
// run-scoped mutable state lives in PieceState (state.go) and every
// externally visible step is published to an optional event bus.
//
// The engine owns control flow; it never retries a movement and never
// consults the health verdict to pick the next movement. Health output is
// observational only.
package conduct
