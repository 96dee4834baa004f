// Package agent defines the contract between baton's core and the external
// agent processes it invokes: the Response every invocation returns, the
// options an invocation accepts, and the Invoker capability the conduct
// engine consumes.
//
// The core never knows how an invocation reaches a concrete vendor CLI;
// CLIInvoker (cli.go) is the one generic subprocess-backed implementation
// this repo ships.
package agent

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Response Status
// -----------------------------------------------------------------------------

// Status classifies the outcome of one agent invocation.
type Status string

const (
	// StatusDone indicates the agent finished and produced output.
	StatusDone Status = "done"

	// StatusError indicates the invocation failed; Response.Error explains.
	StatusError Status = "error"

	// StatusBlocked indicates the agent stopped waiting on something it
	// cannot resolve itself (missing input, permission, external state).
	StatusBlocked Status = "blocked"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if this is a recognized status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDone, StatusError, StatusBlocked:
		return true
	default:
		return false
	}
}

// -----------------------------------------------------------------------------
// Response
// -----------------------------------------------------------------------------

// Response is the atomic unit returned by any agent invocation, whether a
// single movement call or one subtask of a team-leader fan-out.
type Response struct {
	// Persona is the agent role the invocation ran under.
	Persona string `json:"persona"`

	// Status classifies the outcome.
	Status Status `json:"status"`

	// Content is the agent's full output text.
	Content string `json:"content"`

	// Error carries the failure message when Status is StatusError.
	Error string `json:"error,omitempty"`

	// SessionID identifies the agent session, when the backing command
	// supports sessions. Enables follow-up consult invocations.
	SessionID string `json:"session_id,omitempty"`

	// Timestamp is when the invocation settled.
	Timestamp time.Time `json:"timestamp"`
}

// IsError returns true if the response carries a failure.
func (r *Response) IsError() bool {
	return r.Status == StatusError
}

// HasContent returns true if the agent produced non-empty output.
func (r *Response) HasContent() bool {
	return r.Content != ""
}

// HasSession returns true if a follow-up consult can resume this response's
// session.
func (r *Response) HasSession() bool {
	return r.SessionID != ""
}

// -----------------------------------------------------------------------------
// Invocation
// -----------------------------------------------------------------------------

// StreamFunc receives incremental output chunks during an invocation.
// Implementations must tolerate being called from the invoker's goroutine.
type StreamFunc func(chunk string)

// InvokeOptions carries the per-invocation options of Invoker.Invoke.
// Cancellation travels separately as the context argument.
type InvokeOptions struct {
	// SessionID resumes an earlier session instead of starting fresh.
	SessionID string

	// Timeout, when positive, is composed with the caller's context by
	// the invoker. Callers that already derived a timeout context leave
	// this zero.
	Timeout time.Duration

	// OnChunk, when set, receives incremental output as it is produced.
	OnChunk StreamFunc
}

// Invoker dispatches one instruction to an agent persona and returns its
// response. Implementations must honor context cancellation and must not
// retry on their own.
type Invoker interface {
	Invoke(ctx context.Context, persona, instruction string, opts InvokeOptions) (Response, error)
}
