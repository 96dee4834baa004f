// Package errors provides centralized error definitions and error handling
// utilities for the baton codebase. It defines domain-specific errors,
// semantic error types, error constructors with context wrapping, and error
// classification helpers.
//
// # Error Types
//
// The package provides two categories of errors:
//
// Domain-specific errors represent errors from specific subsystems:
//   - MovementError: errors raised while executing one movement of a piece
//   - SubtaskError: errors from one subtask of a team-leader fan-out
//   - JudgmentError: errors from the status-judgment strategy chain
//
// Semantic errors represent common error conditions:
//   - NotFoundError: resource not found
//   - AlreadyExistsError: resource already exists
//   - ValidationError: invalid input or state
//   - TimeoutError: operation timed out
//
// # Usage
//
// Creating errors:
//
//	// Domain-specific error
//	err := errors.NewMovementError("agent call failed", errors.ErrAgentInvocation)
//
//	// Semantic error
//	err := errors.NewNotFoundError("movement", "review")
//
//	// With context wrapping
//	err := errors.NewSubtaskError("invocation failed", baseErr).WithSubtaskID("subtask-2")
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrAllSubtasksFailed) { ... }
//
//	var movErr *errors.MovementError
//	if errors.As(err, &movErr) { ... }
//
//	if errors.IsRetryable(err) { ... }
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug marks diagnostic noise, not a problem.
	SeverityDebug Severity = iota
	// SeverityInfo marks informational conditions.
	SeverityInfo
	// SeverityWarning marks conditions worth surfacing but not fatal.
	SeverityWarning
	// SeverityError marks real failures.
	SeverityError
	// SeverityCritical marks failures that end the run.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Piece and rule-resolution sentinel errors
var (
	// ErrPieceInvalid indicates that a piece definition failed validation.
	ErrPieceInvalid = New("piece definition is invalid")
	// ErrMovementNotFound indicates that a referenced movement does not exist.
	ErrMovementNotFound = New("movement not found")
	// ErrAmbiguousSelection indicates an auto-selected tag was requested for a
	// movement with more than one branch.
	ErrAmbiguousSelection = New("ambiguous selection: movement has multiple rules")
	// ErrMaxIterations indicates that a piece run hit its iteration ceiling.
	ErrMaxIterations = New("maximum iterations reached")
)

// Judgment sentinel errors
var (
	// ErrNoApplicableStrategy indicates that no judgment strategy could apply.
	ErrNoApplicableStrategy = New("no applicable judgment strategy")
	// ErrSessionIDMissing indicates an agent consult was attempted without a
	// session to resume.
	ErrSessionIDMissing = New("session id not provided")
	// ErrCannotJudge indicates the agent explicitly declared it cannot judge.
	ErrCannotJudge = New("agent cannot judge")
)

// Team-leader sentinel errors
var (
	// ErrDecompositionFailed indicates the leader's decomposition call errored.
	ErrDecompositionFailed = New("decomposition failed")
	// ErrAllSubtasksFailed indicates every planned subtask ended in error.
	ErrAllSubtasksFailed = New("all subtasks failed")
	// ErrNoSubtasks indicates the leader's plan contained no usable subtasks.
	ErrNoSubtasks = New("no subtasks planned")
)

// Agent sentinel errors
var (
	// ErrAgentInvocation indicates an agent process could not be invoked.
	ErrAgentInvocation = New("agent invocation failed")
	// ErrEmptyResponse indicates an agent returned no usable content.
	ErrEmptyResponse = New("agent returned empty response")
)

// General sentinel errors
var (
	// ErrTimeout marks an operation that ran out of time.
	ErrTimeout = New("operation timed out")
	// ErrCanceled marks an operation canceled through its context.
	ErrCanceled = New("operation canceled")
	// ErrInvalidInput marks rejected input.
	ErrInvalidInput = New("invalid input")
	// ErrOperationFailed marks a failure with no more specific sentinel.
	ErrOperationFailed = New("operation failed")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// BatonError is the base interface for all baton errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type BatonError interface {
	error

	// Unwrap exposes the wrapped cause for errors.Is/As chains.
	Unwrap() error

	// Is matches against sentinel and typed targets.
	Is(target error) bool

	// Severity classifies how bad this error is.
	Severity() Severity

	// IsRetryable reports whether the failed operation may succeed if
	// attempted again.
	IsRetryable() bool

	// IsUserFacing reports whether the message can be shown as-is.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// MovementError represents errors raised while executing one movement.
//
// Example:
//
//	err := errors.NewMovementError("decomposition failed", errors.ErrDecompositionFailed)
//	err = err.WithMovement("review").WithIteration(3)
type MovementError struct {
	baseError
	Piece     string
	Movement  string
	Iteration int
}

// NewMovementError creates a new MovementError.
func NewMovementError(message string, cause error) *MovementError {
	return &MovementError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
		Iteration: -1, // -1 indicates not set
	}
}

// WithPiece adds the piece name to the error context.
func (e *MovementError) WithPiece(name string) *MovementError {
	e.Piece = name
	return e
}

// WithMovement adds the movement name to the error context.
func (e *MovementError) WithMovement(name string) *MovementError {
	e.Movement = name
	return e
}

// WithIteration adds the overall iteration count to the error context.
func (e *MovementError) WithIteration(n int) *MovementError {
	e.Iteration = n
	return e
}

// WithSeverity sets the error severity.
func (e *MovementError) WithSeverity(s Severity) *MovementError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *MovementError) WithRetryable(r bool) *MovementError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *MovementError) Error() string {
	var parts []string
	if e.Piece != "" {
		parts = append(parts, fmt.Sprintf("piece=%s", e.Piece))
	}
	if e.Movement != "" {
		parts = append(parts, fmt.Sprintf("movement=%s", e.Movement))
	}
	if e.Iteration >= 0 {
		parts = append(parts, fmt.Sprintf("iteration=%d", e.Iteration))
	}

	prefix := "movement error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("movement error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *MovementError) Is(target error) bool {
	if _, ok := target.(*MovementError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// SubtaskError represents errors from one subtask of a team-leader fan-out.
//
// Example:
//
//	err := errors.NewSubtaskError("invocation failed", cause)
//	err = err.WithMovement("build").WithSubtaskID("subtask-2").WithPersona("coder")
type SubtaskError struct {
	baseError
	Movement  string
	SubtaskID string
	Persona   string
}

// NewSubtaskError creates a new SubtaskError.
func NewSubtaskError(message string, cause error) *SubtaskError {
	return &SubtaskError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityWarning, // individual subtask failures are recoverable
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithMovement adds the owning movement name to the error context.
func (e *SubtaskError) WithMovement(name string) *SubtaskError {
	e.Movement = name
	return e
}

// WithSubtaskID adds the subtask identifier to the error context.
func (e *SubtaskError) WithSubtaskID(id string) *SubtaskError {
	e.SubtaskID = id
	return e
}

// WithPersona adds the persona reference to the error context.
func (e *SubtaskError) WithPersona(persona string) *SubtaskError {
	e.Persona = persona
	return e
}

// WithSeverity sets the error severity.
func (e *SubtaskError) WithSeverity(s Severity) *SubtaskError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *SubtaskError) WithRetryable(r bool) *SubtaskError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *SubtaskError) Error() string {
	var parts []string
	if e.Movement != "" {
		parts = append(parts, fmt.Sprintf("movement=%s", e.Movement))
	}
	if e.SubtaskID != "" {
		parts = append(parts, fmt.Sprintf("subtask=%s", e.SubtaskID))
	}
	if e.Persona != "" {
		parts = append(parts, fmt.Sprintf("persona=%s", e.Persona))
	}

	prefix := "subtask error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("subtask error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *SubtaskError) Is(target error) bool {
	if _, ok := target.(*SubtaskError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// JudgmentError represents errors from the status-judgment strategy chain.
//
// Example:
//
//	err := errors.NewJudgmentError("consult refused", errors.ErrSessionIDMissing)
//	err = err.WithMovement("review").WithStrategy("agent-consult")
type JudgmentError struct {
	baseError
	Movement string
	Strategy string
}

// NewJudgmentError creates a new JudgmentError.
func NewJudgmentError(message string, cause error) *JudgmentError {
	return &JudgmentError{
		baseError: baseError{
			message:    message,
			cause:      cause,
			severity:   SeverityError,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithMovement adds the movement name to the error context.
func (e *JudgmentError) WithMovement(name string) *JudgmentError {
	e.Movement = name
	return e
}

// WithStrategy adds the strategy name to the error context.
func (e *JudgmentError) WithStrategy(name string) *JudgmentError {
	e.Strategy = name
	return e
}

// WithSeverity sets the error severity.
func (e *JudgmentError) WithSeverity(s Severity) *JudgmentError {
	e.severity = s
	return e
}

// WithRetryable sets whether the error is retryable.
func (e *JudgmentError) WithRetryable(r bool) *JudgmentError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *JudgmentError) Error() string {
	var parts []string
	if e.Movement != "" {
		parts = append(parts, fmt.Sprintf("movement=%s", e.Movement))
	}
	if e.Strategy != "" {
		parts = append(parts, fmt.Sprintf("strategy=%s", e.Strategy))
	}

	prefix := "judgment error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("judgment error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *JudgmentError) Is(target error) bool {
	if _, ok := target.(*JudgmentError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("movement", "review")
//	fmt.Println(err) // "movement 'review' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("movement", "review")
//	fmt.Println(err) // "movement 'review' already exists"
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' already exists: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("movement name cannot be empty")
//	err = err.WithField("name").WithValue("")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if errors.Is(target, ErrInvalidInput) {
		return true
	}
	return e.baseError.Is(target)
}

// TimeoutError represents an operation that timed out.
//
// Example:
//
//	err := errors.NewTimeoutError("waiting for subtask", 30*time.Second)
//	fmt.Println(err) // "timeout error: waiting for subtask (timeout: 30s)"
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a new TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:    operation,
			severity:   SeverityWarning,
			retryable:  true,
			userFacing: true,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause adds a cause to the error.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

// WithRetryable sets whether the error is retryable (default true for timeouts).
func (e *TimeoutError) WithRetryable(r bool) *TimeoutError {
	e.retryable = r
	return e
}

// Error returns the formatted error message.
func (e *TimeoutError) Error() string {
	base := fmt.Sprintf("timeout error: %s (timeout: %s)", e.Operation, e.Duration)
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", base, e.cause)
	}
	return base
}

// Is checks if this error matches the target.
func (e *TimeoutError) Is(target error) bool {
	if _, ok := target.(*TimeoutError); ok {
		return true
	}
	if errors.Is(target, ErrTimeout) {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable reports whether err represents a transient condition: a
// BatonError that declares itself retryable, or anything wrapping
// ErrTimeout.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var batonErr BatonError
	if As(err, &batonErr) {
		return batonErr.IsRetryable()
	}

	if Is(err, ErrTimeout) {
		return true
	}

	return false
}

// IsUserFacing reports whether err's message is safe to print verbatim:
// a BatonError that declares itself user-facing, or any of the semantic
// error types.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var batonErr BatonError
	if As(err, &batonErr) {
		return batonErr.IsUserFacing()
	}

	var notFound *NotFoundError
	var alreadyExists *AlreadyExistsError
	var validation *ValidationError
	var timeout *TimeoutError

	if As(err, &notFound) || As(err, &alreadyExists) ||
		As(err, &validation) || As(err, &timeout) {
		return true
	}

	return false
}

// GetSeverity returns err's severity, defaulting to SeverityError for
// errors that don't implement BatonError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var batonErr BatonError
	if As(err, &batonErr) {
		return batonErr.Severity()
	}

	return SeverityError
}

// IsDomainError returns true if the error is a domain-specific error
// (MovementError, SubtaskError, or JudgmentError).
func IsDomainError(err error) bool {
	if err == nil {
		return false
	}

	var movementErr *MovementError
	var subtaskErr *SubtaskError
	var judgmentErr *JudgmentError

	return As(err, &movementErr) || As(err, &subtaskErr) || As(err, &judgmentErr)
}

// IsSemanticError returns true if the error is a semantic error
// (NotFoundError, AlreadyExistsError, ValidationError, or TimeoutError).
func IsSemanticError(err error) bool {
	if err == nil {
		return false
	}

	var notFound *NotFoundError
	var alreadyExists *AlreadyExistsError
	var validation *ValidationError
	var timeout *TimeoutError

	return As(err, &notFound) || As(err, &alreadyExists) ||
		As(err, &validation) || As(err, &timeout)
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to run movement")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to run movement %s", name)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
