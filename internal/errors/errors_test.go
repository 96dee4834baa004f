package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// MovementError Tests
// -----------------------------------------------------------------------------

func TestNewMovementError(t *testing.T) {
	cause := ErrDecompositionFailed
	err := NewMovementError("leader call errored", cause)

	if err.message != "leader call errored" {
		t.Errorf("message = %q, want %q", err.message, "leader call errored")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	if err.Iteration != -1 {
		t.Errorf("Iteration = %d, want -1", err.Iteration)
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
	if err.IsRetryable() {
		t.Error("IsRetryable() = true, want false")
	}
	if !err.IsUserFacing() {
		t.Error("IsUserFacing() = false, want true")
	}
}

func TestMovementError_WithMethods(t *testing.T) {
	err := NewMovementError("test", nil).
		WithPiece("refactor-loop").
		WithMovement("review").
		WithIteration(4).
		WithSeverity(SeverityCritical).
		WithRetryable(true)

	if err.Piece != "refactor-loop" {
		t.Errorf("Piece = %q, want %q", err.Piece, "refactor-loop")
	}
	if err.Movement != "review" {
		t.Errorf("Movement = %q, want %q", err.Movement, "review")
	}
	if err.Iteration != 4 {
		t.Errorf("Iteration = %d, want 4", err.Iteration)
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
	if !err.IsRetryable() {
		t.Error("IsRetryable() = false, want true")
	}
}

func TestMovementError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *MovementError
		want string
	}{
		{
			name: "basic error",
			err:  NewMovementError("test error", nil),
			want: "movement error: test error",
		},
		{
			name: "with cause",
			err:  NewMovementError("test error", ErrDecompositionFailed),
			want: "movement error: test error: decomposition failed",
		},
		{
			name: "with movement name",
			err:  NewMovementError("test error", nil).WithMovement("review"),
			want: "movement error [movement=review]: test error",
		},
		{
			name: "with all context",
			err:  NewMovementError("halted", ErrAllSubtasksFailed).WithPiece("p").WithMovement("build").WithIteration(2),
			want: "movement error [piece=p, movement=build, iteration=2]: halted: all subtasks failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMovementError_Is(t *testing.T) {
	err := NewMovementError("test", ErrDecompositionFailed).WithMovement("build")

	if !Is(err, &MovementError{}) {
		t.Error("Is(MovementError{}) = false, want true")
	}
	if !Is(err, ErrDecompositionFailed) {
		t.Error("Is(ErrDecompositionFailed) = false, want true")
	}
	if Is(err, ErrAllSubtasksFailed) {
		t.Error("Is(ErrAllSubtasksFailed) = true, want false")
	}
}

func TestMovementError_Unwrap(t *testing.T) {
	cause := ErrDecompositionFailed
	err := NewMovementError("test", cause)

	if unwrapped := Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}
}

// -----------------------------------------------------------------------------
// SubtaskError Tests
// -----------------------------------------------------------------------------

func TestNewSubtaskError(t *testing.T) {
	cause := ErrAgentInvocation
	err := NewSubtaskError("invocation failed", cause)

	if err.message != "invocation failed" {
		t.Errorf("message = %q, want %q", err.message, "invocation failed")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
	// Individual subtask failures are recovered locally, hence only a warning.
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
}

func TestSubtaskError_WithMethods(t *testing.T) {
	err := NewSubtaskError("test", nil).
		WithMovement("build").
		WithSubtaskID("subtask-2").
		WithPersona("coder").
		WithSeverity(SeverityError).
		WithRetryable(true)

	if err.Movement != "build" {
		t.Errorf("Movement = %q, want %q", err.Movement, "build")
	}
	if err.SubtaskID != "subtask-2" {
		t.Errorf("SubtaskID = %q, want %q", err.SubtaskID, "subtask-2")
	}
	if err.Persona != "coder" {
		t.Errorf("Persona = %q, want %q", err.Persona, "coder")
	}
	if !err.IsRetryable() {
		t.Error("IsRetryable() = false, want true")
	}
}

func TestSubtaskError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *SubtaskError
		want string
	}{
		{
			name: "basic error",
			err:  NewSubtaskError("test error", nil),
			want: "subtask error: test error",
		},
		{
			name: "with subtask ID",
			err:  NewSubtaskError("test error", nil).WithSubtaskID("subtask-1"),
			want: "subtask error [subtask=subtask-1]: test error",
		},
		{
			name: "with all fields",
			err:  NewSubtaskError("timed out", ErrTimeout).WithMovement("build").WithSubtaskID("subtask-3").WithPersona("coder"),
			want: "subtask error [movement=build, subtask=subtask-3, persona=coder]: timed out: operation timed out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSubtaskError_Is(t *testing.T) {
	err := NewSubtaskError("test", ErrTimeout)

	if !Is(err, &SubtaskError{}) {
		t.Error("Is(SubtaskError{}) = false, want true")
	}
	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}
	if Is(err, &MovementError{}) {
		t.Error("Is(MovementError{}) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// JudgmentError Tests
// -----------------------------------------------------------------------------

func TestNewJudgmentError(t *testing.T) {
	cause := ErrSessionIDMissing
	err := NewJudgmentError("consult refused", cause)

	if err.message != "consult refused" {
		t.Errorf("message = %q, want %q", err.message, "consult refused")
	}
	if err.cause != cause {
		t.Errorf("cause = %v, want %v", err.cause, cause)
	}
}

func TestJudgmentError_WithMethods(t *testing.T) {
	err := NewJudgmentError("test", nil).
		WithMovement("review").
		WithStrategy("agent-consult").
		WithSeverity(SeverityWarning).
		WithRetryable(true)

	if err.Movement != "review" {
		t.Errorf("Movement = %q, want %q", err.Movement, "review")
	}
	if err.Strategy != "agent-consult" {
		t.Errorf("Strategy = %q, want %q", err.Strategy, "agent-consult")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
}

func TestJudgmentError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *JudgmentError
		want string
	}{
		{
			name: "basic error",
			err:  NewJudgmentError("test error", nil),
			want: "judgment error: test error",
		},
		{
			name: "with strategy",
			err:  NewJudgmentError("test error", nil).WithStrategy("report-based"),
			want: "judgment error [strategy=report-based]: test error",
		},
		{
			name: "with all fields",
			err:  NewJudgmentError("refused", ErrSessionIDMissing).WithMovement("review").WithStrategy("agent-consult"),
			want: "judgment error [movement=review, strategy=agent-consult]: refused: session id not provided",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJudgmentError_Is(t *testing.T) {
	err := NewJudgmentError("test", ErrNoApplicableStrategy)

	if !Is(err, &JudgmentError{}) {
		t.Error("Is(JudgmentError{}) = false, want true")
	}
	if !Is(err, ErrNoApplicableStrategy) {
		t.Error("Is(ErrNoApplicableStrategy) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// NotFoundError Tests
// -----------------------------------------------------------------------------

func TestNewNotFoundError(t *testing.T) {
	err := NewNotFoundError("movement", "review")

	if err.ResourceType != "movement" {
		t.Errorf("ResourceType = %q, want %q", err.ResourceType, "movement")
	}
	if err.ResourceID != "review" {
		t.Errorf("ResourceID = %q, want %q", err.ResourceID, "review")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
}

func TestNotFoundError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *NotFoundError
		want string
	}{
		{
			name: "basic error",
			err:  NewNotFoundError("movement", "review"),
			want: "movement 'review' not found",
		},
		{
			name: "with cause",
			err:  NewNotFoundError("piece file", "/p.yaml").WithCause(fmt.Errorf("IO error")),
			want: "piece file '/p.yaml' not found: IO error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNotFoundError_Is(t *testing.T) {
	err := NewNotFoundError("movement", "review")

	if !Is(err, &NotFoundError{}) {
		t.Error("Is(NotFoundError{}) = false, want true")
	}
	// NotFoundError does not wrap sentinel errors by default
	if Is(err, ErrMovementNotFound) {
		t.Error("Is(ErrMovementNotFound) = true, want false (not wrapped)")
	}
}

// -----------------------------------------------------------------------------
// AlreadyExistsError Tests
// -----------------------------------------------------------------------------

func TestAlreadyExistsError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AlreadyExistsError
		want string
	}{
		{
			name: "basic error",
			err:  NewAlreadyExistsError("movement", "review"),
			want: "movement 'review' already exists",
		},
		{
			name: "with cause",
			err:  NewAlreadyExistsError("report", "health.md").WithCause(fmt.Errorf("disk error")),
			want: "report 'health.md' already exists: disk error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// ValidationError Tests
// -----------------------------------------------------------------------------

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "basic error",
			err:  NewValidationError("invalid input"),
			want: "validation error: invalid input",
		},
		{
			name: "with field",
			err:  NewValidationError("cannot be empty").WithField("name"),
			want: "validation error [field=name]: cannot be empty",
		},
		{
			name: "with field and value",
			err:  NewValidationError("must be positive").WithField("maxSubtasks").WithValue(-1),
			want: "validation error [field=maxSubtasks, value=-1]: must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Is(t *testing.T) {
	err := NewValidationError("test")

	if !Is(err, &ValidationError{}) {
		t.Error("Is(ValidationError{}) = false, want true")
	}
	// ValidationError should match ErrInvalidInput
	if !Is(err, ErrInvalidInput) {
		t.Error("Is(ErrInvalidInput) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// TimeoutError Tests
// -----------------------------------------------------------------------------

func TestNewTimeoutError(t *testing.T) {
	err := NewTimeoutError("waiting for subtask", 30*time.Second)

	if err.Operation != "waiting for subtask" {
		t.Errorf("Operation = %q, want %q", err.Operation, "waiting for subtask")
	}
	if err.Duration != 30*time.Second {
		t.Errorf("Duration = %v, want %v", err.Duration, 30*time.Second)
	}
	// Timeouts are retryable by default
	if !err.IsRetryable() {
		t.Error("IsRetryable() = false, want true")
	}
}

func TestTimeoutError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *TimeoutError
		want string
	}{
		{
			name: "basic error",
			err:  NewTimeoutError("waiting for response", 5*time.Second),
			want: "timeout error: waiting for response (timeout: 5s)",
		},
		{
			name: "with cause",
			err:  NewTimeoutError("agent call", time.Minute).WithCause(fmt.Errorf("context deadline exceeded")),
			want: "timeout error: agent call (timeout: 1m0s): context deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTimeoutError_Is(t *testing.T) {
	err := NewTimeoutError("test", time.Second)

	if !Is(err, &TimeoutError{}) {
		t.Error("Is(TimeoutError{}) = false, want true")
	}
	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Helper Tests
// -----------------------------------------------------------------------------

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "timeout error",
			err:  NewTimeoutError("test", time.Second),
			want: true,
		},
		{
			name: "movement error not retryable",
			err:  NewMovementError("test", nil),
			want: false,
		},
		{
			name: "movement error set retryable",
			err:  NewMovementError("test", nil).WithRetryable(true),
			want: true,
		},
		{
			name: "wrapped timeout sentinel",
			err:  fmt.Errorf("operation failed: %w", ErrTimeout),
			want: true,
		},
		{
			name: "standard error",
			err:  errors.New("standard error"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "movement error",
			err:  NewMovementError("test", nil),
			want: true,
		},
		{
			name: "not found error",
			err:  NewNotFoundError("movement", "review"),
			want: true,
		},
		{
			name: "validation error",
			err:  NewValidationError("invalid input"),
			want: true,
		},
		{
			name: "standard error",
			err:  errors.New("internal error"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{
			name: "nil error",
			err:  nil,
			want: SeverityDebug,
		},
		{
			name: "movement error default",
			err:  NewMovementError("test", nil),
			want: SeverityError,
		},
		{
			name: "movement error critical",
			err:  NewMovementError("test", nil).WithSeverity(SeverityCritical),
			want: SeverityCritical,
		},
		{
			name: "subtask error default",
			err:  NewSubtaskError("test", nil),
			want: SeverityWarning,
		},
		{
			name: "standard error",
			err:  errors.New("standard"),
			want: SeverityError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDomainError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "movement error", err: NewMovementError("test", nil), want: true},
		{name: "subtask error", err: NewSubtaskError("test", nil), want: true},
		{name: "judgment error", err: NewJudgmentError("test", nil), want: true},
		{name: "not found error (semantic)", err: NewNotFoundError("movement", "x"), want: false},
		{name: "standard error", err: errors.New("test"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDomainError(tt.err); got != tt.want {
				t.Errorf("IsDomainError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSemanticError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "not found error", err: NewNotFoundError("movement", "x"), want: true},
		{name: "already exists error", err: NewAlreadyExistsError("movement", "x"), want: true},
		{name: "validation error", err: NewValidationError("invalid"), want: true},
		{name: "timeout error", err: NewTimeoutError("waiting", time.Second), want: true},
		{name: "movement error (domain)", err: NewMovementError("test", nil), want: false},
		{name: "standard error", err: errors.New("test"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSemanticError(tt.err); got != tt.want {
				t.Errorf("IsSemanticError() = %v, want %v", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Wrap/Wrapf Tests
// -----------------------------------------------------------------------------

func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		message string
		want    string
	}{
		{
			name:    "nil error",
			err:     nil,
			message: "context",
			want:    "",
		},
		{
			name:    "wrap standard error",
			err:     errors.New("base error"),
			message: "failed to process",
			want:    "failed to process: base error",
		},
		{
			name:    "wrap movement error",
			err:     NewMovementError("agent call failed", nil),
			message: "run failed",
			want:    "run failed: movement error: agent call failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.err, tt.message)
			if tt.err == nil {
				if got != nil {
					t.Errorf("Wrap(nil) = %v, want nil", got)
				}
				return
			}
			if got.Error() != tt.want {
				t.Errorf("Wrap().Error() = %q, want %q", got.Error(), tt.want)
			}
		})
	}
}

func TestWrapf(t *testing.T) {
	baseErr := errors.New("base error")
	err := Wrapf(baseErr, "failed to run movement %s", "review")

	want := "failed to run movement review: base error"
	if err.Error() != want {
		t.Errorf("Wrapf().Error() = %q, want %q", err.Error(), want)
	}

	if got := Wrapf(nil, "test"); got != nil {
		t.Errorf("Wrapf(nil) = %v, want nil", got)
	}
}

// -----------------------------------------------------------------------------
// Error Chain Tests
// -----------------------------------------------------------------------------

func TestErrorChain(t *testing.T) {
	baseErr := ErrAllSubtasksFailed
	movErr := NewMovementError("fan-out failed", baseErr).WithMovement("build")
	wrappedErr := Wrap(movErr, "piece run failed")

	if !Is(wrappedErr, ErrAllSubtasksFailed) {
		t.Error("Should find ErrAllSubtasksFailed in chain")
	}

	var extracted *MovementError
	if !As(wrappedErr, &extracted) {
		t.Error("Should extract MovementError from chain")
	}
	if extracted.Movement != "build" {
		t.Errorf("Movement = %q, want %q", extracted.Movement, "build")
	}
}

// -----------------------------------------------------------------------------
// Sentinel Error Tests
// -----------------------------------------------------------------------------

func TestSentinelErrors(t *testing.T) {
	// Verify all sentinel errors are distinct
	sentinels := []error{
		ErrPieceInvalid,
		ErrMovementNotFound,
		ErrAmbiguousSelection,
		ErrMaxIterations,
		ErrNoApplicableStrategy,
		ErrSessionIDMissing,
		ErrCannotJudge,
		ErrDecompositionFailed,
		ErrAllSubtasksFailed,
		ErrNoSubtasks,
		ErrAgentInvocation,
		ErrEmptyResponse,
		ErrTimeout,
		ErrCanceled,
		ErrInvalidInput,
		ErrOperationFailed,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && Is(err1, err2) {
				t.Errorf("Sentinel error %v should not match %v", err1, err2)
			}
		}
	}
}
