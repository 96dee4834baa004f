package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config field path (e.g., "health.loop_threshold")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate checks the Config for invalid values and returns all validation
// errors found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(c.Agent.Command) == "" {
		errs = append(errs, ValidationError{
			Field:   "agent.command",
			Value:   c.Agent.Command,
			Message: "agent command is required",
		})
	}
	if c.Agent.TimeoutMinutes < 0 {
		errs = append(errs, ValidationError{
			Field:   "agent.timeout_minutes",
			Value:   c.Agent.TimeoutMinutes,
			Message: "must be zero or positive",
		})
	}

	if c.Engine.MaxIterations < 1 {
		errs = append(errs, ValidationError{
			Field:   "engine.max_iterations",
			Value:   c.Engine.MaxIterations,
			Message: "must be at least 1",
		})
	}

	if c.Health.StagnationThreshold < 1 {
		errs = append(errs, ValidationError{
			Field:   "health.stagnation_threshold",
			Value:   c.Health.StagnationThreshold,
			Message: "must be at least 1",
		})
	}
	if c.Health.LoopThreshold < 1 {
		errs = append(errs, ValidationError{
			Field:   "health.loop_threshold",
			Value:   c.Health.LoopThreshold,
			Message: "must be at least 1",
		})
	}
	if c.Health.LoopThreshold >= 1 && c.Health.StagnationThreshold >= 1 &&
		c.Health.LoopThreshold < c.Health.StagnationThreshold {
		errs = append(errs, ValidationError{
			Field:   "health.loop_threshold",
			Value:   c.Health.LoopThreshold,
			Message: "must not be below health.stagnation_threshold",
		})
	}
	if c.Health.RecurrenceThreshold < 1 {
		errs = append(errs, ValidationError{
			Field:   "health.recurrence_threshold",
			Value:   c.Health.RecurrenceThreshold,
			Message: "must be at least 1",
		})
	}

	if c.Report.WatchDebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "report.watch_debounce_ms",
			Value:   c.Report.WatchDebounceMs,
			Message: "must be zero or positive",
		})
	}

	if !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be zero or positive",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errs = append(errs, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be zero or positive",
		})
	}

	if c.TUI.MaxLineWidth < 0 {
		errs = append(errs, ValidationError{
			Field:   "tui.max_line_width",
			Value:   c.TUI.MaxLineWidth,
			Message: "must be zero or positive",
		})
	}

	return errs
}
