package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() fails its own validation: %v", ValidationErrors(errs))
	}
}

func TestDefault_Values(t *testing.T) {
	cfg := Default()

	if cfg.Health.StagnationThreshold != 3 {
		t.Errorf("StagnationThreshold = %d, want 3", cfg.Health.StagnationThreshold)
	}
	if cfg.Health.LoopThreshold != 5 {
		t.Errorf("LoopThreshold = %d, want 5", cfg.Health.LoopThreshold)
	}
	if cfg.Health.RecurrenceThreshold != 2 {
		t.Errorf("RecurrenceThreshold = %d, want 2", cfg.Health.RecurrenceThreshold)
	}
	if cfg.Engine.MaxIterations != 50 {
		t.Errorf("MaxIterations = %d, want 50", cfg.Engine.MaxIterations)
	}
	if got := cfg.Agent.Timeout(); got != 30*time.Minute {
		t.Errorf("Agent.Timeout() = %v, want 30m", got)
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Agent.Command = ""
	cfg.Engine.MaxIterations = 0
	cfg.Logging.Level = "loud"

	errs := cfg.Validate()
	if len(errs) != 3 {
		t.Fatalf("Validate() returned %d errors, want 3: %v", len(errs), ValidationErrors(errs))
	}

	fields := make(map[string]bool)
	for _, e := range errs {
		fields[e.Field] = true
	}
	for _, want := range []string{"agent.command", "engine.max_iterations", "logging.level"} {
		if !fields[want] {
			t.Errorf("missing validation error for %s", want)
		}
	}
}

func TestValidate_ThresholdOrdering(t *testing.T) {
	cfg := Default()
	cfg.Health.StagnationThreshold = 5
	cfg.Health.LoopThreshold = 3

	errs := cfg.Validate()
	if len(errs) != 1 || errs[0].Field != "health.loop_threshold" {
		t.Errorf("Validate() = %v, want single loop_threshold ordering error", ValidationErrors(errs))
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Value: 1, Message: "bad"},
		{Field: "b", Value: 2, Message: "worse"},
	}

	msg := errs.Error()
	if !strings.Contains(msg, "2 validation errors") {
		t.Errorf("Error() = %q, want count prefix", msg)
	}
	if !strings.Contains(msg, "a: bad (got: 1)") {
		t.Errorf("Error() = %q, missing first error", msg)
	}

	single := ValidationErrors{errs[0]}
	if got := single.Error(); got != "a: bad (got: 1)" {
		t.Errorf("single Error() = %q", got)
	}
}
