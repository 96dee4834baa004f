package conduct

import (
	"strings"
	"testing"

	"github.com/batonhq/baton/internal/score"
)

func TestBuildDecompositionPrompt(t *testing.T) {
	m := &score.Movement{
		Name:        "build",
		Persona:     "builder",
		Instruction: "Implement the API and its tests.",
		TeamLeader:  &score.TeamLeaderConfig{MaxSubtasks: 3},
	}

	prompt := BuildDecompositionPrompt(m)

	for _, want := range []string{`"build"`, "Implement the API and its tests.", "at most 3 subtasks", "<subtasks>"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestParseSubtasks(t *testing.T) {
	output := `Here is the split.

<subtasks>
{"subtasks": [
  {"id": "api", "title": "API endpoints", "instruction": "Build the endpoints."},
  {"id": "tests", "title": "Test suite", "instruction": "Write the tests.", "timeout_ms": 1000}
]}
</subtasks>`

	defs, err := ParseSubtasks(output, 5)
	if err != nil {
		t.Fatalf("ParseSubtasks() error = %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("ParseSubtasks() returned %d subtasks, want 2", len(defs))
	}
	if defs[0].ID != "api" || defs[1].ID != "tests" {
		t.Errorf("ids = %q, %q, want api, tests", defs[0].ID, defs[1].ID)
	}
	if defs[1].TimeoutMs != 1000 {
		t.Errorf("defs[1].TimeoutMs = %d, want 1000", defs[1].TimeoutMs)
	}
}

func TestParseSubtasks_BareJSONFallback(t *testing.T) {
	output := `{"subtasks": [{"id": "one", "title": "One", "instruction": "Do one."}]}`

	defs, err := ParseSubtasks(output, 5)
	if err != nil {
		t.Fatalf("ParseSubtasks() error = %v", err)
	}
	if len(defs) != 1 || defs[0].ID != "one" {
		t.Errorf("ParseSubtasks() = %+v, want single subtask one", defs)
	}
}

func TestParseSubtasks_TruncatesToMax(t *testing.T) {
	output := `<subtasks>{"subtasks": [
	  {"id": "a", "title": "A", "instruction": "a"},
	  {"id": "b", "title": "B", "instruction": "b"},
	  {"id": "c", "title": "C", "instruction": "c"},
	  {"id": "d", "title": "D", "instruction": "d"}
	]}</subtasks>`

	defs, err := ParseSubtasks(output, 2)
	if err != nil {
		t.Fatalf("ParseSubtasks() error = %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("ParseSubtasks() returned %d subtasks, want 2 (truncated)", len(defs))
	}
	if defs[0].ID != "a" || defs[1].ID != "b" {
		t.Errorf("truncation kept %q, %q, want a, b (planned order)", defs[0].ID, defs[1].ID)
	}
}

func TestParseSubtasks_FillsMissingIDs(t *testing.T) {
	output := `<subtasks>{"subtasks": [
	  {"title": "First", "instruction": "one"},
	  {"title": "Second", "instruction": "two"}
	]}</subtasks>`

	defs, err := ParseSubtasks(output, 5)
	if err != nil {
		t.Fatalf("ParseSubtasks() error = %v", err)
	}
	if defs[0].ID != "subtask-1" || defs[1].ID != "subtask-2" {
		t.Errorf("ids = %q, %q, want subtask-1, subtask-2", defs[0].ID, defs[1].ID)
	}
}

func TestParseSubtasks_DeduplicatesIDs(t *testing.T) {
	output := `<subtasks>{"subtasks": [
	  {"id": "dup", "title": "First", "instruction": "one"},
	  {"id": "dup", "title": "Second", "instruction": "two"}
	]}</subtasks>`

	defs, err := ParseSubtasks(output, 5)
	if err != nil {
		t.Fatalf("ParseSubtasks() error = %v", err)
	}
	if defs[0].ID == defs[1].ID {
		t.Errorf("duplicate ids survived: %q, %q", defs[0].ID, defs[1].ID)
	}
}

func TestParseSubtasks_Errors(t *testing.T) {
	tests := []struct {
		name   string
		output string
	}{
		{"no JSON at all", "I could not split this work."},
		{"empty plan", `<subtasks>{"subtasks": []}</subtasks>`},
		{"malformed JSON", `<subtasks>{"subtasks": [</subtasks>`},
		{"subtask without instruction", `<subtasks>{"subtasks": [{"id": "a", "title": "A"}]}</subtasks>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSubtasks(tt.output, 5); err == nil {
				t.Error("ParseSubtasks() error = nil, want error")
			}
		})
	}
}
