package conduct

import (
	"strings"
	"testing"

	"github.com/batonhq/baton/internal/score"
)

func TestBuildInstruction_TagGuidance(t *testing.T) {
	m := &score.Movement{
		Name:        "review",
		Instruction: "Review the change.",
		Rules: []score.Rule{
			{Condition: "no issues found", Next: "COMPLETE", Kind: score.RuleTagBased},
			{Condition: "issues remain", Next: "fix", Kind: score.RuleTagBased},
		},
	}

	got := BuildInstruction(m)

	for _, want := range []string{
		"Review the change.",
		"[REVIEW:1] when no issues found",
		"[REVIEW:2] when issues remain",
		"[REVIEW:CANNOT_JUDGE]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("instruction missing %q", want)
		}
	}
}

func TestBuildInstruction_SkipsNonTagRules(t *testing.T) {
	m := &score.Movement{
		Name:        "review",
		Instruction: "Review the change.",
		Rules: []score.Rule{
			{Condition: "looks finished", Kind: score.RuleAIJudged},
			{Condition: "all subtasks passed", Kind: score.RuleAggregate},
		},
	}

	got := BuildInstruction(m)

	if strings.Contains(got, "Declaring the Outcome") {
		t.Error("instruction carries tag guidance for a movement with no tag-based rules")
	}
	if got != "Review the change." {
		t.Errorf("instruction = %q, want bare movement instruction", got)
	}
}

func TestBuildInstruction_Appendix(t *testing.T) {
	m := &score.Movement{
		Name:        "fix",
		Instruction: "Fix the findings.",
		Rules: []score.Rule{
			{Condition: "fixed", Next: "review", Kind: score.RuleTagBased, Appendix: "Run the linter before declaring."},
		},
	}

	got := BuildInstruction(m)

	if !strings.Contains(got, "Run the linter before declaring.") {
		t.Error("instruction missing rule appendix")
	}
}
