package score

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/batonhq/baton/internal/errors"
)

// -----------------------------------------------------------------------------
// Rule Classification
// -----------------------------------------------------------------------------

// HasTagBasedRules reports whether the movement expects a literal [NAME:N]
// tag in its agent output: true unless every rule is AI-judged or
// aggregate-only. It drives whether the instruction must ask the agent to
// emit an explicit tag. A movement with no rules has nothing tag-based.
func (m *Movement) HasTagBasedRules() bool {
	for i := range m.Rules {
		switch m.Rules[i].Kind {
		case RuleAIJudged, RuleAggregate:
			continue
		default:
			// Unnormalized rules default to tag-based.
			return true
		}
	}
	return false
}

// HasOnlyOneBranch reports whether exactly one rule exists, meaning no
// genuine decision is needed and the transition can be auto-selected.
func (m *Movement) HasOnlyOneBranch() bool {
	return len(m.Rules) == 1
}

// TagFor returns the literal tag an agent would emit to select the 1-based
// rule number n, e.g. TagFor(1) on movement "review" yields "[REVIEW:1]".
func (m *Movement) TagFor(n int) string {
	return fmt.Sprintf("[%s:%d]", strings.ToUpper(m.Name), n)
}

// AutoSelectedTag returns the tag for the movement's single rule. Callers
// must check HasOnlyOneBranch first; any other rule count is ambiguous and
// yields errors.ErrAmbiguousSelection.
func (m *Movement) AutoSelectedTag() (string, error) {
	if !m.HasOnlyOneBranch() {
		return "", fmt.Errorf("cannot auto-select tag for movement %q with %d rules: %w",
			m.Name, len(m.Rules), errors.ErrAmbiguousSelection)
	}
	return m.TagFor(1), nil
}

// NextByRuleIndex resolves a matched rule index into a transition target.
// It returns (target, true) when ruleIndex is a valid position and that
// rule defines Next. Negative, out-of-range, or Next-less indices return
// ("", false) — never an error — so callers can treat "no deterministic
// transition" as ordinary control flow (for example, sub-movement rules
// consumed only by aggregate conditions).
func (m *Movement) NextByRuleIndex(ruleIndex int) (string, bool) {
	if ruleIndex < 0 || ruleIndex >= len(m.Rules) {
		return "", false
	}
	rule := &m.Rules[ruleIndex]
	if !rule.HasNext() {
		return "", false
	}
	return rule.Next, true
}

// -----------------------------------------------------------------------------
// Tag Detection
// -----------------------------------------------------------------------------

// DetectionReason explains why tag detection produced no match.
type DetectionReason string

const (
	// ReasonNoTag means the output carried neither a movement tag nor an
	// explicit cannot-judge declaration.
	ReasonNoTag DetectionReason = "no_tag"

	// ReasonCannotJudge means the agent explicitly declared it cannot
	// judge which rule applies.
	ReasonCannotJudge DetectionReason = "cannot_judge"
)

// String returns the string representation of the detection reason.
func (r DetectionReason) String() string {
	return string(r)
}

// Detection is the typed outcome of scanning agent output for a rule tag.
// It is never an error: an unmatched detection is recoverable input for
// the judgment strategy chain.
type Detection struct {
	// Matched is true when a movement tag was found.
	Matched bool

	// RuleIndex is the zero-based rule position the tag names (tag number
	// minus one). Meaningful only when Matched; it may still be out of
	// range for the movement's rules — NextByRuleIndex handles that as
	// "no transition".
	RuleIndex int

	// Tag is the literal tag text that matched, e.g. "[REVIEW:1]".
	Tag string

	// Reason explains the miss when Matched is false.
	Reason DetectionReason
}

// cannotJudgeToken matches an explicit bare cannot-judge declaration.
var cannotJudgeToken = regexp.MustCompile(`\bCANNOT_JUDGE\b`)

// DetectTag scans agent output for the first [NAME:N] tag derived from the
// movement's name. The name comparison is case-insensitive and N must be
// numeric; when several tags are present the first occurrence in text
// order wins. Tags for other movements never match.
//
// When no tag is found, the result distinguishes an explicit cannot-judge
// declaration (the tagged form [NAME:CANNOT_JUDGE] or a bare CANNOT_JUDGE
// token) from plain absence, so callers can route the two cases through
// different judgment strategies.
func (m *Movement) DetectTag(output string) Detection {
	name := regexp.QuoteMeta(m.Name)

	tagRe := regexp.MustCompile(`(?i)\[` + name + `:(\d+)\]`)
	for _, match := range tagRe.FindAllStringSubmatch(output, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil {
			// Digits too large for int; not a usable tag number.
			continue
		}
		return Detection{
			Matched:   true,
			RuleIndex: n - 1,
			Tag:       match[0],
		}
	}

	cannotRe := regexp.MustCompile(`(?i)\[` + name + `:CANNOT_JUDGE\]`)
	if cannotRe.MatchString(output) || cannotJudgeToken.MatchString(output) {
		return Detection{Matched: false, Reason: ReasonCannotJudge}
	}

	return Detection{Matched: false, Reason: ReasonNoTag}
}
