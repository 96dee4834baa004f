package health

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/batonhq/baton/internal/errors"
)

// findingsBlockRegex matches a <findings> block in agent output. (?s) lets
// the payload span newlines.
var findingsBlockRegex = regexp.MustCompile(`(?s)<findings>\s*(.*?)\s*</findings>`)

// findingsEnvelope accepts the wrapped form some reviewers emit.
type findingsEnvelope struct {
	Findings []Finding `json:"findings"`
}

// ExtractFindings pulls the findings list out of reviewer output. The block
// is a JSON array of {id, status, category, location} objects inside
// <findings> tags, either bare or wrapped in a {"findings": [...]} object.
//
// Returns (nil, nil) when the output has no findings block at all, and an
// error only when a block is present but its JSON does not parse. Entries
// without an id are dropped; duplicate ids keep the first occurrence.
func ExtractFindings(output string) ([]Finding, error) {
	matches := findingsBlockRegex.FindStringSubmatch(output)
	if len(matches) < 2 {
		return nil, nil
	}

	payload := strings.TrimSpace(matches[1])
	if payload == "" {
		return nil, nil
	}

	var raw []Finding
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		var envelope findingsEnvelope
		if envErr := json.Unmarshal([]byte(payload), &envelope); envErr != nil {
			return nil, errors.Wrap(err, "parsing findings block")
		}
		raw = envelope.Findings
	}

	seen := make(map[string]bool, len(raw))
	findings := make([]Finding, 0, len(raw))
	for _, f := range raw {
		f.ID = strings.TrimSpace(f.ID)
		if f.ID == "" || seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		findings = append(findings, f)
	}
	if len(findings) == 0 {
		return nil, nil
	}
	return findings, nil
}

// HasFindingsBlock reports whether the output contains a findings block,
// even an empty one. Distinguishes "reviewer reported nothing" from
// "reviewer reported an explicitly empty list".
func HasFindingsBlock(output string) bool {
	return findingsBlockRegex.MatchString(output)
}
