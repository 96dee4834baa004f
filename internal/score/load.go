package score

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/batonhq/baton/internal/errors"
)

// DefaultMaxSubtasks bounds a decomposition when the piece file sets a
// team-leader config without max_subtasks.
const DefaultMaxSubtasks = 5

// Load reads a piece definition from a YAML file, normalizes rule kinds,
// and validates the result.
func Load(path string) (*Piece, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading piece file: %w", err)
	}

	piece, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("loading piece from %s: %w", path, err)
	}
	return piece, nil
}

// Parse unmarshals a YAML piece definition, normalizes rule flags into
// RuleKind discriminants, and validates the result. Returned errors match
// errors.ErrPieceInvalid when the definition itself is malformed.
func Parse(data []byte) (*Piece, error) {
	var piece Piece
	if err := yaml.Unmarshal(data, &piece); err != nil {
		return nil, fmt.Errorf("parsing piece file: %w", err)
	}

	piece.Normalize()

	if err := piece.Validate(); err != nil {
		return nil, errors.Join(errors.ErrPieceInvalid, err)
	}

	return &piece, nil
}

// Normalize derives each rule's Kind from its YAML flags and applies
// defaults. Aggregate wins over AI-judged when both flags are set, though
// Validate rejects that combination. Safe to call more than once.
func (p *Piece) Normalize() {
	for i := range p.Movements {
		m := &p.Movements[i]

		for j := range m.Rules {
			r := &m.Rules[j]
			switch {
			case r.AggregateCondition:
				r.Kind = RuleAggregate
			case r.AICondition:
				r.Kind = RuleAIJudged
			default:
				r.Kind = RuleTagBased
			}
		}

		if m.TeamLeader != nil && m.TeamLeader.MaxSubtasks == 0 {
			m.TeamLeader.MaxSubtasks = DefaultMaxSubtasks
		}
	}
}

// Validate checks structural integrity: required fields, unique movement
// names, known transition targets, and sane team-leader bounds. It assumes
// Normalize has run.
func (p *Piece) Validate() error {
	if p.Name == "" {
		return errors.NewValidationError("piece name is required").WithField("name")
	}
	if len(p.Movements) == 0 {
		return errors.NewValidationError("piece must define at least one movement").WithField("movements")
	}
	if p.MaxIterations < 0 {
		return errors.NewValidationError("max_iterations cannot be negative").
			WithField("max_iterations").WithValue(p.MaxIterations)
	}

	seen := make(map[string]bool, len(p.Movements))
	for i := range p.Movements {
		m := &p.Movements[i]

		if m.Name == "" {
			return errors.NewValidationError(fmt.Sprintf("movement %d has no name", i)).
				WithField("name")
		}
		if IsTerminalTarget(m.Name) {
			return errors.NewValidationError(
				fmt.Sprintf("movement name %q is a reserved transition target", m.Name)).
				WithField("name").WithValue(m.Name)
		}
		if seen[m.Name] {
			return errors.NewAlreadyExistsError("movement", m.Name)
		}
		seen[m.Name] = true

		if m.Persona == "" {
			return errors.NewValidationError(
				fmt.Sprintf("movement %q has no persona", m.Name)).
				WithField("persona")
		}
		if m.Instruction == "" {
			return errors.NewValidationError(
				fmt.Sprintf("movement %q has no instruction", m.Name)).
				WithField("instruction")
		}

		if err := validateRules(m); err != nil {
			return err
		}

		if tl := m.TeamLeader; tl != nil {
			if tl.MaxSubtasks < 1 {
				return errors.NewValidationError(
					fmt.Sprintf("movement %q: max_subtasks must be at least 1", m.Name)).
					WithField("max_subtasks").WithValue(tl.MaxSubtasks)
			}
			if tl.TimeoutMs < 0 {
				return errors.NewValidationError(
					fmt.Sprintf("movement %q: timeout_ms cannot be negative", m.Name)).
					WithField("timeout_ms").WithValue(tl.TimeoutMs)
			}
		}
	}

	// Transition targets resolve only after all names are known.
	for i := range p.Movements {
		m := &p.Movements[i]
		for j := range m.Rules {
			next := m.Rules[j].Next
			if next == "" || IsTerminalTarget(next) {
				continue
			}
			if !seen[next] {
				return errors.NewValidationError(
					fmt.Sprintf("movement %q rule %d targets unknown movement %q", m.Name, j+1, next)).
					WithField("next").WithValue(next)
			}
		}
	}

	if p.Entry != "" && !seen[p.Entry] {
		return errors.NewNotFoundError("entry movement", p.Entry)
	}

	return nil
}

// validateRules checks one movement's rule list.
func validateRules(m *Movement) error {
	for j := range m.Rules {
		r := &m.Rules[j]

		if r.Condition == "" {
			return errors.NewValidationError(
				fmt.Sprintf("movement %q rule %d has no condition", m.Name, j+1)).
				WithField("condition")
		}
		if r.AICondition && r.AggregateCondition {
			return errors.NewValidationError(
				fmt.Sprintf("movement %q rule %d cannot be both ai_condition and aggregate_condition", m.Name, j+1)).
				WithField("ai_condition")
		}
		if !r.Kind.IsValid() {
			return errors.NewValidationError(
				fmt.Sprintf("movement %q rule %d has unnormalized kind %q", m.Name, j+1, r.Kind)).
				WithField("kind").WithValue(r.Kind.String())
		}
	}
	return nil
}
