// Package tui renders live progress for a piece run: one line per movement
// and, during team-lead fan-out, one line per concurrent subtask. It
// consumes engine events from the bus and never talks to the engine
// directly.
//
// Two renderers share the same event feed: the bubbletea Model for
// interactive terminals and PlainWriter for pipes and CI logs.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/batonhq/baton/internal/event"
	"github.com/batonhq/baton/internal/util"
)

var (
	movementStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A78BFA"))
	subtaskStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9FAFB"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

// subtaskLine is the display state of one concurrent subtask.
type subtaskLine struct {
	id      string
	title   string
	last    string
	done    bool
	failed  bool
	reason  string
	started int // arrival order, stable across renders
}

// Model is the bubbletea model for run progress. Each engine event arrives
// as a tea.Msg via Program.Send.
type Model struct {
	spinner  spinner.Model
	width    int
	movement string
	verdict  string
	finished bool
	outcome  string

	subtasks map[string]*subtaskLine
	arrivals int
}

// NewModel returns an empty progress model.
func NewModel() Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = movementStyle
	return Model{
		spinner:  sp,
		width:    80,
		subtasks: make(map[string]*subtaskLine),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case event.MovementStartedEvent:
		m.movement = msg.Movement
		m.subtasks = make(map[string]*subtaskLine)
		m.arrivals = 0
		return m, nil

	case event.SubtaskStartedEvent:
		m.arrivals++
		m.subtasks[msg.SubtaskID] = &subtaskLine{
			id:      msg.SubtaskID,
			title:   msg.Title,
			started: m.arrivals,
		}
		return m, nil

	case event.SubtaskProgressEvent:
		if line, ok := m.subtasks[msg.SubtaskID]; ok {
			line.last = util.FirstLine(msg.Chunk)
		}
		return m, nil

	case event.SubtaskFinishedEvent:
		if line, ok := m.subtasks[msg.SubtaskID]; ok {
			line.done = true
			line.failed = !msg.Success
			line.reason = msg.Reason
		}
		return m, nil

	case event.HealthEvaluatedEvent:
		m.verdict = msg.Verdict
		return m, nil

	case event.RunFinishedEvent:
		m.finished = true
		m.outcome = msg.Outcome
		return m, tea.Quit
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	if m.movement != "" {
		header := fmt.Sprintf("%s %s", m.spinner.View(), movementStyle.Render(m.movement))
		if m.finished {
			header = movementStyle.Render(m.movement) + " " + renderOutcome(m.outcome)
		}
		b.WriteString(header)
		b.WriteString("\n")
	}

	for _, line := range m.orderedSubtasks() {
		b.WriteString("  ")
		b.WriteString(renderSubtask(line, m.width-2))
		b.WriteString("\n")
	}

	if m.verdict != "" {
		b.WriteString(mutedStyle.Render("health: " + m.verdict))
		b.WriteString("\n")
	}

	return b.String()
}

// orderedSubtasks returns lines in arrival order so concurrent updates
// never reshuffle the display.
func (m Model) orderedSubtasks() []*subtaskLine {
	lines := make([]*subtaskLine, 0, len(m.subtasks))
	for _, line := range m.subtasks {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].started < lines[j].started })
	return lines
}

func renderSubtask(line *subtaskLine, width int) string {
	marker := mutedStyle.Render("…")
	switch {
	case line.failed:
		marker = errStyle.Render("✗")
	case line.done:
		marker = okStyle.Render("✓")
	}

	text := line.title
	switch {
	case line.failed && line.reason != "":
		text += ": " + line.reason
	case line.last != "":
		text += ": " + line.last
	}

	rendered := fmt.Sprintf("%s %s %s", marker, mutedStyle.Render(line.id), subtaskStyle.Render(text))
	if width > 0 {
		rendered = util.TruncateANSI(rendered, width)
	}
	return rendered
}

func renderOutcome(outcome string) string {
	if outcome == "COMPLETE" {
		return okStyle.Render("complete")
	}
	return errStyle.Render("aborted")
}
