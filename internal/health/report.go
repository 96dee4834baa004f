package health

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	verdictConvergingColor = lipgloss.Color("#10B981") // Green
	verdictImprovingColor  = lipgloss.Color("#60A5FA") // Blue
	verdictAttentionColor  = lipgloss.Color("#F59E0B") // Amber
	verdictStagnatingColor = lipgloss.Color("#FB923C") // Orange
	verdictLoopingColor    = lipgloss.Color("#F87171") // Red
	verdictMisalignedColor = lipgloss.Color("#F87171") // Red
	reportMutedColor       = lipgloss.Color("#9CA3AF") // Gray

	reportMuted = lipgloss.NewStyle().Foreground(reportMutedColor)
)

// VerdictColor returns the display color for a verdict.
func VerdictColor(v Verdict) lipgloss.Color {
	switch v {
	case VerdictConverging:
		return verdictConvergingColor
	case VerdictImproving:
		return verdictImprovingColor
	case VerdictNeedsAttention:
		return verdictAttentionColor
	case VerdictStagnating:
		return verdictStagnatingColor
	case VerdictLooping:
		return verdictLoopingColor
	case VerdictMisaligned:
		return verdictMisalignedColor
	default:
		return reportMutedColor
	}
}

// VerdictIcon returns an icon for a verdict.
func VerdictIcon(v Verdict) string {
	switch v {
	case VerdictConverging:
		return "✓"
	case VerdictImproving:
		return "●"
	case VerdictNeedsAttention:
		return "!"
	case VerdictStagnating:
		return "⏱"
	case VerdictLooping:
		return "↻"
	case VerdictMisaligned:
		return "✗"
	default:
		return "●"
	}
}

// trendIcon returns an icon for a finding's trend.
func trendIcon(t Trend) string {
	switch t {
	case TrendImproving:
		return "✓"
	case TrendStagnating:
		return "⏱"
	case TrendLooping:
		return "↻"
	default:
		return "○"
	}
}

// Render formats a snapshot for terminal display.
func Render(s Snapshot) string {
	var b strings.Builder

	verdictStyle := lipgloss.NewStyle().Bold(true).Foreground(VerdictColor(s.Verdict))
	fmt.Fprintf(&b, "%s %s\n", verdictStyle.Render(VerdictIcon(s.Verdict)),
		verdictStyle.Render(strings.ToUpper(s.Verdict.String())))

	meta := fmt.Sprintf("movement %s · iteration %d/%d", s.Movement, s.Iteration, s.MaxIterations)
	if s.PhaseError {
		meta += " · phase error"
	}
	b.WriteString(reportMuted.Render(meta))
	b.WriteString("\n")

	fmt.Fprintf(&b, "findings: %d active, %d resolved\n", s.ActiveCount, s.ResolvedCount)

	for _, f := range s.Findings {
		trendStyle := lipgloss.NewStyle().Foreground(trendColor(f.Trend))
		line := fmt.Sprintf("  %s %s", trendStyle.Render(trendIcon(f.Trend)), f.ID)
		if f.Category != "" {
			line += reportMuted.Render(fmt.Sprintf(" [%s]", f.Category))
		}
		if f.Location != "" {
			line += reportMuted.Render(" " + f.Location)
		}
		if detail := findingDetail(f); detail != "" {
			line += reportMuted.Render(" " + detail)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if s.Justification != "" {
		b.WriteString("\n")
		b.WriteString(s.Justification)
		b.WriteString("\n")
	}
	return b.String()
}

func trendColor(t Trend) lipgloss.Color {
	switch t {
	case TrendImproving:
		return verdictConvergingColor
	case TrendStagnating:
		return verdictStagnatingColor
	case TrendLooping:
		return verdictLoopingColor
	default:
		return verdictImprovingColor
	}
}

func findingDetail(f FindingReport) string {
	switch {
	case f.RecurrenceCount > 0 && f.ConsecutivePersists > 0:
		return fmt.Sprintf("(recurred ×%d, persists ×%d)", f.RecurrenceCount, f.ConsecutivePersists)
	case f.RecurrenceCount > 0:
		return fmt.Sprintf("(recurred ×%d)", f.RecurrenceCount)
	case f.ConsecutivePersists > 0:
		return fmt.Sprintf("(persists ×%d)", f.ConsecutivePersists)
	case f.Status == StatusResolved:
		return "(resolved)"
	default:
		return ""
	}
}
