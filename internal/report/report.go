// Package report prints validation and generation summaries for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/indusense/testgen/internal/generator"
	"github.com/indusense/testgen/internal/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
)

// Validation renders one result under title.
func Validation(title string, r models.ValidationResult) string {
	var b strings.Builder

	status := passStyle.Render("PASS")
	if !r.Passed {
		status = failStyle.Render("FAIL")
	}
	fmt.Fprintf(&b, "%s  %s\n", titleStyle.Render(title), status)
	fmt.Fprintf(&b, "Coverage: %.1f%%", r.CoveragePct)
	if len(r.TestedSignals)+len(r.MissingSignals) > 0 {
		fmt.Fprintf(&b, " (%d/%d signals)", len(r.TestedSignals), len(r.TestedSignals)+len(r.MissingSignals))
	}
	b.WriteString("\n")

	if len(r.MissingSignals) > 0 {
		fmt.Fprintf(&b, "Missing: %s\n", strings.Join(r.MissingSignals, ", "))
	}
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "%s %s\n", failStyle.Render("x"), e)
	}
	for _, w := range r.Warnings {
		fmt.Fprintf(&b, "%s %s\n", warnStyle.Render("!"), w)
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// Generation renders the metadata of one generated document.
func Generation(path string, m generator.Metadata) string {
	lines := []string{
		titleStyle.Render(path),
		fmt.Sprintf("%s via %s, prompt %s", m.Model, m.Provider, m.PromptVersion),
		fmt.Sprintf("%d tokens (%d in / %d out), $%.6f, %.2fs", m.Tokens.Total(), m.Tokens.Input, m.Tokens.Output, m.CostUSD, m.GenerationTimeSec),
	}
	if m.FinishReason != "" && m.FinishReason != "stop" {
		lines = append(lines, warnStyle.Render("finish reason: "+m.FinishReason))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Dim renders secondary text.
func Dim(s string) string {
	return dimStyle.Render(s)
}
