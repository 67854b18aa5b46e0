package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// PrettyFormatter renders a styled table for terminals.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Report) error {
	if r.Title != "" {
		w.WriteString(TitleStyle.Render(r.Title))
		w.WriteString("\n")
	}

	w.WriteString(f.formatTable(r))

	if len(r.Summary) > 0 {
		w.WriteString(f.formatSummary(r.Summary))
		w.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		w.WriteString(f.formatWarnings(r.Warnings))
	}
	return nil
}

func (f *PrettyFormatter) formatTable(r *Report) string {
	if len(r.Rows) == 0 {
		if r.Empty == "" {
			return ""
		}
		return MutedStyle.Render("  "+r.Empty) + "\n"
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		Headers(r.Columns...).
		Rows(r.Rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableRowStyle
		})
	return t.Render() + "\n"
}

func (f *PrettyFormatter) formatSummary(fields []Field) string {
	parts := make([]string, 0, len(fields))
	for _, fd := range fields {
		parts = append(parts, fmt.Sprintf("%s %s", LabelStyle.Render(fd.Label+":"), ValueStyle.Render(fd.Value)))
	}
	return FooterBox.Render(strings.Join(parts, "  "))
}

func (f *PrettyFormatter) formatWarnings(warnings []string) string {
	var sb strings.Builder
	sb.WriteString(WarningStyle.Bold(true).Render("Warnings:"))
	sb.WriteString("\n")
	for _, warning := range warnings {
		sb.WriteString(WarningStyle.Render("  " + warning))
		sb.WriteString("\n")
	}
	return sb.String()
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

var _ Formatter = (*PrettyFormatter)(nil)
