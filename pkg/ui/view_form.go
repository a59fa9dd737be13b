package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// viewForm renders the add/edit tunnel form with per-field errors
func (m *Model) viewForm(titleText string) string {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTitle)).Bold(true).Render(titleText)

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorFormLabel)).Width(14)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelp))

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")

	for i := 0; i < fieldCount; i++ {
		b.WriteString(labelStyle.Render(fieldLabels[i] + ":"))
		b.WriteString(" ")
		b.WriteString(m.form.inputs[i].View())
		b.WriteString("\n")
		if m.form.errors[i] != "" {
			b.WriteString(errorStyle.Render("  " + m.form.errors[i]))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("Tab/↑/↓: Move | Enter: Save | Esc: Cancel"))

	if m.errorMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("ERROR: " + m.errorMsg))
	}

	return b.String()
}
