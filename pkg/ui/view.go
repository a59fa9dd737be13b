package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the current model state
func (m *Model) View() string {
	switch m.uiState {
	case StateTunnelList:
		return m.viewTunnelList()
	case StateAddForm:
		return m.viewForm("Add New Tunnel")
	case StateEditForm:
		return m.viewForm("Edit Tunnel")
	}
	return "Unknown state"
}

// viewTunnelList renders the tunnel table view
func (m *Model) viewTunnelList() string {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorTitle)).Bold(true).Render("SSH Tunnels")

	help := "Space: Start/Stop | A: Add | E: Edit | D: Delete | /: Filter | Q: Quit"
	if m.width < 80 {
		help = "Space:Toggle | A:Add | E:Edit | D:Del | /:Filter | Q:Quit"
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelp))
	helpText := helpStyle.Render(help)

	tableView := lipgloss.PlaceHorizontal(m.width, lipgloss.Left, m.tunnelsTable.View())

	// Always reserve space for the filter input to prevent layout shift
	var filterView string
	if m.filterMode {
		filterStyle := lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(ColorBorder)).
			Padding(0, 1)
		filterView = filterStyle.Render("Filter: " + m.filterInput.View())
	} else if m.filterInput.Value() != "" {
		filterStyle := lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("8")).
			Foreground(lipgloss.Color("8")).
			Padding(0, 1)
		filterView = filterStyle.Render(fmt.Sprintf("Filter: %s (Press / to edit, Esc to clear)", m.filterInput.Value()))
	} else {
		placeholderStyle := lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240")).
			Foreground(lipgloss.Color("240")).
			Padding(0, 1)
		filterView = placeholderStyle.Render("Press / to filter...")
	}

	// Format top area: title plus help text when there is room
	var top string
	if m.width >= 80 {
		spacing := m.width - lipgloss.Width(title) - lipgloss.Width(helpText)
		if spacing > 0 {
			top = lipgloss.JoinHorizontal(lipgloss.Left, title, strings.Repeat(" ", spacing), helpText)
		} else {
			top = title
		}
	} else {
		top = title
	}

	var bottom string
	if m.width < 80 {
		bottom = helpText
	}

	var messageText string
	if m.errorMsg != "" {
		errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError))
		messageText = errorStyle.Render(fmt.Sprintf("ERROR: %s", m.errorMsg))
	} else if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess))
		messageText = statusStyle.Render(m.statusMsg)
	}

	sections := []string{top, "", filterView, tableView}
	if messageText != "" {
		sections = append(sections, messageText)
	}
	if bottom != "" {
		sections = append(sections, bottom)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
