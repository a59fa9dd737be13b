package ui

import (
	"errors"
	"fmt"

	"github.com/xlttj/sshtun/pkg/logging"
	"github.com/xlttj/sshtun/pkg/tunnel"

	tea "github.com/charmbracelet/bubbletea"
)

// updateTunnelList handles key input for the StateTunnelList view
func (m *Model) updateTunnelList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// Handle filter mode first
	if m.filterMode {
		switch msg.String() {
		case "esc":
			// Exit filter mode and drop the filter
			m.filterMode = false
			m.filterInput.Blur()
			m.filterInput.SetValue("")
			m.refreshTable()
			m.tunnelsTable.Focus()
			return m, nil
		case "enter":
			// Exit filter mode but keep filter applied
			m.filterMode = false
			m.filterInput.Blur()
			m.tunnelsTable.Focus()
			return m, nil
		default:
			m.filterInput, cmd = m.filterInput.Update(msg)
			m.refreshTable()
			return m, cmd
		}
	}

	switch msg.String() {
	case "/":
		m.clearMessages()
		m.filterMode = true
		m.filterInput.Focus()
		m.tunnelsTable.Blur()
		// Don't add the "/" character to the input
		return m, nil

	case "q":
		return m, tea.Quit

	case "esc":
		// Clear an applied filter when not in filter mode
		if m.filterInput.Value() != "" {
			m.filterInput.SetValue("")
			m.refreshTable()
		}
		return m, nil

	case " ": // Toggle start/stop
		m.clearMessages()
		return m.toggleSelected()

	case "a": // Add tunnel
		m.clearMessages()
		m.form = newTunnelForm()
		m.uiState = StateAddForm
		m.tunnelsTable.Blur()
		return m, nil

	case "e": // Edit tunnel
		m.clearMessages()
		cfg, ok := m.selectedTunnel()
		if !ok {
			m.errorMsg = "No tunnel selected"
			return m, nil
		}
		m.form = formFromConfig(cfg)
		m.editID = cfg.ID
		m.uiState = StateEditForm
		m.tunnelsTable.Blur()
		return m, nil

	case "d": // Delete tunnel
		m.clearMessages()
		return m.deleteSelected()

	default:
		m.tunnelsTable, cmd = m.tunnelsTable.Update(msg)
		return m, cmd
	}
}

// toggleSelected starts the selected tunnel if stopped, stops it if running.
func (m *Model) toggleSelected() (tea.Model, tea.Cmd) {
	cfg, ok := m.selectedTunnel()
	if !ok {
		m.errorMsg = "No tunnel selected"
		return m, nil
	}

	if m.registry.IsActive(cfg.ID) {
		m.registry.Stop(cfg.ID)
		m.statusMsg = fmt.Sprintf("Stopped %s", cfg.Name)
	} else {
		err := m.registry.Start(cfg)
		if err != nil {
			if errors.Is(err, tunnel.ErrPortInUse) {
				m.errorMsg = fmt.Sprintf("Cannot start %s: %v", cfg.Name, err)
			} else {
				m.errorMsg = fmt.Sprintf("Error starting %s: %v", cfg.Name, err)
			}
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Started %s", cfg.Name)
	}

	m.refreshTable()
	return m, nil
}

// deleteSelected stops the tunnel if it is running, then soft-deletes the
// definition. The row disappears from the list but stays in the database.
func (m *Model) deleteSelected() (tea.Model, tea.Cmd) {
	cfg, ok := m.selectedTunnel()
	if !ok {
		m.errorMsg = "No tunnel selected"
		return m, nil
	}

	if m.registry.IsActive(cfg.ID) {
		m.registry.Stop(cfg.ID)
	}

	if err := m.configStore.SoftDelete(cfg.ID); err != nil {
		m.errorMsg = fmt.Sprintf("Failed to delete %s: %v", cfg.Name, err)
		return m, nil
	}

	m.statusMsg = fmt.Sprintf("Deleted %s", cfg.Name)
	m.refreshTable()
	return m, nil
}

// updateForm handles key input for the add and edit form views
func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeForm()
		return m, nil
	case "tab", "down":
		m.form.focusNext()
		return m, nil
	case "shift+tab", "up":
		m.form.focusPrev()
		return m, nil
	case "enter":
		if !m.form.validate() {
			return m, nil
		}
		if m.uiState == StateAddForm {
			return m.commitAdd()
		}
		return m.commitEdit()
	default:
		cmd := m.form.update(msg)
		return m, cmd
	}
}

// closeForm returns to the list view, discarding form state.
func (m *Model) closeForm() {
	m.form = nil
	m.editID = 0
	m.uiState = StateTunnelList
	m.tunnelsTable.Focus()
}

// commitAdd persists a validated new tunnel definition.
func (m *Model) commitAdd() (tea.Model, tea.Cmd) {
	cfg := m.form.toConfig()
	id, err := m.configStore.Create(cfg)
	if err != nil {
		m.errorMsg = fmt.Sprintf("Failed to add tunnel: %v", err)
		return m, nil
	}

	logging.LogInfo("New tunnel '%s' added (id %d)", cfg.Name, id)
	m.statusMsg = fmt.Sprintf("Added %s", cfg.Name)
	m.closeForm()
	m.refreshTable()
	return m, nil
}

// commitEdit persists the updated definition first, then restarts the tunnel
// if it was running. A failed restart leaves the definition updated and the
// tunnel stopped; the failure is only reported.
func (m *Model) commitEdit() (tea.Model, tea.Cmd) {
	cfg := m.form.toConfig()
	cfg.ID = m.editID

	if err := m.configStore.Update(cfg.ID, cfg); err != nil {
		m.errorMsg = fmt.Sprintf("Failed to update tunnel: %v", err)
		return m, nil
	}

	if m.registry.IsActive(cfg.ID) {
		m.registry.Stop(cfg.ID)
		if err := m.registry.Start(cfg); err != nil {
			logging.LogError("Failed to restart tunnel %s after edit: %v", cfg.Name, err)
			m.errorMsg = fmt.Sprintf("Updated %s but failed to restart: %v", cfg.Name, err)
			m.closeForm()
			m.refreshTable()
			return m, nil
		}
		m.statusMsg = fmt.Sprintf("Updated %s and restarted", cfg.Name)
	} else {
		m.statusMsg = fmt.Sprintf("Updated %s", cfg.Name)
	}

	m.closeForm()
	m.refreshTable()
	return m, nil
}
