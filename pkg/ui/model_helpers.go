package ui

import (
	"fmt"
	"strings"

	"github.com/xlttj/sshtun/pkg/config"

	"github.com/charmbracelet/bubbles/table"
)

// refreshTable reloads definitions from the store, applies the filter and
// regenerates table rows. m.tunnels mirrors the rows one-to-one afterwards.
func (m *Model) refreshTable() {
	if m.configStore == nil {
		return
	}
	m.tunnels = m.visibleTunnels()
	m.tunnelsTable.SetRows(m.generateTunnelRows(m.tunnels))
}

// visibleTunnels returns the non-deleted definitions matching the filter.
func (m *Model) visibleTunnels() []config.TunnelConfig {
	configs := m.configStore.GetActive()

	filterText := strings.ToLower(strings.TrimSpace(m.filterInput.Value()))
	if filterText == "" {
		return configs
	}

	filtered := make([]config.TunnelConfig, 0, len(configs))
	for _, cfg := range configs {
		name := strings.ToLower(cfg.Name)
		server := strings.ToLower(cfg.SSHServer)
		if strings.Contains(name, filterText) || strings.Contains(server, filterText) {
			filtered = append(filtered, cfg)
		}
	}
	return filtered
}

// generateTunnelRows converts a config slice to table rows with live status
func (m *Model) generateTunnelRows(configs []config.TunnelConfig) []table.Row {
	rows := make([]table.Row, 0, len(configs))
	for _, cfg := range configs {
		statusText := StatusStopped
		pidText := "-"
		if m.registry.IsActive(cfg.ID) {
			statusText = StatusRunning
			if pid, ok := m.registry.PidOf(cfg.ID); ok {
				pidText = fmt.Sprintf("%d", pid)
			}
		}

		rows = append(rows, table.Row{
			cfg.Name,
			cfg.SSHServer,
			fmt.Sprintf("%s:%d", cfg.LocalIP, cfg.LocalPort),
			fmt.Sprintf("%s:%d", cfg.RemoteIP, cfg.RemotePort),
			pidText,
			statusText,
		})
	}
	return rows
}

// selectedTunnel returns the definition backing the selected table row.
func (m *Model) selectedTunnel() (config.TunnelConfig, bool) {
	cursor := m.tunnelsTable.Cursor()
	if cursor < 0 || cursor >= len(m.tunnels) {
		return config.TunnelConfig{}, false
	}
	return m.tunnels[cursor], true
}

// clearMessages resets the error and status lines before a new user action.
func (m *Model) clearMessages() {
	m.errorMsg = ""
	m.statusMsg = ""
}
