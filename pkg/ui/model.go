package ui

import (
	"fmt"
	"time"

	"github.com/xlttj/sshtun/pkg/config"
	"github.com/xlttj/sshtun/pkg/logging"
	"github.com/xlttj/sshtun/pkg/tunnel"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// tickMsg drives the liveness reconciler once per second.
type tickMsg time.Time

const tickInterval = time.Second

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Model represents the state of the UI
type Model struct {
	uiState UIState

	// Core components
	configStore config.TunnelStore
	registry    *tunnel.Registry
	width       int
	height      int

	// Central error message
	errorMsg string
	// Status/info message (non-error feedback)
	statusMsg string

	// Tunnel table and the definitions backing its rows, in row order
	tunnelsTable table.Model
	tunnels      []config.TunnelConfig

	// Filter state
	filterMode  bool
	filterInput textinput.Model

	// Add/edit form state
	form   *tunnelForm
	editID int64 // id being edited when uiState == StateEditForm
}

// calculateColumnWidths returns column widths based on terminal width
func (m *Model) calculateColumnWidths() []table.Column {
	minWidths := map[string]int{
		ColName:   10,
		ColServer: 12,
		ColLocal:  15,
		ColRemote: 15,
		ColPid:    6,
		ColStatus: 7,
	}

	availableWidth := m.width - 10
	availableWidth = max(availableWidth, 65)

	totalMinWidth := 0
	for _, width := range minWidths {
		totalMinWidth += width
	}

	extraSpace := max(availableWidth-totalMinWidth, 0)

	// Give most of the slack to the name and server columns
	finalWidths := make(map[string]int)
	for col, minWidth := range minWidths {
		finalWidths[col] = minWidth
	}
	finalWidths[ColName] += extraSpace * 40 / 100
	finalWidths[ColServer] += extraSpace * 30 / 100
	finalWidths[ColLocal] += extraSpace * 10 / 100
	finalWidths[ColRemote] += extraSpace * 10 / 100

	return []table.Column{
		{Title: ColName, Width: finalWidths[ColName]},
		{Title: ColServer, Width: finalWidths[ColServer]},
		{Title: ColLocal, Width: finalWidths[ColLocal]},
		{Title: ColRemote, Width: finalWidths[ColRemote]},
		{Title: ColPid, Width: finalWidths[ColPid]},
		{Title: ColStatus, Width: finalWidths[ColStatus]},
	}
}

func NewModel() *Model {
	store, err := config.NewTunnelStore()
	initialError := ""
	if err != nil {
		initialError = fmt.Sprintf("Config load error: %v", err)
	}

	return newModel(store, tunnel.NewRegistry(), initialError)
}

// newModel wires a model from explicit collaborators.
func newModel(store config.TunnelStore, registry *tunnel.Registry, initialError string) *Model {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(ColorSelectedFg)).
		Background(lipgloss.Color(ColorSelectedBg)).
		Bold(false)

	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.CharLimit = 156
	ti.Width = 20

	m := &Model{
		uiState:     StateTunnelList,
		configStore: store,
		registry:    registry,
		errorMsg:    initialError,
		width:       80, // Default, updated on first WindowSizeMsg
		height:      24,
		filterInput: ti,
	}

	tunnelsTable := table.New(
		table.WithColumns(m.calculateColumnWidths()),
		table.WithFocused(true),
		table.WithHeight(10),
		table.WithStyles(s),
	)
	m.tunnelsTable = tunnelsTable
	m.refreshTable()

	if store != nil {
		logging.LogInfo("UI initialized with %d tunnels", len(m.tunnels))
	}

	return m
}

// Cleanup stops all active tunnels and closes the store. Must run on every
// exit path so no ssh process outlives the application.
func (m *Model) Cleanup() {
	if m.registry != nil {
		m.registry.CleanupAll()
	}
	if m.configStore != nil {
		m.configStore.Close()
	}
}

func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		tableHeight := m.height - TunnelViewOffset
		if tableHeight < MinTableHeight {
			tableHeight = MinTableHeight
		}
		m.tunnelsTable.SetHeight(tableHeight)
		m.tunnelsTable.SetColumns(m.calculateColumnWidths())

		filterWidth := m.width - 4
		if filterWidth < 20 {
			filterWidth = 20
		}
		m.filterInput.Width = filterWidth

		return m, nil

	case tickMsg:
		// Reconcile before the render that follows this Update, so the
		// table never shows a dead process as running beyond one tick.
		m.handleReconcileTick()
		return m, tickCmd()

	case tea.KeyMsg:
		// Global shortcuts that work in any state
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.uiState {
		case StateTunnelList:
			return m.updateTunnelList(msg)
		case StateAddForm, StateEditForm:
			return m.updateForm(msg)
		}
	}

	return m, nil
}

// handleReconcileTick runs the liveness sweep and surfaces diagnostics.
func (m *Model) handleReconcileTick() {
	deaths := m.registry.Reconcile()
	if len(deaths) == 0 {
		return
	}

	for _, d := range deaths {
		logging.LogDebug("Reconciler removed tunnel %d (%s): %s", d.ID, d.Name, d.Status)
	}

	last := deaths[len(deaths)-1]
	m.errorMsg = fmt.Sprintf("Tunnel %s died unexpectedly (%s)", last.Name, last.Status)
	m.refreshTable()
}
