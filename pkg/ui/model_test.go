package ui

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/xlttj/sshtun/pkg/config"
	"github.com/xlttj/sshtun/pkg/tunnel"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates an empty store with sample seeding suppressed.
func newTestStore(t *testing.T) *config.SQLiteTunnelStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sshtun.db")
	f, err := os.Create(dbPath)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	store, err := config.NewSQLiteTunnelStoreAt(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// countingSpawner runs a fixed command instead of ssh and counts launches.
func countingSpawner(calls *int, name string, args ...string) tunnel.SpawnFunc {
	return func(cfg config.TunnelConfig) (*tunnel.Proc, error) {
		*calls++
		return tunnel.SpawnProcess(name, args...)
	}
}

func freePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	return port
}

func newTestModel(t *testing.T, spawn tunnel.SpawnFunc) *Model {
	t.Helper()
	registry := tunnel.NewRegistryWithSpawn(spawn)
	t.Cleanup(registry.CleanupAll)
	return newModel(newTestStore(t), registry, "")
}

func createTunnel(t *testing.T, m *Model, name string) config.TunnelConfig {
	t.Helper()
	id, err := m.configStore.Create(config.TunnelConfig{
		Name:       name,
		SSHServer:  "db-host",
		LocalIP:    "127.0.0.1",
		LocalPort:  freePort(t),
		RemoteIP:   "localhost",
		RemotePort: 3306,
	})
	require.NoError(t, err)
	m.refreshTable()

	cfg, ok := m.configStore.Get(id)
	require.True(t, ok)
	return cfg
}

func TestRowsReflectRuntimeState(t *testing.T) {
	var calls int
	m := newTestModel(t, countingSpawner(&calls, "sleep", "30"))
	cfg := createTunnel(t, m, "db")

	rows := m.tunnelsTable.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "db", rows[0][0])
	assert.Equal(t, "-", rows[0][4])
	assert.Equal(t, StatusStopped, rows[0][5])

	require.NoError(t, m.registry.Start(cfg))
	m.refreshTable()

	rows = m.tunnelsTable.Rows()
	pid, ok := m.registry.PidOf(cfg.ID)
	require.True(t, ok)
	assert.Equal(t, strconv.Itoa(pid), rows[0][4])
	assert.Equal(t, StatusRunning, rows[0][5])
}

func TestToggleStartsAndStops(t *testing.T) {
	var calls int
	m := newTestModel(t, countingSpawner(&calls, "sleep", "30"))
	cfg := createTunnel(t, m, "db")

	m.toggleSelected()
	assert.True(t, m.registry.IsActive(cfg.ID))
	assert.Equal(t, 1, calls)

	m.toggleSelected()
	assert.False(t, m.registry.IsActive(cfg.ID))
	assert.Equal(t, 1, calls)
}

func TestDeleteStopsAndHides(t *testing.T) {
	var calls int
	m := newTestModel(t, countingSpawner(&calls, "sleep", "30"))
	cfg := createTunnel(t, m, "db")

	require.NoError(t, m.registry.Start(cfg))
	m.refreshTable()

	m.deleteSelected()
	assert.False(t, m.registry.IsActive(cfg.ID))
	assert.Empty(t, m.configStore.GetActive())
	assert.Empty(t, m.tunnelsTable.Rows())
}

func TestInvalidFormNeverReachesRegistry(t *testing.T) {
	var calls int
	m := newTestModel(t, countingSpawner(&calls, "sleep", "30"))

	m.form = newTunnelForm()
	m.form.inputs[fieldName].SetValue("db")
	m.form.inputs[fieldServer].SetValue("db-host")
	m.form.inputs[fieldLocalPort].SetValue("0")
	m.form.inputs[fieldRemotePort].SetValue("3306")
	m.uiState = StateAddForm

	m.updateForm(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, StateAddForm, m.uiState, "invalid form must stay open")
	assert.Empty(t, m.configStore.GetActive())
	assert.Equal(t, 0, calls)
}

func TestAddFormCreatesDefinition(t *testing.T) {
	var calls int
	m := newTestModel(t, countingSpawner(&calls, "sleep", "30"))

	m.form = newTunnelForm()
	m.form.inputs[fieldName].SetValue("db")
	m.form.inputs[fieldServer].SetValue("db-host")
	m.form.inputs[fieldLocalPort].SetValue("3306")
	m.form.inputs[fieldRemotePort].SetValue("3306")
	m.uiState = StateAddForm

	m.updateForm(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, StateTunnelList, m.uiState)
	configs := m.configStore.GetActive()
	require.Len(t, configs, 1)
	assert.Equal(t, "db", configs[0].Name)
	// Adding never starts the tunnel
	assert.Equal(t, 0, calls)
}

func TestEditWhileActiveRestarts(t *testing.T) {
	var calls int
	m := newTestModel(t, countingSpawner(&calls, "sleep", "30"))
	cfg := createTunnel(t, m, "db")

	require.NoError(t, m.registry.Start(cfg))
	require.Equal(t, 1, calls)

	m.form = formFromConfig(cfg)
	m.form.inputs[fieldRemotePort].SetValue("3307")
	m.editID = cfg.ID
	m.uiState = StateEditForm

	m.updateForm(tea.KeyMsg{Type: tea.KeyEnter})

	// Definition updated, old process replaced by a new one
	got, ok := m.configStore.Get(cfg.ID)
	require.True(t, ok)
	assert.Equal(t, 3307, got.RemotePort)
	assert.True(t, m.registry.IsActive(cfg.ID))
	assert.Equal(t, 2, calls)
}

func TestEditWhileStoppedDoesNotStart(t *testing.T) {
	var calls int
	m := newTestModel(t, countingSpawner(&calls, "sleep", "30"))
	cfg := createTunnel(t, m, "db")

	m.form = formFromConfig(cfg)
	m.form.inputs[fieldRemotePort].SetValue("3307")
	m.editID = cfg.ID
	m.uiState = StateEditForm

	m.updateForm(tea.KeyMsg{Type: tea.KeyEnter})

	got, ok := m.configStore.Get(cfg.ID)
	require.True(t, ok)
	assert.Equal(t, 3307, got.RemotePort)
	assert.False(t, m.registry.IsActive(cfg.ID))
	assert.Equal(t, 0, calls)
}

func TestEditRestartFailureKeepsDefinition(t *testing.T) {
	// First spawn succeeds, the restart after the edit fails
	var calls int
	spawn := func(cfg config.TunnelConfig) (*tunnel.Proc, error) {
		calls++
		if calls > 1 {
			return nil, fmt.Errorf("spawn refused")
		}
		return tunnel.SpawnProcess("sleep", "30")
	}
	m := newTestModel(t, spawn)
	cfg := createTunnel(t, m, "db")

	require.NoError(t, m.registry.Start(cfg))

	m.form = formFromConfig(cfg)
	m.form.inputs[fieldRemotePort].SetValue("3307")
	m.editID = cfg.ID
	m.uiState = StateEditForm

	m.updateForm(tea.KeyMsg{Type: tea.KeyEnter})

	// No rollback: definition keeps the new value, tunnel stays stopped
	got, ok := m.configStore.Get(cfg.ID)
	require.True(t, ok)
	assert.Equal(t, 3307, got.RemotePort)
	assert.False(t, m.registry.IsActive(cfg.ID))
	assert.NotEmpty(t, m.errorMsg)
}

func TestReconcileTickRemovesDeadTunnel(t *testing.T) {
	var calls int
	m := newTestModel(t, countingSpawner(&calls, "sh", "-c", "sleep 0.2; exit 255"))
	cfg := createTunnel(t, m, "db")

	require.NoError(t, m.registry.Start(cfg))
	require.True(t, m.registry.IsActive(cfg.ID))

	require.Eventually(t, func() bool {
		m.Update(tickMsg(time.Now()))
		return !m.registry.IsActive(cfg.ID)
	}, 5*time.Second, 20*time.Millisecond)

	assert.Contains(t, m.errorMsg, "died unexpectedly")
	assert.Contains(t, m.errorMsg, "exit status 255")

	rows := m.tunnelsTable.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, StatusStopped, rows[0][5])
}

func TestFilterNarrowsRows(t *testing.T) {
	var calls int
	m := newTestModel(t, countingSpawner(&calls, "sleep", "30"))
	createTunnel(t, m, "db")
	createTunnel(t, m, "api")

	m.filterInput.SetValue("ap")
	m.refreshTable()
	rows := m.tunnelsTable.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "api", rows[0][0])

	m.filterInput.SetValue("")
	m.refreshTable()
	assert.Len(t, m.tunnelsTable.Rows(), 2)
}
