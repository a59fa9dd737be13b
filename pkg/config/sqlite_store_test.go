package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates a store on an empty database with no sample seeding.
func newTestStore(t *testing.T) *SQLiteTunnelStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sshtun.db")
	// Pre-create the file so the store does not treat this as a first run
	f, err := os.Create(dbPath)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	store, err := NewSQLiteTunnelStoreAt(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testTunnel() TunnelConfig {
	return TunnelConfig{
		Name:       "db",
		SSHServer:  "db-host",
		LocalIP:    "127.0.0.1",
		LocalPort:  3306,
		RemoteIP:   "localhost",
		RemotePort: 3306,
	}
}

func TestCreateAndGetActiveRoundTrip(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Create(testTunnel())
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	configs := store.GetActive()
	require.Len(t, configs, 1)
	got := configs[0]
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "db", got.Name)
	assert.Equal(t, "db-host", got.SSHServer)
	assert.Equal(t, "127.0.0.1", got.LocalIP)
	assert.Equal(t, 3306, got.LocalPort)
	assert.Equal(t, "localhost", got.RemoteIP)
	assert.Equal(t, 3306, got.RemotePort)
	assert.False(t, got.Deleted)
}

func TestGetActiveInsertionOrder(t *testing.T) {
	store := newTestStore(t)

	names := []string{"first", "second", "third"}
	for _, name := range names {
		cfg := testTunnel()
		cfg.Name = name
		_, err := store.Create(cfg)
		require.NoError(t, err)
	}

	configs := store.GetActive()
	require.Len(t, configs, 3)
	for i, name := range names {
		assert.Equal(t, name, configs[i].Name)
	}
}

func TestUpdateRewritesFields(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Create(testTunnel())
	require.NoError(t, err)

	updated := testTunnel()
	updated.Name = "db-staging"
	updated.RemotePort = 3307
	require.NoError(t, store.Update(id, updated))

	got, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, "db-staging", got.Name)
	assert.Equal(t, 3307, got.RemotePort)
}

func TestUpdateMissingTunnel(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(9999, testTunnel())
	assert.ErrorIs(t, err, ErrTunnelNotFound)
}

func TestUpdateSoftDeletedTunnel(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Create(testTunnel())
	require.NoError(t, err)
	require.NoError(t, store.SoftDelete(id))

	err = store.Update(id, testTunnel())
	assert.ErrorIs(t, err, ErrTunnelNotFound)
}

func TestSoftDeleteExcludesFromListing(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Create(testTunnel())
	require.NoError(t, err)

	require.NoError(t, store.SoftDelete(id))
	assert.Empty(t, store.GetActive())

	// The row still exists for history and can be resolved by id
	got, ok := store.Get(id)
	require.True(t, ok)
	assert.True(t, got.Deleted)
}

func TestSoftDeleteIdempotent(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Create(testTunnel())
	require.NoError(t, err)

	require.NoError(t, store.SoftDelete(id))
	require.NoError(t, store.SoftDelete(id))

	// Deleting an id that never existed is also a no-op success
	assert.NoError(t, store.SoftDelete(424242))
}

func TestIdsNotReusedAfterSoftDelete(t *testing.T) {
	store := newTestStore(t)

	first, err := store.Create(testTunnel())
	require.NoError(t, err)
	require.NoError(t, store.SoftDelete(first))

	second, err := store.Create(testTunnel())
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestFirstRunSeedsSamples(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sshtun.db")

	store, err := NewSQLiteTunnelStoreAt(dbPath)
	require.NoError(t, err)
	defer store.Close()

	configs := store.GetActive()
	require.Len(t, configs, 3)
	assert.Equal(t, "Local MySQL", configs[0].Name)
	assert.Equal(t, "Dev MongoDB", configs[1].Name)
	assert.Equal(t, "Staging API", configs[2].Name)
}

func TestSeedingHappensOnlyOnce(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sshtun.db")

	store, err := NewSQLiteTunnelStoreAt(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewSQLiteTunnelStoreAt(dbPath)
	require.NoError(t, err)
	defer store.Close()

	assert.Len(t, store.GetActive(), 3)
}

func TestCommandString(t *testing.T) {
	cfg := testTunnel()
	assert.Equal(t, "ssh -N -p 22 db-host -L 127.0.0.1:3306:localhost:3306", cfg.Command())
}
