package config

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xlttj/sshtun/pkg/logging"

	_ "modernc.org/sqlite"
)

// SQLiteTunnelStore manages the collection of TunnelConfig rows using SQLite
type SQLiteTunnelStore struct {
	db     *sql.DB
	mutex  sync.RWMutex // For thread-safe access
	dbPath string
}

// NewSQLiteTunnelStore creates and initializes a store backed by the default
// database under the user's home directory.
func NewSQLiteTunnelStore() (*SQLiteTunnelStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".sshtun")
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	return NewSQLiteTunnelStoreAt(filepath.Join(configDir, "sshtun.db"))
}

// NewSQLiteTunnelStoreAt creates a store backed by the database at dbPath.
func NewSQLiteTunnelStoreAt(dbPath string) (*SQLiteTunnelStore, error) {
	firstRun := false
	if _, statErr := os.Stat(dbPath); os.IsNotExist(statErr) {
		firstRun = true
		// Create empty file with restrictive permissions before sql touches it
		f, ferr := os.OpenFile(dbPath, os.O_CREATE|os.O_RDONLY, 0600)
		if ferr == nil {
			_ = f.Close()
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteTunnelStore{
		db:     db,
		dbPath: dbPath,
	}

	if err := store.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	if firstRun {
		if err := store.seedSampleTunnels(); err != nil {
			// Seeding is a usability convenience only
			logging.LogError("Failed to seed sample tunnels: %v", err)
		}
	}

	logging.LogDebug("SQLite tunnel store initialized at: %s", dbPath)
	return store, nil
}

// initializeSchema creates the database tables
func (ts *SQLiteTunnelStore) initializeSchema() error {
	schema := `
	-- Tunnel definitions. Rows are never physically removed; the deleted
	-- flag hides them from all listings.
	CREATE TABLE IF NOT EXISTS tunnels (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		command TEXT NOT NULL,
		ssh_server TEXT NOT NULL,
		local_ip TEXT NOT NULL,
		local_port INTEGER NOT NULL,
		remote_ip TEXT NOT NULL,
		remote_port INTEGER NOT NULL,
		deleted BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_tunnels_deleted ON tunnels(deleted);
	`

	_, err := ts.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// seedSampleTunnels inserts example definitions on first run so a new user
// does not face an empty list.
func (ts *SQLiteTunnelStore) seedSampleTunnels() error {
	samples := []TunnelConfig{
		{Name: "Local MySQL", SSHServer: "db-server", LocalIP: "127.0.0.1", LocalPort: 3306, RemoteIP: "localhost", RemotePort: 3306},
		{Name: "Dev MongoDB", SSHServer: "dev-server", LocalIP: "127.0.0.1", LocalPort: 27017, RemoteIP: "mongodb", RemotePort: 27017},
		{Name: "Staging API", SSHServer: "staging", LocalIP: "127.0.0.1", LocalPort: 8080, RemoteIP: "api-internal", RemotePort: 80},
	}

	for _, cfg := range samples {
		if _, err := ts.Create(cfg); err != nil {
			return err
		}
	}

	logging.LogInfo("First time setup: seeded %d sample tunnels", len(samples))
	return nil
}

// Close closes the database connection
func (ts *SQLiteTunnelStore) Close() error {
	if ts.db != nil {
		return ts.db.Close()
	}
	return nil
}

// Create inserts a new tunnel definition and returns its assigned id
func (ts *SQLiteTunnelStore) Create(cfg TunnelConfig) (int64, error) {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	query := `
		INSERT INTO tunnels (name, command, ssh_server, local_ip, local_port, remote_ip, remote_port, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)
	`

	result, err := ts.db.Exec(query, cfg.Name, cfg.Command(), cfg.SSHServer, cfg.LocalIP, cfg.LocalPort, cfg.RemoteIP, cfg.RemotePort)
	if err != nil {
		return 0, fmt.Errorf("failed to add tunnel: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get tunnel id: %w", err)
	}

	logging.LogDebug("Added tunnel %d: %s", id, cfg.Name)
	return id, nil
}

// GetActive returns all non-deleted tunnel definitions in insertion order
func (ts *SQLiteTunnelStore) GetActive() []TunnelConfig {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()

	query := `SELECT id, name, ssh_server, local_ip, local_port, remote_ip, remote_port, deleted FROM tunnels WHERE deleted = 0 ORDER BY id`

	rows, err := ts.db.Query(query)
	if err != nil {
		logging.LogError("Failed to query tunnels: %v", err)
		return []TunnelConfig{}
	}
	defer rows.Close()

	var configs []TunnelConfig
	for rows.Next() {
		var cfg TunnelConfig
		err := rows.Scan(&cfg.ID, &cfg.Name, &cfg.SSHServer, &cfg.LocalIP, &cfg.LocalPort, &cfg.RemoteIP, &cfg.RemotePort, &cfg.Deleted)
		if err != nil {
			logging.LogError("Failed to scan tunnel row: %v", err)
			continue
		}
		configs = append(configs, cfg)
	}

	return configs
}

// Get returns the tunnel definition with the given id, deleted or not
func (ts *SQLiteTunnelStore) Get(id int64) (TunnelConfig, bool) {
	ts.mutex.RLock()
	defer ts.mutex.RUnlock()

	query := `SELECT id, name, ssh_server, local_ip, local_port, remote_ip, remote_port, deleted FROM tunnels WHERE id = ?`

	var cfg TunnelConfig
	err := ts.db.QueryRow(query, id).Scan(&cfg.ID, &cfg.Name, &cfg.SSHServer, &cfg.LocalIP, &cfg.LocalPort, &cfg.RemoteIP, &cfg.RemotePort, &cfg.Deleted)
	if err != nil {
		if err == sql.ErrNoRows {
			return TunnelConfig{}, false
		}
		logging.LogError("Failed to query tunnel by id: %v", err)
		return TunnelConfig{}, false
	}

	return cfg, true
}

// Update rewrites the mutable fields of a non-deleted tunnel definition
func (ts *SQLiteTunnelStore) Update(id int64, cfg TunnelConfig) error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	query := `
		UPDATE tunnels SET name = ?, command = ?, ssh_server = ?, local_ip = ?, local_port = ?, remote_ip = ?, remote_port = ?
		WHERE id = ? AND deleted = 0
	`

	result, err := ts.db.Exec(query, cfg.Name, cfg.Command(), cfg.SSHServer, cfg.LocalIP, cfg.LocalPort, cfg.RemoteIP, cfg.RemotePort, id)
	if err != nil {
		return fmt.Errorf("failed to update tunnel: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrTunnelNotFound, id)
	}

	logging.LogDebug("Updated tunnel %d: %s", id, cfg.Name)
	return nil
}

// SoftDelete marks a tunnel definition as deleted. Idempotent.
func (ts *SQLiteTunnelStore) SoftDelete(id int64) error {
	ts.mutex.Lock()
	defer ts.mutex.Unlock()

	_, err := ts.db.Exec("UPDATE tunnels SET deleted = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to mark tunnel as deleted: %w", err)
	}

	logging.LogDebug("Marked tunnel %d as deleted", id)
	return nil
}
