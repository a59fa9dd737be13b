package config

import "errors"

// Sentinel error for update/lookup of a missing (or soft-deleted) tunnel
var ErrTunnelNotFound = errors.New("tunnel definition not found")

// TunnelStore defines the interface for tunnel definition storage
type TunnelStore interface {
	// Create inserts a new definition and returns its assigned id.
	// Validation is the caller's job; the store persists what it is given.
	Create(cfg TunnelConfig) (int64, error)

	// GetActive returns all non-deleted definitions in insertion order.
	GetActive() []TunnelConfig

	// Get returns a definition by id regardless of its deleted flag.
	Get(id int64) (TunnelConfig, bool)

	// Update rewrites the mutable fields of a non-deleted definition.
	// Returns ErrTunnelNotFound if no matching non-deleted row exists.
	Update(id int64, cfg TunnelConfig) error

	// SoftDelete marks a definition deleted. Idempotent: deleting an
	// already-deleted or missing id is a no-op success.
	SoftDelete(id int64) error

	Close() error
}

// NewTunnelStore creates a new tunnel store (defaults to SQLite in the
// user's home directory).
func NewTunnelStore() (TunnelStore, error) {
	store, err := NewSQLiteTunnelStore()
	if err != nil {
		return nil, err
	}
	return store, nil
}
