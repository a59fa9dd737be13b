package config

import "fmt"

// TunnelConfig represents an SSH tunnel definition persisted in SQLite.
// Runtime status is managed in-memory by the tunnel.Registry.
type TunnelConfig struct {
	ID         int64  // Stable row id, assigned on insert, never reused
	Name       string // Human-readable display name
	SSHServer  string // SSH endpoint (host or user@host), implicit port 22
	LocalIP    string
	LocalPort  int
	RemoteIP   string // Remote bind address as seen by the SSH server
	RemotePort int
	Deleted    bool // Soft-delete flag; deleted rows are kept for history
}

// Command returns the equivalent ssh one-liner for display purposes.
func (c TunnelConfig) Command() string {
	return fmt.Sprintf("ssh -N -p 22 %s -L %s", c.SSHServer, c.ForwardSpec())
}

// ForwardSpec returns the -L argument value for this tunnel.
func (c TunnelConfig) ForwardSpec() string {
	return fmt.Sprintf("%s:%d:%s:%d", c.LocalIP, c.LocalPort, c.RemoteIP, c.RemotePort)
}
