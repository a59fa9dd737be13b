package ui

// UIState represents the different views/states of the UI
type UIState int

const (
	StateTunnelList UIState = iota // Tunnel table view
	StateAddForm                   // New tunnel form
	StateEditForm                  // Edit tunnel form
)
