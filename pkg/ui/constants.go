package ui

// Table Column Titles
const (
	ColName   = "NAME"
	ColServer = "SSH SERVER"
	ColLocal  = "LOCAL"
	ColRemote = "REMOTE"
	ColPid    = "PID"
	ColStatus = "STATUS"
)

// Numeric Constants for Layout/Indexing
const (
	MinTableHeight   = 4 // Minimum height for the table after calculation
	TunnelViewOffset = 8 // Estimated non-table lines in the list view for height calc
)

// Status Strings - display-only, never persisted
const (
	StatusStopped = "Stopped"
	StatusRunning = "Running"
)

// Lipgloss Colors
const (
	ColorBorder     = "240"
	ColorSelectedFg = "229"
	ColorSelectedBg = "57"
	ColorTitle      = "14"  // Cyan for titles
	ColorHelp       = "245" // Grey for help text
	ColorError      = "9"   // Red for errors
	ColorSuccess    = "10"  // Green for status messages
	ColorFormLabel  = "11"  // Yellow for form labels
)
