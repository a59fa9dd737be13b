package tunnel

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/xlttj/sshtun/pkg/config"
	"github.com/xlttj/sshtun/pkg/logging"
)

// stopWait bounds how long Stop waits for a signaled process to be reaped.
// A killed ssh dies well within this.
const stopWait = 2 * time.Second

// Sentinel error for a local port that something else is already bound to
var ErrPortInUse = errors.New("local port already in use")

// Sentinel error for a process that was gone by the first probe after launch
var ErrExitedImmediately = errors.New("ssh process exited immediately")

// Handle owns the live process for one active tunnel. Snapshot keeps the
// parameters the process was actually launched with, which can drift from
// the store after an edit until the restart lands.
type Handle struct {
	ID       int64
	Snapshot config.TunnelConfig
	proc     *Proc
}

// SpawnFunc launches the forwarding process for a definition.
type SpawnFunc func(cfg config.TunnelConfig) (*Proc, error)

// Registry maps tunnel ids to live process handles. It is the only code path
// that spawns or kills the external ssh process, which guarantees at most one
// process per tunnel id.
type Registry struct {
	active map[int64]*Handle
	mutex  sync.Mutex
	spawn  SpawnFunc
}

// NewRegistry creates an empty registry backed by the real ssh client.
func NewRegistry() *Registry {
	return NewRegistryWithSpawn(spawnSSH)
}

// NewRegistryWithSpawn creates a registry with a custom process launcher.
// Tests use it to avoid depending on a reachable SSH server.
func NewRegistryWithSpawn(spawn SpawnFunc) *Registry {
	return &Registry{
		active: make(map[int64]*Handle),
		spawn:  spawn,
	}
}

// spawnSSH launches ssh in no-remote-command local-forward mode against the
// default SSH port.
func spawnSSH(cfg config.TunnelConfig) (*Proc, error) {
	return SpawnProcess("ssh", "-N", "-p", "22", cfg.SSHServer, "-L", cfg.ForwardSpec())
}

// isPortAvailable checks if a TCP port is available to listen on.
func isPortAvailable(ip string, port int) bool {
	address := fmt.Sprintf("%s:%d", ip, port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		logging.LogDebug("Port check: cannot listen on %s: %v", address, err)
		if opErr, ok := err.(*net.OpError); ok && strings.Contains(opErr.Err.Error(), "bind") {
			return false
		}
		return false
	}
	_ = listener.Close()
	return true
}

// Start launches the forwarding process for cfg and registers its handle.
// Starting an already-active tunnel is a no-op success.
func (r *Registry) Start(cfg config.TunnelConfig) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.active[cfg.ID]; exists {
		logging.LogDebug("Tunnel %d (%s) is already running", cfg.ID, cfg.Name)
		return nil // Already running, not an error
	}

	if !isPortAvailable(cfg.LocalIP, cfg.LocalPort) {
		logging.LogError("Pre-check failed for tunnel %s: %v (port %d)", cfg.Name, ErrPortInUse, cfg.LocalPort)
		return fmt.Errorf("%w: %s:%d", ErrPortInUse, cfg.LocalIP, cfg.LocalPort)
	}

	logging.LogDebug("Starting tunnel %d: %s (%s)", cfg.ID, cfg.Name, cfg.ForwardSpec())

	proc, err := r.spawn(cfg)
	if err != nil {
		logging.LogError("Failed to start tunnel %s: %v", cfg.Name, err)
		return err
	}

	// Catch instant failures: bad arguments, connection refused, auth
	switch res := proc.Probe(); res.State {
	case StateExited:
		logging.LogError("Tunnel %s failed to start (status: %d)", cfg.Name, res.ExitStatus)
		return fmt.Errorf("%w with status %d", ErrExitedImmediately, res.ExitStatus)
	case StateProbeError:
		// Cannot tell whether the process is healthy; treat as a failed
		// start rather than registering a handle we cannot monitor
		logging.LogError("Tunnel %s failed to start: %v", cfg.Name, res.Err)
		_ = proc.Terminate()
		return fmt.Errorf("failed to confirm tunnel start: %w", res.Err)
	}

	r.active[cfg.ID] = &Handle{ID: cfg.ID, Snapshot: cfg, proc: proc}
	logging.LogInfo("Tunnel %s started (PID: %d)", cfg.Name, proc.Pid())
	return nil
}

// Stop terminates the process for id and drops its handle. Termination
// failures are logged, not surfaced: the handle is removed either way so the
// map stays authoritative. Stopping an inactive tunnel is a no-op.
func (r *Registry) Stop(id int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.stopLocked(id)
}

// stopLocked assumes the mutex is already held.
func (r *Registry) stopLocked(id int64) {
	handle, exists := r.active[id]
	if !exists {
		logging.LogDebug("Stop: tunnel %d not running", id)
		return
	}

	if err := handle.proc.Terminate(); err != nil {
		logging.LogError("Failed to stop tunnel %s: %v", handle.Snapshot.Name, err)
	} else {
		logging.LogInfo("Tunnel %s stopped (PID: %d)", handle.Snapshot.Name, handle.proc.Pid())
	}

	// Wait for the reaper before returning so the local port is released;
	// otherwise an immediate restart of the same tunnel can trip the
	// availability pre-check against its own dying predecessor.
	if !handle.proc.awaitExit(stopWait) {
		logging.LogError("Tunnel %s did not exit within %s of being signaled", handle.Snapshot.Name, stopWait)
	}

	delete(r.active, id)
}

// IsActive reports whether a handle exists for id. Liveness re-probing is the
// reconciler's job; absence of a handle is the sole source of truth for
// "not running".
func (r *Registry) IsActive(id int64) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	_, exists := r.active[id]
	return exists
}

// PidOf returns the process id for an active tunnel. Display only.
func (r *Registry) PidOf(id int64) (int, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	handle, exists := r.active[id]
	if !exists {
		return 0, false
	}
	return handle.proc.Pid(), true
}

// ActiveCount returns the number of registered handles.
func (r *Registry) ActiveCount() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.active)
}

// CleanupAll stops every active tunnel. Called on shutdown.
func (r *Registry) CleanupAll() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for id := range r.active {
		logging.LogInfo("Shutdown: stopping tunnel %d", id)
		r.stopLocked(id)
	}
}
