package tunnel

import (
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/xlttj/sshtun/pkg/logging"
)

// ProbeState describes the outcome of a non-blocking liveness probe.
type ProbeState int

const (
	StateRunning ProbeState = iota
	StateExited
	StateProbeError
)

// ProbeResult carries the probe state and, for StateExited, the exit status.
type ProbeResult struct {
	State      ProbeState
	ExitStatus int
	Err        error
}

// Proc wraps a single external process. A background goroutine reaps the
// process as soon as it exits so Probe never blocks.
type Proc struct {
	cmd     *exec.Cmd
	done    chan struct{}
	waitErr error // set before done is closed
}

// SpawnProcess starts name with args and begins reaping it in the background.
func SpawnProcess(name string, args ...string) (*Proc, error) {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	p := &Proc{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	logging.LogDebug("Spawned %s (PID: %d)", name, cmd.Process.Pid)
	return p, nil
}

// Pid returns the OS process id.
func (p *Proc) Pid() int {
	return p.cmd.Process.Pid
}

// Probe reports whether the process is still running, without waiting for it.
func (p *Proc) Probe() ProbeResult {
	select {
	case <-p.done:
		if p.waitErr == nil {
			return ProbeResult{State: StateExited, ExitStatus: 0}
		}
		var exitErr *exec.ExitError
		if errors.As(p.waitErr, &exitErr) {
			return ProbeResult{State: StateExited, ExitStatus: exitErr.ExitCode(), Err: exitErr}
		}
		// Wait itself failed at the OS level
		return ProbeResult{State: StateProbeError, Err: p.waitErr}
	default:
		return ProbeResult{State: StateRunning}
	}
}

// awaitExit blocks until the reaper has observed the exit, or until timeout.
// Once it returns true the process is gone and its sockets are released.
func (p *Proc) awaitExit(timeout time.Duration) bool {
	select {
	case <-p.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Terminate sends a kill signal and returns without waiting for the exit.
// The reaper goroutine observes the exit on its own.
func (p *Proc) Terminate() error {
	if p == nil || p.cmd.Process == nil {
		return nil
	}
	logging.LogDebug("Terminating process PID: %d", p.cmd.Process.Pid)
	return p.cmd.Process.Kill()
}
