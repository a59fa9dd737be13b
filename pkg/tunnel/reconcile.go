package tunnel

import (
	"fmt"
	"sort"

	"github.com/xlttj/sshtun/pkg/logging"
)

// Death records one autonomous process exit observed during a reconcile pass.
type Death struct {
	ID     int64
	Name   string
	Status string
}

// Reconcile probes every registered handle and drops those whose process has
// exited on its own. A probe error is treated conservatively as dead. This is
// a cleanup-only pass: it never adds handles. The caller runs it once per UI
// tick, before reading state for rendering, so the view is at most one tick
// stale.
func (r *Registry) Reconcile() []Death {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var deaths []Death
	for id, handle := range r.active {
		res := handle.proc.Probe()
		switch res.State {
		case StateRunning:
			// Leave the handle untouched

		case StateExited:
			logging.LogError("Tunnel %s (id %d) died unexpectedly (exit status %d)", handle.Snapshot.Name, id, res.ExitStatus)
			deaths = append(deaths, Death{
				ID:     id,
				Name:   handle.Snapshot.Name,
				Status: fmt.Sprintf("exit status %d", res.ExitStatus),
			})
			delete(r.active, id)

		case StateProbeError:
			logging.LogError("Error checking tunnel %s status: %v", handle.Snapshot.Name, res.Err)
			// Best-effort signal before dropping ownership
			_ = handle.proc.Terminate()
			deaths = append(deaths, Death{
				ID:     id,
				Name:   handle.Snapshot.Name,
				Status: "status probe failed",
			})
			delete(r.active, id)
		}
	}

	sort.Slice(deaths, func(i, j int) bool { return deaths[i].ID < deaths[j].ID })
	return deaths
}
