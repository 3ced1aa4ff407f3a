// Package janitor clears persisted records for agents that are no longer
// alive. It runs periodically rather than every tick; stale entries are
// harmless in between because exclusivity checks on the hot paths are
// liveness-qualified.
package janitor

import "colonycraft/internal/sim/tasks"

// Sweep removes store entries for dead agents and returns the removed names.
func Sweep(store *tasks.Store, live func(name string) bool) []string {
	return store.RemoveDead(live)
}

// Due reports whether a sweep should run on this tick.
func Due(nowTick uint64, everyTicks int) bool {
	if everyTicks <= 0 {
		return false
	}
	return nowTick%uint64(everyTicks) == 0
}
