package world

import (
	"context"
	"encoding/json"
	"time"

	"colonycraft/internal/protocol"
	defense "colonycraft/internal/sim/world/feature/defense/runtime"
	"colonycraft/internal/sim/world/feature/janitor"
	spawner "colonycraft/internal/sim/world/feature/spawner/runtime"
	workforce "colonycraft/internal/sim/world/feature/workforce/runtime"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

// StepOnce advances the world one tick and returns the digest for that tick.
// System order is fixed: executor, assigner, defense, spawner, janitor.
// The executor acts on last tick's assignments; the assigner refills freed
// slots the same tick so cold starts leave no eligible agent idle.
func (w *World) StepOnce() protocol.TickDigest {
	now := w.tick.Load()
	w.regenSources(now)
	w.finishSpawning(now)

	in := workforce.SystemInput{NowTick: now}
	exec := workforce.RunExecutorSystem(w, w.store, in)
	asg := workforce.RunAssignerSystem(w, w.store, in)
	def := defense.RunDefenseSystem(w, defense.SystemInput{
		NowTick: now,
		Range:   w.tune.TowerRange,
	})
	sp := spawner.RunSpawnerSystem(w, w.store, spawner.SystemInput{
		NowTick:       now,
		MaxPopulation: w.tune.MaxPopulation,
	})
	if janitor.Due(now, w.tune.CleanupEvery) {
		janitor.Sweep(w.store, w.AgentLive)
	}
	w.compactDropped()

	d := protocol.TickDigest{
		Type:          protocol.TypeDigest,
		Tick:          now,
		Agents:        len(w.agents),
		Spawning:      len(w.spawningUntil),
		Hostiles:      len(w.hostiles),
		Assignments:   w.store.CountByKind(),
		ActionsIssued: exec.Actions + def.Attacks + def.Heals + def.Repairs,
		MovesIssued:   exec.Moves + asg.Moves,
		Drops:         exec.Drops,
		Warnings:      w.warnings,
		Spawned:       sp.Spawned,
		Culled:        w.culled,
	}
	w.warnings = 0
	w.culled = 0
	w.tick.Store(now + 1)

	w.publish(d)
	return d
}

// regenSources refills every node on its regeneration boundary.
func (w *World) regenSources(now uint64) {
	every := w.tune.SourceRegenTicks
	if every <= 0 || now == 0 || now%uint64(every) != 0 {
		return
	}
	for _, s := range w.sources {
		s.Amount = s.Cap
	}
}

func (w *World) finishSpawning(now uint64) {
	for name, until := range w.spawningUntil {
		if now < until {
			continue
		}
		if a, ok := w.agents[name]; ok {
			a.Spawning = false
		}
		delete(w.spawningUntil, name)
	}
}

func (w *World) compactDropped() {
	kept := w.dropped[:0]
	for _, r := range w.dropped {
		if r.Amount > 0 {
			kept = append(kept, r)
		}
	}
	w.dropped = kept
}

// Run drives the tick loop at the configured rate until the context is
// cancelled or Stop is called.
func (w *World) Run(ctx context.Context) {
	hz := w.cfg.TickRateHz
	if hz <= 0 {
		hz = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case <-ticker.C:
			w.StepOnce()
		}
	}
}

func (w *World) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
}

// AddSink registers a synchronous per-tick consumer (tick log, index writer).
// Sinks run on the tick goroutine; slow work belongs behind a channel.
func (w *World) AddSink(fn func(protocol.TickDigest)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sinks = append(w.sinks, fn)
}

// ObserverJoin registers a live observer. The returned channel carries
// marshaled digest frames; a full channel drops frames rather than stalling
// the tick loop.
func (w *World) ObserverJoin() (uint64, <-chan []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.nextObs++
	ch := make(chan []byte, 16)
	w.observers[w.nextObs] = ch
	return w.nextObs, ch
}

func (w *World) ObserverCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.observers)
}

func (w *World) ObserverLeave(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if ch, ok := w.observers[id]; ok {
		delete(w.observers, id)
		close(ch)
	}
}

func (w *World) publish(d protocol.TickDigest) {
	w.mu.Lock()
	sinks := make([]func(protocol.TickDigest), len(w.sinks))
	copy(sinks, w.sinks)
	frame, err := json.Marshal(d)
	if err == nil {
		for _, ch := range w.observers {
			select {
			case ch <- frame:
			default:
			}
		}
	}
	w.mu.Unlock()
	for _, fn := range sinks {
		fn(d)
	}
}

// Agent returns a live agent by name, for tests and the replay driver.
func (w *World) Agent(name string) (*modelpkg.Agent, bool) {
	a, ok := w.agents[name]
	return a, ok
}
