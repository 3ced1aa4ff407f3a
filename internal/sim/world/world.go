// Package world is the in-memory room the systems run against. It owns all
// live objects, implements the query and command surfaces the feature systems
// consume, and advances one tick at a time. Pointers handed out by queries are
// valid only for the tick in which they were fetched.
package world

import (
	"log"
	"sort"
	"sync"
	"sync/atomic"

	"colonycraft/internal/protocol"
	"colonycraft/internal/sim/tasks"
	"colonycraft/internal/sim/tuning"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

type Vec2i = modelpkg.Vec2i

type Config struct {
	ScenarioID string
	Width      int
	Height     int
	TickRateHz int
}

type World struct {
	cfg  Config
	tune tuning.Tuning
	log  *log.Logger

	// Written by the tick goroutine, read by observer request handlers.
	tick atomic.Uint64

	agents     map[string]*modelpkg.Agent
	structures map[string]*modelpkg.Structure
	sources    map[string]*modelpkg.Source
	sites      map[string]*modelpkg.ConstructionSite
	dropped    []*modelpkg.Resource
	hostiles   map[string]*modelpkg.Hostile

	// Spawning agents and the tick their body finishes.
	spawningUntil map[string]uint64

	store *tasks.Store

	nextID uint64

	// Tick-scoped counters merged into the digest.
	warnings int
	culled   int

	mu        sync.Mutex
	observers map[uint64]chan []byte
	nextObs   uint64
	sinks     []func(protocol.TickDigest)

	stop chan struct{}
}

func New(cfg Config, tune tuning.Tuning, logger *log.Logger) *World {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = tune.TickRateHz
	}
	return &World{
		cfg:           cfg,
		tune:          tune,
		log:           logger,
		agents:        map[string]*modelpkg.Agent{},
		structures:    map[string]*modelpkg.Structure{},
		sources:       map[string]*modelpkg.Source{},
		sites:         map[string]*modelpkg.ConstructionSite{},
		hostiles:      map[string]*modelpkg.Hostile{},
		spawningUntil: map[string]uint64{},
		store:         tasks.NewStore(),
		observers:     map[uint64]chan []byte{},
		stop:          make(chan struct{}),
	}
}

func (w *World) Config() Config { return w.cfg }
func (w *World) Tuning() tuning.Tuning { return w.tune }
func (w *World) CurrentTick() uint64 { return w.tick.Load() }

// Store exposes the assignment store to tests and the replay driver. The
// store's lifetime is the process: it is never persisted.
func (w *World) Store() *tasks.Store { return w.store }

// --- population / object mutation used by scenario loading and snapshots ---

func (w *World) AddAgent(a *modelpkg.Agent) { w.agents[a.Name] = a }

func (w *World) AddStructure(s *modelpkg.Structure) {
	if s.ID == "" {
		s.ID = w.allocID("st")
	}
	w.structures[s.ID] = s
}

func (w *World) AddSource(s *modelpkg.Source) { w.sources[s.ID] = s }

func (w *World) AddSite(c *modelpkg.ConstructionSite) {
	if c.ID == "" {
		c.ID = w.allocID("cs")
	}
	w.sites[c.ID] = c
}

func (w *World) AddDropped(r *modelpkg.Resource) {
	if r.Amount <= 0 {
		return
	}
	for _, p := range w.dropped {
		if p.Pos == r.Pos {
			p.Amount += r.Amount
			return
		}
	}
	w.dropped = append(w.dropped, r)
}

func (w *World) AddHostile(h *modelpkg.Hostile) { w.hostiles[h.ID] = h }

func (w *World) allocID(prefix string) string {
	w.nextID++
	return prefix + "-" + itoa(w.nextID)
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var b [20]byte
	i := len(b)
	for v > 0 {
		i--
		b[i] = byte('0' + v%10)
		v /= 10
	}
	return string(b[i:])
}

// --- query surface (WorldQuery) ---

func (w *World) Agents() []*modelpkg.Agent {
	out := make([]*modelpkg.Agent, 0, len(w.agents))
	for _, a := range w.agents {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (w *World) AgentLive(name string) bool {
	_, ok := w.agents[name]
	return ok
}

func (w *World) SourceByID(id string) (*modelpkg.Source, bool) {
	s, ok := w.sources[id]
	return s, ok
}

func (w *World) ContainerByID(id string) (*modelpkg.Structure, bool) {
	s, ok := w.structures[id]
	if !ok || s.Kind != modelpkg.KindContainer {
		return nil, false
	}
	return s, true
}

func (w *World) ControllerByID(id string) (*modelpkg.Structure, bool) {
	s, ok := w.structures[id]
	if !ok || s.Kind != modelpkg.KindController {
		return nil, false
	}
	return s, true
}

func (w *World) Structures() []*modelpkg.Structure {
	out := make([]*modelpkg.Structure, 0, len(w.structures))
	for _, s := range w.structures {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// OwnedStructures returns the player-owned kinds (spawns, extensions, towers,
// the controller); neutral kinds like roads and containers are excluded.
func (w *World) OwnedStructures() []*modelpkg.Structure {
	var out []*modelpkg.Structure
	for _, s := range w.Structures() {
		switch s.Kind {
		case modelpkg.KindSpawn, modelpkg.KindExtension, modelpkg.KindTower, modelpkg.KindController:
			out = append(out, s)
		case modelpkg.KindContainer, modelpkg.KindRoad, modelpkg.KindWall, modelpkg.KindRampart:
		}
	}
	return out
}

func (w *World) Spawns() []*modelpkg.Structure {
	var out []*modelpkg.Structure
	for _, s := range w.Structures() {
		if s.Kind == modelpkg.KindSpawn {
			out = append(out, s)
		}
	}
	return out
}

func (w *World) Towers() []*modelpkg.Structure {
	var out []*modelpkg.Structure
	for _, s := range w.Structures() {
		if s.Kind == modelpkg.KindTower {
			out = append(out, s)
		}
	}
	return out
}

func (w *World) StructuresAt(pos Vec2i) []*modelpkg.Structure {
	var out []*modelpkg.Structure
	for _, s := range w.Structures() {
		if s.Pos == pos {
			out = append(out, s)
		}
	}
	return out
}

func (w *World) StructuresInRange(pos Vec2i, r int) []*modelpkg.Structure {
	var out []*modelpkg.Structure
	for _, s := range w.Structures() {
		if s.Pos.InRange(pos, r) {
			out = append(out, s)
		}
	}
	return out
}

func (w *World) SiteAt(pos Vec2i) (*modelpkg.ConstructionSite, bool) {
	for _, c := range w.ConstructionSites() {
		if c.Pos == pos {
			return c, true
		}
	}
	return nil, false
}

func (w *World) ConstructionSites() []*modelpkg.ConstructionSite {
	out := make([]*modelpkg.ConstructionSite, 0, len(w.sites))
	for _, c := range w.sites {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) Controller() (*modelpkg.Structure, bool) {
	for _, s := range w.Structures() {
		if s.Kind == modelpkg.KindController {
			return s, true
		}
	}
	return nil, false
}

func (w *World) ActiveSources() []*modelpkg.Source {
	out := make([]*modelpkg.Source, 0, len(w.sources))
	for _, s := range w.sources {
		if s.Active() {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) sortedSources() []*modelpkg.Source {
	out := make([]*modelpkg.Source, 0, len(w.sources))
	for _, s := range w.sources {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) sortedHostiles() []*modelpkg.Hostile {
	out := make([]*modelpkg.Hostile, 0, len(w.hostiles))
	for _, h := range w.hostiles {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (w *World) DroppedResources() []*modelpkg.Resource {
	out := make([]*modelpkg.Resource, 0, len(w.dropped))
	for _, r := range w.dropped {
		if r.Amount > 0 {
			out = append(out, r)
		}
	}
	return out
}

func (w *World) ResourceAt(pos Vec2i) (*modelpkg.Resource, bool) {
	for _, r := range w.dropped {
		if r.Pos == pos && r.Amount > 0 {
			return r, true
		}
	}
	return nil, false
}

func (w *World) ClosestHostile(pos Vec2i) (*modelpkg.Hostile, bool) {
	ids := make([]string, 0, len(w.hostiles))
	for id := range w.hostiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var best *modelpkg.Hostile
	for _, id := range ids {
		h := w.hostiles[id]
		if best == nil || modelpkg.Chebyshev(pos, h.Pos) < modelpkg.Chebyshev(pos, best.Pos) {
			best = h
		}
	}
	return best, best != nil
}

func (w *World) ClosestDamagedAgent(pos Vec2i) (*modelpkg.Agent, bool) {
	var best *modelpkg.Agent
	for _, a := range w.Agents() {
		if a.Hits >= a.HitsMax {
			continue
		}
		if best == nil || modelpkg.Chebyshev(pos, a.Pos) < modelpkg.Chebyshev(pos, best.Pos) {
			best = a
		}
	}
	return best, best != nil
}

// EnergyAvailable is the pooled resource across spawns and extensions.
func (w *World) EnergyAvailable() int {
	total := 0
	for _, s := range w.structures {
		switch s.Kind {
		case modelpkg.KindSpawn, modelpkg.KindExtension:
			total += s.Store
		case modelpkg.KindTower, modelpkg.KindContainer, modelpkg.KindRoad,
			modelpkg.KindWall, modelpkg.KindRampart, modelpkg.KindController:
		}
	}
	return total
}

func (w *World) EnergyCapacity() int {
	total := 0
	for _, s := range w.structures {
		switch s.Kind {
		case modelpkg.KindSpawn, modelpkg.KindExtension:
			total += s.Cap
		case modelpkg.KindTower, modelpkg.KindContainer, modelpkg.KindRoad,
			modelpkg.KindWall, modelpkg.KindRampart, modelpkg.KindController:
		}
	}
	return total
}

func (w *World) Warnf(format string, args ...any) {
	w.warnings++
	if w.log != nil {
		w.log.Printf("warn: "+format, args...)
	}
}

func (w *World) inBounds(pos Vec2i) bool {
	return pos.X >= 0 && pos.Y >= 0 && pos.X < w.cfg.Width && pos.Y < w.cfg.Height
}
