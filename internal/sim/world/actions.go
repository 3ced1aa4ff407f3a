package world

import (
	"colonycraft/internal/protocol"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

// Part spawn costs.
const (
	costMove  = 50
	costCarry = 50
	costWork  = 100
)

// Ranges: touch actions need adjacency; worksite actions reach a little
// further, which is why the executor can see an out-of-range result even
// after its own adjacency pre-check passes for a different radius.
const (
	touchRange = 1
	workRange  = 3
)

func workParts(a *modelpkg.Agent) int {
	n := 0
	for _, p := range a.Body {
		if p == modelpkg.PartWork {
			n++
		}
	}
	return n
}

// MoveToward advances one board step toward pos, best effort. Blocked or
// out-of-bounds steps are skipped silently; movement never fails terminally.
func (w *World) MoveToward(a *modelpkg.Agent, pos Vec2i) protocol.Failure {
	if a.Pos == pos {
		return protocol.FailNone
	}
	next := modelpkg.StepToward(a.Pos, pos)
	if !w.inBounds(next) || w.blockedAt(next) {
		return protocol.FailNone
	}
	a.Pos = next
	return protocol.FailNone
}

func (w *World) blockedAt(pos Vec2i) bool {
	for _, s := range w.StructuresAt(pos) {
		switch s.Kind {
		case modelpkg.KindWall:
			return true
		case modelpkg.KindSpawn, modelpkg.KindExtension, modelpkg.KindTower, modelpkg.KindController:
			return true
		case modelpkg.KindContainer, modelpkg.KindRoad, modelpkg.KindRampart:
		}
	}
	return false
}

// Harvest drains the node by the agent's work power. Carried overflow spills
// into a container on the agent's tile, then to the ground.
func (w *World) Harvest(a *modelpkg.Agent, s *modelpkg.Source) protocol.Failure {
	wp := workParts(a)
	if wp == 0 {
		return protocol.ErrNoPermission
	}
	if !a.Pos.InRange(s.Pos, touchRange) {
		return protocol.ErrOutOfRange
	}
	if s.Amount <= 0 {
		return protocol.ErrNoResource
	}
	amount := w.tune.HarvestPower * wp
	if amount > s.Amount {
		amount = s.Amount
	}
	s.Amount -= amount

	take := amount
	if take > a.FreeCapacity() {
		take = a.FreeCapacity()
	}
	a.Carry += take
	rest := amount - take
	if rest > 0 {
		for _, st := range w.StructuresAt(a.Pos) {
			if st.Kind == modelpkg.KindContainer && st.FreeCapacity() > 0 {
				into := rest
				if into > st.FreeCapacity() {
					into = st.FreeCapacity()
				}
				st.Store += into
				rest -= into
				break
			}
		}
	}
	if rest > 0 {
		w.AddDropped(&modelpkg.Resource{Pos: a.Pos, Amount: rest})
	}
	return protocol.FailNone
}

func (w *World) Build(a *modelpkg.Agent, c *modelpkg.ConstructionSite) protocol.Failure {
	if workParts(a) == 0 {
		return protocol.ErrNoPermission
	}
	if a.Carry <= 0 {
		return protocol.ErrNoResource
	}
	if !a.Pos.InRange(c.Pos, workRange) {
		return protocol.ErrOutOfRange
	}
	amount := w.tune.BuildPower * workParts(a)
	if amount > a.Carry {
		amount = a.Carry
	}
	if amount > c.Remaining() {
		amount = c.Remaining()
	}
	a.Carry -= amount
	c.Progress += amount
	if c.Remaining() == 0 {
		w.completeSite(c)
	}
	return protocol.FailNone
}

func (w *World) completeSite(c *modelpkg.ConstructionSite) {
	delete(w.sites, c.ID)
	s := &modelpkg.Structure{
		ID:      w.allocID("st"),
		Kind:    c.Kind,
		Pos:     c.Pos,
		HitsMax: hitsMaxFor(c.Kind),
		Cap:     storeCapFor(c.Kind),
	}
	s.Hits = s.HitsMax
	// Defensive walls come up at minimal hits and are grown by repair.
	switch c.Kind {
	case modelpkg.KindWall, modelpkg.KindRampart:
		s.Hits = 1
	case modelpkg.KindSpawn, modelpkg.KindExtension, modelpkg.KindTower,
		modelpkg.KindContainer, modelpkg.KindRoad, modelpkg.KindController:
	}
	w.structures[s.ID] = s
}

func hitsMaxFor(k modelpkg.StructureKind) int {
	switch k {
	case modelpkg.KindWall, modelpkg.KindRampart:
		return 10000
	case modelpkg.KindRoad:
		return 500
	case modelpkg.KindContainer:
		return 2500
	case modelpkg.KindSpawn, modelpkg.KindExtension, modelpkg.KindTower:
		return 1000
	case modelpkg.KindController:
		return 1
	}
	return 1000
}

func storeCapFor(k modelpkg.StructureKind) int {
	switch k {
	case modelpkg.KindSpawn:
		return 300
	case modelpkg.KindExtension:
		return 50
	case modelpkg.KindTower:
		return 1000
	case modelpkg.KindContainer:
		return 2000
	case modelpkg.KindRoad, modelpkg.KindWall, modelpkg.KindRampart, modelpkg.KindController:
		return 0
	}
	return 0
}

func (w *World) RepairStructure(a *modelpkg.Agent, s *modelpkg.Structure) protocol.Failure {
	if workParts(a) == 0 {
		return protocol.ErrNoPermission
	}
	if a.Carry <= 0 {
		return protocol.ErrNoResource
	}
	if !a.Pos.InRange(s.Pos, workRange) {
		return protocol.ErrOutOfRange
	}
	if !s.Repairable() || !s.Damaged() {
		return protocol.ErrInvalidTarget
	}
	a.Carry--
	s.Hits += w.tune.RepairPower * workParts(a)
	if s.Hits > s.HitsMax {
		s.Hits = s.HitsMax
	}
	return protocol.FailNone
}

func (w *World) Transfer(a *modelpkg.Agent, s *modelpkg.Structure) protocol.Failure {
	if a.Carry <= 0 {
		return protocol.ErrNoResource
	}
	if !a.Pos.InRange(s.Pos, touchRange) {
		return protocol.ErrOutOfRange
	}
	if !s.Transferable() {
		return protocol.ErrInvalidTarget
	}
	if s.FreeCapacity() <= 0 {
		return protocol.ErrFull
	}
	amount := a.Carry
	if amount > s.FreeCapacity() {
		amount = s.FreeCapacity()
	}
	a.Carry -= amount
	s.Store += amount
	return protocol.FailNone
}

func (w *World) Withdraw(a *modelpkg.Agent, s *modelpkg.Structure) protocol.Failure {
	if a.FreeCapacity() <= 0 {
		return protocol.ErrFull
	}
	if !a.Pos.InRange(s.Pos, touchRange) {
		return protocol.ErrOutOfRange
	}
	if s.Store <= 0 {
		return protocol.ErrNoResource
	}
	amount := s.Store
	if amount > a.FreeCapacity() {
		amount = a.FreeCapacity()
	}
	s.Store -= amount
	a.Carry += amount
	return protocol.FailNone
}

func (w *World) PickupResource(a *modelpkg.Agent, r *modelpkg.Resource) protocol.Failure {
	if a.FreeCapacity() <= 0 {
		return protocol.ErrFull
	}
	if !a.Pos.InRange(r.Pos, touchRange) {
		return protocol.ErrOutOfRange
	}
	if r.Amount <= 0 {
		return protocol.ErrNoResource
	}
	amount := r.Amount
	if amount > a.FreeCapacity() {
		amount = a.FreeCapacity()
	}
	r.Amount -= amount
	a.Carry += amount
	return protocol.FailNone
}

func (w *World) UpgradeController(a *modelpkg.Agent, s *modelpkg.Structure) protocol.Failure {
	if workParts(a) == 0 {
		return protocol.ErrNoPermission
	}
	if a.Carry <= 0 {
		return protocol.ErrNoResource
	}
	if s.Kind != modelpkg.KindController {
		return protocol.ErrInvalidTarget
	}
	if !a.Pos.InRange(s.Pos, workRange) {
		return protocol.ErrOutOfRange
	}
	amount := w.tune.UpgradePower * workParts(a)
	if amount > a.Carry {
		amount = a.Carry
	}
	a.Carry -= amount
	s.Progress += amount
	for s.Progress >= (s.Level+1)*1000 {
		s.Level++
	}
	return protocol.FailNone
}

// SelfTerminate removes the agent immediately, dropping any carried resource
// on its tile. The janitor clears its store entry on the next sweep; until
// then liveness-qualified checks ignore the stale entry.
func (w *World) SelfTerminate(a *modelpkg.Agent) {
	if a.Carry > 0 {
		w.AddDropped(&modelpkg.Resource{Pos: a.Pos, Amount: a.Carry})
	}
	delete(w.agents, a.Name)
	w.culled++
}

func (w *World) SpawnAgent(spawn *modelpkg.Structure, body []modelpkg.Part, name string) protocol.Failure {
	if spawn.Kind != modelpkg.KindSpawn {
		return protocol.ErrInvalidTarget
	}
	if _, exists := w.agents[name]; exists {
		return protocol.ErrBusy
	}
	cost := 0
	for _, p := range body {
		switch p {
		case modelpkg.PartMove:
			cost += costMove
		case modelpkg.PartCarry:
			cost += costCarry
		case modelpkg.PartWork:
			cost += costWork
		}
	}
	if cost > w.EnergyAvailable() {
		return protocol.ErrNoResource
	}
	w.drainEnergy(spawn, cost)

	pos := w.freeNeighbor(spawn.Pos)
	a := modelpkg.NewAgent(name, pos, body)
	a.Spawning = true
	w.agents[name] = a
	// Three ticks per part, matching the body-size build time.
	w.spawningUntil[name] = w.tick.Load() + uint64(3*len(body))
	return protocol.FailNone
}

// drainEnergy deducts spawn cost, emptying the spawn itself before touching
// extensions.
func (w *World) drainEnergy(spawn *modelpkg.Structure, cost int) {
	take := cost
	if take > spawn.Store {
		take = spawn.Store
	}
	spawn.Store -= take
	cost -= take
	if cost <= 0 {
		return
	}
	for _, s := range w.Structures() {
		if s.Kind != modelpkg.KindExtension || cost <= 0 {
			continue
		}
		take = cost
		if take > s.Store {
			take = s.Store
		}
		s.Store -= take
		cost -= take
	}
}

func (w *World) freeNeighbor(pos Vec2i) Vec2i {
	for _, n := range pos.Neighbors8() {
		if w.inBounds(n) && !w.blockedAt(n) {
			return n
		}
	}
	return pos
}

// --- tower commands ---

func (w *World) towerFire(t *modelpkg.Structure) protocol.Failure {
	if t.Store < w.tune.TowerActionCost {
		return protocol.ErrNoResource
	}
	t.Store -= w.tune.TowerActionCost
	return protocol.FailNone
}

func (w *World) TowerAttack(t *modelpkg.Structure, h *modelpkg.Hostile) protocol.Failure {
	if f := w.towerFire(t); f != protocol.FailNone {
		return f
	}
	h.Hits -= w.tune.TowerAttackPower
	if h.Hits <= 0 {
		delete(w.hostiles, h.ID)
	}
	return protocol.FailNone
}

func (w *World) TowerHeal(t *modelpkg.Structure, a *modelpkg.Agent) protocol.Failure {
	if f := w.towerFire(t); f != protocol.FailNone {
		return f
	}
	a.Hits += w.tune.TowerHealPower
	if a.Hits > a.HitsMax {
		a.Hits = a.HitsMax
	}
	return protocol.FailNone
}

func (w *World) TowerRepair(t *modelpkg.Structure, s *modelpkg.Structure) protocol.Failure {
	if f := w.towerFire(t); f != protocol.FailNone {
		return f
	}
	s.Hits += w.tune.TowerRepairPower
	if s.Hits > s.HitsMax {
		s.Hits = s.HitsMax
	}
	return protocol.FailNone
}
