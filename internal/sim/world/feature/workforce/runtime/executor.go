// Package runtime drives the worker population: an executor system that
// advances each agent's persisted assignment by one gated action per tick, and
// an assigner system that hands new assignments to idle agents under
// per-target exclusivity rules. The executor pass always completes before the
// assigner pass so the assigner observes this tick's drops and freed slots.
package runtime

import (
	"colonycraft/internal/protocol"
	"colonycraft/internal/sim/tasks"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

type SystemInput struct {
	NowTick uint64
}

// ExecutorEnv is the world surface the executor needs: tick-scoped resolution
// and spatial queries, plus imperative commands returning categorized
// failures. Handles obtained here must not outlive the tick.
type ExecutorEnv interface {
	Agents() []*modelpkg.Agent

	SourceByID(id string) (*modelpkg.Source, bool)
	ContainerByID(id string) (*modelpkg.Structure, bool)
	ControllerByID(id string) (*modelpkg.Structure, bool)

	StructuresAt(pos modelpkg.Vec2i) []*modelpkg.Structure
	StructuresInRange(pos modelpkg.Vec2i, r int) []*modelpkg.Structure
	SiteAt(pos modelpkg.Vec2i) (*modelpkg.ConstructionSite, bool)
	ResourceAt(pos modelpkg.Vec2i) (*modelpkg.Resource, bool)

	MoveToward(a *modelpkg.Agent, pos modelpkg.Vec2i) protocol.Failure
	Harvest(a *modelpkg.Agent, s *modelpkg.Source) protocol.Failure
	Build(a *modelpkg.Agent, c *modelpkg.ConstructionSite) protocol.Failure
	RepairStructure(a *modelpkg.Agent, s *modelpkg.Structure) protocol.Failure
	Transfer(a *modelpkg.Agent, s *modelpkg.Structure) protocol.Failure
	Withdraw(a *modelpkg.Agent, s *modelpkg.Structure) protocol.Failure
	PickupResource(a *modelpkg.Agent, r *modelpkg.Resource) protocol.Failure
	UpgradeController(a *modelpkg.Agent, s *modelpkg.Structure) protocol.Failure

	Warnf(format string, args ...any)
}

type ExecutorStats struct {
	Actions  int
	Moves    int
	Drops    int
	Warnings int
}

// RunExecutorSystem performs one gated step for every agent holding an
// assignment. It issues at most one movement or action command per agent and
// removes the store entry on any terminal failure. One agent's failure never
// aborts the pass.
func RunExecutorSystem(env ExecutorEnv, store *tasks.Store, in SystemInput) ExecutorStats {
	var st ExecutorStats
	for _, a := range env.Agents() {
		if a.Spawning {
			continue
		}
		asg, ok := store.Get(a.Name)
		if !ok {
			continue
		}
		runAssigned(env, store, a, asg, &st)
	}
	return st
}

func runAssigned(env ExecutorEnv, store *tasks.Store, a *modelpkg.Agent, asg tasks.Assignment, st *ExecutorStats) {
	drop := func() {
		store.Remove(a.Name)
		st.Drops++
	}
	warnDrop := func(f protocol.Failure) {
		env.Warnf("%s: %s rejected: %s", a.Name, asg.Kind, f)
		st.Warnings++
		drop()
	}
	move := func(pos modelpkg.Vec2i) {
		_ = env.MoveToward(a, pos)
		st.Moves++
	}

	switch asg.Kind {
	case tasks.KindUpgrade:
		if a.Carry <= 0 {
			drop()
			return
		}
		ctrl, ok := env.ControllerByID(asg.TargetID)
		if !ok {
			drop()
			return
		}
		st.Actions++
		switch f := env.UpgradeController(a, ctrl); {
		case f == protocol.ErrOutOfRange:
			move(ctrl.Pos)
		case f.Terminal():
			warnDrop(f)
		}

	case tasks.KindConstruct:
		if a.Carry <= 0 {
			drop()
			return
		}
		if !a.Pos.NearTo(asg.Pos) {
			move(asg.Pos)
			return
		}
		if site, ok := env.SiteAt(asg.Pos); ok {
			st.Actions++
			if f := env.Build(a, site); f.Terminal() {
				warnDrop(f)
			}
			return
		}
		// Freshly completed defensive walls start at minimal hits; finish the
		// job by repairing whatever wall-type structure stands here now.
		if wall := damagedWallAt(env, asg.Pos); wall != nil {
			st.Actions++
			if f := env.RepairStructure(a, wall); f.Terminal() {
				warnDrop(f)
			}
			return
		}
		drop()

	case tasks.KindHarvest:
		src, ok := env.SourceByID(asg.TargetID)
		if !ok {
			drop()
			return
		}
		if !a.Pos.NearTo(src.Pos) {
			move(src.Pos)
			return
		}
		// A delivery container adjacent to the node is the preferred stand
		// tile: harvested resource spills straight into it.
		if c := containerNear(env, src.Pos); c != nil && a.Pos != c.Pos {
			move(c.Pos)
			return
		}
		st.Actions++
		if f := env.Harvest(a, src); f.Terminal() {
			warnDrop(f)
		}

	case tasks.KindWithdraw:
		if a.FreeCapacity() <= 0 {
			drop()
			return
		}
		cont, ok := env.ContainerByID(asg.TargetID)
		if !ok {
			drop()
			return
		}
		if !a.Pos.NearTo(cont.Pos) {
			move(cont.Pos)
			return
		}
		st.Actions++
		if f := env.Withdraw(a, cont); f.Terminal() {
			warnDrop(f)
		}

	case tasks.KindPickup:
		if a.FreeCapacity() <= 0 {
			drop()
			return
		}
		res, ok := env.ResourceAt(asg.Pos)
		if !ok {
			drop()
			return
		}
		if !a.Pos.NearTo(asg.Pos) {
			move(asg.Pos)
			return
		}
		st.Actions++
		if f := env.PickupResource(a, res); f.Terminal() {
			warnDrop(f)
		}

	case tasks.KindDeposit:
		if a.Carry <= 0 {
			drop()
			return
		}
		target := deliveryPointAt(env, asg.Pos)
		if target == nil {
			drop()
			return
		}
		if !a.Pos.NearTo(target.Pos) {
			move(asg.Pos)
			return
		}
		st.Actions++
		if f := env.Transfer(a, target); f.Terminal() {
			warnDrop(f)
		}

	case tasks.KindRepair:
		if a.Carry <= 0 {
			drop()
			return
		}
		if !a.Pos.NearTo(asg.Pos) {
			move(asg.Pos)
			return
		}
		var target *modelpkg.Structure
		for _, s := range env.StructuresAt(asg.Pos) {
			if s.Repairable() && s.Damaged() {
				target = s
				break
			}
		}
		if target == nil {
			drop()
			return
		}
		st.Actions++
		if f := env.RepairStructure(a, target); f.Terminal() {
			warnDrop(f)
		}

	default:
		drop()
	}
}

// deliveryPointAt returns the structure at pos that accepts deliveries.
// The accepted set is exactly spawn, extension, and tower.
func deliveryPointAt(env ExecutorEnv, pos modelpkg.Vec2i) *modelpkg.Structure {
	for _, s := range env.StructuresAt(pos) {
		switch s.Kind {
		case modelpkg.KindSpawn, modelpkg.KindExtension, modelpkg.KindTower:
			return s
		case modelpkg.KindContainer, modelpkg.KindRoad, modelpkg.KindWall,
			modelpkg.KindRampart, modelpkg.KindController:
			// Not a delivery point.
		}
	}
	return nil
}

func damagedWallAt(env ExecutorEnv, pos modelpkg.Vec2i) *modelpkg.Structure {
	for _, s := range env.StructuresAt(pos) {
		switch s.Kind {
		case modelpkg.KindWall, modelpkg.KindRampart:
			if s.Damaged() {
				return s
			}
		case modelpkg.KindSpawn, modelpkg.KindExtension, modelpkg.KindTower,
			modelpkg.KindContainer, modelpkg.KindRoad, modelpkg.KindController:
		}
	}
	return nil
}

func containerNear(env ExecutorEnv, pos modelpkg.Vec2i) *modelpkg.Structure {
	for _, s := range env.StructuresInRange(pos, 1) {
		if s.Kind == modelpkg.KindContainer {
			return s
		}
	}
	return nil
}
