package runtime

import (
	"colonycraft/internal/protocol"
	"colonycraft/internal/sim/tasks"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

// AssignerEnv is the world surface the assigner needs. All slice results are
// returned in a stable order; ties in min/max selection below resolve to the
// earliest candidate in that order.
type AssignerEnv interface {
	Agents() []*modelpkg.Agent
	AgentLive(name string) bool

	OwnedStructures() []*modelpkg.Structure
	Structures() []*modelpkg.Structure
	ConstructionSites() []*modelpkg.ConstructionSite
	Controller() (*modelpkg.Structure, bool)
	ActiveSources() []*modelpkg.Source
	DroppedResources() []*modelpkg.Resource
	StructuresAt(pos modelpkg.Vec2i) []*modelpkg.Structure

	MoveToward(a *modelpkg.Agent, pos modelpkg.Vec2i) protocol.Failure
	SelfTerminate(a *modelpkg.Agent)
}

type AssignerStats struct {
	Assigned int
	Culled   int
	Moves    int
}

// RunAssignerSystem selects a new assignment for every agent the executor
// pass left without one. Evaluation is greedy and per-agent: the first branch
// that fires wins and later branches are not considered for that agent.
func RunAssignerSystem(env AssignerEnv, store *tasks.Store, in SystemInput) AssignerStats {
	var st AssignerStats
	for _, a := range env.Agents() {
		if a.Spawning || store.Has(a.Name) {
			continue
		}
		if a.Carry > 0 {
			if assignDelivering(env, store, a) {
				st.Assigned++
			}
			continue
		}
		assignGathering(env, store, a, &st)
	}
	return st
}

// assignDelivering walks the delivering-role priority chain: fill delivery
// points best-fit first, then build, then repair, then fall back to upgrading
// the controller.
func assignDelivering(env AssignerEnv, store *tasks.Store, a *modelpkg.Agent) bool {
	// 1-3. Delivery points with free capacity, least free capacity first so a
	// nearly-full target is topped off before resource goes anywhere else.
	// At most one Deposit assignment exists globally.
	for _, kind := range []modelpkg.StructureKind{
		modelpkg.KindExtension, modelpkg.KindSpawn, modelpkg.KindTower,
	} {
		target := bestFitDeliveryPoint(env, kind)
		if target == nil {
			continue
		}
		if store.AnyOfKind(tasks.KindDeposit) {
			continue
		}
		store.Set(a.Name, tasks.Deposit(target.Pos))
		return true
	}

	// 4. Construction, in descending tiers; within the winning tier the site
	// with the least remaining work. At most one Construct assignment exists
	// globally. The defensive tier additionally re-checks the candidate's own
	// liveness (kept as inherited; see DESIGN.md).
	sites := env.ConstructionSites()
	for _, tier := range siteTiers(sites) {
		site := leastRemaining(tier.sites)
		if site == nil {
			continue
		}
		if store.AnyOfKind(tasks.KindConstruct) {
			continue
		}
		if tier.requireLive && !env.AgentLive(a.Name) {
			continue
		}
		store.Set(a.Name, tasks.Construct(site.Pos))
		return true
	}

	// 5. Repair: anything below half health, lowest hits first, wall-type
	// preferred on ties. At most one live agent repairs at a time.
	if !store.AnyLiveOfKind(tasks.KindRepair, env.AgentLive) {
		if target := repairCandidate(env); target != nil {
			store.Set(a.Name, tasks.Repair(target.Pos))
			return true
		}
	}

	// 6. Fallback: upgrade the controller, no exclusivity.
	if ctrl, ok := env.Controller(); ok {
		store.Set(a.Name, tasks.Upgrade(ctrl.ID))
		return true
	}
	return false
}

func assignGathering(env AssignerEnv, store *tasks.Store, a *modelpkg.Agent, st *AssignerStats) {
	if a.HasPart(modelpkg.PartCarry) {
		// Haulers draw from the richest container that can fill them outright,
		// then from the largest qualifying ground pile.
		if c := richestContainer(env, a.CarryCap); c != nil {
			store.Set(a.Name, tasks.Withdraw(c.ID))
			st.Assigned++
			return
		}
		if r := largestPile(env, a.CarryCap); r != nil {
			store.Set(a.Name, tasks.Pickup(r.Pos))
			st.Assigned++
			return
		}
	} else {
		// Pure gatherers claim an unclaimed active node; surplus gatherers
		// with nothing to claim are culled.
		for _, src := range env.ActiveSources() {
			if store.SourceClaimed(src.ID, env.AgentLive) {
				continue
			}
			store.Set(a.Name, tasks.Harvest(src.ID))
			st.Assigned++
			return
		}
		env.SelfTerminate(a)
		st.Culled++
		return
	}

	// Still idle: step off roads to keep them clear for transit.
	if !standsOnRoad(env, a.Pos) {
		return
	}
	for _, n := range a.Pos.Neighbors8() {
		if !standsOnRoad(env, n) {
			_ = env.MoveToward(a, n)
			st.Moves++
			return
		}
	}
}

func bestFitDeliveryPoint(env AssignerEnv, kind modelpkg.StructureKind) *modelpkg.Structure {
	var best *modelpkg.Structure
	for _, s := range env.OwnedStructures() {
		if s.Kind != kind || s.FreeCapacity() <= 0 {
			continue
		}
		if best == nil || s.FreeCapacity() < best.FreeCapacity() {
			best = s
		}
	}
	return best
}

type siteTier struct {
	sites       []*modelpkg.ConstructionSite
	requireLive bool
}

// siteTiers splits construction sites into descending priority tiers:
// defensive, delivery container, extension, everything else.
func siteTiers(sites []*modelpkg.ConstructionSite) []siteTier {
	var defensive, container, extension, other []*modelpkg.ConstructionSite
	for _, c := range sites {
		switch c.Kind {
		case modelpkg.KindWall, modelpkg.KindRampart, modelpkg.KindTower:
			defensive = append(defensive, c)
		case modelpkg.KindContainer:
			container = append(container, c)
		case modelpkg.KindExtension:
			extension = append(extension, c)
		case modelpkg.KindSpawn, modelpkg.KindRoad, modelpkg.KindController:
			other = append(other, c)
		default:
			other = append(other, c)
		}
	}
	return []siteTier{
		{sites: defensive, requireLive: true},
		{sites: container},
		{sites: extension},
		{sites: other},
	}
}

func leastRemaining(sites []*modelpkg.ConstructionSite) *modelpkg.ConstructionSite {
	var best *modelpkg.ConstructionSite
	for _, c := range sites {
		if best == nil || c.Remaining() < best.Remaining() {
			best = c
		}
	}
	return best
}

func repairCandidate(env AssignerEnv) *modelpkg.Structure {
	rampartFirst := func(s *modelpkg.Structure) int {
		if s.Kind == modelpkg.KindRampart {
			return 0
		}
		return 1
	}
	var best *modelpkg.Structure
	for _, s := range env.Structures() {
		if !s.Repairable() || s.Hits >= s.HitsMax/2 {
			continue
		}
		if best == nil ||
			s.Hits < best.Hits ||
			(s.Hits == best.Hits && rampartFirst(s) < rampartFirst(best)) {
			best = s
		}
	}
	return best
}

func richestContainer(env AssignerEnv, need int) *modelpkg.Structure {
	var best *modelpkg.Structure
	for _, s := range env.Structures() {
		if s.Kind != modelpkg.KindContainer || s.Store < need {
			continue
		}
		if best == nil || s.Store > best.Store {
			best = s
		}
	}
	return best
}

func largestPile(env AssignerEnv, need int) *modelpkg.Resource {
	var best *modelpkg.Resource
	for _, r := range env.DroppedResources() {
		if r.Amount < need {
			continue
		}
		if best == nil || r.Amount > best.Amount {
			best = r
		}
	}
	return best
}

func standsOnRoad(env AssignerEnv, pos modelpkg.Vec2i) bool {
	for _, s := range env.StructuresAt(pos) {
		if s.Kind == modelpkg.KindRoad {
			return true
		}
	}
	return false
}
