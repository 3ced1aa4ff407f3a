// Package runtime holds the tower defense system. It is stateless: every tick
// each tower re-evaluates attack, heal, and repair from scratch; nothing is
// persisted between ticks.
package runtime

import (
	"colonycraft/internal/protocol"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

type SystemInput struct {
	NowTick uint64
	// Range bounds attacks and repairs around each tower.
	Range int
}

type DefenseEnv interface {
	Towers() []*modelpkg.Structure
	ClosestHostile(pos modelpkg.Vec2i) (*modelpkg.Hostile, bool)
	ClosestDamagedAgent(pos modelpkg.Vec2i) (*modelpkg.Agent, bool)
	StructuresInRange(pos modelpkg.Vec2i, r int) []*modelpkg.Structure

	TowerAttack(t *modelpkg.Structure, h *modelpkg.Hostile) protocol.Failure
	TowerHeal(t *modelpkg.Structure, a *modelpkg.Agent) protocol.Failure
	TowerRepair(t *modelpkg.Structure, s *modelpkg.Structure) protocol.Failure
}

type DefenseStats struct {
	Attacks int
	Heals   int
	Repairs int
}

// RunDefenseSystem: hostiles first, then wounded agents, then repairs with
// ramparts ahead of everything else.
func RunDefenseSystem(env DefenseEnv, in SystemInput) DefenseStats {
	var st DefenseStats
	for _, tower := range env.Towers() {
		if h, ok := env.ClosestHostile(tower.Pos); ok {
			if tower.Pos.InRange(h.Pos, in.Range) {
				_ = env.TowerAttack(tower, h)
				st.Attacks++
			}
			continue
		}
		if a, ok := env.ClosestDamagedAgent(tower.Pos); ok {
			_ = env.TowerHeal(tower, a)
			st.Heals++
			continue
		}
		if target := repairTarget(env, tower.Pos, in.Range); target != nil {
			_ = env.TowerRepair(tower, target)
			st.Repairs++
		}
	}
	return st
}

func repairTarget(env DefenseEnv, pos modelpkg.Vec2i, r int) *modelpkg.Structure {
	var rampart, other *modelpkg.Structure
	for _, s := range env.StructuresInRange(pos, r) {
		if !s.Repairable() || !s.Damaged() {
			continue
		}
		if s.Kind == modelpkg.KindRampart {
			if rampart == nil || s.Hits < rampart.Hits {
				rampart = s
			}
			continue
		}
		if other == nil || s.Hits < other.Hits {
			other = s
		}
	}
	if rampart != nil {
		return rampart
	}
	return other
}
