// Package runtime decides when spawns produce new agents and with which body.
package runtime

import (
	"fmt"

	"colonycraft/internal/protocol"
	"colonycraft/internal/sim/tasks"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

type SystemInput struct {
	NowTick       uint64
	MaxPopulation int
}

type SpawnerEnv interface {
	Spawns() []*modelpkg.Structure
	Agents() []*modelpkg.Agent
	AgentLive(name string) bool
	ActiveSources() []*modelpkg.Source

	// Pooled resource across spawns and extensions.
	EnergyAvailable() int
	EnergyCapacity() int

	SpawnAgent(s *modelpkg.Structure, body []modelpkg.Part, name string) protocol.Failure
	Warnf(format string, args ...any)
}

type SpawnerStats struct {
	Spawned int
}

// RunSpawnerSystem spawns when the pool is full or a critical role is empty,
// while the population is under the cap. Gatherers are produced until each
// active source has a live harvester; haulers after that.
func RunSpawnerSystem(env SpawnerEnv, store *tasks.Store, in SystemInput) SpawnerStats {
	var st SpawnerStats
	for _, spawn := range env.Spawns() {
		harvesters := store.CountLiveOfKind(tasks.KindHarvest, env.AgentLive)
		haulers := 0
		for _, a := range env.Agents() {
			if a.HasPart(modelpkg.PartCarry) {
				haulers++
			}
		}
		sources := len(env.ActiveSources())
		avail := env.EnergyAvailable()
		cap := env.EnergyCapacity()
		population := len(env.Agents())

		if !(avail == cap || harvesters == 0 || haulers == 0) || population >= in.MaxPopulation {
			continue
		}

		var body []modelpkg.Part
		var ok bool
		if harvesters < sources {
			body, ok = GathererBody(avail)
		} else {
			body, ok = HaulerBody(avail)
		}
		if !ok {
			continue
		}

		name := fmt.Sprintf("%d-%d", in.NowTick, st.Spawned)
		if f := env.SpawnAgent(spawn, body, name); f != protocol.FailNone {
			env.Warnf("spawn %s failed: %s", spawn.ID, f)
			continue
		}
		st.Spawned++
	}
	return st
}
