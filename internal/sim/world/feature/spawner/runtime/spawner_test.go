package runtime

import (
	"testing"

	"colonycraft/internal/protocol"
	"colonycraft/internal/sim/tasks"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

type stubSpawnEnv struct {
	spawns  []*modelpkg.Structure
	agents  []*modelpkg.Agent
	sources []*modelpkg.Source
	avail   int
	cap     int

	spawned [][]modelpkg.Part
	fail    protocol.Failure
}

func (e *stubSpawnEnv) Spawns() []*modelpkg.Structure { return e.spawns }
func (e *stubSpawnEnv) Agents() []*modelpkg.Agent     { return e.agents }

func (e *stubSpawnEnv) AgentLive(name string) bool {
	for _, a := range e.agents {
		if a.Name == name {
			return true
		}
	}
	return false
}

func (e *stubSpawnEnv) ActiveSources() []*modelpkg.Source { return e.sources }
func (e *stubSpawnEnv) EnergyAvailable() int              { return e.avail }
func (e *stubSpawnEnv) EnergyCapacity() int               { return e.cap }

func (e *stubSpawnEnv) SpawnAgent(s *modelpkg.Structure, body []modelpkg.Part, name string) protocol.Failure {
	if e.fail != protocol.FailNone {
		return e.fail
	}
	e.spawned = append(e.spawned, body)
	e.agents = append(e.agents, modelpkg.NewAgent(name, s.Pos, body))
	return protocol.FailNone
}

func (e *stubSpawnEnv) Warnf(format string, args ...any) {}

func baseSpawnEnv() *stubSpawnEnv {
	return &stubSpawnEnv{
		spawns:  []*modelpkg.Structure{{ID: "SP1", Kind: modelpkg.KindSpawn, Store: 300, Cap: 300}},
		sources: []*modelpkg.Source{{ID: "S1", Amount: 100, Cap: 100}},
		avail:   300,
		cap:     300,
	}
}

func TestSpawnerProducesGathererWhileSourcesUncovered(t *testing.T) {
	env := baseSpawnEnv()
	st := RunSpawnerSystem(env, tasks.NewStore(), SystemInput{NowTick: 10, MaxPopulation: 6})
	if st.Spawned != 1 {
		t.Fatalf("expected one spawn, got %d", st.Spawned)
	}
	body := env.spawned[0]
	for _, p := range body {
		if p == modelpkg.PartCarry {
			t.Fatalf("gatherer body must not carry: %v", body)
		}
	}
}

func TestSpawnerProducesHaulerOnceSourcesCovered(t *testing.T) {
	env := baseSpawnEnv()
	env.agents = []*modelpkg.Agent{
		modelpkg.NewAgent("G1", modelpkg.Vec2i{}, parts("MMWW")),
	}
	store := tasks.NewStore()
	store.Set("G1", tasks.Harvest("S1"))

	RunSpawnerSystem(env, store, SystemInput{NowTick: 10, MaxPopulation: 6})
	if len(env.spawned) != 1 {
		t.Fatalf("expected one spawn")
	}
	hasCarry := false
	for _, p := range env.spawned[0] {
		if p == modelpkg.PartCarry {
			hasCarry = true
		}
	}
	if !hasCarry {
		t.Fatalf("hauler body must carry: %v", env.spawned[0])
	}
}

func TestSpawnerRespectsPopulationCap(t *testing.T) {
	env := baseSpawnEnv()
	for i := 0; i < 6; i++ {
		env.agents = append(env.agents, modelpkg.NewAgent(string(rune('A'+i)), modelpkg.Vec2i{}, parts("MMWW")))
	}
	st := RunSpawnerSystem(env, tasks.NewStore(), SystemInput{NowTick: 10, MaxPopulation: 6})
	if st.Spawned != 0 {
		t.Fatalf("population cap ignored")
	}
}

func TestSpawnerIdleWhenPoolPartialAndRolesCovered(t *testing.T) {
	env := baseSpawnEnv()
	env.avail = 200 // below capacity and below the cheapest tier
	env.agents = []*modelpkg.Agent{
		modelpkg.NewAgent("G1", modelpkg.Vec2i{}, parts("MMWW")),
		modelpkg.NewAgent("H1", modelpkg.Vec2i{}, parts("MMCCW")),
	}
	store := tasks.NewStore()
	store.Set("G1", tasks.Harvest("S1"))

	st := RunSpawnerSystem(env, store, SystemInput{NowTick: 10, MaxPopulation: 6})
	if st.Spawned != 0 {
		t.Fatalf("no spawn condition met, got %d", st.Spawned)
	}
}

func TestBodyTiers(t *testing.T) {
	if _, ok := GathererBody(299); ok {
		t.Fatalf("no body under 300")
	}
	if b, _ := GathererBody(600); len(b) != 7 {
		t.Fatalf("mid gatherer tier: %v", b)
	}
	if b, _ := HaulerBody(800); len(b) != 12 {
		t.Fatalf("top hauler tier: %v", b)
	}
}
