package runtime

import (
	"fmt"

	"colonycraft/internal/protocol"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

// stubEnv implements ExecutorEnv and AssignerEnv over plain slices and maps.
type stubEnv struct {
	agents      []*modelpkg.Agent
	dead        map[string]bool
	sources     map[string]*modelpkg.Source
	containers  map[string]*modelpkg.Structure
	controllers map[string]*modelpkg.Structure
	structures  []*modelpkg.Structure
	owned       []*modelpkg.Structure
	sites       []*modelpkg.ConstructionSite
	resources   []*modelpkg.Resource

	// fail maps an action name to a forced failure.
	fail map[string]protocol.Failure

	moves      []string
	actions    []string
	terminated []string
	warnings   int
}

func newStubEnv() *stubEnv {
	return &stubEnv{
		dead:        map[string]bool{},
		sources:     map[string]*modelpkg.Source{},
		containers:  map[string]*modelpkg.Structure{},
		controllers: map[string]*modelpkg.Structure{},
		fail:        map[string]protocol.Failure{},
	}
}

func (e *stubEnv) Agents() []*modelpkg.Agent { return e.agents }

func (e *stubEnv) AgentLive(name string) bool {
	if e.dead[name] {
		return false
	}
	for _, a := range e.agents {
		if a.Name == name {
			return true
		}
	}
	return false
}

func (e *stubEnv) SourceByID(id string) (*modelpkg.Source, bool) {
	s, ok := e.sources[id]
	return s, ok
}

func (e *stubEnv) ContainerByID(id string) (*modelpkg.Structure, bool) {
	s, ok := e.containers[id]
	return s, ok
}

func (e *stubEnv) ControllerByID(id string) (*modelpkg.Structure, bool) {
	s, ok := e.controllers[id]
	return s, ok
}

func (e *stubEnv) StructuresAt(pos modelpkg.Vec2i) []*modelpkg.Structure {
	var out []*modelpkg.Structure
	for _, s := range e.structures {
		if s.Pos == pos {
			out = append(out, s)
		}
	}
	return out
}

func (e *stubEnv) StructuresInRange(pos modelpkg.Vec2i, r int) []*modelpkg.Structure {
	var out []*modelpkg.Structure
	for _, s := range e.structures {
		if s.Pos.InRange(pos, r) {
			out = append(out, s)
		}
	}
	return out
}

func (e *stubEnv) SiteAt(pos modelpkg.Vec2i) (*modelpkg.ConstructionSite, bool) {
	for _, c := range e.sites {
		if c.Pos == pos {
			return c, true
		}
	}
	return nil, false
}

func (e *stubEnv) ResourceAt(pos modelpkg.Vec2i) (*modelpkg.Resource, bool) {
	for _, r := range e.resources {
		if r.Pos == pos {
			return r, true
		}
	}
	return nil, false
}

func (e *stubEnv) OwnedStructures() []*modelpkg.Structure          { return e.owned }
func (e *stubEnv) Structures() []*modelpkg.Structure               { return e.structures }
func (e *stubEnv) ConstructionSites() []*modelpkg.ConstructionSite { return e.sites }

func (e *stubEnv) Controller() (*modelpkg.Structure, bool) {
	for _, s := range e.structures {
		if s.Kind == modelpkg.KindController {
			return s, true
		}
	}
	return nil, false
}

func (e *stubEnv) ActiveSources() []*modelpkg.Source {
	var out []*modelpkg.Source
	for _, id := range sortedKeys(e.sources) {
		if e.sources[id].Active() {
			out = append(out, e.sources[id])
		}
	}
	return out
}

func (e *stubEnv) DroppedResources() []*modelpkg.Resource { return e.resources }

func (e *stubEnv) MoveToward(a *modelpkg.Agent, pos modelpkg.Vec2i) protocol.Failure {
	e.moves = append(e.moves, fmt.Sprintf("%s->%d,%d", a.Name, pos.X, pos.Y))
	return protocol.FailNone
}

func (e *stubEnv) act(name string, agent *modelpkg.Agent) protocol.Failure {
	e.actions = append(e.actions, fmt.Sprintf("%s:%s", agent.Name, name))
	return e.fail[name]
}

func (e *stubEnv) Harvest(a *modelpkg.Agent, s *modelpkg.Source) protocol.Failure {
	return e.act("harvest", a)
}

func (e *stubEnv) Build(a *modelpkg.Agent, c *modelpkg.ConstructionSite) protocol.Failure {
	return e.act("build", a)
}

func (e *stubEnv) RepairStructure(a *modelpkg.Agent, s *modelpkg.Structure) protocol.Failure {
	return e.act("repair", a)
}

func (e *stubEnv) Transfer(a *modelpkg.Agent, s *modelpkg.Structure) protocol.Failure {
	return e.act("transfer", a)
}

func (e *stubEnv) Withdraw(a *modelpkg.Agent, s *modelpkg.Structure) protocol.Failure {
	return e.act("withdraw", a)
}

func (e *stubEnv) PickupResource(a *modelpkg.Agent, r *modelpkg.Resource) protocol.Failure {
	return e.act("pickup", a)
}

func (e *stubEnv) UpgradeController(a *modelpkg.Agent, s *modelpkg.Structure) protocol.Failure {
	return e.act("upgrade", a)
}

func (e *stubEnv) SelfTerminate(a *modelpkg.Agent) {
	e.terminated = append(e.terminated, a.Name)
	e.dead[a.Name] = true
}

func (e *stubEnv) Warnf(format string, args ...any) { e.warnings++ }

func sortedKeys(m map[string]*modelpkg.Source) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
