// Package worldtest drives the simulation through its exported surface only.
// Tests here describe multi-tick behavior: role loops, population changes,
// restore semantics. Single-system behavior is covered next to each system.
package worldtest

import (
	"testing"

	"colonycraft/internal/protocol"
	"colonycraft/internal/sim/tuning"
	"colonycraft/internal/sim/world"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

type Harness struct {
	T *testing.T
	W *world.World

	Digests []protocol.TickDigest
}

func NewHarness(t *testing.T) *Harness {
	t.Helper()
	w := world.New(world.Config{
		ScenarioID: "test",
		Width:      30,
		Height:     30,
		TickRateHz: 10,
	}, tuning.Defaults(), nil)
	return &Harness{T: t, W: w}
}

func (h *Harness) Step() protocol.TickDigest {
	h.T.Helper()
	d := h.W.StepOnce()
	h.Digests = append(h.Digests, d)
	return d
}

func (h *Harness) StepN(n int) protocol.TickDigest {
	h.T.Helper()
	var d protocol.TickDigest
	for i := 0; i < n; i++ {
		d = h.Step()
	}
	return d
}

// Gatherer is a body that can harvest but not carry.
func (h *Harness) Gatherer(name string, pos world.Vec2i) *modelpkg.Agent {
	h.T.Helper()
	a := modelpkg.NewAgent(name, pos, []modelpkg.Part{
		modelpkg.PartMove, modelpkg.PartMove, modelpkg.PartWork, modelpkg.PartWork,
	})
	h.W.AddAgent(a)
	return a
}

// Hauler carries resource between piles, containers, and delivery points.
func (h *Harness) Hauler(name string, pos world.Vec2i) *modelpkg.Agent {
	h.T.Helper()
	a := modelpkg.NewAgent(name, pos, []modelpkg.Part{
		modelpkg.PartMove, modelpkg.PartMove, modelpkg.PartCarry, modelpkg.PartCarry, modelpkg.PartWork,
	})
	h.W.AddAgent(a)
	return a
}

func (h *Harness) Spawn(pos world.Vec2i, store int) *modelpkg.Structure {
	h.T.Helper()
	s := &modelpkg.Structure{
		Kind: modelpkg.KindSpawn, Pos: pos,
		Hits: 1000, HitsMax: 1000,
		Store: store, Cap: 300,
	}
	h.W.AddStructure(s)
	return s
}

func (h *Harness) Controller(pos world.Vec2i) *modelpkg.Structure {
	h.T.Helper()
	s := &modelpkg.Structure{Kind: modelpkg.KindController, Pos: pos, Hits: 1, HitsMax: 1}
	h.W.AddStructure(s)
	return s
}

func (h *Harness) Container(pos world.Vec2i, store int) *modelpkg.Structure {
	h.T.Helper()
	s := &modelpkg.Structure{
		Kind: modelpkg.KindContainer, Pos: pos,
		Hits: 2500, HitsMax: 2500,
		Store: store, Cap: 2000,
	}
	h.W.AddStructure(s)
	return s
}

func (h *Harness) SourceNode(id string, pos world.Vec2i, amount int) *modelpkg.Source {
	h.T.Helper()
	s := &modelpkg.Source{ID: id, Pos: pos, Amount: amount, Cap: amount}
	h.W.AddSource(s)
	return s
}

func siteAt(pos world.Vec2i, kind string, total int) *modelpkg.ConstructionSite {
	return &modelpkg.ConstructionSite{
		Kind:          modelpkg.StructureKind(kind),
		Pos:           pos,
		ProgressTotal: total,
	}
}

// AssignmentOf returns the kind the agent currently holds, or "".
func (h *Harness) AssignmentOf(name string) string {
	h.T.Helper()
	a, ok := h.W.Store().Get(name)
	if !ok {
		return ""
	}
	return string(a.Kind)
}
