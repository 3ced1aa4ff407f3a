package worldtest

import (
	"testing"

	"colonycraft/internal/sim/tasks"
	"colonycraft/internal/sim/world"
)

// A gatherer walks to its node, parks on the adjacent container, and drains
// the node into it over successive ticks.
func TestHarvestLoop_FillsAdjacentContainer(t *testing.T) {
	h := NewHarness(t)
	src := h.SourceNode("src-1", world.Vec2i{X: 4, Y: 4}, 3000)
	box := h.Container(world.Vec2i{X: 5, Y: 4}, 0)
	g := h.Gatherer("g-1", world.Vec2i{X: 10, Y: 10})

	h.StepN(30)

	if g.Pos != box.Pos {
		t.Fatalf("gatherer at %v, want parked on container %v", g.Pos, box.Pos)
	}
	if box.Store == 0 {
		t.Fatalf("container still empty after 30 ticks")
	}
	if src.Amount == src.Cap {
		t.Fatalf("source untouched after 30 ticks")
	}
	if h.AssignmentOf("g-1") != string(tasks.KindHarvest) {
		t.Fatalf("gatherer should keep its harvest claim, has %q", h.AssignmentOf("g-1"))
	}
}

// A hauler withdraws from a rich container and delivers to the spawn, then
// returns for more: the full logistics loop.
func TestHaulLoop_MovesResourceFromContainerToSpawn(t *testing.T) {
	h := NewHarness(t)
	box := h.Container(world.Vec2i{X: 5, Y: 5}, 1000)
	spawn := h.Spawn(world.Vec2i{X: 20, Y: 20}, 0)
	h.Hauler("haul-1", world.Vec2i{X: 10, Y: 10})

	h.StepN(80)

	if box.Store == 1000 {
		t.Fatalf("container untouched after 80 ticks")
	}
	// Delivered energy either sits in the spawn or was already consumed by
	// the spawner producing a new agent.
	if spawn.Store == 0 && len(h.W.Agents()) == 1 {
		t.Fatalf("no energy reached the spawn after 80 ticks")
	}
}

// With nothing to build, repair, or deliver, a loaded worker falls back to
// feeding the controller.
func TestUpgradeFallback_ControllerProgresses(t *testing.T) {
	h := NewHarness(t)
	ctrl := h.Controller(world.Vec2i{X: 12, Y: 12})
	a := h.Hauler("u-1", world.Vec2i{X: 11, Y: 11})
	a.Carry = 100

	h.StepN(10)

	if ctrl.Progress == 0 {
		t.Fatalf("controller progress = 0 after 10 ticks")
	}
}

// Construction drains carried resource into the site until it completes.
func TestConstructLoop_SiteBecomesStructure(t *testing.T) {
	h := NewHarness(t)
	h.W.AddSite(siteAt(world.Vec2i{X: 12, Y: 12}, "EXTENSION", 20))
	a := h.Hauler("b-1", world.Vec2i{X: 11, Y: 11})
	a.Carry = 100

	h.StepN(10)

	if _, ok := h.W.SiteAt(world.Vec2i{X: 12, Y: 12}); ok {
		t.Fatalf("site still present after 10 ticks")
	}
	sts := h.W.StructuresAt(world.Vec2i{X: 12, Y: 12})
	if len(sts) != 1 || string(sts[0].Kind) != "EXTENSION" {
		t.Fatalf("expected finished extension, got %v", sts)
	}
}
