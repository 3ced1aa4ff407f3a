package scenario

import (
	"strings"
	"testing"

	"colonycraft/internal/sim/tuning"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

const sampleYAML = `
id: test-room
width: 20
height: 20
tick_rate_hz: 10
agents:
  - name: g-1
    pos: [5, 5]
    body: [MOVE, MOVE, WORK, WORK]
structures:
  - kind: SPAWN
    pos: [10, 10]
    store: 300
    cap: 300
  - kind: CONTROLLER
    pos: [15, 15]
    hits: 1
    hits_max: 1
sources:
  - pos: [3, 3]
    amount: 3000
sites:
  - kind: EXTENSION
    pos: [9, 10]
    progress_total: 100
`

func TestParse_ValidScenario(t *testing.T) {
	sc, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if sc.ID != "test-room" || sc.Width != 20 || sc.Height != 20 {
		t.Fatalf("unexpected header: %+v", sc)
	}
	if len(sc.Agents) != 1 || len(sc.Structures) != 2 || len(sc.Sources) != 1 || len(sc.Sites) != 1 {
		t.Fatalf("unexpected counts: %+v", sc)
	}
}

func TestParse_RejectsUnknownStructureKind(t *testing.T) {
	bad := strings.Replace(sampleYAML, "kind: SPAWN", "kind: BARRACKS", 1)
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatalf("expected validation error for unknown kind")
	}
}

func TestParse_RejectsMissingID(t *testing.T) {
	bad := strings.Replace(sampleYAML, "id: test-room", "", 1)
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatalf("expected validation error for missing id")
	}
}

func TestParse_RejectsBadBodyPart(t *testing.T) {
	bad := strings.Replace(sampleYAML, "body: [MOVE, MOVE, WORK, WORK]", "body: [MOVE, LASER]", 1)
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatalf("expected validation error for unknown body part")
	}
}

func TestBuild_PopulatesWorld(t *testing.T) {
	sc, err := Parse([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	w := Build(sc, tuning.Defaults(), nil)

	if got := len(w.Agents()); got != 1 {
		t.Fatalf("agents = %d, want 1", got)
	}
	a := w.Agents()[0]
	if a.Name != "g-1" || a.CarryCap != 0 {
		t.Fatalf("unexpected agent: %+v", a)
	}
	if _, ok := w.Controller(); !ok {
		t.Fatalf("controller missing")
	}
	srcs := w.ActiveSources()
	if len(srcs) != 1 || srcs[0].Cap != 3000 {
		t.Fatalf("sources = %+v, want one with cap defaulted to amount", srcs)
	}
	if _, ok := w.SiteAt(modelpkg.Vec2i{X: 9, Y: 10}); !ok {
		t.Fatalf("construction site missing")
	}
	spawns := w.Spawns()
	if len(spawns) != 1 || spawns[0].Store != 300 {
		t.Fatalf("spawn = %+v", spawns)
	}
}
