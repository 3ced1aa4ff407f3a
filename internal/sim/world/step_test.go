package world

import (
	"encoding/json"
	"testing"

	"colonycraft/internal/protocol"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

func TestStepOnce_AdvancesTickAndCountsAgents(t *testing.T) {
	w := newTestWorld()
	w.AddAgent(worker("A1", Vec2i{X: 5, Y: 5}))
	w.AddAgent(worker("A2", Vec2i{X: 6, Y: 5}))

	d := w.StepOnce()
	if d.Tick != 0 {
		t.Fatalf("first digest tick = %d, want 0", d.Tick)
	}
	if d.Agents != 2 {
		t.Fatalf("digest agents = %d, want 2", d.Agents)
	}
	if w.CurrentTick() != 1 {
		t.Fatalf("tick after step = %d, want 1", w.CurrentTick())
	}
}

func TestStepOnce_SourceRegenOnBoundary(t *testing.T) {
	w := newTestWorld()
	src := &modelpkg.Source{ID: "src-1", Pos: Vec2i{X: 5, Y: 5}, Amount: 0, Cap: 3000}
	w.AddSource(src)

	w.tick.Store(uint64(w.tune.SourceRegenTicks) - 1)
	w.StepOnce()
	if src.Amount != 0 {
		t.Fatalf("regenerated one tick early")
	}
	w.StepOnce()
	if src.Amount != src.Cap {
		t.Fatalf("source amount = %d, want %d after regen boundary", src.Amount, src.Cap)
	}
}

func TestStepOnce_SpawningFlagClears(t *testing.T) {
	w := newTestWorld()
	spawn := &modelpkg.Structure{Kind: modelpkg.KindSpawn, Pos: Vec2i{X: 10, Y: 10}, Hits: 1000, HitsMax: 1000, Store: 300, Cap: 300}
	w.AddStructure(spawn)

	body := []modelpkg.Part{modelpkg.PartMove, modelpkg.PartMove, modelpkg.PartWork, modelpkg.PartWork}
	if f := w.SpawnAgent(spawn, body, "0-0"); f != protocol.FailNone {
		t.Fatalf("spawn: %v", f)
	}
	a, _ := w.Agent("0-0")

	// Four parts take twelve ticks.
	for i := 0; i < 12; i++ {
		if !a.Spawning {
			t.Fatalf("spawning flag cleared after %d ticks, want 12", i)
		}
		w.StepOnce()
	}
	w.StepOnce()
	if a.Spawning {
		t.Fatalf("spawning flag still set after build time")
	}
}

func TestStepOnce_WarningAndCullCountersResetEachTick(t *testing.T) {
	w := newTestWorld()
	w.Warnf("spawn %s failed", "S1")
	d := w.StepOnce()
	if d.Warnings != 1 {
		t.Fatalf("digest warnings = %d, want 1", d.Warnings)
	}
	d = w.StepOnce()
	if d.Warnings != 0 {
		t.Fatalf("warnings carried over: %d", d.Warnings)
	}
}

func TestCurrentTick_ReadableWhileStepping(t *testing.T) {
	w := newTestWorld()
	const steps = 200

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < steps; i++ {
			w.StepOnce()
		}
	}()

	var last uint64
	for {
		select {
		case <-done:
			if got := w.CurrentTick(); got != steps {
				t.Fatalf("tick after %d steps = %d", steps, got)
			}
			return
		default:
			now := w.CurrentTick()
			if now < last {
				t.Fatalf("tick went backwards: %d then %d", last, now)
			}
			last = now
		}
	}
}

func TestPublish_SinkAndObserverReceiveDigest(t *testing.T) {
	w := newTestWorld()
	w.AddAgent(worker("A1", Vec2i{X: 5, Y: 5}))

	var viaSink []protocol.TickDigest
	w.AddSink(func(d protocol.TickDigest) { viaSink = append(viaSink, d) })

	id, frames := w.ObserverJoin()
	defer w.ObserverLeave(id)

	want := w.StepOnce()

	if len(viaSink) != 1 || viaSink[0].Tick != want.Tick {
		t.Fatalf("sink digests = %+v, want one at tick %d", viaSink, want.Tick)
	}
	select {
	case b := <-frames:
		var got protocol.TickDigest
		if err := json.Unmarshal(b, &got); err != nil {
			t.Fatalf("frame unmarshal: %v", err)
		}
		if got.Type != protocol.TypeDigest || got.Tick != want.Tick {
			t.Fatalf("frame = %+v, want tick %d", got, want.Tick)
		}
	default:
		t.Fatalf("no frame published to observer")
	}
}

func TestPublish_SlowObserverDropsFramesWithoutStalling(t *testing.T) {
	w := newTestWorld()
	id, frames := w.ObserverJoin()
	defer w.ObserverLeave(id)

	// Never read: the buffered channel fills and later frames are dropped.
	for i := 0; i < 100; i++ {
		w.StepOnce()
	}
	if len(frames) != cap(frames) {
		t.Fatalf("expected the observer buffer to be full, len=%d cap=%d", len(frames), cap(frames))
	}
}

func TestSnapshotRoundtrip_ExcludesAssignments(t *testing.T) {
	w := newTestWorld()
	w.AddAgent(worker("A1", Vec2i{X: 5, Y: 5}))
	w.AddStructure(&modelpkg.Structure{Kind: modelpkg.KindSpawn, Pos: Vec2i{X: 10, Y: 10}, Hits: 1000, HitsMax: 1000, Store: 100, Cap: 300})
	w.AddSource(&modelpkg.Source{ID: "src-1", Pos: Vec2i{X: 4, Y: 5}, Amount: 500, Cap: 3000})
	w.AddDropped(&modelpkg.Resource{Pos: Vec2i{X: 3, Y: 3}, Amount: 80})
	w.StepOnce()

	if w.Store().Len() == 0 {
		t.Fatalf("precondition: expected live assignments before snapshot")
	}

	snap := w.ExportSnapshot()
	if snap.Header.Tick != w.CurrentTick() {
		t.Fatalf("snapshot tick = %d, want %d", snap.Header.Tick, w.CurrentTick())
	}

	w2 := FromSnapshot(snap, w.Tuning(), nil)
	if w2.CurrentTick() != w.CurrentTick() {
		t.Fatalf("restored tick = %d, want %d", w2.CurrentTick(), w.CurrentTick())
	}
	if got := len(w2.Agents()); got != 1 {
		t.Fatalf("restored agents = %d, want 1", got)
	}
	if w2.Store().Len() != 0 {
		t.Fatalf("assignments must not survive a snapshot, got %d", w2.Store().Len())
	}

	// The first tick after the restore repopulates the store.
	w2.StepOnce()
	if w2.Store().Len() == 0 {
		t.Fatalf("assigner did not rebuild assignments after restore")
	}
}
