package indexdb

import (
	"path/filepath"
	"testing"

	"colonycraft/internal/persistence/snapshot"
	"colonycraft/internal/protocol"
)

func openTestIndex(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestWriteTick_RoundtripThroughRange(t *testing.T) {
	idx := openTestIndex(t)

	for tick := uint64(0); tick < 5; tick++ {
		idx.WriteTick(protocol.TickDigest{
			Type:        protocol.TypeDigest,
			Tick:        tick,
			Agents:      3,
			Assignments: map[string]int{"HARVEST": 2, "DEPOSIT": 1},
			Warnings:    int(tick % 2),
		})
	}
	idx.Flush()

	got, err := idx.TickRange(1, 3)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %d, want 3", len(got))
	}
	if got[0].Tick != 1 || got[2].Tick != 3 {
		t.Fatalf("range bounds wrong: %+v", got)
	}
	if got[1].Assignments["HARVEST"] != 2 {
		t.Fatalf("raw json did not roundtrip: %+v", got[1])
	}
}

func TestWriteTick_ReplaceOnSameTick(t *testing.T) {
	idx := openTestIndex(t)

	idx.WriteTick(protocol.TickDigest{Tick: 7, Agents: 1})
	idx.WriteTick(protocol.TickDigest{Tick: 7, Agents: 4})
	idx.Flush()

	got, err := idx.TickRange(7, 7)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 1 || got[0].Agents != 4 {
		t.Fatalf("expected the later row to win, got %+v", got)
	}
}

func TestLatestSnapshot(t *testing.T) {
	idx := openTestIndex(t)

	if _, _, ok, err := idx.LatestSnapshot(); err != nil || ok {
		t.Fatalf("empty index: ok=%v err=%v", ok, err)
	}

	idx.RecordSnapshot("/data/s-100.snap.zst", snapshot.SnapshotV1{
		Header: snapshot.Header{Version: 1, ScenarioID: "room", Tick: 100},
	})
	idx.RecordSnapshot("/data/s-500.snap.zst", snapshot.SnapshotV1{
		Header: snapshot.Header{Version: 1, ScenarioID: "room", Tick: 500},
	})
	idx.Flush()

	path, tick, ok, err := idx.LatestSnapshot()
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if path != "/data/s-500.snap.zst" || tick != 500 {
		t.Fatalf("latest = %s@%d", path, tick)
	}
}

func TestWriteAfterClose_IsNoop(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Must not panic on the closed channel.
	idx.WriteTick(protocol.TickDigest{Tick: 1})
	idx.Flush()
}
