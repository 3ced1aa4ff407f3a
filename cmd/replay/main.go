// Command replay inspects a snapshot and re-runs the simulation from it,
// checking the regenerated digests against the recorded tick log. A mismatch
// means the world code changed behavior since the log was written.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"colonycraft/internal/persistence/snapshot"
	"colonycraft/internal/protocol"
	"colonycraft/internal/sim/tuning"
	"colonycraft/internal/sim/world"
)

func main() {
	var (
		snapPath   = flag.String("snapshot", "", "path to .snap.zst")
		ticksDir   = flag.String("ticks", "", "dir containing ticks-*.jsonl.zst (optional)")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "tuning file")
		toTick     = flag.Uint64("to_tick", 0, "stop at tick (inclusive, 0 = all)")
	)
	flag.Parse()

	if *snapPath == "" {
		fmt.Fprintln(os.Stderr, "missing -snapshot")
		os.Exit(2)
	}

	snap, err := snapshot.ReadSnapshot(*snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read snapshot:", err)
		os.Exit(1)
	}

	fmt.Printf("snapshot v%d scenario=%s tick=%d size=%dx%d agents=%d structures=%d sources=%d\n",
		snap.Header.Version, snap.Header.ScenarioID, snap.Header.Tick,
		snap.Width, snap.Height, len(snap.Agents), len(snap.Structures), len(snap.Sources))

	if *ticksDir == "" {
		return
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		tune = tuning.Defaults()
	}

	logger := log.New(io.Discard, "", 0)
	w := world.FromSnapshot(snap, tune, logger)

	recorded, err := loadDigests(*ticksDir, snap.Header.Tick, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load ticks:", err)
		os.Exit(1)
	}
	if len(recorded) == 0 {
		fmt.Println("no recorded ticks past the snapshot; nothing to verify")
		return
	}

	mismatches := 0
	for _, want := range recorded {
		for w.CurrentTick() < want.Tick {
			w.StepOnce()
		}
		if w.CurrentTick() != want.Tick {
			continue
		}
		got := w.StepOnce()
		if got.Agents != want.Agents || got.Spawned != want.Spawned || got.Culled != want.Culled {
			mismatches++
			fmt.Printf("tick %d: agents %d/%d spawned %d/%d culled %d/%d\n",
				want.Tick, got.Agents, want.Agents, got.Spawned, want.Spawned, got.Culled, want.Culled)
		}
	}
	fmt.Printf("verified %d ticks, %d mismatches\n", len(recorded), mismatches)
	if mismatches > 0 {
		os.Exit(1)
	}
}

func loadDigests(dir string, fromTick, toTick uint64) ([]protocol.TickDigest, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl.zst") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	var out []protocol.TickDigest
	for _, f := range files {
		ds, err := readDigestFile(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		for _, d := range ds {
			if d.Tick < fromTick {
				continue
			}
			if toTick > 0 && d.Tick > toTick {
				continue
			}
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tick < out[j].Tick })
	return out, nil
}

func readDigestFile(path string) ([]protocol.TickDigest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []protocol.TickDigest
	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var d protocol.TickDigest
		if err := json.Unmarshal(line, &d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, sc.Err()
}
