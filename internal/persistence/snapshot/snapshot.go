// Package snapshot persists the full world state for resume and replay.
// Assignments are deliberately absent: the store is rebuilt from world state
// by the first assigner pass after a restore.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

type Header struct {
	Version    int    `json:"version"`
	ScenarioID string `json:"scenario_id"`
	Tick       uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Width      int `json:"width"`
	Height     int `json:"height"`
	TickRateHz int `json:"tick_rate_hz"`

	Agents     []AgentV1     `json:"agents"`
	Structures []StructureV1 `json:"structures"`
	Sources    []SourceV1    `json:"sources"`
	Sites      []SiteV1      `json:"sites,omitempty"`
	Dropped    []ResourceV1  `json:"dropped,omitempty"`
	Hostiles   []HostileV1   `json:"hostiles,omitempty"`

	// Agents still in production and the tick their body completes.
	SpawningUntil map[string]uint64 `json:"spawning_until,omitempty"`

	NextID uint64 `json:"next_id"`
}

type AgentV1 struct {
	Name     string   `json:"name"`
	X        int      `json:"x"`
	Y        int      `json:"y"`
	Body     []string `json:"body"`
	Carry    int      `json:"carry"`
	CarryCap int      `json:"carry_cap"`
	Hits     int      `json:"hits"`
	HitsMax  int      `json:"hits_max"`
	Spawning bool     `json:"spawning,omitempty"`
}

type StructureV1 struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Hits     int    `json:"hits"`
	HitsMax  int    `json:"hits_max"`
	Store    int    `json:"store,omitempty"`
	Cap      int    `json:"cap,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Level    int    `json:"level,omitempty"`
}

type SourceV1 struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Amount int    `json:"amount"`
	Cap    int    `json:"cap"`
}

type SiteV1 struct {
	ID            string `json:"id"`
	Kind          string `json:"kind"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Progress      int    `json:"progress"`
	ProgressTotal int    `json:"progress_total"`
}

type ResourceV1 struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Amount int `json:"amount"`
}

type HostileV1 struct {
	ID      string `json:"id"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Hits    int    `json:"hits"`
	HitsMax int    `json:"hits_max"`
}

// WriteSnapshot stores snap at path: a one-line JSON header followed by a gob
// body, the whole file zstd-compressed. The header line lets tooling identify
// a snapshot without decoding the body.
func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// Skip the header line; the gob body repeats it.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}
