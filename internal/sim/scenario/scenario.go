// Package scenario loads the YAML world description that seeds a fresh run.
// Files are schema-validated before anything touches the world, so a typoed
// structure kind fails at startup instead of mid-run.
package scenario

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"colonycraft/internal/sim/tuning"
	"colonycraft/internal/sim/world"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

//go:embed scenario.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("scenario.schema.json", schemaJSON)

type Scenario struct {
	ID         string `yaml:"id"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	TickRateHz int    `yaml:"tick_rate_hz"`

	Agents     []AgentDef     `yaml:"agents"`
	Structures []StructureDef `yaml:"structures"`
	Sources    []SourceDef    `yaml:"sources"`
	Sites      []SiteDef      `yaml:"sites"`
	Dropped    []DroppedDef   `yaml:"dropped"`
	Hostiles   []HostileDef   `yaml:"hostiles"`
}

type AgentDef struct {
	Name  string   `yaml:"name"`
	Pos   [2]int   `yaml:"pos"`
	Body  []string `yaml:"body"`
	Carry int      `yaml:"carry"`
}

type StructureDef struct {
	Kind    string `yaml:"kind"`
	Pos     [2]int `yaml:"pos"`
	Hits    int    `yaml:"hits"`
	HitsMax int    `yaml:"hits_max"`
	Store   int    `yaml:"store"`
	Cap     int    `yaml:"cap"`
}

type SourceDef struct {
	ID     string `yaml:"id"`
	Pos    [2]int `yaml:"pos"`
	Amount int    `yaml:"amount"`
	Cap    int    `yaml:"cap"`
}

type SiteDef struct {
	Kind          string `yaml:"kind"`
	Pos           [2]int `yaml:"pos"`
	Progress      int    `yaml:"progress"`
	ProgressTotal int    `yaml:"progress_total"`
}

type DroppedDef struct {
	Pos    [2]int `yaml:"pos"`
	Amount int    `yaml:"amount"`
}

type HostileDef struct {
	ID      string `yaml:"id"`
	Pos     [2]int `yaml:"pos"`
	Hits    int    `yaml:"hits"`
	HitsMax int    `yaml:"hits_max"`
}

// Load parses and validates a scenario file.
func Load(path string) (Scenario, error) {
	var sc Scenario
	raw, err := os.ReadFile(path)
	if err != nil {
		return sc, err
	}
	return Parse(raw)
}

// Parse validates raw YAML against the scenario schema, then decodes it.
// Validation goes through a JSON round-trip because the schema library
// operates on JSON-shaped values.
func Parse(raw []byte) (Scenario, error) {
	var sc Scenario

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return sc, fmt.Errorf("scenario yaml: %w", err)
	}
	jb, err := json.Marshal(doc)
	if err != nil {
		return sc, fmt.Errorf("scenario canonicalize: %w", err)
	}
	var jdoc any
	if err := json.Unmarshal(jb, &jdoc); err != nil {
		return sc, fmt.Errorf("scenario canonicalize: %w", err)
	}
	if err := schema.Validate(jdoc); err != nil {
		return sc, fmt.Errorf("scenario validate: %w", err)
	}

	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return sc, fmt.Errorf("scenario yaml: %w", err)
	}
	return sc, nil
}

// Build constructs a fresh world from the scenario.
func Build(sc Scenario, tune tuning.Tuning, logger *log.Logger) *world.World {
	w := world.New(world.Config{
		ScenarioID: sc.ID,
		Width:      sc.Width,
		Height:     sc.Height,
		TickRateHz: sc.TickRateHz,
	}, tune, logger)

	for _, d := range sc.Agents {
		body := make([]modelpkg.Part, len(d.Body))
		for i, p := range d.Body {
			body[i] = modelpkg.Part(p)
		}
		a := modelpkg.NewAgent(d.Name, vec(d.Pos), body)
		a.Carry = d.Carry
		w.AddAgent(a)
	}
	for _, d := range sc.Structures {
		s := &modelpkg.Structure{
			Kind:    modelpkg.StructureKind(d.Kind),
			Pos:     vec(d.Pos),
			Hits:    d.Hits,
			HitsMax: d.HitsMax,
			Store:   d.Store,
			Cap:     d.Cap,
		}
		if s.HitsMax == 0 {
			s.HitsMax = 1000
		}
		if s.Hits == 0 {
			s.Hits = s.HitsMax
		}
		w.AddStructure(s)
	}
	for i, d := range sc.Sources {
		id := d.ID
		if id == "" {
			id = fmt.Sprintf("src-%d", i+1)
		}
		capacity := d.Cap
		if capacity == 0 {
			capacity = d.Amount
		}
		w.AddSource(&modelpkg.Source{ID: id, Pos: vec(d.Pos), Amount: d.Amount, Cap: capacity})
	}
	for _, d := range sc.Sites {
		w.AddSite(&modelpkg.ConstructionSite{
			Kind:          modelpkg.StructureKind(d.Kind),
			Pos:           vec(d.Pos),
			Progress:      d.Progress,
			ProgressTotal: d.ProgressTotal,
		})
	}
	for _, d := range sc.Dropped {
		w.AddDropped(&modelpkg.Resource{Pos: vec(d.Pos), Amount: d.Amount})
	}
	for _, d := range sc.Hostiles {
		h := &modelpkg.Hostile{ID: d.ID, Pos: vec(d.Pos), Hits: d.Hits, HitsMax: d.HitsMax}
		if h.HitsMax == 0 {
			h.HitsMax = 1000
		}
		if h.Hits == 0 {
			h.Hits = h.HitsMax
		}
		w.AddHostile(h)
	}
	return w
}

func vec(p [2]int) modelpkg.Vec2i { return modelpkg.Vec2i{X: p[0], Y: p[1]} }
