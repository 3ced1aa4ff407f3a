package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_OverridesDefaultsPartially(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	err := os.WriteFile(path, []byte("tick_rate_hz: 25\nmax_population: 12\n"), 0o644)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.TickRateHz != 25 || got.MaxPopulation != 12 {
		t.Fatalf("overrides not applied: %+v", got)
	}
	// Untouched keys keep their defaults.
	if got.HarvestPower != Defaults().HarvestPower || got.TowerRange != Defaults().TowerRange {
		t.Fatalf("defaults lost: %+v", got)
	}
}

func TestLoad_MissingFileReturnsError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: [nope"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected yaml error")
	}
}
