package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	MaxPopulation    int `yaml:"max_population"`
	CleanupEvery     int `yaml:"cleanup_every_ticks"`
	SnapshotEvery    int `yaml:"snapshot_every_ticks"`
	SourceRegenTicks int `yaml:"source_regen_ticks"`

	HarvestPower int `yaml:"harvest_power"`
	BuildPower   int `yaml:"build_power"`
	RepairPower  int `yaml:"repair_power"`
	UpgradePower int `yaml:"upgrade_power"`

	TowerRange       int `yaml:"tower_range"`
	TowerAttackPower int `yaml:"tower_attack_power"`
	TowerHealPower   int `yaml:"tower_heal_power"`
	TowerRepairPower int `yaml:"tower_repair_power"`
	TowerActionCost  int `yaml:"tower_action_cost"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:       10,
		MaxPopulation:    6,
		CleanupEvery:     10,
		SnapshotEvery:    500,
		SourceRegenTicks: 300,
		HarvestPower:     2,
		BuildPower:       5,
		RepairPower:      20,
		UpgradePower:     1,
		TowerRange:       20,
		TowerAttackPower: 150,
		TowerHealPower:   100,
		TowerRepairPower: 200,
		TowerActionCost:  10,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}
