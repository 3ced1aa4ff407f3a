package runtime

import modelpkg "colonycraft/internal/sim/world/kernel/model"

// Body composition is a lookup table keyed by the resource budget available
// when the spawn fires. Gatherers are move/work only and park on a source;
// haulers carry.
type bodyTier struct {
	minBudget int
	body      []modelpkg.Part
}

var gathererTiers = []bodyTier{
	{750, parts("MMMMMWWWWW")},
	{550, parts("MMMWWWW")},
	{300, parts("MMWW")},
}

var haulerTiers = []bodyTier{
	{800, parts("MMMMCCCCWWWW")},
	{550, parts("MMMCCCCWW")},
	{300, parts("MMCCW")},
}

func parts(spec string) []modelpkg.Part {
	out := make([]modelpkg.Part, 0, len(spec))
	for _, c := range spec {
		switch c {
		case 'M':
			out = append(out, modelpkg.PartMove)
		case 'C':
			out = append(out, modelpkg.PartCarry)
		case 'W':
			out = append(out, modelpkg.PartWork)
		}
	}
	return out
}

func bodyFor(tiers []bodyTier, budget int) ([]modelpkg.Part, bool) {
	for _, t := range tiers {
		if budget >= t.minBudget {
			return t.body, true
		}
	}
	return nil, false
}

// GathererBody returns the richest gatherer body the budget affords.
func GathererBody(budget int) ([]modelpkg.Part, bool) { return bodyFor(gathererTiers, budget) }

// HaulerBody returns the richest hauler body the budget affords.
func HaulerBody(budget int) ([]modelpkg.Part, bool) { return bodyFor(haulerTiers, budget) }
