package model

// StructureKind is a closed set. Every dispatch site switches over the full
// set so that adding a kind forces a review of each switch.
type StructureKind string

const (
	KindSpawn      StructureKind = "SPAWN"
	KindExtension  StructureKind = "EXTENSION"
	KindTower      StructureKind = "TOWER"
	KindContainer  StructureKind = "CONTAINER"
	KindRoad       StructureKind = "ROAD"
	KindWall       StructureKind = "WALL"
	KindRampart    StructureKind = "RAMPART"
	KindController StructureKind = "CONTROLLER"
)

// AllStructureKinds is the authoritative enumeration, used by validation.
var AllStructureKinds = []StructureKind{
	KindSpawn, KindExtension, KindTower, KindContainer,
	KindRoad, KindWall, KindRampart, KindController,
}

type Structure struct {
	ID   string
	Kind StructureKind
	Pos  Vec2i

	Hits    int
	HitsMax int

	// Store/Cap apply to kinds that hold resource (spawn, extension, tower,
	// container). Zero Cap means the kind holds nothing.
	Store int
	Cap   int

	// Controller progress (KindController only).
	Progress int
	Level    int
}

func (s *Structure) FreeCapacity() int {
	free := s.Cap - s.Store
	if free < 0 {
		return 0
	}
	return free
}

func (s *Structure) Damaged() bool { return s.Hits < s.HitsMax }

// Transferable reports whether agents may deliver resource into this kind.
func (s *Structure) Transferable() bool {
	switch s.Kind {
	case KindSpawn, KindExtension, KindTower, KindContainer:
		return true
	case KindRoad, KindWall, KindRampart, KindController:
		return false
	}
	return false
}

// Repairable reports whether the kind has hit points an agent can restore.
func (s *Structure) Repairable() bool {
	switch s.Kind {
	case KindSpawn, KindExtension, KindTower, KindContainer, KindRoad, KindWall, KindRampart:
		return true
	case KindController:
		return false
	}
	return false
}

// ConstructionSite is a structure being built. Remaining work is
// ProgressTotal - Progress; at zero remaining the site becomes a Structure.
type ConstructionSite struct {
	ID   string
	Kind StructureKind
	Pos  Vec2i

	Progress      int
	ProgressTotal int
}

func (c *ConstructionSite) Remaining() int {
	rem := c.ProgressTotal - c.Progress
	if rem < 0 {
		return 0
	}
	return rem
}
