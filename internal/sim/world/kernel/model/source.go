package model

// Source is a regenerating resource node.
type Source struct {
	ID  string
	Pos Vec2i

	Amount int
	Cap    int
}

// Active reports whether the node currently has resource to harvest.
func (s *Source) Active() bool { return s.Amount > 0 }

// Resource is a pile of dropped resource on the ground.
type Resource struct {
	Pos    Vec2i
	Amount int
}

// Hostile is an enemy unit; towers engage these.
type Hostile struct {
	ID  string
	Pos Vec2i

	Hits    int
	HitsMax int
}
