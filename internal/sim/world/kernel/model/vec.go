package model

type Vec2i struct{ X, Y int }

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Chebyshev is the board distance: diagonal steps count as one.
func Chebyshev(a, b Vec2i) int {
	dx := absInt(a.X - b.X)
	dy := absInt(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// NearTo reports adjacency (distance <= 1, including the same tile).
func (v Vec2i) NearTo(o Vec2i) bool { return Chebyshev(v, o) <= 1 }

func (v Vec2i) InRange(o Vec2i, r int) bool { return Chebyshev(v, o) <= r }

func signInt(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// StepToward returns the tile one step closer to target along both axes.
func StepToward(from, to Vec2i) Vec2i {
	return Vec2i{X: from.X + signInt(to.X-from.X), Y: from.Y + signInt(to.Y-from.Y)}
}

// Neighbors8 lists the eight surrounding tiles in a fixed scan order
// (row-major, skipping the center). Callers depend on the order being stable.
func (v Vec2i) Neighbors8() []Vec2i {
	out := make([]Vec2i, 0, 8)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			out = append(out, Vec2i{X: v.X + dx, Y: v.Y + dy})
		}
	}
	return out
}
