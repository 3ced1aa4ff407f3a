package model

// Part is one body segment of an agent. The multiset of parts determines what
// the agent can do and how much it can carry.
type Part string

const (
	PartMove  Part = "MOVE"
	PartWork  Part = "WORK"
	PartCarry Part = "CARRY"
)

// CarryPerPart is the resource capacity granted by one CARRY part.
const CarryPerPart = 50

type Agent struct {
	Name string
	Pos  Vec2i

	Body []Part

	Carry    int
	CarryCap int

	Hits    int
	HitsMax int

	// Spawning agents take no action and keep any held assignment untouched.
	Spawning bool
}

func NewAgent(name string, pos Vec2i, body []Part) *Agent {
	a := &Agent{
		Name:    name,
		Pos:     pos,
		Body:    append([]Part(nil), body...),
		Hits:    100 * len(body),
		HitsMax: 100 * len(body),
	}
	for _, p := range body {
		if p == PartCarry {
			a.CarryCap += CarryPerPart
		}
	}
	return a
}

func (a *Agent) HasPart(p Part) bool {
	for _, b := range a.Body {
		if b == p {
			return true
		}
	}
	return false
}

func (a *Agent) FreeCapacity() int {
	free := a.CarryCap - a.Carry
	if free < 0 {
		return 0
	}
	return free
}
