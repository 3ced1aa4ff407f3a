package tasks

import (
	"sort"

	"colonycraft/internal/sim/world/kernel/model"
)

type Kind string

const (
	KindConstruct Kind = "CONSTRUCT"
	KindPickup    Kind = "PICKUP"
	KindRepair    Kind = "REPAIR"
	KindDeposit   Kind = "DEPOSIT"
	KindHarvest   Kind = "HARVEST"
	KindUpgrade   Kind = "UPGRADE"
	KindWithdraw  Kind = "WITHDRAW"
)

// Assignment is an agent's persisted lock on a target. Position-keyed kinds
// re-derive the concrete object by spatial lookup each tick; id-keyed kinds
// re-resolve a fresh handle by id each tick. Handles themselves are never
// stored: world objects are stale beyond the tick they were fetched in.
type Assignment struct {
	Kind Kind

	// CONSTRUCT / PICKUP / REPAIR / DEPOSIT.
	Pos model.Vec2i

	// HARVEST (source id), UPGRADE (controller id), WITHDRAW (container id).
	TargetID string
}

func Construct(pos model.Vec2i) Assignment { return Assignment{Kind: KindConstruct, Pos: pos} }
func Pickup(pos model.Vec2i) Assignment    { return Assignment{Kind: KindPickup, Pos: pos} }
func Repair(pos model.Vec2i) Assignment    { return Assignment{Kind: KindRepair, Pos: pos} }
func Deposit(pos model.Vec2i) Assignment   { return Assignment{Kind: KindDeposit, Pos: pos} }
func Harvest(sourceID string) Assignment   { return Assignment{Kind: KindHarvest, TargetID: sourceID} }
func Upgrade(controllerID string) Assignment {
	return Assignment{Kind: KindUpgrade, TargetID: controllerID}
}
func Withdraw(containerID string) Assignment {
	return Assignment{Kind: KindWithdraw, TargetID: containerID}
}

// Store maps agent name -> current assignment. It lives for the process
// lifetime only and is owned by the per-tick driver, which passes it into the
// executor and assigner systems explicitly.
type Store struct {
	m map[string]Assignment
}

func NewStore() *Store {
	return &Store{m: map[string]Assignment{}}
}

func (s *Store) Get(name string) (Assignment, bool) {
	a, ok := s.m[name]
	return a, ok
}

func (s *Store) Set(name string, a Assignment) { s.m[name] = a }

func (s *Store) Remove(name string) { delete(s.m, name) }

func (s *Store) Has(name string) bool {
	_, ok := s.m[name]
	return ok
}

func (s *Store) Len() int { return len(s.m) }

// Names returns holder names sorted for deterministic iteration.
func (s *Store) Names() []string {
	out := make([]string, 0, len(s.m))
	for n := range s.m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// AnyOfKind reports whether any agent holds an assignment of the given kind.
func (s *Store) AnyOfKind(k Kind) bool {
	for _, a := range s.m {
		if a.Kind == k {
			return true
		}
	}
	return false
}

// AnyLiveOfKind is AnyOfKind qualified by holder liveness.
func (s *Store) AnyLiveOfKind(k Kind, live func(name string) bool) bool {
	for n, a := range s.m {
		if a.Kind == k && live(n) {
			return true
		}
	}
	return false
}

// CountLiveOfKind counts live holders of a kind.
func (s *Store) CountLiveOfKind(k Kind, live func(name string) bool) int {
	n := 0
	for holder, a := range s.m {
		if a.Kind == k && live(holder) {
			n++
		}
	}
	return n
}

// SourceClaimed reports whether a live agent already harvests the given node.
func (s *Store) SourceClaimed(sourceID string, live func(name string) bool) bool {
	for n, a := range s.m {
		if a.Kind == KindHarvest && a.TargetID == sourceID && live(n) {
			return true
		}
	}
	return false
}

// RemoveDead drops entries whose holder is no longer live and returns the
// removed names sorted.
func (s *Store) RemoveDead(live func(name string) bool) []string {
	var removed []string
	for n := range s.m {
		if !live(n) {
			removed = append(removed, n)
		}
	}
	for _, n := range removed {
		delete(s.m, n)
	}
	sort.Strings(removed)
	return removed
}

// CountByKind summarizes holdings for digests.
func (s *Store) CountByKind() map[string]int {
	out := map[string]int{}
	for _, a := range s.m {
		out[string(a.Kind)]++
	}
	return out
}
