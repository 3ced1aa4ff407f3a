package world

import (
	"log"

	"colonycraft/internal/persistence/snapshot"
	"colonycraft/internal/sim/tuning"
	modelpkg "colonycraft/internal/sim/world/kernel/model"
)

// ExportSnapshot captures the full world state. The assignment store is not
// part of the snapshot: after a restore the assigner repopulates it from
// world state on the first tick.
func (w *World) ExportSnapshot() snapshot.SnapshotV1 {
	snap := snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version:    1,
			ScenarioID: w.cfg.ScenarioID,
			Tick:       w.tick.Load(),
		},
		Width:      w.cfg.Width,
		Height:     w.cfg.Height,
		TickRateHz: w.cfg.TickRateHz,
		NextID:     w.nextID,
	}

	for _, a := range w.Agents() {
		body := make([]string, len(a.Body))
		for i, p := range a.Body {
			body[i] = string(p)
		}
		snap.Agents = append(snap.Agents, snapshot.AgentV1{
			Name:     a.Name,
			X:        a.Pos.X,
			Y:        a.Pos.Y,
			Body:     body,
			Carry:    a.Carry,
			CarryCap: a.CarryCap,
			Hits:     a.Hits,
			HitsMax:  a.HitsMax,
			Spawning: a.Spawning,
		})
	}
	for _, s := range w.Structures() {
		snap.Structures = append(snap.Structures, snapshot.StructureV1{
			ID:       s.ID,
			Kind:     string(s.Kind),
			X:        s.Pos.X,
			Y:        s.Pos.Y,
			Hits:     s.Hits,
			HitsMax:  s.HitsMax,
			Store:    s.Store,
			Cap:      s.Cap,
			Progress: s.Progress,
			Level:    s.Level,
		})
	}
	for _, s := range w.sortedSources() {
		snap.Sources = append(snap.Sources, snapshot.SourceV1{
			ID:     s.ID,
			X:      s.Pos.X,
			Y:      s.Pos.Y,
			Amount: s.Amount,
			Cap:    s.Cap,
		})
	}
	for _, c := range w.ConstructionSites() {
		snap.Sites = append(snap.Sites, snapshot.SiteV1{
			ID:            c.ID,
			Kind:          string(c.Kind),
			X:             c.Pos.X,
			Y:             c.Pos.Y,
			Progress:      c.Progress,
			ProgressTotal: c.ProgressTotal,
		})
	}
	for _, r := range w.DroppedResources() {
		snap.Dropped = append(snap.Dropped, snapshot.ResourceV1{
			X: r.Pos.X, Y: r.Pos.Y, Amount: r.Amount,
		})
	}
	for _, h := range w.sortedHostiles() {
		snap.Hostiles = append(snap.Hostiles, snapshot.HostileV1{
			ID:      h.ID,
			X:       h.Pos.X,
			Y:       h.Pos.Y,
			Hits:    h.Hits,
			HitsMax: h.HitsMax,
		})
	}
	if len(w.spawningUntil) > 0 {
		snap.SpawningUntil = make(map[string]uint64, len(w.spawningUntil))
		for name, until := range w.spawningUntil {
			snap.SpawningUntil[name] = until
		}
	}
	return snap
}

// FromSnapshot rebuilds a world from a restore point.
func FromSnapshot(snap snapshot.SnapshotV1, tune tuning.Tuning, logger *log.Logger) *World {
	w := New(Config{
		ScenarioID: snap.Header.ScenarioID,
		Width:      snap.Width,
		Height:     snap.Height,
		TickRateHz: snap.TickRateHz,
	}, tune, logger)
	w.tick.Store(snap.Header.Tick)
	w.nextID = snap.NextID

	for _, av := range snap.Agents {
		body := make([]modelpkg.Part, len(av.Body))
		for i, p := range av.Body {
			body[i] = modelpkg.Part(p)
		}
		w.AddAgent(&modelpkg.Agent{
			Name:     av.Name,
			Pos:      Vec2i{X: av.X, Y: av.Y},
			Body:     body,
			Carry:    av.Carry,
			CarryCap: av.CarryCap,
			Hits:     av.Hits,
			HitsMax:  av.HitsMax,
			Spawning: av.Spawning,
		})
	}
	for _, sv := range snap.Structures {
		w.AddStructure(&modelpkg.Structure{
			ID:       sv.ID,
			Kind:     modelpkg.StructureKind(sv.Kind),
			Pos:      Vec2i{X: sv.X, Y: sv.Y},
			Hits:     sv.Hits,
			HitsMax:  sv.HitsMax,
			Store:    sv.Store,
			Cap:      sv.Cap,
			Progress: sv.Progress,
			Level:    sv.Level,
		})
	}
	for _, sv := range snap.Sources {
		w.AddSource(&modelpkg.Source{
			ID:     sv.ID,
			Pos:    Vec2i{X: sv.X, Y: sv.Y},
			Amount: sv.Amount,
			Cap:    sv.Cap,
		})
	}
	for _, cv := range snap.Sites {
		w.AddSite(&modelpkg.ConstructionSite{
			ID:            cv.ID,
			Kind:          modelpkg.StructureKind(cv.Kind),
			Pos:           Vec2i{X: cv.X, Y: cv.Y},
			Progress:      cv.Progress,
			ProgressTotal: cv.ProgressTotal,
		})
	}
	for _, rv := range snap.Dropped {
		w.AddDropped(&modelpkg.Resource{Pos: Vec2i{X: rv.X, Y: rv.Y}, Amount: rv.Amount})
	}
	for _, hv := range snap.Hostiles {
		w.AddHostile(&modelpkg.Hostile{
			ID:      hv.ID,
			Pos:     Vec2i{X: hv.X, Y: hv.Y},
			Hits:    hv.Hits,
			HitsMax: hv.HitsMax,
		})
	}
	for name, until := range snap.SpawningUntil {
		w.spawningUntil[name] = until
	}
	return w
}
