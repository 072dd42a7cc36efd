package world

import (
	"log/slog"
	"math"
	"math/rand"
)

// Vec2 is a position in world space.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (a Vec2) DistanceTo(b Vec2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// World ties stations, ships and belts together and drives their updates.
// It is owned by the simulation loop and is not safe for concurrent use.
type World struct {
	stations []*Station
	ships    []*Ship
	belts    []*AsteroidBelt

	rng *rand.Rand
	log *slog.Logger
}

func NewWorld(seed int64, log *slog.Logger) *World {
	if log == nil {
		log = slog.Default()
	}
	return &World{
		rng: rand.New(rand.NewSource(seed)),
		log: log,
	}
}

func (w *World) AddStation(s *Station)   { w.stations = append(w.stations, s) }
func (w *World) AddShip(s *Ship)         { w.ships = append(w.ships, s) }
func (w *World) AddBelt(b *AsteroidBelt) { w.belts = append(w.belts, b) }
func (w *World) Stations() []*Station    { return w.stations }
func (w *World) Ships() []*Ship          { return w.ships }
func (w *World) Belts() []*AsteroidBelt  { return w.belts }

// Update advances every entity by dt seconds, resolves completed ship
// actions and hands out new tasks to idle ships.
func (w *World) Update(dt float64) {
	for _, st := range w.stations {
		st.Update(dt)
	}
	for _, sh := range w.ships {
		done := sh.Update(dt)
		switch done {
		case StateMining:
			w.resolveMining(sh)
		case StateDocking:
			w.resolveDocking(sh)
		}
		if sh.Idle() {
			w.assignTask(sh)
		}
	}
}

func (w *World) resolveMining(sh *Ship) {
	belt := w.nearestBelt(sh.Position)
	if belt == nil {
		return
	}
	mined := belt.Mine(miningYield)
	if mined > 0 {
		sh.AddCargo(belt.Ore, mined)
		w.log.Debug("ore mined", "ship", sh.ID, "belt", belt.ID, "ore", belt.Ore, "qty", int64(mined))
	}
}

func (w *World) resolveDocking(sh *Ship) {
	st := w.NearestStation(sh.Position)
	if st == nil {
		return
	}
	for ware, qty := range sh.UnloadAll() {
		stored := st.AddStock(ware, qty)
		if stored < qty {
			// storage full, the remainder is jettisoned
			w.log.Warn("cargo lost at full station", "ship", sh.ID, "station", st.ID(), "ware", ware, "lost", int64(qty-stored))
		}
	}
}

func (w *World) assignTask(sh *Ship) {
	switch sh.Type {
	case ShipMiner:
		if sh.CargoTotal() < shipCargoCap*8/10 {
			if belt := w.nearestOreBelt(sh.Position); belt != nil {
				sh.MoveTo(belt.Position, StateMining, 2+w.rng.Float64()*3)
				return
			}
		}
		if st := w.NearestStation(sh.Position); st != nil {
			sh.MoveTo(st.Position(), StateDocking, 1)
		}
	case ShipTrader:
		candidates := w.stations
		var factories []*Station
		for _, st := range w.stations {
			if st.Type() == StationFactory {
				factories = append(factories, st)
			}
		}
		if len(factories) > 0 {
			candidates = factories
		}
		if len(candidates) == 0 {
			return
		}
		st := candidates[w.rng.Intn(len(candidates))]
		sh.MoveTo(st.Position(), StateDocking, 1+w.rng.Float64()*2)
	}
}

// nearestOreBelt returns the closest belt that still has ore.
func (w *World) nearestOreBelt(pos Vec2) *AsteroidBelt {
	var best *AsteroidBelt
	bestDist := math.Inf(1)
	for _, b := range w.belts {
		if b.Quantity <= 0 {
			continue
		}
		if d := pos.DistanceTo(b.Position); d < bestDist {
			best, bestDist = b, d
		}
	}
	return best
}

func (w *World) nearestBelt(pos Vec2) *AsteroidBelt {
	var best *AsteroidBelt
	bestDist := math.Inf(1)
	for _, b := range w.belts {
		if d := pos.DistanceTo(b.Position); d < bestDist {
			best, bestDist = b, d
		}
	}
	return best
}

// NearestStation returns the station closest to pos, or nil if the world
// has none.
func (w *World) NearestStation(pos Vec2) *Station {
	var best *Station
	bestDist := math.Inf(1)
	for _, s := range w.stations {
		if d := pos.DistanceTo(s.Position()); d < bestDist {
			best, bestDist = s, d
		}
	}
	return best
}
