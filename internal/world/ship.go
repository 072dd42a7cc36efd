package world

import (
	"math"

	"econ_go/pkg/quant"
)

type ShipType string

const (
	ShipTrader ShipType = "TRADER"
	ShipMiner  ShipType = "MINER"
)

type ShipState string

const (
	StateIdle    ShipState = "idle"
	StateMoving  ShipState = "moving"
	StateMining  ShipState = "mining"
	StateDocking ShipState = "docking"
)

const (
	shipSpeed        = 50.0 // units per second
	arrivalThreshold = 5.0
	shipCargoCap     = quant.Qty(100)
	miningYield      = quant.Qty(10)
)

// Ship flies between belts and stations. Movement and timed actions run
// here; the World resolves what a completed action means.
type Ship struct {
	ID       string
	Type     ShipType
	Position Vec2

	state       ShipState
	destination Vec2
	nextState   ShipState // action to start on arrival
	actionTimer float64

	cargo map[string]quant.Qty
}

func NewShip(id string, typ ShipType, pos Vec2) *Ship {
	return &Ship{
		ID:       id,
		Type:     typ,
		Position: pos,
		state:    StateIdle,
		cargo:    make(map[string]quant.Qty),
	}
}

func (s *Ship) State() ShipState { return s.state }
func (s *Ship) Idle() bool       { return s.state == StateIdle }

func (s *Ship) Cargo(ware string) quant.Qty { return s.cargo[ware] }

func (s *Ship) CargoTotal() quant.Qty {
	var total quant.Qty
	for _, q := range s.cargo {
		total += q
	}
	return total
}

func (s *Ship) AddCargo(ware string, qty quant.Qty) {
	free := shipCargoCap - s.CargoTotal()
	if qty > free {
		qty = free
	}
	if qty > 0 {
		s.cargo[ware] += qty
	}
}

// UnloadAll empties the cargo hold and returns its former contents.
func (s *Ship) UnloadAll() map[string]quant.Qty {
	out := s.cargo
	s.cargo = make(map[string]quant.Qty)
	return out
}

// MoveTo sends the ship toward dest and queues action for arrival.
func (s *Ship) MoveTo(dest Vec2, action ShipState, duration float64) {
	s.destination = dest
	s.nextState = action
	s.actionTimer = duration
	s.state = StateMoving
}

// Update advances the ship by dt seconds and returns the action that
// completed this step, or StateIdle if none did.
func (s *Ship) Update(dt float64) ShipState {
	switch s.state {
	case StateMoving:
		dx := s.destination.X - s.Position.X
		dy := s.destination.Y - s.Position.Y
		dist := math.Hypot(dx, dy)
		if dist <= arrivalThreshold {
			s.Position = s.destination
			s.state = s.nextState
			return StateIdle
		}
		step := shipSpeed * dt
		if step > dist {
			step = dist
		}
		s.Position.X += dx / dist * step
		s.Position.Y += dy / dist * step
	case StateMining, StateDocking:
		s.actionTimer -= dt
		if s.actionTimer <= 0 {
			done := s.state
			s.state = StateIdle
			return done
		}
	}
	return StateIdle
}
