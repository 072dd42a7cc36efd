package world

import (
	"log/slog"
	"sync"

	"econ_go/internal/domain"
	"econ_go/pkg/quant"
	"econ_go/pkg/safe"
)

type StationType string

const (
	StationFactory StationType = "FACTORY"
	StationMine    StationType = "MINE"
	StationTrade   StationType = "TRADE"
)

const (
	startingCredits = 1000 * quant.PriceScale
	storageCapacity = quant.Qty(1000)
)

// Station owns stock and credits and settles trades against them. It
// satisfies domain.SettlementLedger so the exchange can debit and credit
// it atomically during matching.
type Station struct {
	mu sync.Mutex

	id       string
	name     string
	typ      StationType
	position Vec2

	stock    map[string]quant.Qty
	credits  quant.PriceMicros
	capacity quant.Qty

	recipes []*Recipe
	queue   []*Recipe
	timer   float64

	// live resting orders by id, so policies do not stack duplicates
	liveOrders map[string]liveOrder

	log *slog.Logger
}

type liveOrder struct {
	ware string
	qty  quant.Qty
}

func NewStation(id, name string, typ StationType, pos Vec2, log *slog.Logger) *Station {
	if log == nil {
		log = slog.Default()
	}
	return &Station{
		id:         id,
		name:       name,
		typ:        typ,
		position:   pos,
		stock:      make(map[string]quant.Qty),
		credits:    startingCredits,
		capacity:   storageCapacity,
		liveOrders: make(map[string]liveOrder),
		log:        log,
	}
}

func (s *Station) ID() string         { return s.id }
func (s *Station) Name() string       { return s.name }
func (s *Station) Type() StationType  { return s.typ }
func (s *Station) Position() Vec2     { return s.position }
func (s *Station) Recipes() []*Recipe { return s.recipes }

func (s *Station) AddRecipe(r *Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes = append(s.recipes, r)
}

// AddStock deposits wares, clamped to the remaining storage capacity.
// It returns the quantity actually stored.
func (s *Station) AddStock(ware string, qty quant.Qty) quant.Qty {
	s.mu.Lock()
	defer s.mu.Unlock()
	free := s.freeCapacityLocked()
	if qty > free {
		qty = free
	}
	if qty <= 0 {
		return 0
	}
	s.stock[ware] += qty
	return qty
}

func (s *Station) FreeCapacity() quant.Qty {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.freeCapacityLocked()
}

func (s *Station) freeCapacityLocked() quant.Qty {
	var total quant.Qty
	for _, q := range s.stock {
		total += q
	}
	if total >= s.capacity {
		return 0
	}
	return s.capacity - total
}

// Update advances production by dt seconds. A station with recipes starts
// the first producible one, holds it in the queue for its duration, then
// releases the outputs into stock.
func (s *Station) Update(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.recipes) > 0 && s.timer <= 0 {
		r := s.recipes[0]
		if r.CanProduce(s.stock) {
			for _, in := range r.Inputs {
				s.stock[in.Ware] -= in.Qty
			}
			s.queue = append(s.queue, r)
			s.timer = r.Duration
		}
	}

	if s.timer > 0 {
		s.timer -= dt
		if s.timer <= 0 && len(s.queue) > 0 {
			r := s.queue[0]
			s.queue = s.queue[1:]
			for _, out := range r.Outputs {
				s.stock[out.Ware] += out.Qty
			}
			s.log.Debug("production complete", "station", s.id, "recipe", r.ID)
		}
	}
}

// TrackOrder records a resting order so HasOpenOrder can gate resubmission.
// Call it with the id the exchange assigned on submission.
func (s *Station) TrackOrder(id, ware string, qty quant.Qty) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveOrders[id] = liveOrder{ware: ware, qty: qty}
}

func (s *Station) HasOpenOrder(ware string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.liveOrders {
		if o.ware == ware {
			return true
		}
	}
	return false
}

// SettlementLedger implementation. The exchange holds its own lock while
// calling these, so each method only guards the station's own state.

func (s *Station) OwnerID() string { return s.id }

func (s *Station) StockLevel(ware string) quant.Qty {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stock[ware]
}

func (s *Station) CreditBalance() quant.PriceMicros {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credits
}

func (s *Station) AdjustStock(ware string, delta quant.Qty) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stock[ware] += delta
}

func (s *Station) AdjustCredits(delta quant.PriceMicros) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credits = quant.PriceMicros(safe.Add(int64(s.credits), int64(delta)))
}

func (s *Station) OnTradeExecuted(exec domain.TradeExecution, side domain.Side) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := exec.BuyOrderID
	if side == domain.SideSell {
		id = exec.SellOrderID
	}
	if o, ok := s.liveOrders[id]; ok {
		o.qty -= exec.Qty
		if o.qty <= 0 {
			delete(s.liveOrders, id)
		} else {
			s.liveOrders[id] = o
		}
	}
}

func (s *Station) OnOrderExpired(order domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.liveOrders, order.ID)
	s.log.Debug("order expired", "station", s.id, "order", order.ID, "ware", order.Ware)
}
