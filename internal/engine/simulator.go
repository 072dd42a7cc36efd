// Package engine runs the fixed-step simulation loop that drives the
// world, the station policies and the exchange.
package engine

import (
	"context"
	"log/slog"
	"time"

	"econ_go/internal/exchange"
	"econ_go/internal/infra"
	"econ_go/internal/policy"
	"econ_go/internal/telemetry"
	"econ_go/internal/world"
	"econ_go/pkg/quant"
)

// snapshotEvery is how many steps pass between telemetry publications.
const snapshotEvery = 10

// Binding ties a station to the policy trading on its behalf.
type Binding struct {
	Station *world.Station
	Policy  policy.Policy
}

// Publisher receives periodic market snapshots. *telemetry.Hub satisfies
// it; a nil publisher disables telemetry.
type Publisher interface {
	Broadcast(snap telemetry.Snapshot)
}

type Simulator struct {
	step      time.Duration
	timeScale float64

	world    *world.World
	exch     *exchange.Exchange
	clock    infra.Clock
	bindings []Binding
	pub      Publisher
	log      *slog.Logger

	steps uint64
}

func New(step time.Duration, timeScale float64, w *world.World, exch *exchange.Exchange, clock infra.Clock, log *slog.Logger) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	if timeScale <= 0 {
		timeScale = 1
	}
	return &Simulator{
		step:      step,
		timeScale: timeScale,
		world:     w,
		exch:      exch,
		clock:     clock,
		log:       log,
	}
}

// Bind registers a station with the exchange and attaches a trading
// policy to it.
func (s *Simulator) Bind(st *world.Station, p policy.Policy) {
	s.exch.RegisterLedger(st)
	s.bindings = append(s.bindings, Binding{Station: st, Policy: p})
}

// SetPublisher attaches a telemetry sink for periodic snapshots.
func (s *Simulator) SetPublisher(pub Publisher) { s.pub = pub }

// Run steps the simulation on a fixed cadence until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	s.log.Info("simulation started", "step", s.step, "time_scale", s.timeScale)
	ticker := time.NewTicker(s.step)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("simulation stopped", "steps", s.steps)
			return ctx.Err()
		case <-ticker.C:
			s.Step()
		}
	}
}

// Step advances the world one tick, lets every policy trade, and sweeps
// expired orders. It is exported so tests can drive the loop directly.
func (s *Simulator) Step() {
	dt := s.step.Seconds() * s.timeScale
	s.world.Update(dt)

	for _, b := range s.bindings {
		for _, o := range b.Policy.Evaluate(b.Station, s.exch) {
			id, err := s.exch.SubmitOrder(o)
			if err != nil {
				s.log.Warn("order rejected", "station", b.Station.ID(), "ware", o.Ware, "error", err)
				continue
			}
			// orders can fill during submission; only track what still rests
			if rest, open := s.exch.OpenOrder(o.Ware, id); open {
				b.Station.TrackOrder(id, o.Ware, rest)
			}
		}
	}

	s.exch.Tick(s.clock.Now())

	s.steps++
	if s.pub != nil && s.steps%snapshotEvery == 0 {
		s.publishSnapshot()
	}
}

func (s *Simulator) Steps() uint64 { return s.steps }

func (s *Simulator) publishSnapshot() {
	snap := telemetry.Snapshot{
		Type:   "market",
		SimDay: int64(s.clock.Now() / quant.Day),
	}
	for _, ware := range s.exch.ListWares() {
		if stats, ok := s.exch.MarketStats(ware); ok {
			snap.Stats = append(snap.Stats, stats)
		}
		snap.Trades = append(snap.Trades, s.exch.RecentTrades(ware, 5)...)
	}
	s.pub.Broadcast(snap)
}
