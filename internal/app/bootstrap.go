// Package app wires configuration, logging, persistence and the seeded
// world into a runnable simulation.
package app

import (
	"fmt"
	"log/slog"

	"econ_go/internal/engine"
	"econ_go/internal/exchange"
	"econ_go/internal/infra"
	"econ_go/internal/journal"
	"econ_go/internal/policy"
	"econ_go/internal/telemetry"
	"econ_go/internal/world"
	"econ_go/pkg/quant"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config    *infra.Config
	Logger    *slog.Logger
	Journal   *journal.Journal
	Exchange  *exchange.Exchange
	World     *world.World
	Simulator *engine.Simulator
	Hub       *telemetry.Hub
}

func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads the config, opens the trade journal and builds the
// exchange, the seeded world and the simulation loop.
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("🚀 Bootstrapping Econ Go...")

	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	b.Logger = logger

	var sink exchange.EventSink
	if cfg.Journal.Enabled {
		j, err := journal.Open(cfg.Journal.Path, logger)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		b.Journal = j
		sink = j
		slog.Info("✅ Trade journal ready (WAL-mode)", "path", cfg.Journal.Path)
	}

	exchCfg, err := buildExchangeConfig(cfg)
	if err != nil {
		return err
	}
	clock := infra.SystemClock{}
	b.Exchange = exchange.New(exchCfg, clock, logger, sink)

	b.World = seedWorld(logger)
	b.Simulator = engine.New(cfg.SimStep(), cfg.Sim.TimeScale, b.World, b.Exchange, clock, logger)
	for _, st := range b.World.Stations() {
		b.Simulator.Bind(st, policy.NewStockKeeper())
	}

	if cfg.Telemetry.Enabled {
		b.Hub = telemetry.NewHub(logger)
		b.Simulator.SetPublisher(b.Hub)
	}

	slog.Info("✅ World seeded",
		"stations", len(b.World.Stations()),
		"ships", len(b.World.Ships()),
		"belts", len(b.World.Belts()),
	)
	return nil
}

// Close releases resources opened during Initialize.
func (b *Bootstrap) Close() {
	if b.Journal != nil {
		if err := b.Journal.Close(); err != nil {
			slog.Warn("closing journal", "error", err)
		}
	}
}

func buildExchangeConfig(cfg *infra.Config) (exchange.Config, error) {
	out := exchange.Config{
		BasePrices:     make(map[string]quant.PriceMicros, len(cfg.Market.BasePrices)),
		SweepInterval:  quant.DurationTS(cfg.SweepInterval()),
		OrderLifetime:  quant.DurationTS(cfg.OrderLifetime()),
		RetainInnocent: cfg.Market.RetainInnocent,
	}
	for ware, s := range cfg.Market.BasePrices {
		p, err := quant.ParsePriceMicros(s)
		if err != nil {
			return exchange.Config{}, fmt.Errorf("base price for %s: %w", ware, err)
		}
		out.BasePrices[ware] = p
	}
	p, err := quant.ParsePriceMicros(cfg.Market.DefaultBasePrice)
	if err != nil {
		return exchange.Config{}, fmt.Errorf("default base price: %w", err)
	}
	out.DefaultBasePrice = p
	return out, nil
}

// seedWorld builds the starting economy: two mines feeding a mill and a
// shipyard, a trading post, three ships and two ore belts.
func seedWorld(log *slog.Logger) *world.World {
	w := world.NewWorld(int64(infra.SystemClock{}.Now()), log)

	ironToSteel := &world.Recipe{
		ID:       "iron_to_steel",
		Inputs:   []world.ResourceItem{{Ware: "iron", Qty: 2}},
		Outputs:  []world.ResourceItem{{Ware: "steel", Qty: 1}},
		Duration: 3,
	}
	steelToShips := &world.Recipe{
		ID:       "steel_to_ships",
		Inputs:   []world.ResourceItem{{Ware: "steel", Qty: 5}},
		Outputs:  []world.ResourceItem{{Ware: "ships", Qty: 1}},
		Duration: 5,
	}

	mine := world.NewStation("mine1", "Iron Mine", world.StationMine, world.Vec2{X: 100, Y: 200}, log)
	mine.AddStock("iron", 50)
	w.AddStation(mine)

	mill := world.NewStation("mill1", "Steel Mill", world.StationFactory, world.Vec2{X: 400, Y: 300}, log)
	mill.AddRecipe(ironToSteel)
	mill.AddStock("iron", 20)
	w.AddStation(mill)

	shipyard := world.NewStation("shipyard1", "Shipyard", world.StationFactory, world.Vec2{X: 700, Y: 200}, log)
	shipyard.AddRecipe(steelToShips)
	shipyard.AddStock("steel", 10)
	w.AddStation(shipyard)

	post := world.NewStation("trade1", "Trading Post", world.StationTrade, world.Vec2{X: 400, Y: 500}, log)
	post.AddStock("iron", 30)
	post.AddStock("steel", 15)
	w.AddStation(post)

	w.AddShip(world.NewShip("trader1", world.ShipTrader, world.Vec2{X: 200, Y: 250}))
	w.AddShip(world.NewShip("miner1", world.ShipMiner, world.Vec2{X: 150, Y: 220}))
	w.AddShip(world.NewShip("trader2", world.ShipTrader, world.Vec2{X: 500, Y: 350}))

	w.AddBelt(&world.AsteroidBelt{ID: "belt1", Ore: "iron", Position: world.Vec2{X: 150, Y: 600}, Quantity: 500})
	w.AddBelt(&world.AsteroidBelt{ID: "belt2", Ore: "copper", Position: world.Vec2{X: 600, Y: 550}, Quantity: 300})

	return w
}
