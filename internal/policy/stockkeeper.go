package policy

import (
	"econ_go/internal/domain"
	"econ_go/internal/world"
	"econ_go/pkg/quant"
	"econ_go/pkg/safe"
)

// StockKeeper keeps a station's recipe inputs topped up and sells its
// surplus outputs. It bids a little over market to fill quickly and asks
// a little under market to move stock.
type StockKeeper struct {
	// LowWater is how many production batches of each input to hold.
	LowWater quant.Qty
	// Reserve is how much of each output to keep back from sale.
	Reserve quant.Qty
}

// NewStockKeeper returns a policy with the default thresholds.
func NewStockKeeper() *StockKeeper {
	return &StockKeeper{LowWater: 4, Reserve: 2}
}

func (p *StockKeeper) Name() string { return "stockkeeper" }

func (p *StockKeeper) Evaluate(st *world.Station, market MarketView) []domain.Order {
	var orders []domain.Order

	outputs := make(map[string]bool)
	for _, r := range st.Recipes() {
		for _, out := range r.Outputs {
			outputs[out.Ware] = true
		}
	}

	// restock inputs
	for _, r := range st.Recipes() {
		for _, in := range r.Inputs {
			target := safe.Mul(int64(in.Qty), int64(p.LowWater))
			have := int64(st.StockLevel(in.Ware))
			if have >= target || st.HasOpenOrder(in.Ware) {
				continue
			}
			need := quant.Qty(target - have)
			if free := st.FreeCapacity(); need > free {
				need = free
			}
			if need <= 0 {
				continue
			}
			price := markPrice(market.CurrentPrice(in.Ware), 105)
			if cost := safe.Mul(int64(price), int64(need)); cost > int64(st.CreditBalance()) {
				continue
			}
			orders = append(orders, domain.Order{
				OwnerID:     st.ID(),
				Ware:        in.Ware,
				Side:        domain.SideBuy,
				Qty:         need,
				PriceMicros: price,
			})
		}
	}

	// sell surplus outputs, and everything a mine digs up
	sellable := func(ware string) quant.Qty {
		surplus := st.StockLevel(ware) - p.Reserve
		if surplus <= 0 || st.HasOpenOrder(ware) {
			return 0
		}
		return surplus
	}
	for ware := range outputs {
		if qty := sellable(ware); qty > 0 {
			orders = append(orders, domain.Order{
				OwnerID:     st.ID(),
				Ware:        ware,
				Side:        domain.SideSell,
				Qty:         qty,
				PriceMicros: markPrice(market.CurrentPrice(ware), 95),
			})
		}
	}
	if st.Type() == world.StationMine {
		for _, ware := range []string{"iron", "copper"} {
			if outputs[ware] {
				continue
			}
			if qty := sellable(ware); qty > 0 {
				orders = append(orders, domain.Order{
					OwnerID:     st.ID(),
					Ware:        ware,
					Side:        domain.SideSell,
					Qty:         qty,
					PriceMicros: markPrice(market.CurrentPrice(ware), 95),
				})
			}
		}
	}

	return orders
}

func markPrice(p quant.PriceMicros, pct int64) quant.PriceMicros {
	return quant.PriceMicros(safe.MulDiv(int64(p), pct, 100))
}
