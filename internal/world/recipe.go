package world

import "econ_go/pkg/quant"

// ResourceItem is a ware/quantity pair in a recipe.
type ResourceItem struct {
	Ware string
	Qty  quant.Qty
}

// Recipe converts input wares into output wares over a fixed duration.
type Recipe struct {
	ID        string
	Inputs    []ResourceItem
	Outputs   []ResourceItem
	Duration  float64 // seconds of production time
	EnergyReq float64
}

// CanProduce reports whether the given stock covers every input.
func (r *Recipe) CanProduce(stock map[string]quant.Qty) bool {
	for _, in := range r.Inputs {
		if stock[in.Ware] < in.Qty {
			return false
		}
	}
	return true
}
