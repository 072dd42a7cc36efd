// Package policy decides what orders a station wants on the market.
// Policies only propose orders; submission and settlement stay with the
// exchange.
package policy

import (
	"econ_go/internal/domain"
	"econ_go/internal/world"
	"econ_go/pkg/quant"
)

// MarketView is the read-only slice of the exchange a policy consults.
type MarketView interface {
	CurrentPrice(ware string) quant.PriceMicros
	SupplyDemandRatio(ware string) float64
}

// Policy produces the orders a station should submit this step.
type Policy interface {
	Name() string
	Evaluate(st *world.Station, market MarketView) []domain.Order
}
