package domain

import (
	"econ_go/pkg/quant"
)

// MarketStats is the derived per-ware read model.
// AveragePriceMicros, VolumeSum and VolatilityMicros are set once at ware
// registration and never recomputed afterwards; they are kept only because
// the original stats schema carries them. Do not read them as live values.
type MarketStats struct {
	Ware               string            `json:"ware"`
	CurrentPriceMicros quant.PriceMicros `json:"current_price"`
	AveragePriceMicros quant.PriceMicros `json:"average_price"`
	VolumeSum          quant.Qty         `json:"volume"`
	SpreadMicros       quant.PriceMicros `json:"spread"`
	VolatilityMicros   int64             `json:"volatility"`
	SupplyLevel        quant.Qty         `json:"supply_level"`
	DemandLevel        quant.Qty         `json:"demand_level"`
	LastUpdate         quant.TimeStamp   `json:"last_update"`
}

// PricePoint is one executed-trade sample in a ware's price history.
type PricePoint struct {
	Time        quant.TimeStamp   `json:"time"`
	PriceMicros quant.PriceMicros `json:"price"`
	Volume      quant.Qty         `json:"volume"`
}

// Quote is the best resting price on each side of a book.
// HasBid/HasAsk distinguish "no resting order" from a zero price.
type Quote struct {
	Bid    quant.PriceMicros `json:"bid"`
	HasBid bool              `json:"has_bid"`
	Ask    quant.PriceMicros `json:"ask"`
	HasAsk bool              `json:"has_ask"`
}

// BookSnapshot is a copy of a ware's resting orders, highest priority first
// on each side. Mutating it does not affect the live book.
type BookSnapshot struct {
	Ware string  `json:"ware"`
	Buy  []Order `json:"buy"`
	Sell []Order `json:"sell"`
}
