package exchange

import (
	"econ_go/internal/domain"
	"econ_go/pkg/quant"
)

const (
	// historyCap bounds the per-ware price series.
	historyCap = 100
	// tradeLogCap bounds the exchange-wide trade log.
	tradeLogCap = 100
)

// priceHistory is the bounded per-ware series of executed-trade samples.
type priceHistory struct {
	points       []domain.PricePoint
	currentPrice quant.PriceMicros
	volume24h    quant.Qty
}

func newPriceHistory(basePrice quant.PriceMicros) *priceHistory {
	return &priceHistory{currentPrice: basePrice}
}

// record appends a trade sample, evicts the oldest past capacity, moves the
// current price, and recomputes the trailing 24h volume.
func (h *priceHistory) record(now quant.TimeStamp, price quant.PriceMicros, volume quant.Qty) {
	h.points = append(h.points, domain.PricePoint{
		Time:        now,
		PriceMicros: price,
		Volume:      volume,
	})
	if len(h.points) > historyCap {
		h.points = h.points[1:]
	}

	h.currentPrice = price

	dayAgo := now - quant.Day
	var vol quant.Qty
	for _, p := range h.points {
		if p.Time > dayAgo {
			vol += p.Volume
		}
	}
	h.volume24h = vol
}

// snapshotPoints copies the series, oldest first.
func (h *priceHistory) snapshotPoints() []domain.PricePoint {
	out := make([]domain.PricePoint, len(h.points))
	copy(out, h.points)
	return out
}
