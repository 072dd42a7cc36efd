package domain

import (
	"econ_go/pkg/quant"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Order is a single resting buy or sell intent for a ware.
// The exchange owns id assignment; any id supplied by the submitter is
// replaced at acceptance. Qty only ever decreases while resting; the price
// is fixed at submission.
type Order struct {
	ID          string
	OwnerID     string
	Ware        string
	Side        Side
	Qty         quant.Qty
	PriceMicros quant.PriceMicros
	CreatedAt   quant.TimeStamp
	ExpiresAt   quant.TimeStamp
}

// Validate checks the submitter-controlled fields. The exchange rejects
// anything invalid before it touches a book.
func (o *Order) Validate() error {
	if o.Qty <= 0 {
		return ErrInvalidOrder
	}
	if o.PriceMicros < 0 {
		return ErrInvalidOrder
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return ErrInvalidOrder
	}
	if o.Ware == "" {
		return ErrInvalidOrder
	}
	return nil
}

// Expired reports whether the order's lifetime has elapsed.
func (o *Order) Expired(now quant.TimeStamp) bool {
	return now > o.ExpiresAt
}

// TimeToExpiry returns the remaining lifetime, floored at zero.
func (o *Order) TimeToExpiry(now quant.TimeStamp) quant.TimeStamp {
	if o.ExpiresAt <= now {
		return 0
	}
	return o.ExpiresAt - now
}
