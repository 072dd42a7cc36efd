package exchange

import (
	"econ_go/internal/domain"
	"econ_go/pkg/quant"
)

// Book holds the resting orders for one ware. Buy orders are kept sorted by
// price descending, sell orders ascending; insertion order breaks ties, which
// gives FIFO priority within a price level. Nothing here ever reorders
// untouched elements.
type Book struct {
	buy  []*domain.Order
	sell []*domain.Order
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{}
}

// Insert places the order on its side at the last position that keeps the
// sort invariant, so equal-priced orders rest behind earlier arrivals.
func (b *Book) Insert(o *domain.Order) {
	if o.Side == domain.SideBuy {
		idx := len(b.buy)
		for i, resting := range b.buy {
			if resting.PriceMicros < o.PriceMicros {
				idx = i
				break
			}
		}
		b.buy = insertAt(b.buy, idx, o)
		return
	}

	idx := len(b.sell)
	for i, resting := range b.sell {
		if resting.PriceMicros > o.PriceMicros {
			idx = i
			break
		}
	}
	b.sell = insertAt(b.sell, idx, o)
}

// PeekBest returns the highest-priority resting order on a side.
func (b *Book) PeekBest(side domain.Side) (*domain.Order, bool) {
	s := b.side(side)
	if len(s) == 0 {
		return nil, false
	}
	return s[0], true
}

// DropBest removes the highest-priority resting order on a side.
func (b *Book) DropBest(side domain.Side) {
	if side == domain.SideBuy {
		if len(b.buy) > 0 {
			b.buy = b.buy[1:]
		}
		return
	}
	if len(b.sell) > 0 {
		b.sell = b.sell[1:]
	}
}

// Find returns the resting order with the given id, searching both sides.
func (b *Book) Find(id string) (*domain.Order, bool) {
	for _, o := range b.buy {
		if o.ID == id {
			return o, true
		}
	}
	for _, o := range b.sell {
		if o.ID == id {
			return o, true
		}
	}
	return nil, false
}

// RemoveExpired removes and returns every order past its expiry, preserving
// the relative order of the remainder.
func (b *Book) RemoveExpired(now quant.TimeStamp) []*domain.Order {
	var expired []*domain.Order
	b.buy, expired = sweepSide(b.buy, now, expired)
	b.sell, expired = sweepSide(b.sell, now, expired)
	return expired
}

// TotalQty sums the resting quantity on a side.
func (b *Book) TotalQty(side domain.Side) quant.Qty {
	var total quant.Qty
	for _, o := range b.side(side) {
		total += o.Qty
	}
	return total
}

// Len returns the number of resting orders on a side.
func (b *Book) Len(side domain.Side) int {
	return len(b.side(side))
}

// Snapshot copies both sides, highest priority first.
func (b *Book) Snapshot(ware string) domain.BookSnapshot {
	snap := domain.BookSnapshot{
		Ware: ware,
		Buy:  make([]domain.Order, len(b.buy)),
		Sell: make([]domain.Order, len(b.sell)),
	}
	for i, o := range b.buy {
		snap.Buy[i] = *o
	}
	for i, o := range b.sell {
		snap.Sell[i] = *o
	}
	return snap
}

func (b *Book) side(side domain.Side) []*domain.Order {
	if side == domain.SideBuy {
		return b.buy
	}
	return b.sell
}

func insertAt(s []*domain.Order, i int, o *domain.Order) []*domain.Order {
	s = append(s, nil)
	copy(s[i+1:], s[i:])
	s[i] = o
	return s
}

func sweepSide(s []*domain.Order, now quant.TimeStamp, expired []*domain.Order) ([]*domain.Order, []*domain.Order) {
	kept := s[:0]
	for _, o := range s {
		if o.Expired(now) {
			expired = append(expired, o)
		} else {
			kept = append(kept, o)
		}
	}
	// Zero the tail so removed orders do not pin memory.
	for i := len(kept); i < len(s); i++ {
		s[i] = nil
	}
	return kept, expired
}
