package world

import "econ_go/pkg/quant"

// AsteroidBelt is a finite ore deposit that miners draw from.
type AsteroidBelt struct {
	ID       string
	Ore      string
	Position Vec2
	Quantity quant.Qty
}

// Mine removes up to amount ore from the belt and returns what was
// actually extracted. A depleted belt yields zero.
func (b *AsteroidBelt) Mine(amount quant.Qty) quant.Qty {
	if amount <= 0 || b.Quantity <= 0 {
		return 0
	}
	if amount > b.Quantity {
		amount = b.Quantity
	}
	b.Quantity -= amount
	return amount
}
