package domain

import (
	"econ_go/pkg/quant"
	"econ_go/pkg/safe"
)

// SettlementLedger is the capability a settlement party (a station in the
// running simulation) exposes to the exchange. The exchange holds a
// non-owning reference, registered by owner id, and touches it only inside
// its own critical section: every settlement is a single
// read-check-then-write step.
type SettlementLedger interface {
	OwnerID() string

	// StockLevel returns the resting stock of a ware.
	StockLevel(ware string) quant.Qty

	// CreditBalance returns the current credit balance in micros.
	CreditBalance() quant.PriceMicros

	// AdjustStock applies a stock delta (negative to debit).
	AdjustStock(ware string, delta quant.Qty)

	// AdjustCredits applies a credit delta in micros (negative to debit).
	AdjustCredits(delta quant.PriceMicros)

	// OnTradeExecuted notifies the ledger of a settled trade it was party
	// to, tagged with its side of the trade.
	OnTradeExecuted(exec TradeExecution, side Side)

	// OnOrderExpired notifies the ledger that one of its resting orders
	// was removed by the expiry sweep. Distinct from a trade notification.
	OnOrderExpired(order Order)
}

// TradeExecution describes a single settled match.
type TradeExecution struct {
	ID          string
	BuyOrderID  string
	SellOrderID string
	Ware        string
	Qty         quant.Qty
	PriceMicros quant.PriceMicros
	BuyerID     string
	SellerID    string
	Time        quant.TimeStamp
}

// TotalMicros is the credit value of the execution (price × quantity).
func (e TradeExecution) TotalMicros() quant.PriceMicros {
	return quant.PriceMicros(safe.Mul(int64(e.PriceMicros), int64(e.Qty)))
}

// TradeRecord is an immutable append-only log entry for an executed trade.
type TradeRecord struct {
	ID          string            `json:"id"`
	Time        quant.TimeStamp   `json:"time"`
	From        string            `json:"from"` // seller owner id
	To          string            `json:"to"`   // buyer owner id
	Ware        string            `json:"ware"`
	Qty         quant.Qty         `json:"qty"`
	PriceMicros quant.PriceMicros `json:"price"`
}
