package exchange

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"econ_go/internal/domain"
	"econ_go/internal/infra"
	"econ_go/pkg/quant"
	"econ_go/pkg/safe"
)

// Sellers never settle below this fraction of the reference market price,
// which keeps a stale low-balling buy order from clearing at an unfair print.
const fairFloorNum, fairFloorDen = 4, 5 // 80%

// Config holds the exchange's tunables, already converted to internal units.
type Config struct {
	// BasePrices seeds the reference price per ware; wares not listed fall
	// back to DefaultBasePrice.
	BasePrices       map[string]quant.PriceMicros
	DefaultBasePrice quant.PriceMicros

	// SweepInterval is the minimum gap between expiry sweeps.
	SweepInterval quant.TimeStamp

	// OrderLifetime is the resting lifetime assigned to orders submitted
	// without an explicit expiry.
	OrderLifetime quant.TimeStamp

	// RetainInnocent changes the failed-settlement policy: instead of
	// discarding both orders of a failed match (the historical behavior),
	// only the order whose ledger check failed is removed.
	RetainInnocent bool
}

// EventSink receives exchange lifecycle events (executed trades, expired
// orders). Implementations must not call back into the exchange.
type EventSink interface {
	TradeExecuted(rec domain.TradeRecord)
	OrderExpired(order domain.Order)
}

// Exchange clears buy and sell interest per ware through a continuous double
// auction: matching runs to fixed point on every accepted order, each match
// settles all-or-nothing against the two owning ledgers, and a periodic tick
// sweeps expired resting orders.
//
// A single mutex serializes every mutating operation; submission, matching,
// settlement and the stats update for a ware complete before any other
// operation is observed.
type Exchange struct {
	mu sync.Mutex

	cfg   Config
	clock infra.Clock
	log   *slog.Logger
	sink  EventSink

	books   map[string]*Book
	history map[string]*priceHistory
	stats   map[string]*domain.MarketStats
	trades  []domain.TradeRecord
	ledgers map[string]domain.SettlementLedger

	nextOrderID uint64
	lastSweep   quant.TimeStamp
}

// New constructs an exchange and registers the configured wares.
// sink may be nil.
func New(cfg Config, clock infra.Clock, log *slog.Logger, sink EventSink) *Exchange {
	if log == nil {
		log = slog.Default()
	}
	e := &Exchange{
		cfg:         cfg,
		clock:       clock,
		log:         log,
		sink:        sink,
		books:       make(map[string]*Book),
		history:     make(map[string]*priceHistory),
		stats:       make(map[string]*domain.MarketStats),
		ledgers:     make(map[string]domain.SettlementLedger),
		nextOrderID: 1,
	}
	for ware := range cfg.BasePrices {
		e.registerWareLocked(ware)
	}
	return e
}

// RegisterLedger registers a settlement party by owner id. Later
// registrations with the same id replace the earlier reference.
func (e *Exchange) RegisterLedger(l domain.SettlementLedger) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ledgers[l.OwnerID()] = l
}

// RegisterWare creates the book, history and stats for a ware. Registering
// an existing ware is a no-op. Submitting an order for an unknown ware
// registers it implicitly; price reads never do.
func (e *Exchange) RegisterWare(ware string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registerWareLocked(ware)
}

func (e *Exchange) registerWareLocked(ware string) {
	if _, ok := e.books[ware]; ok {
		return
	}
	base := e.basePrice(ware)
	e.books[ware] = NewBook()
	e.history[ware] = newPriceHistory(base)
	e.stats[ware] = &domain.MarketStats{
		Ware:               ware,
		CurrentPriceMicros: base,
		AveragePriceMicros: base,
		LastUpdate:         e.clock.Now(),
	}
}

func (e *Exchange) basePrice(ware string) quant.PriceMicros {
	if p, ok := e.cfg.BasePrices[ware]; ok {
		return p
	}
	return e.cfg.DefaultBasePrice
}

// SubmitOrder validates the order, assigns it a fresh id, inserts it into
// its book and runs the matching loop to fixed point. It returns the
// assigned id. Settlement failures inside the loop are handled per policy
// and never surface here; only a malformed order is an error.
func (e *Exchange) SubmitOrder(o domain.Order) (string, error) {
	if err := o.Validate(); err != nil {
		return "", fmt.Errorf("submit %s %s: %w", o.Side, o.Ware, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.clock.Now()
	o.ID = fmt.Sprintf("order_%d", e.nextOrderID)
	e.nextOrderID++
	o.CreatedAt = now
	if o.ExpiresAt == 0 {
		o.ExpiresAt = now + e.cfg.OrderLifetime
	}

	e.registerWareLocked(o.Ware)

	resting := o
	e.books[o.Ware].Insert(&resting)

	e.log.Debug("order accepted",
		slog.String("id", o.ID),
		slog.String("owner", o.OwnerID),
		slog.String("side", string(o.Side)),
		slog.String("ware", o.Ware),
		slog.Int64("qty", int64(o.Qty)),
		slog.String("price", o.PriceMicros.String()))

	e.matchLocked(o.Ware, now)
	e.updateStatsLocked(o.Ware, now)

	return o.ID, nil
}

// matchLocked runs the double-auction loop for one ware until no cross
// remains. Each iteration either settles a trade (strictly reducing resting
// quantity) or removes at least one order outright, so it terminates.
func (e *Exchange) matchLocked(ware string, now quant.TimeStamp) {
	book := e.books[ware]

	for {
		bestBuy, okBuy := book.PeekBest(domain.SideBuy)
		bestSell, okSell := book.PeekBest(domain.SideSell)
		if !okBuy || !okSell {
			return
		}
		if bestBuy.PriceMicros < bestSell.PriceMicros {
			return
		}

		marketPrice := e.history[ware].currentPrice
		floor := quant.PriceMicros(safe.MulDiv(int64(marketPrice), fairFloorNum, fairFloorDen))
		fair := max(bestSell.PriceMicros, floor)
		tradePrice := min(bestBuy.PriceMicros, fair)
		tradeQty := min(bestBuy.Qty, bestSell.Qty)

		exec := domain.TradeExecution{
			ID:          uuid.NewString(),
			BuyOrderID:  bestBuy.ID,
			SellOrderID: bestSell.ID,
			Ware:        ware,
			Qty:         tradeQty,
			PriceMicros: tradePrice,
			BuyerID:     bestBuy.OwnerID,
			SellerID:    bestSell.OwnerID,
			Time:        now,
		}

		faulty, err := e.settleLocked(exec)
		if err != nil {
			e.log.Warn("trade settlement failed",
				slog.String("ware", ware),
				slog.String("buyer", exec.BuyerID),
				slog.String("seller", exec.SellerID),
				slog.Any("error", err))
			e.discardFailedMatch(book, faulty)
			continue
		}

		bestBuy.Qty -= tradeQty
		bestSell.Qty -= tradeQty
		if bestBuy.Qty <= 0 {
			book.DropBest(domain.SideBuy)
		}
		if bestSell.Qty <= 0 {
			book.DropBest(domain.SideSell)
		}

		e.recordTradeLocked(exec)
		e.history[ware].record(now, tradePrice, tradeQty)

		e.log.Info("trade executed",
			slog.String("ware", ware),
			slog.String("seller", exec.SellerID),
			slog.String("buyer", exec.BuyerID),
			slog.Int64("qty", int64(tradeQty)),
			slog.String("price", tradePrice.String()))
	}
}

// discardFailedMatch applies the failed-settlement policy. The historical
// behavior drops both best orders even when only one side's check failed;
// RetainInnocent keeps the counterparty resting when the fault is
// attributable to a single side.
func (e *Exchange) discardFailedMatch(book *Book, faulty domain.Side) {
	if e.cfg.RetainInnocent && faulty != "" {
		book.DropBest(faulty)
		return
	}
	book.DropBest(domain.SideBuy)
	book.DropBest(domain.SideSell)
}

// settleLocked performs the all-or-nothing settlement of one match: both
// checks first, then both mutations, then the notifications. On failure it
// returns the side at fault ("" when the fault is not attributable to a
// single side) and nothing has been mutated.
func (e *Exchange) settleLocked(exec domain.TradeExecution) (domain.Side, error) {
	buyer, buyerOK := e.ledgers[exec.BuyerID]
	seller, sellerOK := e.ledgers[exec.SellerID]
	switch {
	case !buyerOK && !sellerOK:
		return "", fmt.Errorf("buyer %s, seller %s: %w", exec.BuyerID, exec.SellerID, domain.ErrUnregisteredParty)
	case !buyerOK:
		return domain.SideBuy, fmt.Errorf("buyer %s: %w", exec.BuyerID, domain.ErrUnregisteredParty)
	case !sellerOK:
		return domain.SideSell, fmt.Errorf("seller %s: %w", exec.SellerID, domain.ErrUnregisteredParty)
	}

	if stock := seller.StockLevel(exec.Ware); stock < exec.Qty {
		return domain.SideSell, fmt.Errorf("%s has %d %s, needs %d: %w",
			exec.SellerID, stock, exec.Ware, exec.Qty, domain.ErrInsufficientStock)
	}
	total := exec.TotalMicros()
	if balance := buyer.CreditBalance(); balance < total {
		return domain.SideBuy, fmt.Errorf("%s has %s credits, needs %s: %w",
			exec.BuyerID, balance, total, domain.ErrInsufficientCredit)
	}

	seller.AdjustStock(exec.Ware, -exec.Qty)
	seller.AdjustCredits(total)
	buyer.AdjustStock(exec.Ware, exec.Qty)
	buyer.AdjustCredits(-total)

	seller.OnTradeExecuted(exec, domain.SideSell)
	buyer.OnTradeExecuted(exec, domain.SideBuy)

	return "", nil
}

func (e *Exchange) recordTradeLocked(exec domain.TradeExecution) {
	rec := domain.TradeRecord{
		ID:          exec.ID,
		Time:        exec.Time,
		From:        exec.SellerID,
		To:          exec.BuyerID,
		Ware:        exec.Ware,
		Qty:         exec.Qty,
		PriceMicros: exec.PriceMicros,
	}
	e.trades = append(e.trades, rec)
	if len(e.trades) > tradeLogCap {
		e.trades = e.trades[1:]
	}
	if e.sink != nil {
		e.sink.TradeExecuted(rec)
	}
}

// updateStatsLocked recomputes the derived read model for one ware.
func (e *Exchange) updateStatsLocked(ware string, now quant.TimeStamp) {
	book := e.books[ware]
	stats := e.stats[ware]

	stats.SupplyLevel = book.TotalQty(domain.SideSell)
	stats.DemandLevel = book.TotalQty(domain.SideBuy)

	var bid quant.PriceMicros
	if best, ok := book.PeekBest(domain.SideBuy); ok {
		bid = best.PriceMicros
	}
	if best, ok := book.PeekBest(domain.SideSell); ok {
		stats.SpreadMicros = best.PriceMicros - bid
	} else {
		stats.SpreadMicros = 0
	}

	stats.CurrentPriceMicros = e.history[ware].currentPrice
	stats.LastUpdate = now
}

// Tick drives the periodic expiry sweep. It is a no-op until at least the
// configured interval has elapsed since the previous sweep; the cadence
// follows the injected clock, never any simulation time-scaling.
func (e *Exchange) Tick(now quant.TimeStamp) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if now-e.lastSweep <= e.cfg.SweepInterval {
		return
	}
	e.lastSweep = now

	for ware, book := range e.books {
		expired := book.RemoveExpired(now)
		if len(expired) == 0 {
			continue
		}
		for _, o := range expired {
			if ledger, ok := e.ledgers[o.OwnerID]; ok {
				ledger.OnOrderExpired(*o)
			}
			if e.sink != nil {
				e.sink.OrderExpired(*o)
			}
			e.log.Info("order expired",
				slog.String("id", o.ID),
				slog.String("owner", o.OwnerID),
				slog.String("side", string(o.Side)),
				slog.String("ware", o.Ware),
				slog.Int64("qty", int64(o.Qty)),
				slog.String("price", o.PriceMicros.String()))
		}
		e.updateStatsLocked(ware, now)
	}
}

// CurrentPrice returns the price of the most recent executed trade, or the
// ware's base price when it has no trade history. Reading an unknown ware
// does not register it.
func (e *Exchange) CurrentPrice(ware string) quant.PriceMicros {
	e.mu.Lock()
	defer e.mu.Unlock()
	if h, ok := e.history[ware]; ok {
		return h.currentPrice
	}
	return e.basePrice(ware)
}

// MarketStats returns a copy of the derived stats for a registered ware.
func (e *Exchange) MarketStats(ware string) (domain.MarketStats, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	stats, ok := e.stats[ware]
	if !ok {
		return domain.MarketStats{}, false
	}
	return *stats, true
}

// OrderBookSnapshot returns a copy of a registered ware's resting orders.
func (e *Exchange) OrderBookSnapshot(ware string) (domain.BookSnapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	book, ok := e.books[ware]
	if !ok {
		return domain.BookSnapshot{}, false
	}
	return book.Snapshot(ware), true
}

// OpenOrder reports the quantity still resting for an order id, or false
// if the order has fully filled, expired or never existed.
func (e *Exchange) OpenOrder(ware, id string) (quant.Qty, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	book, ok := e.books[ware]
	if !ok {
		return 0, false
	}
	o, ok := book.Find(id)
	if !ok {
		return 0, false
	}
	return o.Qty, true
}

// PriceHistory returns a copy of a registered ware's trade samples, oldest
// first, along with the trailing 24h volume.
func (e *Exchange) PriceHistory(ware string) ([]domain.PricePoint, quant.Qty, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	h, ok := e.history[ware]
	if !ok {
		return nil, 0, false
	}
	return h.snapshotPoints(), h.volume24h, true
}

// BestBidAsk returns the best resting price on each side of a ware's book.
func (e *Exchange) BestBidAsk(ware string) domain.Quote {
	e.mu.Lock()
	defer e.mu.Unlock()
	var q domain.Quote
	book, ok := e.books[ware]
	if !ok {
		return q
	}
	if best, ok := book.PeekBest(domain.SideBuy); ok {
		q.Bid, q.HasBid = best.PriceMicros, true
	}
	if best, ok := book.PeekBest(domain.SideSell); ok {
		q.Ask, q.HasAsk = best.PriceMicros, true
	}
	return q
}

// SupplyDemandRatio returns resting supply over resting demand, defined as
// 1 when demand is zero.
func (e *Exchange) SupplyDemandRatio(ware string) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	stats, ok := e.stats[ware]
	if !ok || stats.DemandLevel == 0 {
		return 1
	}
	return float64(stats.SupplyLevel) / float64(stats.DemandLevel)
}

// RecentTrades returns the most recent trades, newest first, optionally
// filtered by ware. A non-positive limit defaults to 10.
func (e *Exchange) RecentTrades(ware string, limit int) []domain.TradeRecord {
	e.mu.Lock()
	defer e.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}

	trades := e.trades
	if ware != "" {
		trades = nil
		for _, t := range e.trades {
			if t.Ware == ware {
				trades = append(trades, t)
			}
		}
	}

	if len(trades) > limit {
		trades = trades[len(trades)-limit:]
	}
	out := make([]domain.TradeRecord, len(trades))
	for i, t := range trades {
		out[len(trades)-1-i] = t
	}
	return out
}

// ListWares returns the registered ware ids, sorted.
func (e *Exchange) ListWares() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	wares := make([]string, 0, len(e.books))
	for ware := range e.books {
		wares = append(wares, ware)
	}
	sort.Strings(wares)
	return wares
}
