package exchange

import (
	"errors"
	"testing"
	"time"

	"econ_go/internal/domain"
	"econ_go/internal/infra"
	"econ_go/pkg/quant"
)

// fakeLedger is an in-memory settlement party recording every notification.
type fakeLedger struct {
	id      string
	stock   map[string]quant.Qty
	credits quant.PriceMicros

	executions []domain.TradeExecution
	sides      []domain.Side
	expired    []domain.Order
}

func newFakeLedger(id string, credits quant.PriceMicros) *fakeLedger {
	return &fakeLedger{id: id, stock: make(map[string]quant.Qty), credits: credits}
}

func (f *fakeLedger) OwnerID() string                          { return f.id }
func (f *fakeLedger) StockLevel(ware string) quant.Qty         { return f.stock[ware] }
func (f *fakeLedger) CreditBalance() quant.PriceMicros         { return f.credits }
func (f *fakeLedger) AdjustStock(ware string, delta quant.Qty) { f.stock[ware] += delta }
func (f *fakeLedger) AdjustCredits(delta quant.PriceMicros)    { f.credits += delta }

func (f *fakeLedger) OnTradeExecuted(exec domain.TradeExecution, side domain.Side) {
	f.executions = append(f.executions, exec)
	f.sides = append(f.sides, side)
}

func (f *fakeLedger) OnOrderExpired(order domain.Order) {
	f.expired = append(f.expired, order)
}

func testConfig() Config {
	return Config{
		BasePrices: map[string]quant.PriceMicros{
			"iron":  8_000000,
			"steel": 20_000000,
			"ships": 120_000000,
		},
		DefaultBasePrice: 40_000000,
		SweepInterval:    quant.DurationTS(5 * time.Second),
		OrderLifetime:    quant.DurationTS(30 * time.Second),
	}
}

func newTestExchange(t *testing.T, cfg Config) (*Exchange, *infra.ManualClock) {
	t.Helper()
	clock := infra.NewManualClock(quant.TimeStamp(100 * quant.Day))
	return New(cfg, clock, nil, nil), clock
}

func submit(t *testing.T, e *Exchange, owner string, side domain.Side, ware string, qty quant.Qty, price quant.PriceMicros) string {
	t.Helper()
	id, err := e.SubmitOrder(domain.Order{OwnerID: owner, Side: side, Ware: ware, Qty: qty, PriceMicros: price})
	if err != nil {
		t.Fatalf("SubmitOrder(%s %s): %v", side, ware, err)
	}
	return id
}

func TestSubmitOrder_RejectsInvalid(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())

	tests := []struct {
		name  string
		order domain.Order
	}{
		{"Zero Qty", domain.Order{OwnerID: "a", Side: domain.SideBuy, Ware: "iron", Qty: 0, PriceMicros: 1}},
		{"Negative Qty", domain.Order{OwnerID: "a", Side: domain.SideBuy, Ware: "iron", Qty: -3, PriceMicros: 1}},
		{"Negative Price", domain.Order{OwnerID: "a", Side: domain.SideSell, Ware: "iron", Qty: 3, PriceMicros: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.SubmitOrder(tt.order); !errors.Is(err, domain.ErrInvalidOrder) {
				t.Errorf("SubmitOrder() error = %v, want ErrInvalidOrder", err)
			}
		})
	}

	// Nothing rested.
	if n := len(e.ListWares()); n != 3 {
		t.Errorf("rejected orders changed ware registry: %d wares", n)
	}
}

func TestSubmitOrder_AssignsSequentialIDs(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())

	id1 := submit(t, e, "a", domain.SideBuy, "iron", 1, 5_000000)
	id2 := submit(t, e, "a", domain.SideBuy, "iron", 1, 5_000000)

	if id1 != "order_1" || id2 != "order_2" {
		t.Errorf("ids = %q, %q, want order_1, order_2", id1, id2)
	}

	// A submitter-supplied id is discarded.
	id3, err := e.SubmitOrder(domain.Order{ID: "mine", OwnerID: "a", Side: domain.SideBuy, Ware: "iron", Qty: 1, PriceMicros: 5_000000})
	if err != nil {
		t.Fatal(err)
	}
	if id3 != "order_3" {
		t.Errorf("id = %q, want order_3", id3)
	}
}

func TestExchange_RestThenMatch(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	buyer := newFakeLedger("station_a", 1000_000000)
	seller := newFakeLedger("station_b", 0)
	seller.stock["iron"] = 50
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	// BUY 10 @ 12 with no resting sell: the order rests.
	submit(t, e, "station_a", domain.SideBuy, "iron", 10, 12_000000)

	q := e.BestBidAsk("iron")
	if !q.HasBid || q.Bid != 12_000000 || q.HasAsk {
		t.Fatalf("quote = %+v, want bid 12, no ask", q)
	}

	// SELL 10 @ 10 crosses. Reference price is iron's base 8, so
	// fair = max(10, 8*0.8) = 10 and trade price = min(12, 10) = 10.
	submit(t, e, "station_b", domain.SideSell, "iron", 10, 10_000000)

	if buyer.stock["iron"] != 10 {
		t.Errorf("buyer stock = %d, want 10", buyer.stock["iron"])
	}
	if seller.stock["iron"] != 40 {
		t.Errorf("seller stock = %d, want 40", seller.stock["iron"])
	}
	total := quant.PriceMicros(10 * 10_000000)
	if buyer.credits != 1000_000000-total {
		t.Errorf("buyer credits = %d, want %d", buyer.credits, 1000_000000-total)
	}
	if seller.credits != total {
		t.Errorf("seller credits = %d, want %d", seller.credits, total)
	}

	// Both orders fully filled and removed.
	q = e.BestBidAsk("iron")
	if q.HasBid || q.HasAsk {
		t.Errorf("book should be empty after full fill, quote = %+v", q)
	}

	// One trade record, side-tagged notifications delivered.
	trades := e.RecentTrades("iron", 0)
	if len(trades) != 1 || trades[0].Qty != 10 || trades[0].PriceMicros != 10_000000 {
		t.Fatalf("trades = %+v, want one 10 @ 10.00", trades)
	}
	if len(buyer.sides) != 1 || buyer.sides[0] != domain.SideBuy {
		t.Errorf("buyer notified with %v, want [BUY]", buyer.sides)
	}
	if len(seller.sides) != 1 || seller.sides[0] != domain.SideSell {
		t.Errorf("seller notified with %v, want [SELL]", seller.sides)
	}

	if got := e.CurrentPrice("iron"); got != 10_000000 {
		t.Errorf("CurrentPrice = %d, want last trade price", got)
	}
}

func TestExchange_PartialFill(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	buyer := newFakeLedger("b", 1000_000000)
	seller := newFakeLedger("s", 0)
	seller.stock["iron"] = 50
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	// SELL 5 @ 8 then BUY 3 @ 9: the sell is left resting with qty 2.
	submit(t, e, "s", domain.SideSell, "iron", 5, 8_000000)
	submit(t, e, "b", domain.SideBuy, "iron", 3, 9_000000)

	snap, ok := e.OrderBookSnapshot("iron")
	if !ok {
		t.Fatal("iron book missing")
	}
	if len(snap.Buy) != 0 {
		t.Errorf("buy side = %+v, want empty", snap.Buy)
	}
	if len(snap.Sell) != 1 || snap.Sell[0].Qty != 2 {
		t.Fatalf("sell side = %+v, want one order with qty 2", snap.Sell)
	}
	if buyer.stock["iron"] != 3 || seller.stock["iron"] != 47 {
		t.Errorf("stocks = %d/%d, want 3/47", buyer.stock["iron"], seller.stock["iron"])
	}
}

func TestExchange_FIFOAtEqualPrice(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	a := newFakeLedger("a", 1000_000000)
	b := newFakeLedger("b", 1000_000000)
	s := newFakeLedger("s", 0)
	s.stock["iron"] = 50
	e.RegisterLedger(a)
	e.RegisterLedger(b)
	e.RegisterLedger(s)

	// Two buys at the same price, A before B; a one-unit sell fills A.
	submit(t, e, "a", domain.SideBuy, "iron", 1, 10_000000)
	submit(t, e, "b", domain.SideBuy, "iron", 1, 10_000000)
	submit(t, e, "s", domain.SideSell, "iron", 1, 10_000000)

	if a.stock["iron"] != 1 {
		t.Errorf("first buyer got %d iron, want 1 (FIFO at equal price)", a.stock["iron"])
	}
	if b.stock["iron"] != 0 {
		t.Errorf("second buyer got %d iron, want 0", b.stock["iron"])
	}

	snap, _ := e.OrderBookSnapshot("iron")
	if len(snap.Buy) != 1 || snap.Buy[0].OwnerID != "b" {
		t.Fatalf("buy side = %+v, want only b resting", snap.Buy)
	}
}

func TestExchange_FairFloorProtectsSeller(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	buyer := newFakeLedger("b", 10000_000000)
	seller := newFakeLedger("s", 0)
	seller.stock["steel"] = 100
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	// Steel reference price is 20. A sell at 1 against a buy at 30 clears
	// at max(1, 20*0.8) = 16, not at the ask.
	submit(t, e, "b", domain.SideBuy, "steel", 1, 30_000000)
	submit(t, e, "s", domain.SideSell, "steel", 1, 1_000000)

	trades := e.RecentTrades("steel", 1)
	if len(trades) != 1 {
		t.Fatal("no trade executed")
	}
	if trades[0].PriceMicros != 16_000000 {
		t.Errorf("trade price = %s, want 16.00 (80%% of reference)", trades[0].PriceMicros)
	}
}

func TestExchange_TradePriceNeverExceedsBuyPrice(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	buyer := newFakeLedger("b", 10000_000000)
	seller := newFakeLedger("s", 0)
	seller.stock["steel"] = 100
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	// The fair floor (16) exceeds the buy price (10)? No: a cross needs
	// buy >= sell, so use sell 10, buy 12 against reference 20: floor 16
	// is clamped down to the buy price 12.
	submit(t, e, "b", domain.SideBuy, "steel", 1, 12_000000)
	submit(t, e, "s", domain.SideSell, "steel", 1, 10_000000)

	trades := e.RecentTrades("steel", 1)
	if len(trades) != 1 {
		t.Fatal("no trade executed")
	}
	got := trades[0].PriceMicros
	if got != 12_000000 {
		t.Errorf("trade price = %s, want 12.00 (clamped to buy price)", got)
	}
}

func TestExchange_NoUncrossedBookRemains(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	buyer := newFakeLedger("b", 100000_000000)
	seller := newFakeLedger("s", 0)
	seller.stock["iron"] = 1000
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	submit(t, e, "b", domain.SideBuy, "iron", 10, 9_000000)
	submit(t, e, "b", domain.SideBuy, "iron", 10, 10_000000)
	submit(t, e, "s", domain.SideSell, "iron", 25, 9_000000)

	// 10 @ 10 and 10 @ 9 both cross the 25 @ 9 ask; 5 remain resting.
	snap, _ := e.OrderBookSnapshot("iron")
	if len(snap.Buy) != 0 {
		t.Errorf("buy side = %+v, want empty", snap.Buy)
	}
	if len(snap.Sell) != 1 || snap.Sell[0].Qty != 5 {
		t.Fatalf("sell side = %+v, want 5 resting", snap.Sell)
	}

	q := e.BestBidAsk("iron")
	if q.HasBid && q.HasAsk && q.Bid >= q.Ask {
		t.Errorf("book still crossed: bid %s >= ask %s", q.Bid, q.Ask)
	}
}

func TestExchange_FailDiscardBothPolicy(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	buyer := newFakeLedger("b", 1000_000000)
	seller := newFakeLedger("s", 0) // no stock: settlement fails
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	submit(t, e, "b", domain.SideBuy, "iron", 5, 10_000000)
	submit(t, e, "s", domain.SideSell, "iron", 5, 9_000000)

	// Default policy discards both orders, innocent buyer included.
	snap, _ := e.OrderBookSnapshot("iron")
	if len(snap.Buy) != 0 || len(snap.Sell) != 0 {
		t.Errorf("book = %+v, want both orders discarded", snap)
	}
	if buyer.credits != 1000_000000 {
		t.Errorf("failed settlement mutated buyer credits: %d", buyer.credits)
	}
	if len(e.RecentTrades("iron", 0)) != 0 {
		t.Error("failed settlement recorded a trade")
	}
}

func TestExchange_RetainInnocentPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.RetainInnocent = true
	e, _ := newTestExchange(t, cfg)
	buyer := newFakeLedger("b", 1000_000000)
	seller := newFakeLedger("s", 0) // no stock: seller at fault
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	submit(t, e, "b", domain.SideBuy, "iron", 5, 10_000000)
	submit(t, e, "s", domain.SideSell, "iron", 5, 9_000000)

	snap, _ := e.OrderBookSnapshot("iron")
	if len(snap.Buy) != 1 {
		t.Errorf("innocent buy order discarded: %+v", snap)
	}
	if len(snap.Sell) != 0 {
		t.Errorf("faulty sell order retained: %+v", snap)
	}
}

func TestExchange_UnregisteredPartyDiscardsMatch(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	seller := newFakeLedger("s", 0)
	seller.stock["iron"] = 50
	e.RegisterLedger(seller)

	// Buyer never registered. Submission still succeeds; the match is
	// discarded during settlement.
	id := submit(t, e, "ghost", domain.SideBuy, "iron", 5, 10_000000)
	if id == "" {
		t.Fatal("submission should return a valid id")
	}
	submit(t, e, "s", domain.SideSell, "iron", 5, 9_000000)

	if len(e.RecentTrades("iron", 0)) != 0 {
		t.Error("trade executed against unregistered party")
	}
	if seller.stock["iron"] != 50 || seller.credits != 0 {
		t.Error("failed settlement mutated seller ledger")
	}
}

func TestExchange_InsufficientCreditAllOrNothing(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	buyer := newFakeLedger("b", 1_000000) // far too poor for 5 @ 10
	seller := newFakeLedger("s", 0)
	seller.stock["iron"] = 50
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	submit(t, e, "b", domain.SideBuy, "iron", 5, 10_000000)
	submit(t, e, "s", domain.SideSell, "iron", 5, 9_000000)

	if buyer.credits != 1_000000 || buyer.stock["iron"] != 0 {
		t.Error("failed credit check partially mutated buyer")
	}
	if seller.stock["iron"] != 50 || seller.credits != 0 {
		t.Error("failed credit check partially mutated seller")
	}
	if len(buyer.executions)+len(seller.executions) != 0 {
		t.Error("failed settlement notified a ledger")
	}
}

func TestExchange_MatchingContinuesAfterFailedMatch(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	rich := newFakeLedger("rich", 1000_000000)
	broke := newFakeLedger("broke", 0)
	seller := newFakeLedger("s", 0)
	seller.stock["iron"] = 50
	e.RegisterLedger(rich)
	e.RegisterLedger(broke)
	e.RegisterLedger(seller)

	// The broke buyer has priority (higher price) but fails settlement;
	// the loop continues and fills the rich buyer. The default policy
	// discards the first sell with the broke buy, so rest a second sell.
	submit(t, e, "broke", domain.SideBuy, "iron", 5, 11_000000)
	submit(t, e, "rich", domain.SideBuy, "iron", 5, 10_000000)
	submit(t, e, "s", domain.SideSell, "iron", 5, 9_000000)
	submit(t, e, "s", domain.SideSell, "iron", 5, 9_000000)

	if rich.stock["iron"] != 5 {
		t.Errorf("rich buyer stock = %d, want 5", rich.stock["iron"])
	}
	if len(e.RecentTrades("iron", 0)) != 1 {
		t.Errorf("trades = %d, want 1", len(e.RecentTrades("iron", 0)))
	}
}

func TestExchange_TradeLogCap(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	buyer := newFakeLedger("b", 1<<40)
	seller := newFakeLedger("s", 0)
	seller.stock["iron"] = 1 << 20
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	for i := 0; i < tradeLogCap+20; i++ {
		submit(t, e, "b", domain.SideBuy, "iron", 1, 1000)
		submit(t, e, "s", domain.SideSell, "iron", 1, 1000)
	}

	all := e.RecentTrades("", tradeLogCap*2)
	if len(all) != tradeLogCap {
		t.Errorf("trade log has %d entries, want %d", len(all), tradeLogCap)
	}
}

func TestExchange_RecentTradesOrderAndLimit(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	buyer := newFakeLedger("b", 1<<40)
	seller := newFakeLedger("s", 0)
	seller.stock["iron"] = 1000
	seller.stock["steel"] = 1000
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	for i := 0; i < 15; i++ {
		price := quant.PriceMicros(1000 * (i + 1))
		submit(t, e, "b", domain.SideBuy, "iron", 1, price)
		submit(t, e, "s", domain.SideSell, "iron", 1, price)
	}
	submit(t, e, "b", domain.SideBuy, "steel", 1, 20_000000)
	submit(t, e, "s", domain.SideSell, "steel", 1, 20_000000)

	// Default limit is 10, newest first.
	got := e.RecentTrades("", 0)
	if len(got) != 10 {
		t.Fatalf("default limit returned %d trades", len(got))
	}
	if got[0].Ware != "steel" {
		t.Errorf("newest trade = %+v, want the steel trade first", got[0])
	}
	for i := 1; i < len(got); i++ {
		if got[i].Time > got[i-1].Time {
			t.Fatal("trades not in most-recent-first order")
		}
	}

	// Ware filter.
	iron := e.RecentTrades("iron", 100)
	if len(iron) != 15 {
		t.Errorf("iron trades = %d, want 15", len(iron))
	}
	for _, tr := range iron {
		if tr.Ware != "iron" {
			t.Errorf("filtered trades contain %q", tr.Ware)
		}
	}
}

func TestExchange_ExpirySweep(t *testing.T) {
	e, clock := newTestExchange(t, testConfig())
	owner := newFakeLedger("o", 1000_000000)
	e.RegisterLedger(owner)

	submit(t, e, "o", domain.SideBuy, "iron", 5, 7_000000)

	// Before the lifetime elapses nothing is swept.
	clock.Advance(10 * time.Second)
	e.Tick(clock.Now())
	if len(owner.expired) != 0 {
		t.Fatal("order swept before expiry")
	}

	// Past the 30s lifetime the sweep removes it and notifies the owner
	// exactly once.
	clock.Advance(25 * time.Second)
	e.Tick(clock.Now())
	if len(owner.expired) != 1 {
		t.Fatalf("expiry notifications = %d, want 1", len(owner.expired))
	}
	if owner.expired[0].Ware != "iron" || owner.expired[0].Qty != 5 {
		t.Errorf("expired order = %+v", owner.expired[0])
	}

	snap, _ := e.OrderBookSnapshot("iron")
	if len(snap.Buy) != 0 {
		t.Error("expired order still resting")
	}

	// Stats were recomputed for the touched ware.
	stats, _ := e.MarketStats("iron")
	if stats.DemandLevel != 0 {
		t.Errorf("demand after sweep = %d, want 0", stats.DemandLevel)
	}
}

func TestExchange_SweepIntervalGate(t *testing.T) {
	e, clock := newTestExchange(t, testConfig())
	owner := newFakeLedger("o", 1000_000000)
	e.RegisterLedger(owner)

	// First tick performs the initial sweep and arms the interval.
	e.Tick(clock.Now())

	// An order that expires almost immediately.
	_, err := e.SubmitOrder(domain.Order{
		OwnerID: "o", Side: domain.SideBuy, Ware: "iron", Qty: 1,
		PriceMicros: 7_000000, ExpiresAt: clock.Now() + quant.DurationTS(time.Millisecond),
	})
	if err != nil {
		t.Fatal(err)
	}

	// Expired, but within the sweep interval: the tick is a no-op.
	clock.Advance(2 * time.Second)
	e.Tick(clock.Now())
	if len(owner.expired) != 0 {
		t.Fatal("sweep ran inside the interval gate")
	}

	clock.Advance(4 * time.Second)
	e.Tick(clock.Now())
	if len(owner.expired) != 1 {
		t.Fatalf("expiry notifications = %d, want 1", len(owner.expired))
	}
}

func TestExchange_StatsAndRatio(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	a := newFakeLedger("a", 1000_000000)
	b := newFakeLedger("b", 1000_000000)
	e.RegisterLedger(a)
	e.RegisterLedger(b)

	// Non-crossing orders rest: 6 demanded at 5, 9 supplied at 30.
	submit(t, e, "a", domain.SideBuy, "iron", 6, 5_000000)
	submit(t, e, "b", domain.SideSell, "iron", 9, 30_000000)

	stats, ok := e.MarketStats("iron")
	if !ok {
		t.Fatal("iron stats missing")
	}
	if stats.SupplyLevel != 9 || stats.DemandLevel != 6 {
		t.Errorf("supply/demand = %d/%d, want 9/6", stats.SupplyLevel, stats.DemandLevel)
	}
	if stats.SpreadMicros != 25_000000 {
		t.Errorf("spread = %s, want 25.00", stats.SpreadMicros)
	}

	if ratio := e.SupplyDemandRatio("iron"); ratio != 1.5 {
		t.Errorf("ratio = %v, want 1.5", ratio)
	}
	// Zero demand defines the ratio as 1.
	if ratio := e.SupplyDemandRatio("steel"); ratio != 1 {
		t.Errorf("ratio with no demand = %v, want 1", ratio)
	}
	if ratio := e.SupplyDemandRatio("unknown"); ratio != 1 {
		t.Errorf("ratio for unknown ware = %v, want 1", ratio)
	}

	// Spread is 0 with no ask.
	submit(t, e, "a", domain.SideBuy, "steel", 1, 10_000000)
	stats, _ = e.MarketStats("steel")
	if stats.SpreadMicros != 0 {
		t.Errorf("spread with no ask = %s, want 0", stats.SpreadMicros)
	}
}

func TestExchange_WareRegistration(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())

	// Reads on unknown wares fall back without registering.
	if got := e.CurrentPrice("copper"); got != 40_000000 {
		t.Errorf("unknown ware price = %s, want default 40.00", got)
	}
	if _, ok := e.MarketStats("copper"); ok {
		t.Error("price read registered the ware")
	}
	if _, ok := e.OrderBookSnapshot("copper"); ok {
		t.Error("unknown ware has a book")
	}

	// Submission registers.
	submit(t, e, "a", domain.SideBuy, "copper", 1, 40_000000)
	if _, ok := e.MarketStats("copper"); !ok {
		t.Error("submission did not register the ware")
	}

	// Explicit registration.
	e.RegisterWare("fuel")
	wares := e.ListWares()
	want := []string{"copper", "fuel", "iron", "ships", "steel"}
	if len(wares) != len(want) {
		t.Fatalf("wares = %v, want %v", wares, want)
	}
	for i := range want {
		if wares[i] != want[i] {
			t.Fatalf("wares = %v, want %v", wares, want)
		}
	}
}

func TestExchange_DeadStatsFieldsStayStatic(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	buyer := newFakeLedger("b", 1000_000000)
	seller := newFakeLedger("s", 0)
	seller.stock["iron"] = 50
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	before, _ := e.MarketStats("iron")

	submit(t, e, "b", domain.SideBuy, "iron", 10, 12_000000)
	submit(t, e, "s", domain.SideSell, "iron", 10, 10_000000)

	after, _ := e.MarketStats("iron")
	if after.AveragePriceMicros != before.AveragePriceMicros {
		t.Error("AveragePriceMicros changed; it is documented as static")
	}
	if after.VolumeSum != before.VolumeSum || after.VolatilityMicros != before.VolatilityMicros {
		t.Error("static stats fields were recomputed")
	}
	// While the live fields moved.
	if after.CurrentPriceMicros == before.CurrentPriceMicros {
		t.Error("CurrentPriceMicros did not move with the trade")
	}
}

func TestExchange_PriceHistoryAccessor(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	buyer := newFakeLedger("b", 1000_000000)
	seller := newFakeLedger("s", 0)
	seller.stock["iron"] = 50
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	submit(t, e, "b", domain.SideBuy, "iron", 3, 12_000000)
	submit(t, e, "s", domain.SideSell, "iron", 3, 10_000000)

	points, vol24, ok := e.PriceHistory("iron")
	if !ok || len(points) != 1 {
		t.Fatalf("points = %v, want one", points)
	}
	if vol24 != 3 {
		t.Errorf("volume24h = %d, want 3", vol24)
	}
	if _, _, ok := e.PriceHistory("unknown"); ok {
		t.Error("unknown ware has history")
	}
}

func TestExchange_OpenOrder(t *testing.T) {
	e, _ := newTestExchange(t, testConfig())
	buyer := newFakeLedger("b", 1000_000000)
	seller := newFakeLedger("s", 0)
	seller.stock["iron"] = 50
	e.RegisterLedger(buyer)
	e.RegisterLedger(seller)

	sellID := submit(t, e, "s", domain.SideSell, "iron", 10, 10_000000)
	if rest, ok := e.OpenOrder("iron", sellID); !ok || rest != 10 {
		t.Fatalf("OpenOrder resting = %d, %v, want 10, true", rest, ok)
	}

	// a partial fill leaves the remainder resting
	buyID := submit(t, e, "b", domain.SideBuy, "iron", 4, 12_000000)
	if rest, ok := e.OpenOrder("iron", sellID); !ok || rest != 6 {
		t.Errorf("OpenOrder after partial fill = %d, %v, want 6, true", rest, ok)
	}
	if _, ok := e.OpenOrder("iron", buyID); ok {
		t.Error("fully filled order still reported open")
	}
	if _, ok := e.OpenOrder("iron", "order_999"); ok {
		t.Error("unknown id reported open")
	}
	if _, ok := e.OpenOrder("unknown", sellID); ok {
		t.Error("unknown ware reported open")
	}
}
