package matching

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/internal/commission"
	"github.com/txf-quant/txfbt/internal/contract"
	"github.com/txf-quant/txfbt/pkg/types"
)

func newTestEngine() *Engine {
	registry := contract.NewRegistry()
	model := commission.NewModel(decimal.NewFromInt(60), decimal.NewFromFloat(0.00002))
	return NewEngine(registry, model, 1)
}

func d(v string) decimal.Decimal {
	dec, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return dec
}

func barAt(open, high, low, close string) types.Bar {
	return types.Bar{
		Symbol:    "TXFG5",
		Timestamp: time.Date(2024, 1, 2, 8, 46, 0, 0, time.UTC),
		Open:      d(open),
		High:      d(high),
		Low:       d(low),
		Close:     d(close),
	}
}

func TestMarketOrderFillsNextBarWithSlippage(t *testing.T) {
	e := newTestEngine()
	var fills []types.Fill
	e.SetFillCallback(func(f types.Fill) { fills = append(fills, f) })

	// The submission bar's OnBar runs before the order is submitted, as
	// in the engine loop (matching precedes the strategy callback), so
	// the submission bar can never fill it.
	submitBar := barAt("18000", "18010", "17990", "18005")
	if err := e.OnBar(submitBar); err != nil {
		t.Fatalf("OnBar error: %v", err)
	}

	order := types.OrderRequest{ID: "o1", Symbol: "TXFG5", Side: types.Buy, Quantity: 1, PriceType: types.Market}
	if err := e.SubmitOrder(order); err != nil {
		t.Fatalf("SubmitOrder error: %v", err)
	}
	if len(fills) != 0 {
		t.Fatalf("order filled on submission bar, want no-fill until next bar")
	}

	nextBar := barAt("18010", "18020", "18000", "18015")
	if err := e.OnBar(nextBar); err != nil {
		t.Fatalf("OnBar error: %v", err)
	}
	if len(fills) != 1 {
		t.Fatalf("expected 1 fill, got %d", len(fills))
	}
	want := d("18011") // open + 1 tick slippage for a buy
	if !fills[0].Price.Equal(want) {
		t.Errorf("fill price = %v, want %v", fills[0].Price, want)
	}
}

func TestLimitBuyFillsWhenLowTouchesLimit(t *testing.T) {
	e := newTestEngine()
	var fills []types.Fill
	e.SetFillCallback(func(f types.Fill) { fills = append(fills, f) })

	order := types.OrderRequest{ID: "o1", Symbol: "TXFG5", Side: types.Buy, Quantity: 1, PriceType: types.Limit, Price: d("18000")}
	_ = e.SubmitOrder(order)
	_ = e.OnBar(barAt("18010", "18010", "18010", "18010")) // submission bar, ignored

	bar := barAt("18005", "18006", "17995", "18000")
	if err := e.OnBar(bar); err != nil {
		t.Fatalf("OnBar error: %v", err)
	}
	if len(fills) != 1 {
		t.Fatalf("expected limit buy to fill, got %d fills", len(fills))
	}
	want := d("18000") // min(limit, open) = min(18000, 18005)
	if !fills[0].Price.Equal(want) {
		t.Errorf("fill price = %v, want %v", fills[0].Price, want)
	}
}

func TestLimitBuyDoesNotFillWhenLowAboveLimit(t *testing.T) {
	e := newTestEngine()
	var fills []types.Fill
	e.SetFillCallback(func(f types.Fill) { fills = append(fills, f) })

	order := types.OrderRequest{ID: "o1", Symbol: "TXFG5", Side: types.Buy, Quantity: 1, PriceType: types.Limit, Price: d("17990")}
	_ = e.SubmitOrder(order)
	_ = e.OnBar(barAt("18010", "18010", "18010", "18010"))

	bar := barAt("18005", "18006", "17995", "18000")
	if err := e.OnBar(bar); err != nil {
		t.Fatalf("OnBar error: %v", err)
	}
	if len(fills) != 0 {
		t.Fatalf("expected no fill, got %d", len(fills))
	}
	if e.PendingCount() != 1 {
		t.Errorf("order should remain pending, PendingCount() = %d", e.PendingCount())
	}
}

func TestLimitSellFillsWhenHighTouchesLimit(t *testing.T) {
	e := newTestEngine()
	var fills []types.Fill
	e.SetFillCallback(func(f types.Fill) { fills = append(fills, f) })

	order := types.OrderRequest{ID: "o1", Symbol: "TXFG5", Side: types.Sell, Quantity: 1, PriceType: types.Limit, Price: d("18010")}
	_ = e.SubmitOrder(order)
	_ = e.OnBar(barAt("18000", "18000", "18000", "18000"))

	bar := barAt("18005", "18012", "17995", "18000")
	if err := e.OnBar(bar); err != nil {
		t.Fatalf("OnBar error: %v", err)
	}
	if len(fills) != 1 {
		t.Fatalf("expected limit sell to fill, got %d fills", len(fills))
	}
	want := d("18010") // max(limit, open) = max(18010, 18005)
	if !fills[0].Price.Equal(want) {
		t.Errorf("fill price = %v, want %v", fills[0].Price, want)
	}
}

func TestCancelOrderRemovesPending(t *testing.T) {
	e := newTestEngine()
	order := types.OrderRequest{ID: "o1", Symbol: "TXFG5", Side: types.Buy, Quantity: 1, PriceType: types.Market}
	_ = e.SubmitOrder(order)

	if !e.CancelOrder("o1") {
		t.Fatalf("expected CancelOrder to find o1")
	}
	if e.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, want 0", e.PendingCount())
	}
	if e.CancelOrder("missing") {
		t.Errorf("CancelOrder(missing) should return false")
	}
}

func TestSubmitOrderRejectsInvalidLimit(t *testing.T) {
	e := newTestEngine()
	order := types.OrderRequest{ID: "o1", Symbol: "TXFG5", Side: types.Buy, Quantity: 1, PriceType: types.Limit}
	if err := e.SubmitOrder(order); err == nil {
		t.Fatalf("expected error for limit order with zero price")
	}
}
