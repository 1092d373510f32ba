package examples

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/internal/strategy"
	"github.com/txf-quant/txfbt/pkg/types"
)

func closeBar(n int, close float64) types.Bar {
	return types.Bar{
		Symbol:    "TXFG5",
		Timestamp: time.Date(2024, 1, 2, 8, 45, 0, 0, time.UTC).Add(time.Duration(n) * time.Minute),
		Open:      decimal.NewFromFloat(close),
		High:      decimal.NewFromFloat(close),
		Low:       decimal.NewFromFloat(close),
		Close:     decimal.NewFromFloat(close),
	}
}

func TestDualMASubmitsBuyOnUpcross(t *testing.T) {
	var submitted []types.OrderRequest
	submit := func(o types.OrderRequest) error {
		submitted = append(submitted, o)
		return nil
	}
	ctx := strategy.NewContext(10, func(string) (types.Position, bool) { return types.Position{}, false }, submit)

	s := NewDualMA("TXFG5", 2, 3, 1)
	closes := []float64{10, 10, 10, 9, 15, 20}
	for i, c := range closes {
		bar := closeBar(i, c)
		ctx.OnBar(bar)
		s.OnBar(ctx, bar)
	}

	found := false
	for _, o := range submitted {
		if o.Side == types.Buy {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a buy order submitted on upcross, got %+v", submitted)
	}
}

func TestDualMAIgnoresOtherSymbols(t *testing.T) {
	submit := func(o types.OrderRequest) error {
		t.Fatalf("unexpected order submitted: %+v", o)
		return nil
	}
	ctx := strategy.NewContext(10, nil, submit)
	s := NewDualMA("TXFG5", 2, 3, 1)

	bar := closeBar(0, 10)
	bar.Symbol = "MTXFG5"
	ctx.OnBar(bar)
	s.OnBar(ctx, bar)
}

func TestDualMANoOrderWithoutCrossover(t *testing.T) {
	var submitted []types.OrderRequest
	submit := func(o types.OrderRequest) error {
		submitted = append(submitted, o)
		return nil
	}
	ctx := strategy.NewContext(10, func(string) (types.Position, bool) { return types.Position{}, false }, submit)
	s := NewDualMA("TXFG5", 2, 3, 1)

	for i, c := range []float64{10, 10, 10, 10, 10} {
		bar := closeBar(i, c)
		ctx.OnBar(bar)
		s.OnBar(ctx, bar)
	}

	if len(submitted) != 0 {
		t.Errorf("expected no orders with flat closes, got %+v", submitted)
	}
}
