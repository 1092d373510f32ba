package report

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/pkg/types"
)

func TestCalculateEmptyEquityCurveReturnsZeroValue(t *testing.T) {
	m := Calculate(nil, nil, 1000000, 0, 0, DefaultOptions())
	if m.TotalReturn != 0 || m.TotalTrades != 0 {
		t.Errorf("expected zero-value metrics, got %+v", m)
	}
}

func TestCalculateTotalReturn(t *testing.T) {
	equity := []float64{1000000, 1010000, 1050000}
	m := Calculate(equity, nil, 1000000, 0, 0, DefaultOptions())
	if m.TotalReturn != 50000 {
		t.Errorf("TotalReturn = %v, want 50000", m.TotalReturn)
	}
	if math.Abs(m.TotalReturnPct-5.0) > 1e-9 {
		t.Errorf("TotalReturnPct = %v, want 5.0", m.TotalReturnPct)
	}
}

func TestCalculateMaxDrawdown(t *testing.T) {
	equity := []float64{1000000, 1100000, 900000, 950000}
	m := Calculate(equity, nil, 1000000, 0, 0, DefaultOptions())
	if m.MaxDrawdown != 200000 {
		t.Errorf("MaxDrawdown = %v, want 200000", m.MaxDrawdown)
	}
	wantPct := 200000.0 / 1100000.0 * 100
	if math.Abs(m.MaxDrawdownPct-wantPct) > 1e-6 {
		t.Errorf("MaxDrawdownPct = %v, want %v", m.MaxDrawdownPct, wantPct)
	}
}

func TestCalculateTradeStatistics(t *testing.T) {
	trades := []types.TradeRecord{
		{PnL: decimal.NewFromInt(1000), Quantity: 1, BarsHeld: 5},
		{PnL: decimal.NewFromInt(-500), Quantity: 1, BarsHeld: 3},
		{PnL: decimal.NewFromInt(2000), Quantity: 2, BarsHeld: 10},
	}
	m := Calculate([]float64{1000000, 1002500}, trades, 1000000, 120, 5, DefaultOptions())

	if m.TotalTrades != 3 {
		t.Errorf("TotalTrades = %d, want 3", m.TotalTrades)
	}
	if m.WinningTrades != 2 || m.LosingTrades != 1 {
		t.Errorf("winners/losers = %d/%d, want 2/1", m.WinningTrades, m.LosingTrades)
	}
	wantWinRate := 2.0 / 3.0 * 100
	if math.Abs(m.WinRate-wantWinRate) > 1e-9 {
		t.Errorf("WinRate = %v, want %v", m.WinRate, wantWinRate)
	}
	if m.MaxConsecutiveWins != 1 {
		t.Errorf("MaxConsecutiveWins = %d, want 1", m.MaxConsecutiveWins)
	}
	if m.TotalCommission != 120 || m.TotalTax != 5 {
		t.Errorf("commission/tax = %v/%v, want 120/5", m.TotalCommission, m.TotalTax)
	}
}

func TestCalculateProfitFactorInfiniteWithNoLosses(t *testing.T) {
	trades := []types.TradeRecord{
		{PnL: decimal.NewFromInt(1000), Quantity: 1},
	}
	m := Calculate([]float64{1000000, 1001000}, trades, 1000000, 0, 0, DefaultOptions())
	if !math.IsInf(m.ProfitFactor, 1) {
		t.Errorf("ProfitFactor = %v, want +Inf", m.ProfitFactor)
	}
}

func TestEquityCurveFloatsConverts(t *testing.T) {
	points := []types.EquityPoint{
		{Equity: decimal.NewFromInt(1000000)},
		{Equity: decimal.NewFromInt(1005000)},
	}
	floats := EquityCurveFloats(points)
	if len(floats) != 2 || floats[1] != 1005000 {
		t.Errorf("EquityCurveFloats = %v", floats)
	}
}
