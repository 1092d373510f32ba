package commission

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCommission(t *testing.T) {
	m := NewModel(decimal.NewFromInt(60), decimal.NewFromFloat(0.00002))

	got := m.Commission(3)
	want := decimal.NewFromInt(180)
	if !got.Equal(want) {
		t.Errorf("Commission(3) = %v, want %v", got, want)
	}
}

func TestTax(t *testing.T) {
	m := NewModel(decimal.NewFromInt(60), decimal.NewFromFloat(0.00002))

	notional := decimal.NewFromInt(1000000)
	got := m.Tax(notional)
	want := decimal.NewFromInt(20)
	if !got.Equal(want) {
		t.Errorf("Tax(%v) = %v, want %v", notional, got, want)
	}
}

func TestTotalCost(t *testing.T) {
	m := NewModel(decimal.NewFromInt(60), decimal.NewFromFloat(0.00002))

	got := m.TotalCost(2, decimal.NewFromInt(2000000))
	want := decimal.NewFromInt(120).Add(decimal.NewFromInt(40))
	if !got.Equal(want) {
		t.Errorf("TotalCost() = %v, want %v", got, want)
	}
}

func TestNewDefaultModel(t *testing.T) {
	m := NewDefaultModel()
	if !m.PerContract.Equal(decimal.NewFromInt(60)) {
		t.Errorf("default PerContract = %v, want 60", m.PerContract)
	}
}
