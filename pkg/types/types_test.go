package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSideOpposite(t *testing.T) {
	tests := []struct {
		name string
		side Side
		want Side
	}{
		{"buy flips to sell", Buy, Sell},
		{"sell flips to buy", Sell, Buy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.side.Opposite(); got != tt.want {
				t.Errorf("Opposite() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPositionFlags(t *testing.T) {
	long := Position{Side: Buy, Quantity: 3}
	if !long.IsLong() || long.IsShort() || long.IsFlat() {
		t.Errorf("long position flags wrong: %+v", long)
	}

	short := Position{Side: Sell, Quantity: 2}
	if !short.IsShort() || short.IsLong() || short.IsFlat() {
		t.Errorf("short position flags wrong: %+v", short)
	}

	flat := Position{Quantity: 0}
	if !flat.IsFlat() {
		t.Errorf("flat position should report IsFlat() = true")
	}
}

func TestContractSpecTickValue(t *testing.T) {
	spec := ContractSpec{
		Symbol:     "TX",
		Multiplier: decimal.NewFromInt(200),
		TickSize:   decimal.NewFromInt(1),
	}
	want := decimal.NewFromInt(200)
	if got := spec.TickValue(); !got.Equal(want) {
		t.Errorf("TickValue() = %v, want %v", got, want)
	}
}
