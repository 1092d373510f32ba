package position

import (
	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/pkg/types"
)

// calculateUnrealizedPnL computes the unrealized P&L of an open
// position:
//
//	long:  (current - avg) * qty * multiplier
//	short: (avg - current) * qty * multiplier
func calculateUnrealizedPnL(side types.Side, avgPrice, currentPrice decimal.Decimal, quantity int64, multiplier decimal.Decimal) decimal.Decimal {
	qty := decimal.NewFromInt(quantity)
	if side == types.Buy {
		return currentPrice.Sub(avgPrice).Mul(qty).Mul(multiplier)
	}
	return avgPrice.Sub(currentPrice).Mul(qty).Mul(multiplier)
}

// calculateRealizedPnL computes the realized P&L of a closed (or
// partially closed) trade using the same sign convention as
// calculateUnrealizedPnL.
func calculateRealizedPnL(side types.Side, entryPrice, exitPrice decimal.Decimal, quantity int64, multiplier decimal.Decimal) decimal.Decimal {
	qty := decimal.NewFromInt(quantity)
	if side == types.Buy {
		return exitPrice.Sub(entryPrice).Mul(qty).Mul(multiplier)
	}
	return entryPrice.Sub(exitPrice).Mul(qty).Mul(multiplier)
}

// calculateMarginRequired returns the initial margin required to hold
// quantity contracts of spec.
func calculateMarginRequired(quantity int64, spec types.ContractSpec) decimal.Decimal {
	return spec.InitialMargin.Mul(decimal.NewFromInt(quantity))
}

// CalculateNotionalValue returns the notional value of a trade, used
// as the tax base and by the pre-trade exposure check.
func CalculateNotionalValue(price decimal.Decimal, quantity int64, multiplier decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(quantity)).Mul(multiplier)
}
