// Package commission computes the trading costs (commission + tax)
// charged on each fill for Taiwan futures contracts.
package commission

import (
	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/internal/contract"
)

// Model calculates commission and tax for a fill.
//
//   - Commission: a fixed amount per contract per side.
//   - Tax (期交稅): notional value times the tax rate.
type Model struct {
	PerContract decimal.Decimal
	TaxRate     decimal.Decimal
}

// NewModel creates a commission model with the given rates.
func NewModel(perContract, taxRate decimal.Decimal) *Model {
	return &Model{PerContract: perContract, TaxRate: taxRate}
}

// NewDefaultModel creates a commission model using TAIFEX default
// rates.
func NewDefaultModel() *Model {
	return NewModel(contract.DefaultCommissionPerContract, contract.DefaultTaxRate)
}

// Commission returns the commission owed for trading quantity
// contracts.
func (m *Model) Commission(quantity int64) decimal.Decimal {
	return m.PerContract.Mul(decimal.NewFromInt(quantity))
}

// Tax returns the tax owed on a trade's notional value.
func (m *Model) Tax(notionalValue decimal.Decimal) decimal.Decimal {
	return notionalValue.Mul(m.TaxRate)
}

// TotalCost returns commission plus tax for a trade.
func (m *Model) TotalCost(quantity int64, notionalValue decimal.Decimal) decimal.Decimal {
	return m.Commission(quantity).Add(m.Tax(notionalValue))
}
