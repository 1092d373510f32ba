// Package contract holds the Taiwan futures contract specifications
// (TX, MTX) and the registry that resolves a trading symbol such as
// "MTXFG5" to its contract family via longest-prefix matching.
package contract

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/internal/txerrors"
	"github.com/txf-quant/txfbt/pkg/types"
)

// Contract multipliers, tick sizes, margins and fees, per TAIFEX
// published specifications. These are defaults and can be overridden
// via Registry.Register.
var (
	TXMultiplier  = decimal.NewFromInt(200)
	MTXMultiplier = decimal.NewFromInt(50)

	TXTickSize  = decimal.NewFromInt(1)
	MTXTickSize = decimal.NewFromInt(1)

	TXInitialMargin     = decimal.NewFromInt(184000)
	TXMaintenanceMargin = decimal.NewFromInt(141000)
	MTXInitialMargin    = decimal.NewFromInt(46000)
	MTXMaintenanceMargin = decimal.NewFromInt(35250)

	DefaultCommissionPerContract = decimal.NewFromInt(60)
	DefaultTaxRate                = decimal.NewFromFloat(0.00002)

	TXPriceLimitPct = decimal.NewFromFloat(0.10)
)

func clockTime(hour, min int) time.Time {
	return time.Date(0, 1, 1, hour, min, 0, 0, time.UTC)
}

var (
	txDaySession = types.TradingSession{
		Start: clockTime(8, 45),
		End:   clockTime(13, 45),
		Name:  "day",
	}
	txNightSession = types.TradingSession{
		Start: clockTime(15, 0),
		End:   clockTime(5, 0),
		Name:  "night",
	}
)

// TXSpec is the standard "big" Taiwan index futures contract.
var TXSpec = types.ContractSpec{
	Symbol:            "TX",
	Name:              "臺股期貨",
	Multiplier:        TXMultiplier,
	TickSize:          TXTickSize,
	Currency:          "TWD",
	InitialMargin:     TXInitialMargin,
	MaintenanceMargin: TXMaintenanceMargin,
	DaySession:        txDaySession,
	NightSession:      &txNightSession,
}

// MTXSpec is the "mini" Taiwan index futures contract.
var MTXSpec = types.ContractSpec{
	Symbol:            "MTX",
	Name:              "小型臺指期貨",
	Multiplier:        MTXMultiplier,
	TickSize:          MTXTickSize,
	Currency:          "TWD",
	InitialMargin:     MTXInitialMargin,
	MaintenanceMargin: MTXMaintenanceMargin,
	DaySession:        txDaySession,
	NightSession:      &txNightSession,
}

// Registry resolves trading symbols to contract specifications.
type Registry struct {
	specs map[string]types.ContractSpec
}

// NewRegistry creates a registry pre-populated with the TX and MTX
// specifications.
func NewRegistry() *Registry {
	return &Registry{
		specs: map[string]types.ContractSpec{
			"TX":  TXSpec,
			"MTX": MTXSpec,
		},
	}
}

// Get resolves symbol (e.g. "MTXFG5") to its contract spec by
// longest-matching prefix, so "MTX" is chosen over "TX" for an
// "MTXFG5" symbol.
func (r *Registry) Get(symbol string) (types.ContractSpec, error) {
	base := r.resolveBaseSymbol(symbol)
	spec, ok := r.specs[base]
	if !ok {
		return types.ContractSpec{}, fmt.Errorf("%s: %w", symbol, txerrors.ErrContractNotFound)
	}
	return spec, nil
}

// Register adds or overrides a contract specification.
func (r *Registry) Register(spec types.ContractSpec) {
	r.specs[spec.Symbol] = spec
}

func (r *Registry) resolveBaseSymbol(symbol string) string {
	prefixes := make([]string, 0, len(r.specs))
	for p := range r.specs {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for _, prefix := range prefixes {
		if strings.HasPrefix(symbol, prefix) {
			return prefix
		}
	}
	return symbol
}
