// Package pretrade implements the pre-trade risk gate: position-size
// and total-exposure limits (LimitChecker), and margin/daily-loss
// checks (Checker) run before an order is allowed to submit.
package pretrade

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/internal/txerrors"
)

// LimitsConfig holds the position and exposure ceilings for a run. A
// zero MaxTotalExposure disables the total-exposure check.
type LimitsConfig struct {
	MaxPositionContracts int64
	MaxTotalExposure     decimal.Decimal
}

// LimitChecker enforces position-size and total-exposure ceilings.
type LimitChecker struct {
	cfg LimitsConfig
}

// NewLimitChecker creates a limit checker.
func NewLimitChecker(cfg LimitsConfig) *LimitChecker {
	return &LimitChecker{cfg: cfg}
}

// CheckPositionLimit rejects an order that would push the resulting
// position beyond MaxPositionContracts.
func (c *LimitChecker) CheckPositionLimit(resultingQuantity int64) error {
	if c.cfg.MaxPositionContracts <= 0 {
		return nil
	}
	if resultingQuantity > c.cfg.MaxPositionContracts {
		return fmt.Errorf("position size %d exceeds max %d: %w", resultingQuantity, c.cfg.MaxPositionContracts, txerrors.ErrRiskLimitBreached)
	}
	return nil
}

// CheckTotalExposure rejects an order that would push total notional
// exposure across the portfolio beyond MaxTotalExposure. A zero
// MaxTotalExposure disables the check.
func (c *LimitChecker) CheckTotalExposure(resultingExposure decimal.Decimal) error {
	if c.cfg.MaxTotalExposure.IsZero() {
		return nil
	}
	if resultingExposure.GreaterThan(c.cfg.MaxTotalExposure) {
		return fmt.Errorf("total exposure %v exceeds max %v: %w", resultingExposure, c.cfg.MaxTotalExposure, txerrors.ErrRiskLimitBreached)
	}
	return nil
}
