package pretrade

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/txf-quant/txfbt/internal/txerrors"
)

// Config holds the pre-trade margin and daily-loss thresholds.
type Config struct {
	MaxDailyLoss decimal.Decimal // 0 disables the check
}

// CheckInput carries everything the pre-trade check needs about the
// order being evaluated and the current portfolio state. Kept as
// plain values (rather than importing the position/matching packages)
// to avoid coupling the risk package to the rest of the engine.
type CheckInput struct {
	AvailableMargin   decimal.Decimal
	RequiredMargin     decimal.Decimal
	ResultingQuantity int64 // position size if this order fills
	ResultingExposure decimal.Decimal
	RealizedPnLToday  decimal.Decimal
}

// Checker runs the pre-trade risk pipeline in order: margin
// sufficiency, the position limit, the daily-loss ceiling, then the
// total-exposure limit.
type Checker struct {
	cfg              Config
	limits           *LimitChecker
	dailyRealizedPnL decimal.Decimal
}

// NewChecker creates a pre-trade checker wired to limits.
func NewChecker(cfg Config, limits *LimitChecker) *Checker {
	return &Checker{cfg: cfg, limits: limits}
}

// UpdateDailyPnL records the realized P&L accumulated since the last
// ResetDaily call.
func (c *Checker) UpdateDailyPnL(realizedPnL decimal.Decimal) {
	c.dailyRealizedPnL = realizedPnL
}

// ResetDaily clears the daily realized-P&L baseline. The engine calls
// this at each session boundary so the daily-loss ceiling measures
// per-session loss instead of accumulating across the entire run.
func (c *Checker) ResetDaily() {
	c.dailyRealizedPnL = decimal.Zero
}

// Check runs every pre-trade condition against in, returning the
// first violated check as an error, or nil if the order may proceed.
func (c *Checker) Check(orderID string, in CheckInput) error {
	if err := c.checkMargin(orderID, in); err != nil {
		return err
	}
	if err := c.limits.CheckPositionLimit(in.ResultingQuantity); err != nil {
		return txerrors.NewOrderRejected(orderID, err.Error())
	}
	if err := c.checkDailyLoss(orderID); err != nil {
		return err
	}
	if err := c.limits.CheckTotalExposure(in.ResultingExposure); err != nil {
		return txerrors.NewOrderRejected(orderID, err.Error())
	}
	return nil
}

func (c *Checker) checkMargin(orderID string, in CheckInput) error {
	if in.RequiredMargin.GreaterThan(in.AvailableMargin) {
		return fmt.Errorf("%w: required %v available %v", txerrors.ErrInsufficientMargin, in.RequiredMargin, in.AvailableMargin)
	}
	return nil
}

func (c *Checker) checkDailyLoss(orderID string) error {
	if c.cfg.MaxDailyLoss.IsZero() {
		return nil
	}
	if c.dailyRealizedPnL.IsNegative() && c.dailyRealizedPnL.Abs().GreaterThanOrEqual(c.cfg.MaxDailyLoss) {
		return txerrors.NewOrderRejected(orderID, fmt.Sprintf("daily loss %v exceeds max %v", c.dailyRealizedPnL.Abs(), c.cfg.MaxDailyLoss))
	}
	return nil
}
