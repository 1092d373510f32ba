// Package txerrors defines the typed error taxonomy used throughout
// the engine: contract lookup failures, data errors, order rejection,
// margin shortfalls, risk limit breaches, and internal invariant
// violations. Callers use errors.Is/errors.As against the sentinel
// values and wrapper types below rather than matching on strings.
package txerrors

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Wrap these with fmt.Errorf("...: %w", ...) to
// add context while keeping errors.Is matching intact.
var (
	ErrContractNotFound    = errors.New("contract not found")
	ErrDataError           = errors.New("data error")
	ErrInsufficientMargin  = errors.New("insufficient margin")
	ErrRiskLimitBreached   = errors.New("risk limit breached")
	ErrInvariantViolation  = errors.New("invariant violation")
)

// OrderRejectedError is returned when an order fails pre-trade
// checking or cannot be matched. It carries the order ID and a
// human-readable reason, mirroring the original implementation's
// OrderRejectedError exception.
type OrderRejectedError struct {
	OrderID string
	Reason  string
}

func (e *OrderRejectedError) Error() string {
	return fmt.Sprintf("order %s rejected: %s", e.OrderID, e.Reason)
}

// NewOrderRejected constructs an OrderRejectedError.
func NewOrderRejected(orderID, reason string) *OrderRejectedError {
	return &OrderRejectedError{OrderID: orderID, Reason: reason}
}

// Is allows errors.Is(err, txerrors.ErrOrderRejectedKind) style checks
// without depending on the OrderID/Reason values.
func (e *OrderRejectedError) Is(target error) bool {
	return target == errOrderRejectedKind
}

var errOrderRejectedKind = errors.New("order rejected")

// ErrOrderRejectedKind is the sentinel to match against with errors.Is
// when the caller only cares about the error kind, not its payload.
var ErrOrderRejectedKind = errOrderRejectedKind
