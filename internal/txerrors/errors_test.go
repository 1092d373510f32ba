package txerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelWrapping(t *testing.T) {
	wrapped := fmt.Errorf("lookup MTXFG5: %w", ErrContractNotFound)
	if !errors.Is(wrapped, ErrContractNotFound) {
		t.Errorf("expected wrapped error to match ErrContractNotFound")
	}
}

func TestOrderRejectedError(t *testing.T) {
	err := NewOrderRejected("ord-1", "insufficient margin")
	if err.Error() != "order ord-1 rejected: insufficient margin" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, ErrOrderRejectedKind) {
		t.Errorf("expected errors.Is to match ErrOrderRejectedKind")
	}

	var target *OrderRejectedError
	if !errors.As(err, &target) {
		t.Errorf("expected errors.As to bind *OrderRejectedError")
	}
	if target.OrderID != "ord-1" {
		t.Errorf("OrderID = %s, want ord-1", target.OrderID)
	}
}
