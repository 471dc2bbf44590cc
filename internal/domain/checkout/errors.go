// internal/domain/checkout/errors.go
package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrEmptyCart means there is nothing to check out; the buyer goes back
	// to the cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOrderNotPlaced is the user-visible "order could not be placed".
	ErrOrderNotPlaced = errors.New("order could not be placed")
	// ErrCheckoutInProgress is returned while another checkout of the same
	// session holds the lock.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	// ErrAttemptNotFound is returned for unknown, expired or foreign attempts.
	ErrAttemptNotFound = errors.New("checkout attempt not found")
	// ErrIllegalTransition is returned when an attempt is not in a state that
	// allows the requested step.
	ErrIllegalTransition = errors.New("illegal checkout transition")
	// ErrOnlinePaymentsDisabled is returned when no gateway is configured.
	ErrOnlinePaymentsDisabled = errors.New("online payments are not available")
)

// ValidationError lists buyer detail fields that failed validation. The
// details form stays open.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid checkout details: %s", strings.Join(names, ", "))
}

// GatewayError wraps a failed call to the payment gateway. No order exists
// and the cart is untouched.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway %s failed: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error { return e.Err }

// PaymentVerificationError means the gateway result could not be verified.
// Money may have moved; an incident was recorded and the step is never
// retried automatically.
type PaymentVerificationError struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Err              error
}

func (e *PaymentVerificationError) Error() string {
	return fmt.Sprintf("payment %s for %s could not be verified: %v", e.GatewayPaymentID, e.GatewayOrderID, e.Err)
}

func (e *PaymentVerificationError) Unwrap() error { return e.Err }

// CompensationFailure means order lines could not be written and the order
// row could not be removed either. The order row is orphaned.
type CompensationFailure struct {
	OrderID   uint
	InsertErr error
	DeleteErr error
}

func (e *CompensationFailure) Error() string {
	return fmt.Sprintf("order %d left without lines: insert: %v; delete: %v", e.OrderID, e.InsertErr, e.DeleteErr)
}

// Unwrap lets callers match ErrOrderNotPlaced
func (e *CompensationFailure) Unwrap() error { return ErrOrderNotPlaced }
