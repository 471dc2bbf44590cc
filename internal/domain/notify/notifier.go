// internal/domain/notify/notifier.go
package notify

import (
	"context"
	"errors"

	"github.com/your-org/storefront-backend/internal/domain/order"
)

// OrderEvent describes a freshly placed order
type OrderEvent struct {
	Order       *order.Order
	StoreName   string
	SellerEmail string
	OrderURL    string
}

// Notifier tells interested parties that an order was placed. Callers run
// it off the request path and only log its errors.
type Notifier interface {
	OrderPlaced(ctx context.Context, event OrderEvent) error
}

// Multi fans an event out to several notifiers
type Multi []Notifier

// OrderPlaced calls every notifier and joins their errors
func (m Multi) OrderPlaced(ctx context.Context, event OrderEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.OrderPlaced(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events
type Nop struct{}

// OrderPlaced does nothing
func (Nop) OrderPlaced(context.Context, OrderEvent) error { return nil }
