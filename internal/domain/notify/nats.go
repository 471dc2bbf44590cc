// internal/domain/notify/nats.go
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Publisher is the part of *nats.Conn the notifier needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// OrderPlacedMessage is the event published on the order subject
type OrderPlacedMessage struct {
	Event         string              `json:"event"`
	OrderID       uint                `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	StoreID       uint                `json:"store_id"`
	Store         string              `json:"store"`
	TotalAmount   int64               `json:"total_amount"`
	Currency      string              `json:"currency"`
	PaymentMethod order.PaymentMethod `json:"payment_method"`
	PaymentStatus order.PaymentStatus `json:"payment_status"`
	ItemCount     int                 `json:"item_count"`
	PlacedAt      time.Time           `json:"placed_at"`
}

// NATSNotifier publishes order events for downstream consumers
type NATSNotifier struct {
	conn    Publisher
	subject string
}

// DialNATS connects to the event bus
func DialNATS(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("storefront-backend"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return conn, nil
}

// NewNATSNotifier creates a NATS notifier publishing on subject
func NewNATSNotifier(conn Publisher, subject string) *NATSNotifier {
	return &NATSNotifier{conn: conn, subject: subject}
}

func (n *NATSNotifier) OrderPlaced(ctx context.Context, event OrderEvent) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}

	o := event.Order
	items := 0
	for _, line := range o.Lines {
		items += line.Quantity
	}

	data, err := json.Marshal(OrderPlacedMessage{
		Event:         "order.placed",
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		StoreID:       o.StoreID,
		Store:         event.StoreName,
		TotalAmount:   o.TotalAmount,
		Currency:      o.Currency,
		PaymentMethod: o.PaymentMethod,
		PaymentStatus: o.PaymentStatus,
		ItemCount:     items,
		PlacedAt:      o.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	if err := n.conn.Publish(n.subject, data); err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}
	return nil
}
