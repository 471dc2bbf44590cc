package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/email"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

type capturePublisher struct {
	subject string
	data    []byte
	err     error
}

func (c *capturePublisher) Publish(subject string, data []byte) error {
	c.subject = subject
	c.data = data
	return c.err
}

type failingNotifier struct{ err error }

func (f failingNotifier) OrderPlaced(context.Context, OrderEvent) error { return f.err }

func sampleEvent() OrderEvent {
	return OrderEvent{
		StoreName: "mystore",
		Order: &order.Order{
			ID: 42, OrderNumber: "ORD-20260102-ABCDEF12", StoreID: 7,
			BuyerName: "Asha Rao", TotalAmount: 59950, Currency: "INR",
			PaymentMethod: order.PaymentMethodCOD, PaymentStatus: order.PaymentStatusPending,
			CreatedAt: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC),
			Lines: []order.Line{
				{ProductID: 1, Name: "Mug", Quantity: 2, PriceAtPurchase: 25000},
				{ProductID: 2, Name: "Poster", Quantity: 1, PriceAtPurchase: 9950},
			},
		},
	}
}

func TestNATSNotifierPublishes(t *testing.T) {
	pub := &capturePublisher{}
	n := NewNATSNotifier(pub, "storefront.orders.placed")

	require.NoError(t, n.OrderPlaced(context.Background(), sampleEvent()))
	assert.Equal(t, "storefront.orders.placed", pub.subject)

	var msg OrderPlacedMessage
	require.NoError(t, json.Unmarshal(pub.data, &msg))
	assert.Equal(t, "order.placed", msg.Event)
	assert.Equal(t, uint(42), msg.OrderID)
	assert.Equal(t, 3, msg.ItemCount)
	assert.Equal(t, int64(59950), msg.TotalAmount)
	assert.Equal(t, "mystore", msg.Store)
}

func TestNATSNotifierCancelledContext(t *testing.T) {
	pub := &capturePublisher{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewNATSNotifier(pub, "s").OrderPlaced(ctx, sampleEvent())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, pub.data)
}

func TestMultiJoinsErrors(t *testing.T) {
	boom := errors.New("smtp down")
	pub := &capturePublisher{}
	m := Multi{failingNotifier{err: boom}, nil, NewNATSNotifier(pub, "s"), Nop{}}

	err := m.OrderPlaced(context.Background(), sampleEvent())
	assert.ErrorIs(t, err, boom)
	assert.NotNil(t, pub.data)
}

func TestConfirmationData(t *testing.T) {
	data := confirmationData(sampleEvent())
	assert.Equal(t, "599.50", data.OrderTotal)
	assert.Equal(t, "02 Jan 2026", data.OrderDate)
	require.Len(t, data.Items, 2)
	assert.Equal(t, "500.00", data.Items[0].Total)
	assert.Equal(t, "250.00", data.Items[0].Price)
}

func TestEmailNotifierWithLogProvider(t *testing.T) {
	svc := email.NewService(config.EmailConfig{Provider: "log"}, "", logger.Discard())
	event := sampleEvent()
	event.Order.BuyerEmail = "asha@example.com"
	event.SellerEmail = "owner@example.com"

	assert.NoError(t, NewEmailNotifier(svc).OrderPlaced(context.Background(), event))
}
