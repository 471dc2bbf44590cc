package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

const capturedBody = `{
  "event": "payment.captured",
  "payload": {"payment": {"entity": {
    "id": "pay_Xyz789", "order_id": "order_Abc123",
    "amount": 59950, "currency": "INR", "status": "captured"
  }}}
}`

func sign(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhookSignature(t *testing.T) {
	body := []byte(capturedBody)

	assert.True(t, VerifyWebhookSignature("whsec", body, sign("whsec", capturedBody)))
	assert.False(t, VerifyWebhookSignature("whsec", body, sign("other", capturedBody)))
	assert.False(t, VerifyWebhookSignature("", body, sign("", capturedBody)))
	assert.False(t, VerifyWebhookSignature("whsec", body, ""))
}

func TestParseWebhook(t *testing.T) {
	event, err := ParseWebhook([]byte(capturedBody))
	require.NoError(t, err)
	assert.Equal(t, EventPaymentCaptured, event.Event)
	assert.Equal(t, "order_Abc123", event.Payload.Payment.Entity.OrderID)
	assert.Equal(t, int64(59950), event.Payload.Payment.Entity.Amount)

	_, err = ParseWebhook([]byte(`{"payload":{}}`))
	assert.ErrorIs(t, err, ErrInvalidWebhook)
	_, err = ParseWebhook([]byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidWebhook)
}

func newReconciler() (*Reconciler, *MemoryIncidentRepository, *order.MemoryRepository) {
	incidents := NewMemoryIncidentRepository()
	orders := order.NewMemoryRepository()
	return NewReconciler(incidents, orders, metrics.NewRecorder(nil), logger.Discard()), incidents, orders
}

func TestCapturedWithoutOrderRecordsIncidentOnce(t *testing.T) {
	r, incidents, _ := newReconciler()
	ctx := context.Background()
	event, err := ParseWebhook([]byte(capturedBody))
	require.NoError(t, err)

	incident, err := r.HandleWebhook(ctx, event)
	require.NoError(t, err)
	require.NotNil(t, incident)
	assert.Equal(t, IncidentCapturedWithoutOrder, incident.Kind)
	assert.Equal(t, "pay_Xyz789", incident.GatewayPaymentID)

	again, err := r.HandleWebhook(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, incident.ID, again.ID)
	assert.Len(t, incidents.All(), 1)
}

func TestCapturedWithOrderIsIgnored(t *testing.T) {
	r, incidents, orders := newReconciler()
	ctx := context.Background()
	gid := "order_Abc123"
	require.NoError(t, orders.InsertOrder(ctx, &order.Order{StoreID: 1, GatewayOrderID: &gid}))

	event, err := ParseWebhook([]byte(capturedBody))
	require.NoError(t, err)

	incident, err := r.HandleWebhook(ctx, event)
	require.NoError(t, err)
	assert.Nil(t, incident)
	assert.Empty(t, incidents.All())
}

func TestOtherEventsIgnored(t *testing.T) {
	r, incidents, _ := newReconciler()
	incident, err := r.HandleWebhook(context.Background(), &WebhookEvent{Event: EventPaymentFailed})
	require.NoError(t, err)
	assert.Nil(t, incident)
	assert.Empty(t, incidents.All())
}

func TestResolveIncident(t *testing.T) {
	r, _, _ := newReconciler()
	ctx := context.Background()
	require.NoError(t, r.Report(ctx, &Incident{Kind: IncidentVerificationFailed, GatewayOrderID: "order_1"}))

	open, err := r.Unresolved(ctx, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)

	require.NoError(t, r.Resolve(ctx, open[0].ID, "refunded manually"))
	assert.ErrorIs(t, r.Resolve(ctx, open[0].ID, "again"), ErrIncidentNotFound)

	open, err = r.Unresolved(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSettleClosesCapturedIncident(t *testing.T) {
	r, _, _ := newReconciler()
	ctx := context.Background()
	event, err := ParseWebhook([]byte(capturedBody))
	require.NoError(t, err)

	_, err = r.HandleWebhook(ctx, event)
	require.NoError(t, err)
	require.NoError(t, r.Report(ctx, &Incident{Kind: IncidentVerificationFailed, GatewayOrderID: "order_Abc123"}))

	require.NoError(t, r.Settle(ctx, "order_Abc123", 42))
	require.NoError(t, r.Settle(ctx, "order_Unknown", 43))

	open, err := r.Unresolved(ctx, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, IncidentVerificationFailed, open[0].Kind)
}
