// internal/domain/payment/reconcile.go
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

// Webhook event types handled by the reconciler
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
	EventOrderPaid       = "order.paid"
)

// ErrInvalidWebhook is returned for webhook bodies that fail signature
// verification or cannot be parsed
var ErrInvalidWebhook = errors.New("invalid webhook")

// WebhookEvent is the subset of the gateway webhook payload we use
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity WebhookPayment `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// WebhookPayment is the payment entity inside a webhook
type WebhookPayment struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

// VerifyWebhookSignature checks the hex HMAC-SHA256 of the raw body
func VerifyWebhookSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

// ParseWebhook decodes a webhook body
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWebhook, err)
	}
	if event.Event == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrInvalidWebhook)
	}
	return &event, nil
}

// OrderFinder looks up platform orders by gateway order id
type OrderFinder interface {
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*order.Order, error)
}

// Reconciler records payments that reached the gateway but not the order
// table, and serves the ledger to operators.
type Reconciler struct {
	incidents IncidentRepository
	orders    OrderFinder
	metrics   *metrics.Recorder
	logger    *logrus.Logger
}

// NewReconciler creates a payment reconciler
func NewReconciler(incidents IncidentRepository, orders OrderFinder, recorder *metrics.Recorder, logger *logrus.Logger) *Reconciler {
	return &Reconciler{
		incidents: incidents,
		orders:    orders,
		metrics:   recorder,
		logger:    logger,
	}
}

// Report writes an incident to the ledger, logs it and counts it
func (r *Reconciler) Report(ctx context.Context, incident *Incident) error {
	fields := logrus.Fields{
		"kind":               incident.Kind,
		"store_id":           incident.StoreID,
		"gateway_order_id":   incident.GatewayOrderID,
		"gateway_payment_id": incident.GatewayPaymentID,
		"amount":             incident.Amount,
		"critical":           true,
	}
	r.metrics.PaymentIncident(string(incident.Kind))

	if err := r.incidents.Record(ctx, incident); err != nil {
		fields["error"] = err.Error()
		r.logger.WithFields(fields).Error("Failed to record payment incident")
		return err
	}
	fields["incident_id"] = incident.ID
	r.logger.WithFields(fields).Error("Payment incident recorded")
	return nil
}

// HandleWebhook processes a verified webhook event. It returns the incident
// recorded for it, or nil when nothing needed reconciling.
func (r *Reconciler) HandleWebhook(ctx context.Context, event *WebhookEvent) (*Incident, error) {
	if event.Event != EventPaymentCaptured {
		r.logger.WithField("event", event.Event).Debug("Ignoring webhook event")
		return nil, nil
	}

	payment := event.Payload.Payment.Entity
	if payment.OrderID == "" {
		return nil, fmt.Errorf("%w: captured payment has no order id", ErrInvalidWebhook)
	}

	_, err := r.orders.FindByGatewayOrderID(ctx, payment.OrderID)
	switch {
	case err == nil:
		return nil, nil
	case !errors.Is(err, order.ErrOrderNotFound):
		return nil, err
	}

	existing, err := r.incidents.FindByPayment(ctx, IncidentCapturedWithoutOrder, payment.ID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, ErrIncidentNotFound):
		return nil, err
	}

	incident := &Incident{
		Kind:             IncidentCapturedWithoutOrder,
		GatewayOrderID:   payment.OrderID,
		GatewayPaymentID: payment.ID,
		Amount:           payment.Amount,
		Currency:         payment.Currency,
		Detail:           "gateway captured a payment with no matching order",
	}
	if err := r.Report(ctx, incident); err != nil {
		return nil, err
	}
	return incident, nil
}

// Settle closes captured_without_order incidents for a gateway order once
// its platform order exists. The capture webhook usually arrives before the
// buyer's browser reports the payment.
func (r *Reconciler) Settle(ctx context.Context, gatewayOrderID string, orderID uint) error {
	closed, err := r.incidents.ResolveGatewayOrder(ctx, IncidentCapturedWithoutOrder, gatewayOrderID,
		fmt.Sprintf("order %d created for gateway order", orderID))
	if err != nil {
		return err
	}
	if closed > 0 {
		r.logger.WithFields(logrus.Fields{
			"gateway_order_id": gatewayOrderID,
			"order_id":         orderID,
			"closed":           closed,
		}).Info("Captured payment matched to order")
	}
	return nil
}

// Unresolved lists open incidents, oldest first
func (r *Reconciler) Unresolved(ctx context.Context, limit int) ([]Incident, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.incidents.ListUnresolved(ctx, limit)
}

// Resolve closes an incident with an operator note
func (r *Reconciler) Resolve(ctx context.Context, id uint, note string) error {
	if err := r.incidents.Resolve(ctx, id, note); err != nil {
		return err
	}
	r.logger.WithFields(logrus.Fields{"incident_id": id}).Info("Payment incident resolved")
	return nil
}
