// internal/domain/checkout/orchestrator.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/notify"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/session"
	"github.com/your-org/storefront-backend/internal/domain/store"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
)

// Options tune the orchestrator
type Options struct {
	Currency      string
	CallTimeout   time.Duration
	AttemptTTL    time.Duration
	LockTTL       time.Duration
	NotifyTimeout time.Duration
	// OrderURL builds the buyer-facing order link for notifications.
	OrderURL func(storeName string, orderID uint) string
}

// Orchestrator drives the checkout state machine from a validated cart to a
// finalized order
type Orchestrator struct {
	carts      *cart.Manager
	orders     order.Repository
	gateway    payment.Gateway
	reconciler *payment.Reconciler
	attempts   AttemptStore
	locker     Locker
	notifier   notify.Notifier
	metrics    *metrics.Recorder
	logger     *logrus.Logger
	opts       Options

	notifications sync.WaitGroup
}

// Dependencies groups what the orchestrator talks to. Gateway may be nil
// when online payments are disabled.
type Dependencies struct {
	Carts      *cart.Manager
	Orders     order.Repository
	Gateway    payment.Gateway
	Reconciler *payment.Reconciler
	Attempts   AttemptStore
	Locker     Locker
	Notifier   notify.Notifier
	Metrics    *metrics.Recorder
	Logger     *logrus.Logger
}

// NewOrchestrator creates a checkout orchestrator
func NewOrchestrator(deps Dependencies, opts Options) *Orchestrator {
	if opts.Currency == "" {
		opts.Currency = "INR"
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 5 * time.Second
	}
	if opts.AttemptTTL <= 0 {
		opts.AttemptTTL = 30 * time.Minute
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 20 * time.Second
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}

	return &Orchestrator{
		carts:      deps.Carts,
		orders:     deps.Orders,
		gateway:    deps.Gateway,
		reconciler: deps.Reconciler,
		attempts:   deps.Attempts,
		locker:     deps.Locker,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		opts:       opts,
	}
}

// Outcome is the result of a checkout step
type Outcome struct {
	State       State           `json:"state"`
	Reason      FailureReason   `json:"reason,omitempty"`
	AttemptID   string          `json:"attempt_id,omitempty"`
	Order       *order.Order    `json:"order,omitempty"`
	Payment     *PaymentRequest `json:"payment,omitempty"`
	Cart        *cart.View      `json:"cart,omitempty"`
	RedirectURL string          `json:"redirect_url,omitempty"`
}

// PaymentRequest is what the hosted payment widget needs
type PaymentRequest struct {
	AttemptID      string  `json:"attempt_id"`
	GatewayOrderID string  `json:"gateway_order_id"`
	PublicKey      string  `json:"public_key"`
	Amount         int64   `json:"amount"`
	Currency       string  `json:"currency"`
	StoreName      string  `json:"store_name"`
	Prefill        Prefill `json:"prefill"`
}

// Prefill is buyer data shown pre-filled in the widget
type Prefill struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PaymentResult is what the widget hands back after a successful charge
type PaymentResult struct {
	GatewayOrderID   string `json:"gateway_order_id" binding:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" binding:"required"`
	Signature        string `json:"signature" binding:"required"`
}

// PaymentMethodOption is one entry of the payment method picker
type PaymentMethodOption struct {
	ID          order.PaymentMethod `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Available   bool                `json:"available"`
}

// PaymentMethods lists the methods a buyer can pick
func (o *Orchestrator) PaymentMethods() []PaymentMethodOption {
	return []PaymentMethodOption{
		{
			ID:          order.PaymentMethodCOD,
			Name:        "Cash on Delivery",
			Description: "Pay cash when your order is delivered",
			Available:   true,
		},
		{
			ID:          order.PaymentMethodOnline,
			Name:        "Pay online",
			Description: "Pay using card, UPI, netbanking or wallets",
			Available:   o.gateway != nil,
		},
	}
}

// Validate checks that the cart can be checked out. An empty cart yields a
// redirect outcome, not an error.
func (o *Orchestrator) Validate(ctx context.Context, sess *session.Context, st *store.Store) (*Outcome, error) {
	attempt := newAttempt(sess.ID(), st.ID, st.Username, o.currency(st))
	view, err := o.validateCart(ctx, sess, st, attempt)
	if err != nil {
		return nil, err
	}
	if attempt.State == StateRedirectToCart {
		return o.outcome(attempt), nil
	}

	out := o.outcome(attempt)
	out.Cart = view
	return out, nil
}

// Submit places a checkout with the method chosen in details
func (o *Orchestrator) Submit(ctx context.Context, sess *session.Context, st *store.Store, details Details) (*Outcome, error) {
	details.Normalize()
	switch details.PaymentMethod {
	case order.PaymentMethodOnline:
		return o.BeginOnlinePayment(ctx, sess, st, details)
	case order.PaymentMethodCOD:
		return o.PlaceOrder(ctx, sess, st, details)
	default:
		// reports payment_method along with any other invalid field
		return nil, details.Validate()
	}
}

// PlaceOrder runs the cash on delivery path: price the cart, write the
// order and its lines, clear the cart and notify.
func (o *Orchestrator) PlaceOrder(ctx context.Context, sess *session.Context, st *store.Store, details Details) (*Outcome, error) {
	if err := details.requireMethod(order.PaymentMethodCOD); err != nil {
		return nil, err
	}

	release, err := o.locker.Acquire(ctx, lockKey(sess.ID()), o.opts.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	attempt := newAttempt(sess.ID(), st.ID, st.Username, o.currency(st))
	attempt.Method = order.PaymentMethodCOD

	view, err := o.validateCart(ctx, sess, st, attempt)
	if err != nil {
		return nil, err
	}
	if attempt.State == StateRedirectToCart {
		return o.outcome(attempt), nil
	}

	if err := details.Validate(); err != nil {
		return nil, err
	}
	attempt.Details = details
	snapshot(attempt, view)

	if err := attempt.transition(StateCreatingCODOrder); err != nil {
		return nil, err
	}

	placed, _, err := o.createOrder(ctx, st, attempt, nil)
	if err != nil {
		attempt.fail(failureReason(err))
		o.record(attempt)
		return nil, err
	}

	return o.finalize(ctx, sess, st, attempt, placed, true)
}

// BeginOnlinePayment prices the cart and creates a gateway intent. No order
// is written until CompletePayment verifies the payment.
func (o *Orchestrator) BeginOnlinePayment(ctx context.Context, sess *session.Context, st *store.Store, details Details) (*Outcome, error) {
	if o.gateway == nil {
		return nil, ErrOnlinePaymentsDisabled
	}
	if err := details.requireMethod(order.PaymentMethodOnline); err != nil {
		return nil, err
	}

	release, err := o.locker.Acquire(ctx, lockKey(sess.ID()), o.opts.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	attempt := newAttempt(sess.ID(), st.ID, st.Username, o.currency(st))
	attempt.Method = order.PaymentMethodOnline

	view, err := o.validateCart(ctx, sess, st, attempt)
	if err != nil {
		return nil, err
	}
	if attempt.State == StateRedirectToCart {
		return o.outcome(attempt), nil
	}

	if err := details.Validate(); err != nil {
		return nil, err
	}
	attempt.Details = details
	snapshot(attempt, view)

	if err := attempt.transition(StateCreatingGatewayIntent); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	intent, err := o.gateway.CreateIntent(callCtx, attempt.Amount, attempt.Currency, attempt.ID, map[string]string{
		"store_id":   strconv.FormatUint(uint64(st.ID), 10),
		"store":      st.Username,
		"attempt_id": attempt.ID,
	})
	cancel()
	if err != nil {
		attempt.fail(ReasonGatewayError)
		o.save(ctx, attempt)
		o.record(attempt)
		o.logger.WithFields(logrus.Fields{
			"attempt_id": attempt.ID,
			"store_id":   st.ID,
			"amount":     attempt.Amount,
			"error":      err.Error(),
		}).Warn("Payment intent creation failed")
		return nil, &GatewayError{Op: "create intent", Err: err}
	}

	attempt.GatewayOrderID = intent.ID
	if err := attempt.transition(StateAwaitingGatewayResult); err != nil {
		return nil, err
	}
	if err := o.attempts.Save(ctx, attempt, o.opts.AttemptTTL); err != nil {
		return nil, fmt.Errorf("%w: %w", cart.ErrStorage, err)
	}

	out := o.outcome(attempt)
	out.Payment = &PaymentRequest{
		AttemptID:      attempt.ID,
		GatewayOrderID: intent.ID,
		PublicKey:      o.gateway.PublicKey(),
		Amount:         attempt.Amount,
		Currency:       attempt.Currency,
		StoreName:      st.Name,
		Prefill: Prefill{
			Name:  details.FullName,
			Email: details.Email,
			Phone: details.Phone,
		},
	}
	return out, nil
}

// CancelPayment records that the buyer dismissed the widget. The cart is
// left as it was.
func (o *Orchestrator) CancelPayment(ctx context.Context, sess *session.Context, attemptID string) (*Outcome, error) {
	return o.abandon(ctx, sess, attemptID, ReasonCancelled, "")
}

// ReportWidgetError records a client-side widget failure. The cart is left
// as it was.
func (o *Orchestrator) ReportWidgetError(ctx context.Context, sess *session.Context, attemptID, detail string) (*Outcome, error) {
	return o.abandon(ctx, sess, attemptID, ReasonWidgetError, detail)
}

func (o *Orchestrator) abandon(ctx context.Context, sess *session.Context, attemptID string, reason FailureReason, detail string) (*Outcome, error) {
	attempt, err := o.loadAttempt(ctx, sess, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.State != StateAwaitingGatewayResult {
		return nil, fmt.Errorf("%w: attempt is %s", ErrIllegalTransition, attempt.State)
	}

	attempt.fail(reason)
	o.save(ctx, attempt)
	o.record(attempt)

	o.logger.WithFields(logrus.Fields{
		"attempt_id":       attempt.ID,
		"gateway_order_id": attempt.GatewayOrderID,
		"reason":           reason,
		"detail":           detail,
	}).Info("Online payment abandoned")

	return o.outcome(attempt), nil
}

// CompletePayment verifies a widget result and, only when it verifies,
// writes the paid order in the same call. Replays for a finalized attempt
// return the existing order. A result for a cancelled or errored widget is
// still accepted: the gateway may have charged the buyer after that.
func (o *Orchestrator) CompletePayment(ctx context.Context, sess *session.Context, st *store.Store, attemptID string, result PaymentResult) (*Outcome, error) {
	if o.gateway == nil {
		return nil, ErrOnlinePaymentsDisabled
	}

	release, err := o.locker.Acquire(ctx, lockKey(sess.ID()), o.opts.LockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	attempt, err := o.loadAttempt(ctx, sess, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.StoreID != st.ID {
		return nil, ErrAttemptNotFound
	}
	if attempt.State == StateFinalized {
		return o.replay(ctx, st, attempt)
	}

	if attempt.abandoned() {
		o.logger.WithFields(logrus.Fields{
			"attempt_id":         attempt.ID,
			"store_id":           st.ID,
			"gateway_order_id":   attempt.GatewayOrderID,
			"gateway_payment_id": result.GatewayPaymentID,
			"reason":             attempt.Reason,
		}).Warn("Payment result for abandoned widget")
		attempt.reopen()
	} else if err := attempt.transition(StateVerifyingPayment); err != nil {
		return nil, err
	}
	attempt.GatewayPaymentID = result.GatewayPaymentID

	verifyErr := o.gateway.Verify(attempt.GatewayOrderID, result.GatewayPaymentID, result.Signature)
	if verifyErr == nil && result.GatewayOrderID != attempt.GatewayOrderID {
		verifyErr = fmt.Errorf("%w: result is for %s", payment.ErrInvalidSignature, result.GatewayOrderID)
	}
	if verifyErr != nil {
		attempt.fail(ReasonVerificationFailed)
		o.save(ctx, attempt)
		o.record(attempt)

		o.logger.WithFields(logrus.Fields{
			"attempt_id":         attempt.ID,
			"store_id":           st.ID,
			"gateway_order_id":   attempt.GatewayOrderID,
			"gateway_payment_id": result.GatewayPaymentID,
			"amount":             attempt.Amount,
			"severity":           "payment_orphan",
			"error":              verifyErr.Error(),
		}).Error("Payment verification failed")
		o.report(ctx, &payment.Incident{
			Kind:             payment.IncidentVerificationFailed,
			StoreID:          st.ID,
			SessionID:        sess.ID(),
			GatewayOrderID:   attempt.GatewayOrderID,
			GatewayPaymentID: result.GatewayPaymentID,
			Amount:           attempt.Amount,
			Currency:         attempt.Currency,
			Detail:           verifyErr.Error(),
		})

		return nil, &PaymentVerificationError{
			GatewayOrderID:   attempt.GatewayOrderID,
			GatewayPaymentID: result.GatewayPaymentID,
			Err:              verifyErr,
		}
	}

	now := time.Now().UTC()
	placed, created, err := o.createOrder(ctx, st, attempt, &paidWith{
		gatewayOrderID:   attempt.GatewayOrderID,
		gatewayPaymentID: result.GatewayPaymentID,
		signature:        result.Signature,
		paidAt:           now,
	})
	if err != nil {
		attempt.fail(failureReason(err))
		o.save(ctx, attempt)
		o.record(attempt)

		var compensation *CompensationFailure
		if !errors.As(err, &compensation) {
			o.report(ctx, &payment.Incident{
				Kind:             payment.IncidentCapturedWithoutOrder,
				StoreID:          st.ID,
				SessionID:        sess.ID(),
				GatewayOrderID:   attempt.GatewayOrderID,
				GatewayPaymentID: result.GatewayPaymentID,
				Amount:           attempt.Amount,
				Currency:         attempt.Currency,
				Detail:           err.Error(),
			})
		}
		return nil, err
	}

	return o.finalize(ctx, sess, st, attempt, placed, created)
}

func (o *Orchestrator) replay(ctx context.Context, st *store.Store, attempt *Attempt) (*Outcome, error) {
	existing, err := o.orders.Get(ctx, st.ID, attempt.OrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", cart.ErrStorage, err)
	}
	out := o.outcome(attempt)
	out.Order = existing
	return out, nil
}

// validateCart moves a fresh attempt through validating_cart. The attempt
// ends in collecting_details, redirect_to_cart, or failed with an error.
func (o *Orchestrator) validateCart(ctx context.Context, sess *session.Context, st *store.Store, attempt *Attempt) (*cart.View, error) {
	if err := attempt.transition(StateValidatingCart); err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	view, err := o.carts.Load(callCtx, sess, st)
	cancel()
	if err != nil {
		attempt.fail(ReasonStorageError)
		o.record(attempt)
		if !errors.Is(err, cart.ErrStorage) {
			err = fmt.Errorf("%w: %w", cart.ErrStorage, err)
		}
		return nil, err
	}

	if view.IsEmpty() {
		if err := attempt.transition(StateRedirectToCart); err != nil {
			return nil, err
		}
		o.record(attempt)
		return view, nil
	}

	if err := attempt.transition(StateCollectingDetails); err != nil {
		return nil, err
	}
	return view, nil
}

func snapshot(attempt *Attempt, view *cart.View) {
	attempt.Lines = make([]LineSnapshot, 0, len(view.Lines))
	for _, line := range view.Lines {
		snap := LineSnapshot{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
		if line.Product != nil {
			snap.SKU = line.Product.SKU
			snap.Name = line.Product.Name
		}
		attempt.Lines = append(attempt.Lines, snap)
	}
	attempt.Amount = attempt.LinesTotal()
}

type paidWith struct {
	gatewayOrderID   string
	gatewayPaymentID string
	signature        string
	paidAt           time.Time
}

// createOrder writes the order row and then its lines. When the lines fail
// the order row is deleted again; when that delete fails too the result is
// a CompensationFailure and an incident is recorded. created is false when
// an order for the same gateway payment already existed.
func (o *Orchestrator) createOrder(ctx context.Context, st *store.Store, attempt *Attempt, paid *paidWith) (placedOrder *order.Order, created bool, err error) {
	d := attempt.Details
	placed := &order.Order{
		OrderNumber:   order.NewOrderNumber(time.Now().UTC()),
		StoreID:       st.ID,
		SessionID:     attempt.SessionID,
		BuyerName:     d.FullName,
		BuyerEmail:    d.Email,
		BuyerPhone:    d.Phone,
		Address:       d.Address(),
		Street:        d.Street,
		City:          d.City,
		State:         d.State,
		PostalCode:    d.PostalCode,
		Notes:         d.Notes,
		TotalAmount:   attempt.Amount,
		Currency:      attempt.Currency,
		PaymentMethod: attempt.Method,
		PaymentStatus: order.PaymentStatusPending,
		Status:        order.StatusPending,
	}
	if paid != nil {
		gid := paid.gatewayOrderID
		placed.GatewayOrderID = &gid
		placed.GatewayPaymentID = paid.gatewayPaymentID
		placed.GatewaySignature = paid.signature
		placed.PaymentStatus = order.PaymentStatusPaid
		placed.PaidAt = &paid.paidAt
	}

	callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	err = o.orders.InsertOrder(callCtx, placed)
	if errors.Is(err, order.ErrDuplicateOrderNumber) {
		placed.OrderNumber = order.NewOrderNumber(time.Now().UTC())
		err = o.orders.InsertOrder(callCtx, placed)
	}
	cancel()
	if errors.Is(err, order.ErrDuplicateGatewayOrder) && paid != nil {
		existing, err := o.existingForGateway(ctx, paid.gatewayOrderID)
		return existing, false, err
	}
	if err != nil {
		o.logger.WithFields(logrus.Fields{
			"attempt_id": attempt.ID,
			"store_id":   st.ID,
			"error":      err.Error(),
		}).Error("Order insert failed")
		return nil, false, fmt.Errorf("%w: %w", ErrOrderNotPlaced, err)
	}

	lines := make([]order.Line, 0, len(attempt.Lines))
	for _, snap := range attempt.Lines {
		lines = append(lines, order.Line{
			OrderID:         placed.ID,
			ProductID:       snap.ProductID,
			SKU:             snap.SKU,
			Name:            snap.Name,
			Quantity:        snap.Quantity,
			PriceAtPurchase: snap.UnitPrice,
		})
	}

	callCtx, cancel = context.WithTimeout(ctx, o.opts.CallTimeout)
	insertErr := o.orders.InsertLines(callCtx, lines)
	cancel()
	if insertErr != nil {
		// The request may already be cancelled; compensation must still run.
		delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.opts.CallTimeout)
		deleteErr := o.orders.DeleteOrder(delCtx, placed.ID)
		cancel()

		fields := logrus.Fields{
			"attempt_id": attempt.ID,
			"order_id":   placed.ID,
			"store_id":   st.ID,
			"error":      insertErr.Error(),
		}
		if deleteErr == nil {
			o.logger.WithFields(fields).Error("Order lines insert failed, order removed")
			return nil, false, fmt.Errorf("%w: %w", ErrOrderNotPlaced, insertErr)
		}

		fields["delete_error"] = deleteErr.Error()
		fields["critical"] = true
		o.logger.WithFields(fields).Error("Order compensation failed")

		orderID := placed.ID
		incident := &payment.Incident{
			Kind:      payment.IncidentCompensationFailed,
			StoreID:   st.ID,
			SessionID: attempt.SessionID,
			OrderID:   &orderID,
			Amount:    attempt.Amount,
			Currency:  attempt.Currency,
			Detail:    fmt.Sprintf("insert lines: %v; delete order: %v", insertErr, deleteErr),
		}
		if paid != nil {
			incident.GatewayOrderID = paid.gatewayOrderID
			incident.GatewayPaymentID = paid.gatewayPaymentID
		}
		o.report(ctx, incident)

		return nil, false, &CompensationFailure{OrderID: placed.ID, InsertErr: insertErr, DeleteErr: deleteErr}
	}

	placed.Lines = lines
	return placed, true, nil
}

func (o *Orchestrator) existingForGateway(ctx context.Context, gatewayOrderID string) (*order.Order, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	defer cancel()

	existing, err := o.orders.FindByGatewayOrderID(callCtx, gatewayOrderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOrderNotPlaced, err)
	}
	o.logger.WithFields(logrus.Fields{
		"order_id":         existing.ID,
		"gateway_order_id": gatewayOrderID,
	}).Info("Order already exists for gateway payment")
	return existing, nil
}

func (o *Orchestrator) finalize(ctx context.Context, sess *session.Context, st *store.Store, attempt *Attempt, placed *order.Order, created bool) (*Outcome, error) {
	attempt.OrderID = placed.ID
	if err := attempt.transition(StateFinalized); err != nil {
		return nil, err
	}
	if attempt.Method == order.PaymentMethodOnline {
		o.save(ctx, attempt)
	}
	o.record(attempt)

	if attempt.GatewayOrderID != "" && o.reconciler != nil {
		if err := o.reconciler.Settle(context.WithoutCancel(ctx), attempt.GatewayOrderID, placed.ID); err != nil {
			o.logger.WithFields(logrus.Fields{
				"order_id":         placed.ID,
				"gateway_order_id": attempt.GatewayOrderID,
				"error":            err.Error(),
			}).Warn("Failed to settle captured payment incidents")
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
	if err := o.carts.Clear(callCtx, sess, st); err != nil {
		o.logger.WithFields(logrus.Fields{
			"order_id":   placed.ID,
			"session_id": sess.ID(),
			"error":      err.Error(),
		}).Warn("Failed to clear cart after order")
	}
	cancel()

	o.logger.WithFields(logrus.Fields{
		"order_id":       placed.ID,
		"order_number":   placed.OrderNumber,
		"store_id":       st.ID,
		"payment_method": placed.PaymentMethod,
		"total_amount":   placed.TotalAmount,
	}).Info("Order placed")

	if created {
		o.notify(st, placed)
	}

	out := o.outcome(attempt)
	out.Order = placed
	return out, nil
}

func (o *Orchestrator) notify(st *store.Store, placed *order.Order) {
	event := notify.OrderEvent{
		Order:       placed,
		StoreName:   st.Name,
		SellerEmail: st.ContactEmail,
	}
	if o.opts.OrderURL != nil {
		event.OrderURL = o.opts.OrderURL(st.Username, placed.ID)
	}

	o.notifications.Add(1)
	go func() {
		defer o.notifications.Done()

		ctx, cancel := context.WithTimeout(context.Background(), o.opts.NotifyTimeout)
		defer cancel()

		if err := o.notifier.OrderPlaced(ctx, event); err != nil {
			o.logger.WithFields(logrus.Fields{
				"order_id": placed.ID,
				"error":    err.Error(),
			}).Warn("Order notification failed")
		}
	}()
}

// Wait blocks until in-flight notifications finish or ctx is done
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.notifications.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) loadAttempt(ctx context.Context, sess *session.Context, attemptID string) (*Attempt, error) {
	attempt, err := o.attempts.Load(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.SessionID != sess.ID() {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}

func (o *Orchestrator) save(ctx context.Context, attempt *Attempt) {
	if err := o.attempts.Save(ctx, attempt, o.opts.AttemptTTL); err != nil {
		o.logger.WithFields(logrus.Fields{
			"attempt_id": attempt.ID,
			"state":      attempt.State,
			"error":      err.Error(),
		}).Warn("Failed to save checkout attempt")
	}
}

func (o *Orchestrator) report(ctx context.Context, incident *payment.Incident) {
	if o.reconciler == nil {
		return
	}
	_ = o.reconciler.Report(context.WithoutCancel(ctx), incident)
}

func (o *Orchestrator) record(attempt *Attempt) {
	label := string(attempt.State)
	if attempt.State == StateFailed && attempt.Reason != "" {
		label = string(attempt.Reason)
	}
	path := string(attempt.Method)
	if path == "" {
		path = "unknown"
	}
	o.metrics.CheckoutOutcome(path, label)
}

func (o *Orchestrator) outcome(attempt *Attempt) *Outcome {
	out := &Outcome{
		State:  attempt.State,
		Reason: attempt.Reason,
	}
	if attempt.Method == order.PaymentMethodOnline {
		out.AttemptID = attempt.ID
	}
	if attempt.State == StateRedirectToCart {
		out.RedirectURL = fmt.Sprintf("/%s/cart", attempt.StoreName)
	}
	return out
}

func (o *Orchestrator) currency(st *store.Store) string {
	if st.Currency != "" {
		return st.Currency
	}
	return o.opts.Currency
}

func failureReason(err error) FailureReason {
	var compensation *CompensationFailure
	if errors.As(err, &compensation) {
		return ReasonCompensationFailed
	}
	return ReasonOrderCreationFailed
}
