// internal/domain/checkout/attempt.go
package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// LineSnapshot is a cart line frozen at the moment a checkout priced it
type LineSnapshot struct {
	ProductID uint   `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// Transition is one recorded state change
type Transition struct {
	From State     `json:"from"`
	To   State     `json:"to"`
	At   time.Time `json:"at"`
}

// Attempt is one pass through the checkout state machine. Gateway attempts
// outlive a single request and are kept in an AttemptStore.
type Attempt struct {
	ID               string              `json:"id"`
	SessionID        string              `json:"session_id"`
	StoreID          uint                `json:"store_id"`
	StoreName        string              `json:"store_name"`
	State            State               `json:"state"`
	Reason           FailureReason       `json:"reason,omitempty"`
	Method           order.PaymentMethod `json:"method"`
	Details          Details             `json:"details"`
	Lines            []LineSnapshot      `json:"lines"`
	Amount           int64               `json:"amount"`
	Currency         string              `json:"currency"`
	GatewayOrderID   string              `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string              `json:"gateway_payment_id,omitempty"`
	OrderID          uint                `json:"order_id,omitempty"`
	History          []Transition        `json:"history"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

func newAttempt(sessionID string, storeID uint, storeName, currency string) *Attempt {
	now := time.Now().UTC()
	return &Attempt{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		StoreID:   storeID,
		StoreName: storeName,
		State:     StateIdle,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (a *Attempt) transition(to State) error {
	if !isValidTransition(a.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, a.State, to)
	}
	now := time.Now().UTC()
	a.History = append(a.History, Transition{From: a.State, To: to, At: now})
	a.State = to
	a.UpdatedAt = now
	return nil
}

func (a *Attempt) fail(reason FailureReason) {
	if a.State.Terminal() {
		return
	}
	_ = a.transition(StateFailed)
	a.Reason = reason
}

// abandoned reports whether the buyer dismissed the widget or it failed on
// the client. The gateway can still capture the payment afterwards.
func (a *Attempt) abandoned() bool {
	return a.State == StateFailed && a.GatewayOrderID != "" &&
		(a.Reason == ReasonCancelled || a.Reason == ReasonWidgetError)
}

// reopen moves an abandoned attempt to verifying_payment. Other failed
// attempts stay terminal.
func (a *Attempt) reopen() {
	now := time.Now().UTC()
	a.History = append(a.History, Transition{From: a.State, To: StateVerifyingPayment, At: now})
	a.State = StateVerifyingPayment
	a.Reason = ""
	a.UpdatedAt = now
}

// LinesTotal sums unit price × quantity over the snapshot
func (a *Attempt) LinesTotal() int64 {
	var total int64
	for _, line := range a.Lines {
		total += line.UnitPrice * int64(line.Quantity)
	}
	return total
}

// AttemptStore keeps gateway attempts between requests
type AttemptStore interface {
	Save(ctx context.Context, attempt *Attempt, ttl time.Duration) error
	// Load returns ErrAttemptNotFound for unknown or expired attempts.
	Load(ctx context.Context, id string) (*Attempt, error)
}

// Locker serializes checkouts of one session
type Locker interface {
	// Acquire returns ErrCheckoutInProgress when key is held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

func lockKey(sessionID string) string {
	return fmt.Sprintf("checkout:lock:%s", sessionID)
}

type storedAttempt struct {
	attempt   Attempt
	expiresAt time.Time
}

// MemoryAttemptStore is an in-process AttemptStore
type MemoryAttemptStore struct {
	mu       sync.Mutex
	attempts map[string]storedAttempt
}

// NewMemoryAttemptStore creates an empty MemoryAttemptStore
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{attempts: make(map[string]storedAttempt)}
}

func (m *MemoryAttemptStore) Save(ctx context.Context, attempt *Attempt, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *attempt
	copied.Lines = append([]LineSnapshot(nil), attempt.Lines...)
	copied.History = append([]Transition(nil), attempt.History...)
	m.attempts[attempt.ID] = storedAttempt{attempt: copied, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (m *MemoryAttemptStore) Load(ctx context.Context, id string) (*Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.attempts[id]
	if !ok || time.Now().After(stored.expiresAt) {
		delete(m.attempts, id)
		return nil, ErrAttemptNotFound
	}
	attempt := stored.attempt
	attempt.Lines = append([]LineSnapshot(nil), stored.attempt.Lines...)
	attempt.History = append([]Transition(nil), stored.attempt.History...)
	return &attempt, nil
}

// MemoryLocker is an in-process Locker
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]time.Time
}

// NewMemoryLocker creates a MemoryLocker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]time.Time)}
}

func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if until, ok := m.held[key]; ok && time.Now().Before(until) {
		return nil, ErrCheckoutInProgress
	}
	until := time.Now().Add(ttl)
	m.held[key] = until

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.held[key] == until {
			delete(m.held, key)
		}
	}, nil
}
