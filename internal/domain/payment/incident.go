// internal/domain/payment/incident.go
package payment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// IncidentKind classifies a payment/order mismatch needing reconciliation
type IncidentKind string

const (
	// IncidentVerificationFailed: the widget reported a payment whose
	// signature did not verify. Money may have moved with no order.
	IncidentVerificationFailed IncidentKind = "verification_failed"
	// IncidentCompensationFailed: order lines failed and the order row
	// could not be deleted either.
	IncidentCompensationFailed IncidentKind = "compensation_failed"
	// IncidentCapturedWithoutOrder: the gateway captured a payment for a
	// gateway order that has no platform order.
	IncidentCapturedWithoutOrder IncidentKind = "captured_without_order"
)

// ErrIncidentNotFound is returned when no incident matches
var ErrIncidentNotFound = errors.New("payment incident not found")

// Incident is one entry of the reconciliation ledger
type Incident struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	Kind             IncidentKind `gorm:"not null;size:40;index" json:"kind"`
	StoreID          uint         `gorm:"index" json:"store_id"`
	SessionID        string       `gorm:"size:64" json:"session_id,omitempty"`
	OrderID          *uint        `json:"order_id,omitempty"`
	GatewayOrderID   string       `gorm:"size:100;index" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string       `gorm:"size:100;index" json:"gateway_payment_id,omitempty"`
	Amount           int64        `json:"amount"`
	Currency         string       `gorm:"size:3" json:"currency"`
	Detail           string       `gorm:"type:text" json:"detail"`
	ResolvedAt       *time.Time   `gorm:"index" json:"resolved_at"`
	ResolutionNote   string       `gorm:"type:text" json:"resolution_note,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// TableName overrides the table name
func (Incident) TableName() string {
	return "payment_incidents"
}

// IncidentRepository persists the reconciliation ledger
type IncidentRepository interface {
	Record(ctx context.Context, incident *Incident) error
	FindByPayment(ctx context.Context, kind IncidentKind, gatewayPaymentID string) (*Incident, error)
	ListUnresolved(ctx context.Context, limit int) ([]Incident, error)
	Resolve(ctx context.Context, id uint, note string) error
	// ResolveGatewayOrder closes every open incident of kind for a gateway
	// order and returns how many were closed.
	ResolveGatewayOrder(ctx context.Context, kind IncidentKind, gatewayOrderID, note string) (int64, error)
}

// GormIncidentRepository is the record store backed IncidentRepository
type GormIncidentRepository struct {
	db *gorm.DB
}

// NewIncidentRepository creates a gorm incident repository
func NewIncidentRepository(db *gorm.DB) *GormIncidentRepository {
	return &GormIncidentRepository{db: db}
}

func (r *GormIncidentRepository) Record(ctx context.Context, incident *Incident) error {
	if err := r.db.WithContext(ctx).Create(incident).Error; err != nil {
		return fmt.Errorf("failed to record payment incident: %w", err)
	}
	return nil
}

func (r *GormIncidentRepository) FindByPayment(ctx context.Context, kind IncidentKind, gatewayPaymentID string) (*Incident, error) {
	var incident Incident
	err := r.db.WithContext(ctx).
		Where("kind = ? AND gateway_payment_id = ?", kind, gatewayPaymentID).
		First(&incident).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIncidentNotFound
		}
		return nil, fmt.Errorf("failed to query payment incident: %w", err)
	}
	return &incident, nil
}

func (r *GormIncidentRepository) ListUnresolved(ctx context.Context, limit int) ([]Incident, error) {
	var incidents []Incident
	err := r.db.WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&incidents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payment incidents: %w", err)
	}
	return incidents, nil
}

func (r *GormIncidentRepository) Resolve(ctx context.Context, id uint, note string) error {
	result := r.db.WithContext(ctx).Model(&Incident{}).
		Where("id = ? AND resolved_at IS NULL", id).
		Updates(map[string]interface{}{
			"resolved_at":     time.Now().UTC(),
			"resolution_note": note,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to resolve payment incident: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrIncidentNotFound
	}
	return nil
}

func (r *GormIncidentRepository) ResolveGatewayOrder(ctx context.Context, kind IncidentKind, gatewayOrderID, note string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&Incident{}).
		Where("kind = ? AND gateway_order_id = ? AND resolved_at IS NULL", kind, gatewayOrderID).
		Updates(map[string]interface{}{
			"resolved_at":     time.Now().UTC(),
			"resolution_note": note,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to resolve payment incidents: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// MemoryIncidentRepository is an in-process IncidentRepository
type MemoryIncidentRepository struct {
	mu        sync.Mutex
	incidents []Incident
}

// NewMemoryIncidentRepository creates an empty ledger
func NewMemoryIncidentRepository() *MemoryIncidentRepository {
	return &MemoryIncidentRepository{}
}

func (m *MemoryIncidentRepository) Record(ctx context.Context, incident *Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	incident.ID = uint(len(m.incidents) + 1)
	incident.CreatedAt = time.Now().UTC()
	incident.UpdatedAt = incident.CreatedAt
	m.incidents = append(m.incidents, *incident)
	return nil
}

func (m *MemoryIncidentRepository) FindByPayment(ctx context.Context, kind IncidentKind, gatewayPaymentID string) (*Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, incident := range m.incidents {
		if incident.Kind == kind && incident.GatewayPaymentID == gatewayPaymentID {
			found := incident
			return &found, nil
		}
	}
	return nil, ErrIncidentNotFound
}

func (m *MemoryIncidentRepository) ListUnresolved(ctx context.Context, limit int) ([]Incident, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var open []Incident
	for _, incident := range m.incidents {
		if incident.ResolvedAt == nil {
			open = append(open, incident)
		}
	}
	sort.Slice(open, func(i, j int) bool { return open[i].ID < open[j].ID })
	if limit > 0 && len(open) > limit {
		open = open[:limit]
	}
	return open, nil
}

func (m *MemoryIncidentRepository) Resolve(ctx context.Context, id uint, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.incidents {
		if m.incidents[i].ID == id && m.incidents[i].ResolvedAt == nil {
			now := time.Now().UTC()
			m.incidents[i].ResolvedAt = &now
			m.incidents[i].ResolutionNote = note
			return nil
		}
	}
	return ErrIncidentNotFound
}

func (m *MemoryIncidentRepository) ResolveGatewayOrder(ctx context.Context, kind IncidentKind, gatewayOrderID, note string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var closed int64
	now := time.Now().UTC()
	for i := range m.incidents {
		inc := &m.incidents[i]
		if inc.Kind == kind && inc.GatewayOrderID == gatewayOrderID && inc.ResolvedAt == nil {
			inc.ResolvedAt = &now
			inc.ResolutionNote = note
			closed++
		}
	}
	return closed, nil
}

// All returns every recorded incident
func (m *MemoryIncidentRepository) All() []Incident {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Incident(nil), m.incidents...)
}
