// internal/domain/order/repository.go
package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrOrderNotFound is returned when no order matches
	ErrOrderNotFound = errors.New("order not found")
	// ErrDuplicateGatewayOrder is returned when an order already exists for a
	// gateway order id
	ErrDuplicateGatewayOrder = errors.New("order already exists for gateway order")
	// ErrDuplicateOrderNumber is returned when the generated order number is
	// already taken
	ErrDuplicateOrderNumber = errors.New("order number already taken")
)

// Repository persists orders. Insertion is split into order and lines so
// the checkout can compensate a half-written order.
type Repository interface {
	InsertOrder(ctx context.Context, o *Order) error
	InsertLines(ctx context.Context, lines []Line) error
	// DeleteOrder hard-deletes an order and its lines.
	DeleteOrder(ctx context.Context, id uint) error
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error)
	Get(ctx context.Context, storeID, id uint) (*Order, error)
	List(ctx context.Context, storeID uint, req *ListRequest) ([]Order, int64, error)
	// SaveStatus persists the status fields of o and appends entry.
	SaveStatus(ctx context.Context, o *Order, entry *StatusHistory) error
}

// GormRepository is the record store backed Repository
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm order repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) InsertOrder(ctx context.Context, o *Order) error {
	lines := o.Lines
	o.Lines = nil
	defer func() { o.Lines = lines }()

	if err := r.db.WithContext(ctx).Omit("Lines", "StatusHistory").Create(o).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.duplicateKey(ctx, o)
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// duplicateKey tells which unique index an insert collided with. Translated
// errors do not carry the constraint name.
func (r *GormRepository) duplicateKey(ctx context.Context, o *Order) error {
	if gid := o.GatewayOrder(); gid != "" {
		var count int64
		err := r.db.WithContext(ctx).Model(&Order{}).Where("gateway_order_id = ?", gid).Count(&count).Error
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if count > 0 {
			return ErrDuplicateGatewayOrder
		}
	}
	return ErrDuplicateOrderNumber
}

func (r *GormRepository) InsertLines(ctx context.Context, lines []Line) error {
	if len(lines) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&lines).Error; err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}
	return nil
}

func (r *GormRepository) DeleteOrder(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&Line{}).Error; err != nil {
			return fmt.Errorf("failed to delete order items: %w", err)
		}
		if err := tx.Where("order_id = ?", id).Delete(&StatusHistory{}).Error; err != nil {
			return fmt.Errorf("failed to delete order history: %w", err)
		}
		if err := tx.Delete(&Order{}, id).Error; err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}
		return nil
	})
}

func (r *GormRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

func (r *GormRepository) Get(ctx context.Context, storeID, id uint) (*Order, error) {
	var o Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&o).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &o, nil
}

func (r *GormRepository) List(ctx context.Context, storeID uint, req *ListRequest) ([]Order, int64, error) {
	var orders []Order
	var total int64

	query := r.db.WithContext(ctx).Model(&Order{}).Where("store_id = ?", storeID)

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.PaymentStatus != "" {
		query = query.Where("payment_status = ?", req.PaymentStatus)
	}
	if req.DateFrom != "" {
		query = query.Where("created_at >= ?", req.DateFrom)
	}
	if req.DateTo != "" {
		query = query.Where("created_at <= ?", req.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	offset := (req.Page - 1) * req.Limit
	err := query.Preload("Lines").
		Order(req.orderClause()).
		Offset(offset).
		Limit(req.Limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return orders, total, nil
}

func (r *GormRepository) SaveStatus(ctx context.Context, o *Order, entry *StatusHistory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&Order{ID: o.ID}).
			Select("status", "payment_status", "paid_at", "shipped_at", "delivered_at", "cancelled_at").
			Updates(o).Error
		if err != nil {
			return fmt.Errorf("failed to update order status: %w", err)
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}
		return nil
	})
}

// MemoryRepository is an in-process Repository for tests and local runs
type MemoryRepository struct {
	mu          sync.Mutex
	orders      map[uint]Order
	lines       map[uint][]Line
	history     map[uint][]StatusHistory
	nextOrderID uint
	nextLineID  uint
}

// NewMemoryRepository creates an empty MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		orders:      make(map[uint]Order),
		lines:       make(map[uint][]Line),
		history:     make(map[uint][]StatusHistory),
		nextOrderID: 1,
		nextLineID:  1,
	}
}

func (m *MemoryRepository) InsertOrder(ctx context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gid := o.GatewayOrder(); gid != "" {
		for _, existing := range m.orders {
			if existing.GatewayOrder() == gid {
				return ErrDuplicateGatewayOrder
			}
		}
	}
	if o.OrderNumber != "" {
		for _, existing := range m.orders {
			if existing.OrderNumber == o.OrderNumber {
				return ErrDuplicateOrderNumber
			}
		}
	}

	now := time.Now().UTC()
	o.ID = m.nextOrderID
	m.nextOrderID++
	o.CreatedAt = now
	o.UpdatedAt = now

	stored := *o
	stored.Lines = nil
	stored.StatusHistory = nil
	m.orders[o.ID] = stored
	return nil
}

func (m *MemoryRepository) InsertLines(ctx context.Context, lines []Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range lines {
		if _, ok := m.orders[lines[i].OrderID]; !ok {
			return fmt.Errorf("failed to create order items: order %d does not exist", lines[i].OrderID)
		}
	}
	for i := range lines {
		lines[i].ID = m.nextLineID
		m.nextLineID++
		lines[i].CreatedAt = time.Now().UTC()
		m.lines[lines[i].OrderID] = append(m.lines[lines[i].OrderID], lines[i])
	}
	return nil
}

func (m *MemoryRepository) DeleteOrder(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.orders, id)
	delete(m.lines, id)
	delete(m.history, id)
	return nil
}

func (m *MemoryRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, o := range m.orders {
		if o.GatewayOrder() == gatewayOrderID {
			return m.hydrate(id), nil
		}
	}
	return nil, ErrOrderNotFound
}

func (m *MemoryRepository) Get(ctx context.Context, storeID, id uint) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok || o.StoreID != storeID {
		return nil, ErrOrderNotFound
	}
	return m.hydrate(id), nil
}

func (m *MemoryRepository) List(ctx context.Context, storeID uint, req *ListRequest) ([]Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []Order
	for id, o := range m.orders {
		if o.StoreID != storeID {
			continue
		}
		if req.Status != "" && o.Status != req.Status {
			continue
		}
		if req.PaymentStatus != "" && o.PaymentStatus != req.PaymentStatus {
			continue
		}
		matched = append(matched, *m.hydrate(id))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := int64(len(matched))
	offset := (req.Page - 1) * req.Limit
	if offset >= len(matched) {
		return []Order{}, total, nil
	}
	end := offset + req.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}

func (m *MemoryRepository) SaveStatus(ctx context.Context, o *Order, entry *StatusHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.orders[o.ID]
	if !ok {
		return ErrOrderNotFound
	}
	stored.Status = o.Status
	stored.PaymentStatus = o.PaymentStatus
	stored.PaidAt = o.PaidAt
	stored.ShippedAt = o.ShippedAt
	stored.DeliveredAt = o.DeliveredAt
	stored.CancelledAt = o.CancelledAt
	stored.UpdatedAt = time.Now().UTC()
	m.orders[o.ID] = stored

	entry.ID = uint(len(m.history[o.ID]) + 1)
	m.history[o.ID] = append(m.history[o.ID], *entry)
	return nil
}

// Count returns the number of stored orders
func (m *MemoryRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

func (m *MemoryRepository) hydrate(id uint) *Order {
	o := m.orders[id]
	o.Lines = append([]Line(nil), m.lines[id]...)
	o.StatusHistory = append([]StatusHistory(nil), m.history[id]...)
	return &o
}
