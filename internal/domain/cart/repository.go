// internal/domain/cart/repository.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrLineNotFound is returned when a cart has no line for a product
var ErrLineNotFound = errors.New("cart line not found")

// Repository persists cart lines. Every call is scoped by session and store.
type Repository interface {
	List(ctx context.Context, sessionID string, storeID uint) ([]Line, error)
	Get(ctx context.Context, sessionID string, storeID, productID uint) (*Line, error)
	// Upsert inserts the line or overwrites the quantity of the existing one.
	Upsert(ctx context.Context, line *Line) error
	// Delete removes a line; a missing line is not an error.
	Delete(ctx context.Context, sessionID string, storeID, productID uint) error
	DeleteAll(ctx context.Context, sessionID string, storeID uint) error
}

// GormRepository is the record store backed Repository
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm cart repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) List(ctx context.Context, sessionID string, storeID uint) ([]Line, error) {
	var lines []Line
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND store_id = ?", sessionID, storeID).
		Order("created_at ASC, id ASC").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve cart: %w", err)
	}
	return lines, nil
}

func (r *GormRepository) Get(ctx context.Context, sessionID string, storeID, productID uint) (*Line, error) {
	var line Line
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND store_id = ? AND product_id = ?", sessionID, storeID, productID).
		First(&line).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLineNotFound
		}
		return nil, fmt.Errorf("failed to retrieve cart line: %w", err)
	}
	return &line, nil
}

func (r *GormRepository) Upsert(ctx context.Context, line *Line) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "session_id"}, {Name: "store_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   line.Quantity,
			"updated_at": time.Now().UTC(),
		}),
	}).Create(line).Error
	if err != nil {
		return fmt.Errorf("failed to save cart line: %w", err)
	}
	return nil
}

func (r *GormRepository) Delete(ctx context.Context, sessionID string, storeID, productID uint) error {
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND store_id = ? AND product_id = ?", sessionID, storeID, productID).
		Delete(&Line{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return nil
}

func (r *GormRepository) DeleteAll(ctx context.Context, sessionID string, storeID uint) error {
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND store_id = ?", sessionID, storeID).
		Delete(&Line{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

type lineKey struct {
	sessionID string
	storeID   uint
	productID uint
}

// MemoryRepository is an in-process Repository for tests and local runs
type MemoryRepository struct {
	mu     sync.Mutex
	lines  map[lineKey]Line
	nextID uint
}

// NewMemoryRepository creates an empty MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{lines: make(map[lineKey]Line), nextID: 1}
}

func (m *MemoryRepository) List(ctx context.Context, sessionID string, storeID uint) ([]Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines := []Line{}
	for k, line := range m.lines {
		if k.sessionID == sessionID && k.storeID == storeID {
			lines = append(lines, line)
		}
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}

func (m *MemoryRepository) Get(ctx context.Context, sessionID string, storeID, productID uint) (*Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	line, ok := m.lines[lineKey{sessionID, storeID, productID}]
	if !ok {
		return nil, ErrLineNotFound
	}
	return &line, nil
}

func (m *MemoryRepository) Upsert(ctx context.Context, line *Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	key := lineKey{line.SessionID, line.StoreID, line.ProductID}
	if existing, ok := m.lines[key]; ok {
		existing.Quantity = line.Quantity
		existing.UpdatedAt = now
		m.lines[key] = existing
		*line = existing
		return nil
	}

	line.ID = m.nextID
	m.nextID++
	line.CreatedAt = now
	line.UpdatedAt = now
	m.lines[key] = *line
	return nil
}

func (m *MemoryRepository) Delete(ctx context.Context, sessionID string, storeID, productID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, lineKey{sessionID, storeID, productID})
	return nil
}

func (m *MemoryRepository) DeleteAll(ctx context.Context, sessionID string, storeID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k := range m.lines {
		if k.sessionID == sessionID && k.storeID == storeID {
			delete(m.lines, k)
		}
	}
	return nil
}

// Len returns the number of stored lines across all carts
func (m *MemoryRepository) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines)
}
