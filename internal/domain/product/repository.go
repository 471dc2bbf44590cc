// internal/domain/product/repository.go
package product

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"
)

// ErrProductNotFound is returned when a product id does not exist in a store
var ErrProductNotFound = errors.New("product not found")

// Repository reads the catalog. Results include soft-deleted rows so
// callers can tell Deleted apart from missing.
type Repository interface {
	FindByID(ctx context.Context, storeID, id uint) (*Product, error)
	FindByIDs(ctx context.Context, storeID uint, ids []uint) (map[uint]*Product, error)
	ListAvailable(ctx context.Context, storeID uint, limit, offset int) ([]Product, int64, error)
}

// GormRepository is the record store backed Repository
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm product repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) FindByID(ctx context.Context, storeID, id uint) (*Product, error) {
	var p Product
	err := r.db.WithContext(ctx).Unscoped().
		Where("id = ? AND store_id = ?", id, storeID).
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to query product: %w", err)
	}
	return &p, nil
}

func (r *GormRepository) FindByIDs(ctx context.Context, storeID uint, ids []uint) (map[uint]*Product, error) {
	result := make(map[uint]*Product, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var products []Product
	err := r.db.WithContext(ctx).Unscoped().
		Where("store_id = ? AND id IN ?", storeID, ids).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	for i := range products {
		result[products[i].ID] = &products[i]
	}
	return result, nil
}

func (r *GormRepository) ListAvailable(ctx context.Context, storeID uint, limit, offset int) ([]Product, int64, error) {
	var products []Product
	var total int64

	query := r.db.WithContext(ctx).Model(&Product{}).
		Where("store_id = ? AND is_active = ? AND is_published = ? AND price > 0", storeID, true, true)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, total, nil
}

// MemoryRepository is an in-process Repository for tests and local runs
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[uint]Product
	nextID   uint
}

// NewMemoryRepository creates a MemoryRepository seeded with products
func NewMemoryRepository(products ...Product) *MemoryRepository {
	m := &MemoryRepository{products: make(map[uint]Product), nextID: 1}
	for _, p := range products {
		m.Put(p)
	}
	return m
}

// Put inserts or replaces a product, assigning an id when missing
func (m *MemoryRepository) Put(p Product) Product {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == 0 {
		p.ID = m.nextID
	}
	if p.ID >= m.nextID {
		m.nextID = p.ID + 1
	}
	m.products[p.ID] = p
	return p
}

func (m *MemoryRepository) FindByID(ctx context.Context, storeID, id uint) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok || p.StoreID != storeID {
		return nil, ErrProductNotFound
	}
	return &p, nil
}

func (m *MemoryRepository) FindByIDs(ctx context.Context, storeID uint, ids []uint) (map[uint]*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[uint]*Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok && p.StoreID == storeID {
			found := p
			result[id] = &found
		}
	}
	return result, nil
}

func (m *MemoryRepository) ListAvailable(ctx context.Context, storeID uint, limit, offset int) ([]Product, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var available []Product
	for _, p := range m.products {
		if AvailabilityOf(&p, storeID) == Available {
			available = append(available, p)
		}
	}
	sort.Slice(available, func(i, j int) bool { return available[i].ID < available[j].ID })

	total := int64(len(available))
	if offset >= len(available) {
		return []Product{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(available) {
		end = len(available)
	}
	return available[offset:end], total, nil
}
