// internal/domain/store/repository.go
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/gorm"
)

// ErrStoreNotFound is returned when no active store matches a hint
var ErrStoreNotFound = errors.New("store not found")

// Repository looks up stores. Lookups take an already normalized value and
// return ErrStoreNotFound when nothing matches; any other error is transient.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Store, error)
	FindByName(ctx context.Context, name string) (*Store, error)
	FindByID(ctx context.Context, id uint) (*Store, error)
}

// GormRepository is the record store backed Repository
type GormRepository struct {
	db *gorm.DB
}

// NewRepository creates a gorm store repository
func NewRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) FindByUsername(ctx context.Context, username string) (*Store, error) {
	return r.first(ctx, "LOWER(username) = ? AND is_active = ?", username, true)
}

func (r *GormRepository) FindByName(ctx context.Context, name string) (*Store, error) {
	return r.first(ctx, "LOWER(TRIM(name)) = ? AND is_active = ?", name, true)
}

func (r *GormRepository) FindByID(ctx context.Context, id uint) (*Store, error) {
	return r.first(ctx, "id = ? AND is_active = ?", id, true)
}

func (r *GormRepository) first(ctx context.Context, query string, args ...interface{}) (*Store, error) {
	var s Store
	err := r.db.WithContext(ctx).Where(query, args...).Order("id ASC").First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to query store: %w", err)
	}
	return &s, nil
}

// MemoryRepository is an in-process Repository for tests and local runs
type MemoryRepository struct {
	mu     sync.RWMutex
	stores []Store
	nextID uint
}

// NewMemoryRepository creates a MemoryRepository seeded with stores
func NewMemoryRepository(stores ...Store) *MemoryRepository {
	m := &MemoryRepository{nextID: 1}
	for _, s := range stores {
		m.Add(s)
	}
	return m
}

// Add inserts a store, assigning an id when missing
func (m *MemoryRepository) Add(s Store) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.ID == 0 {
		s.ID = m.nextID
	}
	if s.ID >= m.nextID {
		m.nextID = s.ID + 1
	}
	m.stores = append(m.stores, s)
	return &m.stores[len(m.stores)-1]
}

func (m *MemoryRepository) FindByUsername(ctx context.Context, username string) (*Store, error) {
	return m.find(func(s Store) bool { return strings.ToLower(s.Username) == username })
}

func (m *MemoryRepository) FindByName(ctx context.Context, name string) (*Store, error) {
	return m.find(func(s Store) bool { return strings.ToLower(strings.TrimSpace(s.Name)) == name })
}

func (m *MemoryRepository) FindByID(ctx context.Context, id uint) (*Store, error) {
	return m.find(func(s Store) bool { return s.ID == id })
}

func (m *MemoryRepository) find(match func(Store) bool) (*Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, s := range m.stores {
		if s.IsActive && match(s) {
			found := s
			return &found, nil
		}
	}
	return nil, ErrStoreNotFound
}
