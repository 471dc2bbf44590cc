// internal/domain/cart/manager.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/session"
	"github.com/your-org/storefront-backend/internal/domain/store"
)

var (
	// ErrProductUnavailable is returned when adding a product that cannot be bought
	ErrProductUnavailable = errors.New("product is not available")
	// ErrInvalidQuantity is returned for negative add quantities
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrStorage marks a record store failure. The caller may retry.
	ErrStorage = errors.New("cart storage unavailable")
)

// Manager owns the cart lines of a (session, store) pair
type Manager struct {
	repo     Repository
	products product.Repository
	logger   *logrus.Logger
}

// NewManager creates a cart manager
func NewManager(repo Repository, products product.Repository, logger *logrus.Logger) *Manager {
	return &Manager{
		repo:     repo,
		products: products,
		logger:   logger,
	}
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %w", ErrStorage, err)
}

// Load returns the cart view. Lines whose product is no longer purchasable
// are left out of the view but stay stored.
func (m *Manager) Load(ctx context.Context, sess *session.Context, st *store.Store) (*View, error) {
	lines, err := m.repo.List(ctx, sess.ID(), st.ID)
	if err != nil {
		return nil, storageErr(err)
	}

	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := m.products.FindByIDs(ctx, st.ID, ids)
	if err != nil {
		return nil, storageErr(err)
	}

	view := &View{
		SessionID: sess.ID(),
		StoreID:   st.ID,
		StoreName: st.Username,
		Lines:     []ViewLine{},
		UpdatedAt: time.Now().UTC(),
	}

	for _, line := range lines {
		p := products[line.ProductID]
		availability := product.AvailabilityOf(p, st.ID)
		if !availability.Purchasable() {
			view.Omitted = append(view.Omitted, OmittedLine{
				ProductID:    line.ProductID,
				Quantity:     line.Quantity,
				Availability: availability,
			})
			continue
		}

		unit := p.UnitPrice()
		view.Lines = append(view.Lines, ViewLine{
			ID:           line.ID,
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			UnitPrice:    unit,
			LineTotal:    unit * int64(line.Quantity),
			Availability: availability,
			Product:      p,
			AddedAt:      line.CreatedAt,
		})
	}

	view.Totals = Totals{
		LineCount:  len(view.Lines),
		ItemCount:  ItemCount(view.Lines),
		TotalPrice: TotalPrice(view.Lines),
	}

	if len(view.Omitted) > 0 {
		m.logger.WithFields(logrus.Fields{
			"session_id": sess.ID(),
			"store_id":   st.ID,
			"omitted":    len(view.Omitted),
		}).Debug("Cart lines omitted from view")
	}

	return view, nil
}

// Add puts quantity units of a product in the cart. A zero quantity means
// one. An existing line is bumped to existing+quantity.
func (m *Manager) Add(ctx context.Context, sess *session.Context, st *store.Store, productID uint, quantity int) (*View, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity == 0 {
		quantity = 1
	}

	if err := m.ensurePurchasable(ctx, st, productID); err != nil {
		return nil, err
	}

	existing, err := m.repo.Get(ctx, sess.ID(), st.ID, productID)
	switch {
	case err == nil:
		return m.Update(ctx, sess, st, productID, existing.Quantity+quantity)
	case !errors.Is(err, ErrLineNotFound):
		return nil, storageErr(err)
	}

	line := &Line{
		SessionID: sess.ID(),
		StoreID:   st.ID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := m.repo.Upsert(ctx, line); err != nil {
		return nil, storageErr(err)
	}

	return m.afterMutation(ctx, sess, st)
}

// Update overwrites a line's quantity. Zero or less removes the line.
func (m *Manager) Update(ctx context.Context, sess *session.Context, st *store.Store, productID uint, quantity int) (*View, error) {
	if quantity <= 0 {
		return m.Remove(ctx, sess, st, productID)
	}

	_, err := m.repo.Get(ctx, sess.ID(), st.ID, productID)
	switch {
	case errors.Is(err, ErrLineNotFound):
		if err := m.ensurePurchasable(ctx, st, productID); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, storageErr(err)
	}

	line := &Line{
		SessionID: sess.ID(),
		StoreID:   st.ID,
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := m.repo.Upsert(ctx, line); err != nil {
		return nil, storageErr(err)
	}

	return m.afterMutation(ctx, sess, st)
}

// Remove deletes a line. Removing a missing line succeeds.
func (m *Manager) Remove(ctx context.Context, sess *session.Context, st *store.Store, productID uint) (*View, error) {
	if err := m.repo.Delete(ctx, sess.ID(), st.ID, productID); err != nil {
		return nil, storageErr(err)
	}
	return m.afterMutation(ctx, sess, st)
}

// Clear empties the cart and drops the backup snapshot
func (m *Manager) Clear(ctx context.Context, sess *session.Context, st *store.Store) error {
	if err := m.repo.DeleteAll(ctx, sess.ID(), st.ID); err != nil {
		return storageErr(err)
	}

	if err := sess.InvalidateBackup(ctx); err != nil {
		m.logger.WithFields(logrus.Fields{
			"session_id": sess.ID(),
			"error":      err.Error(),
		}).Warn("Failed to invalidate cart backup")
	}
	return nil
}

func (m *Manager) ensurePurchasable(ctx context.Context, st *store.Store, productID uint) error {
	p, err := m.products.FindByID(ctx, st.ID, productID)
	if err != nil {
		if errors.Is(err, product.ErrProductNotFound) {
			return fmt.Errorf("%w: %s", ErrProductUnavailable, product.Deleted)
		}
		return storageErr(err)
	}

	if availability := product.AvailabilityOf(p, st.ID); !availability.Purchasable() {
		return fmt.Errorf("%w: %s", ErrProductUnavailable, availability)
	}
	return nil
}

func (m *Manager) afterMutation(ctx context.Context, sess *session.Context, st *store.Store) (*View, error) {
	view, err := m.Load(ctx, sess, st)
	if err != nil {
		return nil, err
	}

	if err := sess.WriteBackup(ctx, st.Username, view.Totals.ItemCount, view.Totals.TotalPrice); err != nil {
		m.logger.WithFields(logrus.Fields{
			"session_id": sess.ID(),
			"store":      st.Username,
			"error":      err.Error(),
		}).Warn("Failed to write cart backup")
	}

	return view, nil
}
