// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/store"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger *logrus.Logger) *Migration {
	return &Migration{
		db:     db,
		logger: logger,
	}
}

// Models lists every persisted model in dependency order
func Models() []interface{} {
	return []interface{}{
		&store.Store{},
		&product.Product{},
		&cart.Line{},
		&order.Order{},
		&order.Line{},
		&order.StatusHistory{},
		&payment.Incident{},
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running database auto-migrations")

	for _, model := range Models() {
		m.logger.Debugf("Migrating model: %T", model)
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	m.logger.Info("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates the composite and expression indexes AutoMigrate
// does not derive from struct tags
func (m *Migration) CreateIndexes() error {
	m.logger.Info("Creating additional database indexes")

	indexes := []string{
		// Store lookup falls back to display name, case-insensitively
		"CREATE INDEX IF NOT EXISTS idx_stores_lower_username ON stores(LOWER(username))",
		"CREATE INDEX IF NOT EXISTS idx_stores_lower_name ON stores(LOWER(name))",

		"CREATE INDEX IF NOT EXISTS idx_products_store_listing ON products(store_id, is_published, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_cart_items_session_store ON cart_items(session_id, store_id)",
		"CREATE INDEX IF NOT EXISTS idx_cart_items_updated_at ON cart_items(updated_at)",

		"CREATE INDEX IF NOT EXISTS idx_orders_store_status ON orders(store_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_store_created ON orders(store_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_payment_status ON orders(payment_status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_buyer_email ON orders(buyer_email)",

		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items(product_id)",

		"CREATE INDEX IF NOT EXISTS idx_order_status_history_order ON order_status_history(order_id, created_at DESC)",

		"CREATE INDEX IF NOT EXISTS idx_payment_incidents_open ON payment_incidents(created_at) WHERE resolved_at IS NULL",
	}

	var failed int
	for _, stmt := range indexes {
		if err := m.db.Exec(stmt).Error; err != nil {
			failed++
			m.logger.WithError(err).WithField("statement", stmt).Warn("Failed to create index")
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d indexes failed", failed, len(indexes))
	}

	m.logger.WithField("count", len(indexes)).Info("Database indexes created")
	return nil
}

// SeedInitialData inserts a demo store with a few products
func (m *Migration) SeedInitialData() error {
	m.logger.Info("Seeding initial data")

	demo := store.Store{
		OwnerID:      "seed-owner",
		Username:     "demo",
		Name:         "Demo Store",
		Description:  "A store for trying out the checkout locally",
		ContactEmail: "owner@demo.local",
		Currency:     "INR",
		IsActive:     true,
	}
	if err := m.db.Where("username = ?", demo.Username).FirstOrCreate(&demo).Error; err != nil {
		return fmt.Errorf("failed to seed store: %w", err)
	}

	products := []product.Product{
		{SKU: "DEMO-001", Name: "Ceramic Mug", Description: "350ml glazed mug", Price: "250.00", IsPublished: true, IsActive: true},
		{SKU: "DEMO-002", Name: "Art Poster", Description: "A2 matte print", Price: "99.50", IsPublished: true, IsActive: true},
		{SKU: "DEMO-003", Name: "Canvas Tote", Description: "Heavy cotton tote bag", Price: "449.00", IsPublished: true, IsActive: true},
		{SKU: "DEMO-004", Name: "Upcoming Notebook", Description: "Not yet on sale", Price: "120.00", IsPublished: false, IsActive: true},
	}

	for _, prod := range products {
		prod.StoreID = demo.ID

		var existing product.Product
		err := m.db.Where("store_id = ? AND sku = ?", prod.StoreID, prod.SKU).First(&existing).Error
		switch {
		case err == nil:
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to look up product %s: %w", prod.SKU, err)
		}

		if err := m.db.Create(&prod).Error; err != nil {
			m.logger.WithError(err).WithField("sku", prod.SKU).Warn("Failed to create seed product")
			continue
		}
		m.logger.WithField("sku", prod.SKU).Debug("Created seed product")
	}

	m.logger.WithField("store", demo.Username).Info("Initial data seeded")
	return nil
}

// DropAllTables drops all tables (use with extreme caution)
func (m *Migration) DropAllTables() error {
	m.logger.Warn("Dropping all database tables")

	tables := []string{
		"payment_incidents",
		"order_status_history",
		"order_items",
		"orders",
		"cart_items",
		"products",
		"stores",
	}

	for _, table := range tables {
		if err := m.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop %s: %w", table, err)
		}
		m.logger.WithField("table", table).Info("Dropped table")
	}
	return nil
}

// TableInfo is a row count for one table
type TableInfo struct {
	Name    string
	Records int64
}

// GetTableInfo returns the row count of every public table
func (m *Migration) GetTableInfo() ([]TableInfo, error) {
	var tables []string
	if err := m.db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public' ORDER BY tablename").Scan(&tables).Error; err != nil {
		return nil, err
	}

	info := make([]TableInfo, 0, len(tables))
	for _, table := range tables {
		var count int64
		if err := m.db.Table(table).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		info = append(info, TableInfo{Name: table, Records: count})
	}
	return info, nil
}
