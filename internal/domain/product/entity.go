// internal/domain/product/entity.go
package product

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Product is a catalog item owned by one store. Price is kept as the
// decimal string the seller entered and parsed at read time.
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	StoreID     uint           `gorm:"not null;index" json:"store_id"`
	SKU         string         `gorm:"size:100" json:"sku"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	ImageURL    string         `gorm:"size:500" json:"image_url"`
	Price       string         `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	IsPublished bool           `gorm:"default:false" json:"is_published"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name
func (Product) TableName() string {
	return "products"
}

// Availability tells whether a product can currently be bought
type Availability string

const (
	Available   Availability = "available"
	Unpublished Availability = "unpublished"
	Deleted     Availability = "deleted"
	Inactive    Availability = "inactive"
	Invalid     Availability = "invalid"
)

// Purchasable reports whether the availability allows buying
func (a Availability) Purchasable() bool {
	return a == Available
}

// AvailabilityOf computes the availability of p for a store. A nil product
// counts as deleted.
func AvailabilityOf(p *Product, storeID uint) Availability {
	switch {
	case p == nil || p.DeletedAt.Valid:
		return Deleted
	case p.StoreID != storeID:
		return Invalid
	case !p.IsActive:
		return Inactive
	case !p.IsPublished:
		return Unpublished
	case strings.TrimSpace(p.Name) == "" || ParsePrice(p.Price) <= 0:
		return Invalid
	default:
		return Available
	}
}

// UnitPrice returns the product price in minor currency units
func (p *Product) UnitPrice() int64 {
	if p == nil {
		return 0
	}
	return ParsePrice(p.Price)
}
