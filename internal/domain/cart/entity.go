// internal/domain/cart/entity.go
package cart

import (
	"time"

	"github.com/your-org/storefront-backend/internal/domain/product"
)

// Line is "N units of product P in session S's cart for store T".
// At most one Line exists per (session, store, product).
type Line struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"not null;size:64;uniqueIndex:ux_cart_line,priority:1" json:"session_id"`
	StoreID   uint      `gorm:"not null;uniqueIndex:ux_cart_line,priority:2;index" json:"store_id"`
	ProductID uint      `gorm:"not null;uniqueIndex:ux_cart_line,priority:3" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (Line) TableName() string {
	return "cart_items"
}

// ViewLine is a cart line joined with its product
type ViewLine struct {
	ID           uint                 `json:"id"`
	ProductID    uint                 `json:"product_id"`
	Quantity     int                  `json:"quantity"`
	UnitPrice    int64                `json:"unit_price"`
	LineTotal    int64                `json:"line_total"`
	Availability product.Availability `json:"availability"`
	Product      *product.Product     `json:"product,omitempty"`
	AddedAt      time.Time            `json:"added_at"`
}

// OmittedLine is a stored line hidden from the view because its product can
// no longer be bought. The stored row is left in place.
type OmittedLine struct {
	ProductID    uint                 `json:"product_id"`
	Quantity     int                  `json:"quantity"`
	Availability product.Availability `json:"availability"`
}

// Totals are the derived cart aggregates
type Totals struct {
	LineCount  int   `json:"line_count"`
	ItemCount  int   `json:"item_count"`
	TotalPrice int64 `json:"total_price"`
}

// View is the cart for a (session, store) pair as the buyer sees it
type View struct {
	SessionID string        `json:"session_id"`
	StoreID   uint          `json:"store_id"`
	StoreName string        `json:"store"`
	Lines     []ViewLine    `json:"items"`
	Omitted   []OmittedLine `json:"omitted,omitempty"`
	Totals    Totals        `json:"totals"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// IsEmpty reports whether the view has no purchasable lines
func (v *View) IsEmpty() bool {
	return v == nil || len(v.Lines) == 0
}

// Find returns the view line for productID
func (v *View) Find(productID uint) (*ViewLine, bool) {
	if v == nil {
		return nil, false
	}
	for i := range v.Lines {
		if v.Lines[i].ProductID == productID {
			return &v.Lines[i], true
		}
	}
	return nil, false
}

// TotalPrice sums price × quantity over lines
func TotalPrice(lines []ViewLine) int64 {
	var total int64
	for _, line := range lines {
		if line.UnitPrice <= 0 || line.Quantity <= 0 {
			continue
		}
		total += line.UnitPrice * int64(line.Quantity)
	}
	return total
}

// ItemCount sums quantities over lines
func ItemCount(lines []ViewLine) int {
	count := 0
	for _, line := range lines {
		if line.Quantity > 0 {
			count += line.Quantity
		}
	}
	return count
}
