// internal/domain/order/entity.go
package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the fulfillment status
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// PaymentStatus represents payment status. It moves pending → paid at most
// once and never back.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// PaymentMethod is how the buyer pays
type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

// Valid reports whether m is a known payment method
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodOnline
}

// Order represents a placed order. Amounts are minor currency units.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	StoreID     uint   `gorm:"not null;index" json:"store_id"`
	SessionID   string `gorm:"size:64;index" json:"-"`

	// Buyer
	BuyerName  string `gorm:"not null;size:255" json:"buyer_name"`
	BuyerEmail string `gorm:"size:255" json:"buyer_email"`
	BuyerPhone string `gorm:"not null;size:20" json:"buyer_phone"`

	// Shipping address, kept both composed and in parts
	Address    string `gorm:"type:text;not null" json:"address"`
	Street     string `gorm:"size:255" json:"street"`
	City       string `gorm:"size:100" json:"city"`
	State      string `gorm:"size:100" json:"state"`
	PostalCode string `gorm:"size:20" json:"postal_code"`

	TotalAmount   int64         `gorm:"not null" json:"total_amount"`
	Currency      string        `gorm:"size:3;not null" json:"currency"`
	PaymentMethod PaymentMethod `gorm:"not null;size:20" json:"payment_method"`
	PaymentStatus PaymentStatus `gorm:"not null;size:20;default:'pending'" json:"payment_status"`
	Status        Status        `gorm:"not null;size:20;default:'pending';index" json:"status"`
	Notes         string        `gorm:"type:text" json:"notes,omitempty"`

	// Gateway correlation. GatewayOrderID is unique when set, which makes
	// order creation for one gateway payment happen at most once.
	GatewayOrderID   *string `gorm:"uniqueIndex;size:100" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string  `gorm:"size:100" json:"gateway_payment_id,omitempty"`
	GatewaySignature string  `gorm:"size:255" json:"-"`

	PaidAt      *time.Time `json:"paid_at"`
	ShippedAt   *time.Time `json:"shipped_at"`
	DeliveredAt *time.Time `json:"delivered_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Lines         []Line          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []StatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// Line is an immutable order line. PriceAtPurchase is the unit price read
// at the moment the order was placed.
type Line struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	OrderID         uint      `gorm:"not null;index" json:"order_id"`
	ProductID       uint      `gorm:"not null;index" json:"product_id"`
	SKU             string    `gorm:"size:100" json:"sku"`
	Name            string    `gorm:"not null;size:255" json:"name"`
	Quantity        int       `gorm:"not null" json:"quantity"`
	PriceAtPurchase int64     `gorm:"not null" json:"price_at_purchase"`
	CreatedAt       time.Time `json:"created_at"`
}

// StatusHistory tracks fulfillment status changes
type StatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	From      Status    `gorm:"size:20" json:"from"`
	Status    Status    `gorm:"not null;size:20" json:"status"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedBy string    `gorm:"size:255" json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string         { return "orders" }
func (Line) TableName() string          { return "order_items" }
func (StatusHistory) TableName() string { return "order_status_history" }

// NewOrderNumber generates a human readable order number.
// Format: ORD-YYYYMMDD-XXXXXXXX
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}

// ComposeAddress joins the non-empty address parts into one line
func ComposeAddress(street, city, state, postalCode string) string {
	parts := make([]string, 0, 4)
	for _, part := range []string{street, city, state, postalCode} {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// LineTotal returns price × quantity
func (l Line) LineTotal() int64 {
	return l.PriceAtPurchase * int64(l.Quantity)
}

// LinesTotal sums the order's line totals
func (o *Order) LinesTotal() int64 {
	var total int64
	for _, line := range o.Lines {
		total += line.LineTotal()
	}
	return total
}

// Reconciles reports whether the line totals add up to the order total
func (o *Order) Reconciles() bool {
	return o.LinesTotal() == o.TotalAmount
}

// IsPaid reports whether the payment was captured
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// GatewayOrder returns the gateway order id or ""
func (o *Order) GatewayOrder() string {
	if o.GatewayOrderID == nil {
		return ""
	}
	return *o.GatewayOrderID
}
