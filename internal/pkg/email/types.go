// internal/pkg/email/types.go
package email

// Type represents the kind of email being sent
type Type string

const (
	TypeOrderConfirmation Type = "order_confirmation"
	TypeSellerNewOrder    Type = "seller_new_order"
)

// Email represents an email message
type Email struct {
	To          []string `json:"to"`
	Subject     string   `json:"subject"`
	HTMLContent string   `json:"html_content"`
	Type        Type     `json:"type"`
}

// TemplateData contains common data for all email templates
type TemplateData struct {
	SiteName string `json:"site_name"`
	SiteURL  string `json:"site_url"`
	Year     int    `json:"year"`
}

// OrderConfirmationData contains data for order emails
type OrderConfirmationData struct {
	TemplateData
	StoreName     string      `json:"store_name"`
	BuyerName     string      `json:"buyer_name"`
	BuyerEmail    string      `json:"buyer_email"`
	BuyerPhone    string      `json:"buyer_phone"`
	OrderNumber   string      `json:"order_number"`
	OrderDate     string      `json:"order_date"`
	OrderTotal    string      `json:"order_total"`
	Currency      string      `json:"currency"`
	PaymentMethod string      `json:"payment_method"`
	Address       string      `json:"address"`
	OrderURL      string      `json:"order_url"`
	Items         []OrderItem `json:"items"`
}

// OrderItem represents an item in the order
type OrderItem struct {
	Name     string `json:"name"`
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
	Total    string `json:"total"`
}
