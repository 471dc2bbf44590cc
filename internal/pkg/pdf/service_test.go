package pdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/store"
)

func TestRenderReceiptHTML(t *testing.T) {
	s := NewService()
	s.now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }

	o := &order.Order{
		OrderNumber:   "ORD-20260304-ABCD1234",
		BuyerName:     "Asha <Rao>",
		BuyerPhone:    "9876543210",
		Address:       "12 MG Road, Bengaluru",
		TotalAmount:   59950,
		Currency:      "INR",
		PaymentMethod: order.PaymentMethodCOD,
		PaymentStatus: order.PaymentStatusPending,
		Lines: []order.Line{
			{Name: "Mug", SKU: "MUG-1", Quantity: 2, PriceAtPurchase: 25000},
			{Name: "Poster", SKU: "PST-1", Quantity: 1, PriceAtPurchase: 9950},
		},
	}
	st := &store.Store{Name: "My Store", ContactEmail: "owner@example.com"}

	html, err := s.RenderReceiptHTML(o, st)
	require.NoError(t, err)

	page := string(html)
	assert.Contains(t, page, "RCPT-ORD-20260304-ABCD1234")
	assert.Contains(t, page, "March 4, 2026")
	assert.Contains(t, page, "Cash on Delivery")
	assert.Contains(t, page, "500.00")
	assert.Contains(t, page, "99.50")
	assert.Contains(t, page, "599.50")
	assert.Contains(t, page, "owner@example.com")
	assert.Contains(t, page, "Asha &lt;Rao&gt;")
	assert.NotContains(t, page, "Asha <Rao>")
}
