// internal/domain/notify/email.go
package notify

import (
	"context"
	"errors"

	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/pkg/email"
)

// EmailNotifier sends the buyer confirmation and the seller notice
type EmailNotifier struct {
	service *email.Service
}

// NewEmailNotifier creates an email notifier
func NewEmailNotifier(service *email.Service) *EmailNotifier {
	return &EmailNotifier{service: service}
}

func (n *EmailNotifier) OrderPlaced(ctx context.Context, event OrderEvent) error {
	data := confirmationData(event)

	buyerErr := n.service.SendOrderConfirmationEmail(ctx, data)
	sellerErr := n.service.SendSellerNewOrderEmail(ctx, event.SellerEmail, data)
	return errors.Join(buyerErr, sellerErr)
}

func confirmationData(event OrderEvent) email.OrderConfirmationData {
	o := event.Order
	items := make([]email.OrderItem, 0, len(o.Lines))
	for _, line := range o.Lines {
		items = append(items, email.OrderItem{
			Name:     line.Name,
			SKU:      line.SKU,
			Quantity: line.Quantity,
			Price:    product.FormatPrice(line.PriceAtPurchase),
			Total:    product.FormatPrice(line.LineTotal()),
		})
	}

	return email.OrderConfirmationData{
		StoreName:     event.StoreName,
		BuyerName:     o.BuyerName,
		BuyerEmail:    o.BuyerEmail,
		BuyerPhone:    o.BuyerPhone,
		OrderNumber:   o.OrderNumber,
		OrderDate:     o.CreatedAt.Format("02 Jan 2006"),
		OrderTotal:    product.FormatPrice(o.TotalAmount),
		Currency:      o.Currency,
		PaymentMethod: string(o.PaymentMethod),
		Address:       o.Address,
		OrderURL:      event.OrderURL,
		Items:         items,
	}
}
