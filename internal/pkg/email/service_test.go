package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

func sampleOrder() OrderConfirmationData {
	return OrderConfirmationData{
		StoreName:     "My Store",
		BuyerName:     "Asha Rao",
		BuyerEmail:    "asha@example.com",
		OrderNumber:   "ORD-20260102-ABCDEF12",
		OrderTotal:    "599.50",
		Currency:      "INR",
		PaymentMethod: "cod",
		Address:       "12 MG Road, Bengaluru, KA, 560001",
		Items:         []OrderItem{{Name: "Mug", Quantity: 2, Total: "500.00"}},
	}
}

func TestResendOrderConfirmation(t *testing.T) {
	var got ResendEmailRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewService(config.EmailConfig{
		Provider: "resend", APIKey: "re_key", FromEmail: "orders@shop.example", FromName: "Shop",
	}, "https://shop.example", logger.Discard())
	svc.resendURL = srv.URL

	require.NoError(t, svc.SendOrderConfirmationEmail(context.Background(), sampleOrder()))
	assert.Equal(t, []string{"asha@example.com"}, got.To)
	assert.Equal(t, "Shop <orders@shop.example>", got.From)
	assert.Equal(t, "Order Confirmation - ORD-20260102-ABCDEF12", got.Subject)
	assert.Contains(t, got.HTML, "Asha Rao")
	assert.Contains(t, got.HTML, "INR 599.50")
}

func TestSendGridStatusChecked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	svc := NewService(config.EmailConfig{Provider: "sendgrid", APIKey: "sg_key"}, "", logger.Discard())
	svc.sendgridURL = srv.URL

	err := svc.SendSellerNewOrderEmail(context.Background(), "owner@shop.example", sampleOrder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestNoRecipientIsSkipped(t *testing.T) {
	svc := NewService(config.EmailConfig{Provider: "unknown"}, "", logger.Discard())
	data := sampleOrder()
	data.BuyerEmail = ""

	assert.NoError(t, svc.SendOrderConfirmationEmail(context.Background(), data))
	assert.NoError(t, svc.SendSellerNewOrderEmail(context.Background(), "", data))
	assert.Error(t, svc.SendEmail(context.Background(), &Email{To: []string{"a@b.c"}}))
}

func TestBuildMessageHeaders(t *testing.T) {
	svc := NewService(config.EmailConfig{FromEmail: "orders@shop.example", ReplyTo: "help@shop.example"}, "", logger.Discard())
	msg := string(svc.buildMessage(&Email{To: []string{"a@b.c"}, Subject: "Hi", HTMLContent: "<p>x</p>"}))

	assert.Contains(t, msg, "From: orders@shop.example\r\n")
	assert.Contains(t, msg, "Reply-To: help@shop.example\r\n")
	assert.Contains(t, msg, "\r\n\r\n<p>x</p>")
}
