package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/store"
)

type errorMapping struct {
	target    error
	status    int
	message   string
	retryable bool
}

// Order matters: the first match wins.
var errorMappings = []errorMapping{
	{cart.ErrProductUnavailable, http.StatusConflict, "Product is not available", false},
	{cart.ErrInvalidQuantity, http.StatusBadRequest, "Quantity must be positive", false},
	{checkout.ErrCheckoutInProgress, http.StatusConflict, "Checkout already in progress", true},
	{checkout.ErrEmptyCart, http.StatusConflict, "Your cart is empty", false},
	{checkout.ErrAttemptNotFound, http.StatusNotFound, "Checkout not found or expired", false},
	{checkout.ErrIllegalTransition, http.StatusConflict, "Checkout can no longer be completed", false},
	{checkout.ErrOnlinePaymentsDisabled, http.StatusBadRequest, "Online payments are not available", false},
	{checkout.ErrOrderNotPlaced, http.StatusInternalServerError, "Your order could not be placed", true},
	{order.ErrOrderNotFound, http.StatusNotFound, "Order not found", false},
	{order.ErrInvalidTransition, http.StatusConflict, "Invalid status transition", false},
	{store.ErrStoreNotFound, http.StatusNotFound, "Store not found", false},
	{cart.ErrStorage, http.StatusServiceUnavailable, "Service temporarily unavailable", true},
}

// respondError writes the error body for err. Unknown errors are 500 with
// fallback as the message.
func respondError(c *gin.Context, err error, fallback string) {
	_ = c.Error(err)

	var validation *checkout.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":     "Invalid checkout details",
			"details":   validation.Fields,
			"retryable": false,
		})
		return
	}

	var verification *checkout.PaymentVerificationError
	if errors.As(err, &verification) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":     "Payment could not be verified",
			"retryable": false,
		})
		return
	}

	var gateway *checkout.GatewayError
	if errors.As(err, &gateway) {
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     "Payment service unavailable",
			"retryable": true,
		})
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, gin.H{
				"error":     m.message,
				"retryable": m.retryable,
			})
			return
		}
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":     fallback,
		"retryable": false,
	})
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
