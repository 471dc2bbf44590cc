// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// CheckoutHandler drives the checkout state machine over HTTP
type CheckoutHandler struct {
	orchestrator *checkout.Orchestrator
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(orchestrator *checkout.Orchestrator) *CheckoutHandler {
	return &CheckoutHandler{orchestrator: orchestrator}
}

// WidgetErrorRequest is the body of POST .../attempts/:attempt_id/error
type WidgetErrorRequest struct {
	Reason string `json:"reason"`
}

// Begin handles GET /stores/:hint/checkout: the cart to confirm and the
// payment methods on offer
func (h *CheckoutHandler) Begin(c *gin.Context) {
	out, err := h.orchestrator.Validate(c.Request.Context(), middleware.SessionFromContext(c), middleware.StoreFromContext(c))
	if err != nil {
		respondError(c, err, "Failed to start checkout")
		return
	}
	if redirected(c, out) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout ready",
		"data": gin.H{
			"state":           out.State,
			"cart":            out.Cart,
			"payment_methods": h.orchestrator.PaymentMethods(),
		},
	})
}

// Submit handles POST /stores/:hint/checkout. Cash on delivery returns the
// placed order; online payment returns what the payment widget needs.
func (h *CheckoutHandler) Submit(c *gin.Context) {
	var details checkout.Details
	if err := c.ShouldBindJSON(&details); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	out, err := h.orchestrator.Submit(c.Request.Context(), middleware.SessionFromContext(c), middleware.StoreFromContext(c), details)
	if err != nil {
		respondError(c, err, "Failed to place order")
		return
	}
	if redirected(c, out) {
		return
	}

	if out.State == checkout.StateFinalized {
		c.JSON(http.StatusCreated, gin.H{
			"message": "Order placed successfully",
			"data":    out,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment initiated",
		"data":    out,
	})
}

// Complete handles POST /stores/:hint/checkout/attempts/:attempt_id/complete
func (h *CheckoutHandler) Complete(c *gin.Context) {
	var result checkout.PaymentResult
	if err := c.ShouldBindJSON(&result); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	out, err := h.orchestrator.CompletePayment(c.Request.Context(), middleware.SessionFromContext(c), middleware.StoreFromContext(c), c.Param("attempt_id"), result)
	if err != nil {
		respondError(c, err, "Failed to complete payment")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data":    out,
	})
}

// Cancel handles POST /stores/:hint/checkout/attempts/:attempt_id/cancel
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	out, err := h.orchestrator.CancelPayment(c.Request.Context(), middleware.SessionFromContext(c), c.Param("attempt_id"))
	if err != nil {
		respondError(c, err, "Failed to cancel payment")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment cancelled, your cart is unchanged",
		"data":    out,
	})
}

// WidgetError handles POST /stores/:hint/checkout/attempts/:attempt_id/error
func (h *CheckoutHandler) WidgetError(c *gin.Context) {
	var req WidgetErrorRequest
	// the reason is informational; an empty or malformed body is fine
	_ = c.ShouldBindJSON(&req)

	out, err := h.orchestrator.ReportWidgetError(c.Request.Context(), middleware.SessionFromContext(c), c.Param("attempt_id"), req.Reason)
	if err != nil {
		respondError(c, err, "Failed to record payment error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment failed, your cart is unchanged",
		"data":    out,
	})
}

// redirected writes the empty-cart response when out says so
func redirected(c *gin.Context, out *checkout.Outcome) bool {
	if out.State != checkout.StateRedirectToCart {
		return false
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Your cart is empty",
		"data": gin.H{
			"state":        out.State,
			"redirect_url": out.RedirectURL,
		},
	})
	return true
}
