package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/domain/payment"
)

// WebhookHandler receives payment gateway webhooks
type WebhookHandler struct {
	reconciler *payment.Reconciler
	secret     string
	logger     *logrus.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(reconciler *payment.Reconciler, secret string, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		reconciler: reconciler,
		secret:     secret,
		logger:     logger,
	}
}

// Payment handles POST /webhooks/payment
func (h *WebhookHandler) Payment(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, "Failed to read request body", nil)
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if signature == "" {
		badRequest(c, "Missing signature header", nil)
		return
	}
	if !payment.VerifyWebhookSignature(h.secret, body, signature) {
		h.logger.WithField("client_ip", c.ClientIP()).Warn("Webhook signature mismatch")
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid signature",
		})
		return
	}

	event, err := payment.ParseWebhook(body)
	if err != nil {
		badRequest(c, "Invalid webhook payload", err)
		return
	}

	incident, err := h.reconciler.HandleWebhook(c.Request.Context(), event)
	if err != nil {
		// 5xx makes the gateway redeliver
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Failed to process webhook",
			"retryable": true,
		})
		return
	}

	response := gin.H{"status": "received"}
	if incident != nil {
		response["incident_id"] = incident.ID
	}
	c.JSON(http.StatusOK, response)
}
