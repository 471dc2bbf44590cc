// internal/domain/payment/razorpay.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
)

const defaultRazorpayBaseURL = "https://api.razorpay.com/v1"

// RazorpayGateway talks to the Razorpay REST API with basic auth
type RazorpayGateway struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewRazorpayGateway creates a Razorpay gateway client
func NewRazorpayGateway(cfg config.RazorpayConfig, logger *logrus.Logger) *RazorpayGateway {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultRazorpayBaseURL
	}

	return &RazorpayGateway{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		baseURL:   baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// RazorpayOrder is the gateway order resource
type RazorpayOrder struct {
	ID        string            `json:"id"`
	Entity    string            `json:"entity"`
	Amount    int64             `json:"amount"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes"`
	CreatedAt int64             `json:"created_at"`
}

// CreateOrderRequest is the body of POST /orders
type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// PublicKey returns the key id for the checkout widget
func (r *RazorpayGateway) PublicKey() string {
	return r.keyID
}

// CreateIntent creates a Razorpay order
func (r *RazorpayGateway) CreateIntent(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Intent, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("invalid payment amount %d", amount)
	}

	body, err := r.makeAPICall(ctx, http.MethodPost, "/orders", CreateOrderRequest{
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
		Notes:    notes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Razorpay order: %w", err)
	}

	var order RazorpayOrder
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to parse Razorpay order response: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay order response has no id")
	}

	r.logger.WithFields(logrus.Fields{
		"gateway_order_id": order.ID,
		"amount":           order.Amount,
		"receipt":          receipt,
	}).Info("Payment intent created")

	return &Intent{
		ID:       order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
		Receipt:  order.Receipt,
		Status:   order.Status,
	}, nil
}

// Verify checks a checkout result signature with the key secret
func (r *RazorpayGateway) Verify(orderID, paymentID, signature string) error {
	return VerifySignature(r.keySecret, orderID, paymentID, signature)
}

func (r *RazorpayGateway) makeAPICall(ctx context.Context, method, endpoint string, data interface{}) ([]byte, error) {
	var reqBody []byte
	if data != nil {
		var err error
		reqBody, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request data: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(r.keyID, r.keySecret)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr razorpayError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Description != "" {
			return nil, fmt.Errorf("API call failed with status %d: %s: %s", resp.StatusCode, apiErr.Error.Code, apiErr.Error.Description)
		}
		return nil, fmt.Errorf("API call failed with status %d", resp.StatusCode)
	}

	return respBody, nil
}
