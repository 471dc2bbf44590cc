// internal/domain/payment/gateway.go
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrInvalidSignature is returned when a payment result signature does not
// match the one computed with the gateway secret
var ErrInvalidSignature = errors.New("payment signature mismatch")

// Intent is a gateway-side order the hosted widget charges against
type Intent struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway is the payment gateway as seen by the checkout. Implementations
// must keep the key secret on the server.
type Gateway interface {
	// CreateIntent creates a gateway order for amount minor units.
	CreateIntent(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*Intent, error)
	// Verify checks the signature the widget returned for a payment.
	Verify(orderID, paymentID, signature string) error
	// PublicKey is the key id handed to the widget.
	PublicKey() string
}

// Signature computes the hex HMAC-SHA256 of "orderID|paymentID"
func Signature(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares signature against the expected one in constant time
func VerifySignature(secret, orderID, paymentID, signature string) error {
	if secret == "" || orderID == "" || paymentID == "" || signature == "" {
		return ErrInvalidSignature
	}
	expected := Signature(secret, orderID, paymentID)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}
