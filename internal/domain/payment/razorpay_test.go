package payment

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

func testGateway(t *testing.T, handler http.HandlerFunc) *RazorpayGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewRazorpayGateway(config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: "test_secret",
		BaseURL:   srv.URL,
	}, logger.Discard())
}

func TestCreateIntent(t *testing.T) {
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "test_secret", pass)

		var req CreateOrderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(59950), req.Amount)
		assert.Equal(t, "INR", req.Currency)
		assert.Equal(t, "rcpt-1", req.Receipt)
		assert.Equal(t, "7", req.Notes["store_id"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(RazorpayOrder{
			ID: "order_Abc123", Entity: "order", Amount: req.Amount,
			Currency: req.Currency, Receipt: req.Receipt, Status: "created",
		})
	})

	intent, err := gw.CreateIntent(context.Background(), 59950, "INR", "rcpt-1", map[string]string{"store_id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "order_Abc123", intent.ID)
	assert.Equal(t, int64(59950), intent.Amount)
	assert.Equal(t, "created", intent.Status)
	assert.Equal(t, "rzp_test_key", gw.PublicKey())
}

func TestCreateIntentGatewayError(t *testing.T) {
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount too small"}}`))
	})

	_, err := gw.CreateIntent(context.Background(), 100, "INR", "rcpt-1", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount too small")
}

func TestCreateIntentRejectsNonPositiveAmount(t *testing.T) {
	called := false
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := gw.CreateIntent(context.Background(), 0, "INR", "rcpt-1", nil)
	assert.Error(t, err)
	assert.False(t, called)
}

func TestCreateIntentHonoursContext(t *testing.T) {
	gw := testGateway(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := gw.CreateIntent(ctx, 100, "INR", "rcpt-1", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVerify(t *testing.T) {
	gw := NewRazorpayGateway(config.RazorpayConfig{KeyID: "k", KeySecret: "test_secret"}, logger.Discard())
	sig := Signature("test_secret", "order_Abc123", "pay_Xyz789")

	assert.NoError(t, gw.Verify("order_Abc123", "pay_Xyz789", sig))
	assert.ErrorIs(t, gw.Verify("order_Abc123", "pay_Other", sig), ErrInvalidSignature)
	assert.ErrorIs(t, gw.Verify("order_Abc123", "pay_Xyz789", "deadbeef"), ErrInvalidSignature)
	assert.ErrorIs(t, gw.Verify("order_Abc123", "pay_Xyz789", ""), ErrInvalidSignature)
}

func TestSignatureKnownVector(t *testing.T) {
	assert.Len(t, Signature("secret", "order_1", "pay_1"), 64)
	assert.Equal(t, Signature("secret", "order_1", "pay_1"), Signature("secret", "order_1", "pay_1"))
	assert.NotEqual(t, Signature("secret", "order_1", "pay_1"), Signature("other", "order_1", "pay_1"))
}
