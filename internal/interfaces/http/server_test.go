package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/domain/notify"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/domain/session"
	"github.com/your-org/storefront-backend/internal/domain/store"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
	"github.com/your-org/storefront-backend/internal/pkg/metrics"
	"github.com/your-org/storefront-backend/internal/pkg/retry"
)

const (
	keySecret     = "key_secret"
	webhookSecret = "hook_secret"
)

type stubGateway struct {
	next int
}

func (g *stubGateway) CreateIntent(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*payment.Intent, error) {
	g.next++
	return &payment.Intent{ID: fmt.Sprintf("order_%d", g.next), Amount: amount, Currency: currency, Receipt: receipt}, nil
}

func (g *stubGateway) Verify(orderID, paymentID, signature string) error {
	return payment.VerifySignature(keySecret, orderID, paymentID, signature)
}

func (g *stubGateway) PublicKey() string { return "rzp_test" }

type stubReceipts struct{}

func (stubReceipts) GenerateReceipt(o *order.Order, st *store.Store) (*bytes.Buffer, error) {
	return bytes.NewBufferString("%PDF-1.4 " + o.OrderNumber), nil
}

type testEnv struct {
	server    *Server
	jwt       *auth.JWTManager
	incidents *payment.MemoryIncidentRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.Discard()

	cfg := &config.Config{
		App:    config.AppConfig{Environment: "test", Version: "test"},
		Server: config.ServerConfig{MaxBodyBytes: 1 << 20, RequestTimeout: 5 * time.Second},
		Security: config.SecurityConfig{
			CORSAllowedOrigins: []string{"*.shop.example"},
			CORSAllowedMethods: []string{"GET", "POST"},
			CORSAllowedHeaders: []string{"Content-Type"},
		},
		Session: config.SessionConfig{CookieName: "session_id", TTL: time.Hour},
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewRecorder(registry)

	stores := store.NewMemoryRepository(
		store.Store{ID: 7, Username: "mystore", Name: "My Store", ContactEmail: "owner@example.com", IsActive: true},
		store.Store{ID: 8, Username: "other", Name: "Other", IsActive: true},
	)
	products := product.NewMemoryRepository(
		product.Product{ID: 1, StoreID: 7, SKU: "MUG-1", Name: "Mug", Price: "250.00", IsPublished: true, IsActive: true},
		product.Product{ID: 2, StoreID: 7, SKU: "PST-1", Name: "Poster", Price: "99.50", IsPublished: true, IsActive: true},
		product.Product{ID: 3, StoreID: 7, SKU: "DRF-1", Name: "Draft", Price: "10.00", IsPublished: false, IsActive: true},
	)
	orders := order.NewMemoryRepository()
	incidents := payment.NewMemoryIncidentRepository()
	reconciler := payment.NewReconciler(incidents, orders, recorder, log)

	resolver := store.NewResolver(stores, retry.Policy{Attempts: 1}, log, recorder)
	carts := cart.NewManager(cart.NewMemoryRepository(), products, log)
	orch := checkout.NewOrchestrator(checkout.Dependencies{
		Carts:      carts,
		Orders:     orders,
		Gateway:    &stubGateway{},
		Reconciler: reconciler,
		Attempts:   checkout.NewMemoryAttemptStore(),
		Locker:     checkout.NewMemoryLocker(),
		Notifier:   notify.Nop{},
		Metrics:    recorder,
		Logger:     log,
	}, checkout.Options{Currency: "INR"})
	jwtManager := auth.NewJWTManager(config.JWTConfig{Secret: "jwt_secret", Issuer: "idp"})

	server := NewServer(cfg, log, Options{
		Routes: routes.Dependencies{
			Stores:       handlers.NewStoreHandler(products),
			Carts:        handlers.NewCartHandler(carts),
			Checkout:     handlers.NewCheckoutHandler(orch),
			Orders:       handlers.NewOrderHandler(order.NewService(orders, log), stores, stubReceipts{}),
			Webhooks:     handlers.NewWebhookHandler(reconciler, webhookSecret, log),
			Session:      middleware.Session(session.NewMemoryStorage(), cfg.Session, log),
			StoreContext: middleware.StoreContext(resolver, "shop.example"),
			SellerAuth:   middleware.SellerAuth(jwtManager),
		},
		Gatherer: registry,
		Checks: []HealthCheck{
			{Name: "database", Check: func(context.Context) error { return nil }},
		},
	})

	return &testEnv{server: server, jwt: jwtManager, incidents: incidents}
}

type request struct {
	method  string
	path    string
	body    interface{}
	cookie  *http.Cookie
	headers map[string]string
	host    string
}

func (e *testEnv) do(t *testing.T, r request) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	switch b := r.body.(type) {
	case nil:
	case []byte:
		body.Write(b)
	default:
		require.NoError(t, json.NewEncoder(&body).Encode(b))
	}

	req := httptest.NewRequest(r.method, r.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if r.cookie != nil {
		req.AddCookie(r.cookie)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if r.host != "" {
		req.Host = r.host
	}

	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "session_id" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	d, ok := decode(t, w)["data"].(map[string]interface{})
	require.True(t, ok, w.Body.String())
	return d
}

var checkoutForm = map[string]string{
	"full_name":      "Asha Rao",
	"phone":          "9876543210",
	"street":         "12 MG Road",
	"city":           "Bengaluru",
	"state":          "KA",
	"postal_code":    "560001",
	"payment_method": "cod",
}

func withMethod(method string) map[string]string {
	form := make(map[string]string, len(checkoutForm))
	for k, v := range checkoutForm {
		form[k] = v
	}
	form["payment_method"] = method
	return form
}

// fillCart adds 2 mugs for a new session and returns its cookie
func (e *testEnv) fillCart(t *testing.T) *http.Cookie {
	t.Helper()
	w := e.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/cart/items", body: map[string]int{"product_id": 1, "quantity": 2}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return sessionCookie(t, w)
}

func TestHealthAndReadiness(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, request{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/ready"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["checks"].(map[string]interface{})["database"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCartLifecycle(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.fillCart(t)

	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/cart/items", body: map[string]int{"product_id": 2}, cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	totals := data(t, w)["totals"].(map[string]interface{})
	assert.Equal(t, float64(59950), totals["total_price"])
	assert.Equal(t, float64(3), totals["item_count"])

	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/cart/items", body: map[string]int{"product_id": 3}, cookie: cookie})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Product is not available", decode(t, w)["error"])

	w = env.do(t, request{method: http.MethodPut, path: "/api/v1/stores/mystore/cart/items/2", body: map[string]int{"quantity": 0}, cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data(t, w)["items"], 1)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/stores/mystore/cart/count", cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), data(t, w)["count"])

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart", cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mystore", data(t, w)["store"])

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart/backup", cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(50000), data(t, w)["total_price"])

	w = env.do(t, request{method: http.MethodDelete, path: "/api/v1/stores/mystore/cart", cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart/backup", cookie: cookie})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartsArePerSession(t *testing.T) {
	env := newTestEnv(t)
	env.fillCart(t)

	w := env.do(t, request{method: http.MethodGet, path: "/api/v1/stores/mystore/cart"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, data(t, w)["items"])
}

func TestStoreResolution(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, request{method: http.MethodGet, path: "/api/v1/stores/%20MyStore%20"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mystore", data(t, w)["username"])

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/stores/my%20store"})
	require.Equal(t, http.StatusOK, w.Code, "display name fallback")

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/stores/nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, decode(t, w)["retryable"])

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart"})
	assert.Equal(t, http.StatusNotFound, w.Code, "no hint and no remembered store")

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart", host: "mystore.shop.example"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/cart", headers: map[string]string{"X-Store": "other"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "other", data(t, w)["store"])
}

func TestListProducts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, request{method: http.MethodGet, path: "/api/v1/stores/mystore/products"})
	require.Equal(t, http.StatusOK, w.Code)
	products := data(t, w)["products"].([]interface{})
	assert.Len(t, products, 2)
}

func TestCashOnDeliveryCheckout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.fillCart(t)

	w := env.do(t, request{method: http.MethodGet, path: "/api/v1/stores/mystore/checkout", cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data(t, w)["payment_methods"], 2)

	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/checkout", body: checkoutForm, cookie: cookie})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := data(t, w)["order"].(map[string]interface{})
	assert.Equal(t, float64(50000), placed["total_amount"])
	assert.Equal(t, "cod", placed["payment_method"])
	orderPath := fmt.Sprintf("/api/v1/stores/mystore/orders/%.0f", placed["id"])

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/stores/mystore/cart", cookie: cookie})
	assert.Empty(t, data(t, w)["items"])

	w = env.do(t, request{method: http.MethodGet, path: orderPath, cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data(t, w)["items"], 1)

	w = env.do(t, request{method: http.MethodGet, path: orderPath + "/receipt.pdf", cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	w = env.do(t, request{method: http.MethodGet, path: orderPath})
	assert.Equal(t, http.StatusNotFound, w.Code, "other sessions cannot see the order")
}

func TestCheckoutEmptyCartRedirects(t *testing.T) {
	env := newTestEnv(t)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := env.do(t, request{method: method, path: "/api/v1/stores/mystore/checkout", body: checkoutForm})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.NotContains(t, decode(t, w), "error")

		out := data(t, w)
		assert.Equal(t, "redirect_to_cart", out["state"])
		assert.Equal(t, "/mystore/cart", out["redirect_url"])
	}
}

func TestCheckoutRejectsUnknownPaymentMethod(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.fillCart(t)

	form := withMethod("card")
	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/checkout", body: form, cookie: cookie})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["details"], "payment_method")

	delete(form, "payment_method")
	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/checkout", body: form, cookie: cookie})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Contains(t, decode(t, w)["details"], "payment_method")

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/stores/mystore/cart", cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data(t, w)["items"], 1, "no order was placed")
}

func TestCheckoutValidation(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.fillCart(t)

	form := withMethod("cod")
	delete(form, "city")

	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/checkout", body: form, cookie: cookie})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	details := decode(t, w)["details"].(map[string]interface{})
	assert.Contains(t, details, "city")
}

func TestOnlineCheckout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.fillCart(t)

	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/checkout", body: withMethod("online"), cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := data(t, w)
	attemptID := out["attempt_id"].(string)
	pay := out["payment"].(map[string]interface{})
	gatewayOrderID := pay["gateway_order_id"].(string)
	assert.Equal(t, float64(50000), pay["amount"])
	assert.Equal(t, "rzp_test", pay["public_key"])

	completePath := "/api/v1/stores/mystore/checkout/attempts/" + attemptID + "/complete"

	w = env.do(t, request{method: http.MethodPost, path: completePath, body: map[string]string{
		"gateway_order_id":   gatewayOrderID,
		"gateway_payment_id": "pay_1",
		"signature":          "bogus",
	}, cookie: cookie})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Len(t, env.incidents.All(), 1)

	// a fresh attempt after the failed one
	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/checkout", body: withMethod("online"), cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	out = data(t, w)
	attemptID = out["attempt_id"].(string)
	gatewayOrderID = out["payment"].(map[string]interface{})["gateway_order_id"].(string)
	completePath = "/api/v1/stores/mystore/checkout/attempts/" + attemptID + "/complete"

	w = env.do(t, request{method: http.MethodPost, path: completePath, body: map[string]string{
		"gateway_order_id":   gatewayOrderID,
		"gateway_payment_id": "pay_2",
		"signature":          payment.Signature(keySecret, gatewayOrderID, "pay_2"),
	}, cookie: cookie})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := data(t, w)["order"].(map[string]interface{})
	assert.Equal(t, "paid", placed["payment_status"])
	assert.Equal(t, gatewayOrderID, placed["gateway_order_id"])
}

func TestCancelledOnlineCheckout(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.fillCart(t)

	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/checkout", body: withMethod("online"), cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	out := data(t, w)
	attemptID := out["attempt_id"].(string)
	gatewayOrderID := out["payment"].(map[string]interface{})["gateway_order_id"].(string)

	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/checkout/attempts/" + attemptID + "/cancel", cookie: cookie})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", data(t, w)["reason"])

	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/checkout/attempts/" + attemptID + "/error", body: map[string]string{"reason": "late"}, cookie: cookie})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/stores/mystore/cart", cookie: cookie})
	assert.Len(t, data(t, w)["items"], 1)

	// the gateway can still charge after the widget was closed
	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/checkout/attempts/" + attemptID + "/complete", body: map[string]string{
		"gateway_order_id":   gatewayOrderID,
		"gateway_payment_id": "pay_late",
		"signature":          payment.Signature(keySecret, gatewayOrderID, "pay_late"),
	}, cookie: cookie})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "paid", data(t, w)["order"].(map[string]interface{})["payment_status"])
	assert.Empty(t, env.incidents.All())
}

func TestSellerOrders(t *testing.T) {
	env := newTestEnv(t)
	cookie := env.fillCart(t)

	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/stores/mystore/checkout", body: checkoutForm, cookie: cookie})
	require.Equal(t, http.StatusCreated, w.Code)
	orderID := data(t, w)["order"].(map[string]interface{})["id"]

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/seller/orders"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := env.jwt.GenerateSellerToken(7, "owner@example.com", time.Hour)
	require.NoError(t, err)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	w = env.do(t, request{method: http.MethodGet, path: "/api/v1/seller/orders", headers: bearer})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data(t, w)["orders"], 1)

	orderPath := fmt.Sprintf("/api/v1/seller/orders/%.0f", orderID)

	w = env.do(t, request{method: http.MethodPut, path: orderPath + "/status", body: map[string]string{"status": "processing"}, headers: bearer})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "processing", data(t, w)["status"])

	w = env.do(t, request{method: http.MethodPut, path: orderPath + "/status", body: map[string]string{"status": "delivered"}, headers: bearer})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, request{method: http.MethodGet, path: orderPath + "/receipt.pdf", headers: bearer})
	assert.Equal(t, http.StatusOK, w.Code)

	otherToken, err := env.jwt.GenerateSellerToken(8, "", time.Hour)
	require.NoError(t, err)
	w = env.do(t, request{method: http.MethodGet, path: orderPath, headers: map[string]string{"Authorization": "Bearer " + otherToken}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestPaymentWebhook(t *testing.T) {
	env := newTestEnv(t)

	body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_9","order_id":"order_orphan","amount":12000,"currency":"INR","status":"captured"}}}}`)

	w := env.do(t, request{method: http.MethodPost, path: "/api/v1/webhooks/payment", body: body, headers: map[string]string{"X-Razorpay-Signature": "00"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, request{method: http.MethodPost, path: "/api/v1/webhooks/payment", body: body, headers: map[string]string{"X-Razorpay-Signature": sign(body)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotNil(t, decode(t, w)["incident_id"])

	incidents := env.incidents.All()
	require.Len(t, incidents, 1)
	assert.Equal(t, payment.IncidentCapturedWithoutOrder, incidents[0].Kind)
	assert.Equal(t, int64(12000), incidents[0].Amount)
}

func TestCORSAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, request{method: http.MethodOptions, path: "/api/v1/cart", headers: map[string]string{"Origin": "https://mystore.shop.example"}})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://mystore.shop.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = env.do(t, request{method: http.MethodOptions, path: "/api/v1/cart", headers: map[string]string{"Origin": "https://evil.example"}})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	env.do(t, request{method: http.MethodGet, path: "/api/v1/stores/mystore"})
	w = env.do(t, request{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `storefront_store_resolutions_total{result="hit"}`)
}
