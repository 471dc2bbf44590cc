// internal/interfaces/http/handlers/order.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/store"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// ReceiptGenerator renders an order receipt as PDF
type ReceiptGenerator interface {
	GenerateReceipt(o *order.Order, st *store.Store) (*bytes.Buffer, error)
}

// OrderHandler handles buyer and seller order endpoints
type OrderHandler struct {
	orders   *order.Service
	stores   store.Repository
	receipts ReceiptGenerator
}

// NewOrderHandler creates a new order handler. receipts may be nil when
// receipt generation is disabled.
func NewOrderHandler(orders *order.Service, stores store.Repository, receipts ReceiptGenerator) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		stores:   stores,
		receipts: receipts,
	}
}

// GetBuyerOrder handles GET /stores/:hint/orders/:id. Only the session that
// placed the order can see it.
func (h *OrderHandler) GetBuyerOrder(c *gin.Context) {
	o, ok := h.buyerOrder(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// GetBuyerReceipt handles GET /stores/:hint/orders/:id/receipt.pdf
func (h *OrderHandler) GetBuyerReceipt(c *gin.Context) {
	o, ok := h.buyerOrder(c)
	if !ok {
		return
	}
	h.sendReceipt(c, o, middleware.StoreFromContext(c))
}

// ListSellerOrders handles GET /seller/orders
func (h *OrderHandler) ListSellerOrders(c *gin.Context) {
	storeID, _ := middleware.SellerStoreID(c)

	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}

	response, err := h.orders.List(c.Request.Context(), storeID, &req)
	if err != nil {
		respondError(c, err, "Failed to retrieve orders")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// GetSellerOrder handles GET /seller/orders/:id
func (h *OrderHandler) GetSellerOrder(c *gin.Context) {
	o, ok := h.sellerOrder(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// UpdateOrderStatus handles PUT /seller/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	storeID, _ := middleware.SellerStoreID(c)
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	var req order.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	actor := middleware.SellerEmail(c)
	if actor == "" {
		actor = fmt.Sprintf("store:%d", storeID)
	}

	updated, err := h.orders.UpdateStatus(c.Request.Context(), storeID, orderID, req.Status, req.Comment, actor)
	if err != nil {
		respondError(c, err, "Failed to update order status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    updated,
	})
}

// GetSellerReceipt handles GET /seller/orders/:id/receipt.pdf
func (h *OrderHandler) GetSellerReceipt(c *gin.Context) {
	o, ok := h.sellerOrder(c)
	if !ok {
		return
	}

	st, err := h.stores.FindByID(c.Request.Context(), o.StoreID)
	if err != nil {
		respondError(c, err, "Failed to generate receipt")
		return
	}
	h.sendReceipt(c, o, st)
}

func (h *OrderHandler) buyerOrder(c *gin.Context) (*order.Order, bool) {
	orderID, ok := orderIDParam(c)
	if !ok {
		return nil, false
	}

	st := middleware.StoreFromContext(c)
	sess := middleware.SessionFromContext(c)
	o, err := h.orders.GetForSession(c.Request.Context(), st.ID, orderID, sess.ID())
	if err != nil {
		respondError(c, err, "Failed to retrieve order")
		return nil, false
	}
	return o, true
}

func (h *OrderHandler) sellerOrder(c *gin.Context) (*order.Order, bool) {
	storeID, _ := middleware.SellerStoreID(c)
	orderID, ok := orderIDParam(c)
	if !ok {
		return nil, false
	}

	o, err := h.orders.Get(c.Request.Context(), storeID, orderID)
	if err != nil {
		respondError(c, err, "Failed to retrieve order")
		return nil, false
	}
	return o, true
}

func (h *OrderHandler) sendReceipt(c *gin.Context, o *order.Order, st *store.Store) {
	if h.receipts == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Receipts are not available",
		})
		return
	}

	pdf, err := h.receipts.GenerateReceipt(o, st)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate receipt",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", o.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", pdf.Bytes())
}

func orderIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "Invalid order ID", nil)
		return 0, false
	}
	return uint(id), true
}
