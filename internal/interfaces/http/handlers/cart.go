// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/session"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	carts *cart.Manager
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Manager) *CartHandler {
	return &CartHandler{carts: carts}
}

// AddItemRequest is the body of POST /cart/items
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity"`
}

// UpdateItemRequest is the body of PUT /cart/items/:product_id
type UpdateItemRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

// GetCart handles GET /stores/:hint/cart and GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.carts.Load(c.Request.Context(), middleware.SessionFromContext(c), middleware.StoreFromContext(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    view,
	})
}

// AddItem handles POST /stores/:hint/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	view, err := h.carts.Add(c.Request.Context(), middleware.SessionFromContext(c), middleware.StoreFromContext(c), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err, "Failed to add item to cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart successfully",
		"data":    view,
	})
}

// UpdateItem handles PUT /stores/:hint/cart/items/:product_id. A quantity
// of zero or less removes the line.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data", err)
		return
	}

	view, err := h.carts.Update(c.Request.Context(), middleware.SessionFromContext(c), middleware.StoreFromContext(c), productID, *req.Quantity)
	if err != nil {
		respondError(c, err, "Failed to update cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
		"data":    view,
	})
}

// RemoveItem handles DELETE /stores/:hint/cart/items/:product_id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, ok := productIDParam(c)
	if !ok {
		return
	}

	view, err := h.carts.Remove(c.Request.Context(), middleware.SessionFromContext(c), middleware.StoreFromContext(c), productID)
	if err != nil {
		respondError(c, err, "Failed to remove cart item")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart successfully",
		"data":    view,
	})
}

// ClearCart handles DELETE /stores/:hint/cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	if err := h.carts.Clear(c.Request.Context(), middleware.SessionFromContext(c), middleware.StoreFromContext(c)); err != nil {
		respondError(c, err, "Failed to clear cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared successfully",
	})
}

// GetCount handles GET /stores/:hint/cart/count
func (h *CartHandler) GetCount(c *gin.Context) {
	view, err := h.carts.Load(c.Request.Context(), middleware.SessionFromContext(c), middleware.StoreFromContext(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"count":       view.Totals.ItemCount,
			"total_price": view.Totals.TotalPrice,
		},
	})
}

// GetBackup handles GET /cart/backup
func (h *CartHandler) GetBackup(c *gin.Context) {
	backup, err := middleware.SessionFromContext(c).ReadBackup(c.Request.Context())
	if errors.Is(err, session.ErrNoBackup) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "No saved cart",
		})
		return
	}
	if err != nil {
		respondError(c, err, "Failed to retrieve saved cart")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": backup,
	})
}

func productIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil || id == 0 {
		badRequest(c, "Invalid product ID", nil)
		return 0, false
	}
	return uint(id), true
}
