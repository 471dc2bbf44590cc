package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// StoreHandler serves the public store and catalog endpoints
type StoreHandler struct {
	products product.Repository
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(products product.Repository) *StoreHandler {
	return &StoreHandler{products: products}
}

// GetStore handles GET /stores/:hint
func (h *StoreHandler) GetStore(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Store retrieved successfully",
		"data":    middleware.StoreFromContext(c),
	})
}

// ProductView is a catalog entry with its parsed price
type ProductView struct {
	product.Product
	UnitPrice int64 `json:"unit_price"`
}

// ListProducts handles GET /stores/:hint/products
func (h *StoreHandler) ListProducts(c *gin.Context) {
	st := middleware.StoreFromContext(c)

	page := 1
	if p, err := strconv.Atoi(c.Query("page")); err == nil && p > 0 {
		page = p
	}
	limit := 20
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}

	products, total, err := h.products.ListAvailable(c.Request.Context(), st.ID, limit, (page-1)*limit)
	if err != nil {
		respondError(c, err, "Failed to retrieve products")
		return
	}

	views := make([]ProductView, 0, len(products))
	for i := range products {
		views = append(views, ProductView{Product: products[i], UnitPrice: products[i].UnitPrice()})
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data": gin.H{
			"products": views,
			"pagination": gin.H{
				"page":  page,
				"limit": limit,
				"total": total,
			},
		},
	})
}
