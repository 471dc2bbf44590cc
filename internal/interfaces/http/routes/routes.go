// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/interfaces/http/handlers"
)

// Dependencies are the handlers and per-group middleware the routes need
type Dependencies struct {
	Stores   *handlers.StoreHandler
	Carts    *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Orders   *handlers.OrderHandler
	Webhooks *handlers.WebhookHandler

	Session      gin.HandlerFunc
	StoreContext gin.HandlerFunc
	SellerAuth   gin.HandlerFunc
}

// SetupRoutes registers every API route under api
func SetupRoutes(api *gin.RouterGroup, d Dependencies) {
	// Gateway callbacks carry no session
	webhooks := api.Group("/webhooks")
	{
		webhooks.POST("/payment", d.Webhooks.Payment)
	}

	buyer := api.Group("", d.Session)

	// Routes without a tenant in the path recover it from the session
	buyer.GET("/cart/backup", d.Carts.GetBackup)
	buyer.GET("/cart", d.StoreContext, d.Carts.GetCart)

	stores := buyer.Group("/stores/:hint", d.StoreContext)
	{
		stores.GET("", d.Stores.GetStore)
		stores.GET("/products", d.Stores.ListProducts)

		cart := stores.Group("/cart")
		{
			cart.GET("", d.Carts.GetCart)
			cart.DELETE("", d.Carts.ClearCart)
			cart.GET("/count", d.Carts.GetCount)
			cart.POST("/items", d.Carts.AddItem)
			cart.PUT("/items/:product_id", d.Carts.UpdateItem)
			cart.DELETE("/items/:product_id", d.Carts.RemoveItem)
		}

		checkout := stores.Group("/checkout")
		{
			checkout.GET("", d.Checkout.Begin)
			checkout.POST("", d.Checkout.Submit)
			checkout.POST("/attempts/:attempt_id/complete", d.Checkout.Complete)
			checkout.POST("/attempts/:attempt_id/cancel", d.Checkout.Cancel)
			checkout.POST("/attempts/:attempt_id/error", d.Checkout.WidgetError)
		}

		orders := stores.Group("/orders")
		{
			orders.GET("/:id", d.Orders.GetBuyerOrder)
			orders.GET("/:id/receipt.pdf", d.Orders.GetBuyerReceipt)
		}
	}

	seller := api.Group("/seller", d.SellerAuth)
	{
		seller.GET("/orders", d.Orders.ListSellerOrders)
		seller.GET("/orders/:id", d.Orders.GetSellerOrder)
		seller.PUT("/orders/:id/status", d.Orders.UpdateOrderStatus)
		seller.GET("/orders/:id/receipt.pdf", d.Orders.GetSellerReceipt)
	}
}
