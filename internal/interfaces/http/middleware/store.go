package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/store"
)

const storeKey = "store"

// StoreContext resolves the tenant for the request. The hint comes from the
// :hint path parameter, then the X-Store header, then the Host subdomain
// under baseDomain. With none of those the resolver falls back to the
// session's last known store.
func StoreContext(resolver *store.Resolver, baseDomain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		hint := c.Param("hint")
		if hint == "" {
			hint = c.GetHeader("X-Store")
		}
		if hint == "" && baseDomain != "" {
			hint = store.HintFromHost(c.Request.Host, baseDomain)
		}

		resolution, err := resolver.Resolve(c.Request.Context(), SessionFromContext(c), hint)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":     "Store not found",
				"retryable": errors.Is(err, store.ErrLookupUnavailable),
			})
			return
		}

		c.Set(storeKey, resolution.Store)
		c.Next()
	}
}

// StoreFromContext returns the store set by StoreContext
func StoreFromContext(c *gin.Context) *store.Store {
	if v, ok := c.Get(storeKey); ok {
		if st, ok := v.(*store.Store); ok {
			return st
		}
	}
	return nil
}
