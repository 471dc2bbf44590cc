// internal/interfaces/http/middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/pkg/auth"
)

// SellerAuth requires a seller token and scopes the request to its store
func SellerAuth(jwtManager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			return
		}

		tokenString := auth.ExtractTokenFromHeader(authHeader)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format",
			})
			return
		}

		claims, err := jwtManager.ValidateSellerToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		c.Set("seller_store_id", claims.StoreID)
		c.Set("seller_email", claims.Email)
		c.Next()
	}
}

// SellerStoreID returns the store id of the authenticated seller
func SellerStoreID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("seller_store_id")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// SellerEmail returns the email claim of the authenticated seller
func SellerEmail(c *gin.Context) string {
	return c.GetString("seller_email")
}
