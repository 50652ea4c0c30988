package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/snapdish/snapdish-backend/internal/types"
)

// RequirePremium gates a route behind the premium subscription tier.
// Must run after AuthMiddleware.
func RequirePremium() gin.HandlerFunc {
	return func(c *gin.Context) {
		tier, exists := c.Get("subscription_tier")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		if tier != types.TierPremium {
			c.JSON(http.StatusForbidden, gin.H{
				"error":   "premium subscription required",
				"upgrade": "/api/v1/auth/subscription",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
