package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/rbac"
)

// RestaurantIDContextKey holds the validated restaurant ID for handlers
// behind RequireRestaurantAccess.
const RestaurantIDContextKey = "restaurant_id"

// RequirePlatformOwner allows only accounts holding the platform-owner
// policy. Runs after the authentication middleware.
func RequirePlatformOwner(authenticator auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := authenticator.GetAccountFromContext(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		allowed, err := rbac.IsPlatformOwner(account.ID)
		if err != nil {
			slog.Error("Policy check failed", "account_id", account.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "authorization check failed"})
			c.Abort()
			return
		}
		if !allowed {
			c.JSON(http.StatusForbidden, gin.H{"error": "platform owner access required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireRestaurantAccess allows accounts that may manage the restaurant
// named by the :restaurantID path parameter. Platform owners pass for
// any restaurant.
func RequireRestaurantAccess(authenticator auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, err := authenticator.GetAccountFromContext(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		restaurantID, err := uuid.Parse(c.Param("restaurantID"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant ID"})
			c.Abort()
			return
		}

		owner, err := rbac.IsPlatformOwner(account.ID)
		if err != nil {
			slog.Error("Policy check failed", "account_id", account.ID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "authorization check failed"})
			c.Abort()
			return
		}
		if !owner {
			allowed, err := rbac.CanManageRestaurant(account.ID, restaurantID)
			if err != nil {
				slog.Error("Policy check failed", "account_id", account.ID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "authorization check failed"})
				c.Abort()
				return
			}
			if !allowed {
				c.JSON(http.StatusForbidden, gin.H{"error": "no access to this restaurant"})
				c.Abort()
				return
			}
		}

		c.Set(RestaurantIDContextKey, restaurantID)
		c.Next()
	}
}

// RestaurantIDFromContext returns the restaurant ID validated by
// RequireRestaurantAccess.
func RestaurantIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(RestaurantIDContextKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
