package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/service"
)

// StorefrontHandler serves the public guest-facing endpoints. Guests
// reach these by scanning a table's QR code; there is no authentication.
type StorefrontHandler struct {
	restaurants *service.RestaurantService
	menu        *service.MenuService
	orders      *service.OrderService
}

// NewStorefrontHandler creates a new StorefrontHandler.
func NewStorefrontHandler(restaurants *service.RestaurantService, menu *service.MenuService, orders *service.OrderService) *StorefrontHandler {
	return &StorefrontHandler{restaurants: restaurants, menu: menu, orders: orders}
}

// storefrontRestaurant is the public projection of a restaurant. No
// owner, plan, or revenue details leak to guests.
type storefrontRestaurant struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone,omitempty"`
	Address string    `json:"address,omitempty"`
	Image   string    `json:"image,omitempty"`
}

// Get handles GET /api/v1/storefront/:restaurantID. Suspended and
// inactive restaurants are hidden from guests.
func (h *StorefrontHandler) Get(c *gin.Context) {
	restaurantID, err := uuid.Parse(c.Param("restaurantID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant ID"})
		return
	}

	restaurant, err := h.restaurants.Get(c.Request.Context(), restaurantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if restaurant.Status != models.RestaurantStatusActive && restaurant.Status != models.RestaurantStatusTrial {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"restaurant": storefrontRestaurant{
		ID:      restaurant.ID,
		Name:    restaurant.Name,
		Phone:   restaurant.Phone,
		Address: restaurant.Address,
		Image:   restaurant.Image,
	}})
}

// Menu handles GET /api/v1/storefront/:restaurantID/menu. Only available
// items are returned.
func (h *StorefrontHandler) Menu(c *gin.Context) {
	restaurantID, err := uuid.Parse(c.Param("restaurantID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant ID"})
		return
	}

	if !h.restaurantVisible(c, restaurantID) {
		return
	}

	items, err := h.menu.List(c.Request.Context(), restaurantID, service.MenuFilter{
		Category:      c.Query("category"),
		AvailableOnly: true,
		VegOnly:       c.Query("veg") == "true",
		Search:        c.Query("search"),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

type placeOrderRequest struct {
	TableNumber int    `json:"table_number" binding:"required"`
	Note        string `json:"note"`
	Items       []struct {
		MenuItemID uuid.UUID `json:"menu_item_id" binding:"required"`
		Quantity   int       `json:"quantity" binding:"required"`
	} `json:"items" binding:"required"`
}

// PlaceOrder handles POST /api/v1/storefront/:restaurantID/orders.
func (h *StorefrontHandler) PlaceOrder(c *gin.Context) {
	restaurantID, err := uuid.Parse(c.Param("restaurantID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant ID"})
		return
	}

	if !h.restaurantVisible(c, restaurantID) {
		return
	}

	var req placeOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lines := make([]service.OrderLine, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, service.OrderLine{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
		})
	}

	order, err := h.orders.Place(c.Request.Context(), restaurantID, service.PlaceOrderRequest{
		TableNumber: req.TableNumber,
		Lines:       lines,
		Note:        req.Note,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// restaurantVisible writes a 404 and returns false unless the restaurant
// exists and accepts guests.
func (h *StorefrontHandler) restaurantVisible(c *gin.Context, restaurantID uuid.UUID) bool {
	restaurant, err := h.restaurants.Get(c.Request.Context(), restaurantID)
	if err != nil {
		handleServiceError(c, err)
		return false
	}
	if restaurant.Status != models.RestaurantStatusActive && restaurant.Status != models.RestaurantStatusTrial {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return false
	}
	return true
}
