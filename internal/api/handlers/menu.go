package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/api/middleware"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/service"
)

// MenuHandler serves the dashboard-side menu management endpoints under
// /api/v1/restaurants/:restaurantID/menu.
type MenuHandler struct {
	menu          *service.MenuService
	authenticator auth.Authenticator
}

// NewMenuHandler creates a new MenuHandler.
func NewMenuHandler(menu *service.MenuService, authenticator auth.Authenticator) *MenuHandler {
	return &MenuHandler{menu: menu, authenticator: authenticator}
}

func restaurantIDOrAbort(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.RestaurantIDFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "restaurant not resolved"})
		return uuid.Nil, false
	}
	return id, true
}

// List handles GET /api/v1/restaurants/:restaurantID/menu.
func (h *MenuHandler) List(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	filter := service.MenuFilter{
		Category:      c.Query("category"),
		AvailableOnly: c.Query("available") == "true",
		VegOnly:       c.Query("veg") == "true",
		Search:        c.Query("search"),
	}

	items, err := h.menu.List(c.Request.Context(), restaurantID, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

// Categories handles GET /api/v1/restaurants/:restaurantID/menu/categories.
func (h *MenuHandler) Categories(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	categories, err := h.menu.Categories(c.Request.Context(), restaurantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

type menuItemRequest struct {
	Name            string   `json:"name" binding:"required"`
	Description     string   `json:"description"`
	Price           float64  `json:"price"`
	Category        string   `json:"category" binding:"required"`
	Image           string   `json:"image"`
	IsVeg           *bool    `json:"is_veg"`
	IsAvailable     *bool    `json:"is_available"`
	IsPopular       *bool    `json:"is_popular"`
	IsTodaySpecial  *bool    `json:"is_today_special"`
	HasOffer        *bool    `json:"has_offer"`
	SpicyLevel      string   `json:"spicy_level"`
	Ingredients     []string `json:"ingredients"`
	PreparationTime int      `json:"preparation_time"`
}

func (r *menuItemRequest) toService() service.MenuItemRequest {
	return service.MenuItemRequest{
		Name:            r.Name,
		Description:     r.Description,
		Price:           r.Price,
		Category:        r.Category,
		Image:           r.Image,
		IsVeg:           r.IsVeg,
		IsAvailable:     r.IsAvailable,
		IsPopular:       r.IsPopular,
		IsTodaySpecial:  r.IsTodaySpecial,
		HasOffer:        r.HasOffer,
		SpicyLevel:      r.SpicyLevel,
		Ingredients:     r.Ingredients,
		PreparationTime: r.PreparationTime,
	}
}

// Create handles POST /api/v1/restaurants/:restaurantID/menu.
func (h *MenuHandler) Create(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.menu.Create(c.Request.Context(), restaurantID, actor, req.toService())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"item": item})
}

// Update handles PUT /api/v1/restaurants/:restaurantID/menu/:itemID.
func (h *MenuHandler) Update(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req menuItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.menu.Update(c.Request.Context(), restaurantID, itemID, actor, req.toService())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

// SetAvailability handles PATCH /api/v1/restaurants/:restaurantID/menu/:itemID/availability.
func (h *MenuHandler) SetAvailability(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.menu.SetAvailability(c.Request.Context(), restaurantID, itemID, actor, *req.IsAvailable)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": item})
}

// Delete handles DELETE /api/v1/restaurants/:restaurantID/menu/:itemID.
func (h *MenuHandler) Delete(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(c.Param("itemID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.menu.Delete(c.Request.Context(), restaurantID, itemID, actor); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item deleted"})
}
