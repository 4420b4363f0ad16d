package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/service"
)

// RestaurantHandler serves tenant management for the platform console
// and the "my restaurant" endpoint for restaurant admins.
type RestaurantHandler struct {
	restaurants   *service.RestaurantService
	authenticator auth.Authenticator
}

// NewRestaurantHandler creates a new RestaurantHandler.
func NewRestaurantHandler(restaurants *service.RestaurantService, authenticator auth.Authenticator) *RestaurantHandler {
	return &RestaurantHandler{restaurants: restaurants, authenticator: authenticator}
}

// List handles GET /api/v1/admin/restaurants.
func (h *RestaurantHandler) List(c *gin.Context) {
	filter := service.RestaurantFilter{
		Status: models.RestaurantStatus(c.Query("status")),
		Search: c.Query("search"),
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "0")); err == nil {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		filter.Offset = offset
	}

	restaurants, total, err := h.restaurants.List(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurants": restaurants, "total": total})
}

type createRestaurantRequest struct {
	Name       string     `json:"name" binding:"required"`
	OwnerEmail string     `json:"owner_email" binding:"required,email"`
	Email      string     `json:"email"`
	Phone      string     `json:"phone"`
	Address    string     `json:"address"`
	PlanID     *uuid.UUID `json:"plan_id"`
}

// Create handles POST /api/v1/admin/restaurants.
func (h *RestaurantHandler) Create(c *gin.Context) {
	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req createRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	restaurant, err := h.restaurants.Create(c.Request.Context(), actor, service.CreateRestaurantRequest{
		Name:       req.Name,
		OwnerEmail: req.OwnerEmail,
		Email:      req.Email,
		Phone:      req.Phone,
		Address:    req.Address,
		PlanID:     req.PlanID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"restaurant": restaurant})
}

type restaurantStatusRequest struct {
	Status models.RestaurantStatus `json:"status" binding:"required"`
}

// SetStatus handles PATCH /api/v1/admin/restaurants/:id/status.
func (h *RestaurantHandler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req restaurantStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	restaurant, err := h.restaurants.Update(c.Request.Context(), id, actor, service.UpdateRestaurantRequest{
		Status: &req.Status,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// Get handles GET /api/v1/admin/restaurants/:id.
func (h *RestaurantHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant ID"})
		return
	}

	restaurant, err := h.restaurants.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

type updateRestaurantRequest struct {
	Name    *string                  `json:"name"`
	Email   *string                  `json:"email"`
	Phone   *string                  `json:"phone"`
	Address *string                  `json:"address"`
	Image   *string                  `json:"image"`
	Status  *models.RestaurantStatus `json:"status"`
	PlanID  *uuid.UUID               `json:"plan_id"`
}

// Update handles PUT /api/v1/admin/restaurants/:id.
func (h *RestaurantHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req updateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	restaurant, err := h.restaurants.Update(c.Request.Context(), id, actor, service.UpdateRestaurantRequest{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Image:   req.Image,
		Status:  req.Status,
		PlanID:  req.PlanID,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// Delete handles DELETE /api/v1/admin/restaurants/:id.
func (h *RestaurantHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid restaurant ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.restaurants.Delete(c.Request.Context(), id, actor); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "restaurant deleted"})
}

// Mine handles GET /api/v1/restaurants/mine for restaurant admins.
func (h *RestaurantHandler) Mine(c *gin.Context) {
	account, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	restaurant, err := h.restaurants.GetByOwner(c.Request.Context(), account.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}
