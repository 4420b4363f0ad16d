package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/service"
)

// OrderHandler serves the dashboard-side order endpoints under
// /api/v1/restaurants/:restaurantID/orders.
type OrderHandler struct {
	orders        *service.OrderService
	authenticator auth.Authenticator
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orders *service.OrderService, authenticator auth.Authenticator) *OrderHandler {
	return &OrderHandler{orders: orders, authenticator: authenticator}
}

// List handles GET /api/v1/restaurants/:restaurantID/orders.
func (h *OrderHandler) List(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	filter := service.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
	}
	if tableID := c.Query("table_id"); tableID != "" {
		id, err := uuid.Parse(tableID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table ID"})
			return
		}
		filter.TableID = id
	}

	orders, err := h.orders.List(c.Request.Context(), restaurantID, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// Get handles GET /api/v1/restaurants/:restaurantID/orders/:orderID.
func (h *OrderHandler) Get(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	order, err := h.orders.Get(c.Request.Context(), restaurantID, orderID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

type orderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

// UpdateStatus handles PATCH /api/v1/restaurants/:restaurantID/orders/:orderID/status.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), restaurantID, orderID, actor, req.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}
