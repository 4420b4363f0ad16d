package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/service"
)

// TableHandler serves the dashboard-side table management endpoints
// under /api/v1/restaurants/:restaurantID/tables.
type TableHandler struct {
	tables        *service.TableService
	authenticator auth.Authenticator
}

// NewTableHandler creates a new TableHandler.
func NewTableHandler(tables *service.TableService, authenticator auth.Authenticator) *TableHandler {
	return &TableHandler{tables: tables, authenticator: authenticator}
}

// List handles GET /api/v1/restaurants/:restaurantID/tables.
func (h *TableHandler) List(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	tables, err := h.tables.List(c.Request.Context(), restaurantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": tables, "count": len(tables)})
}

type tableRequest struct {
	Number   int                `json:"number" binding:"required"`
	Capacity int                `json:"capacity"`
	Location string             `json:"location"`
	Status   models.TableStatus `json:"status"`
}

// Create handles POST /api/v1/restaurants/:restaurantID/tables.
func (h *TableHandler) Create(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req tableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	table, err := h.tables.Create(c.Request.Context(), restaurantID, actor, service.TableRequest{
		Number:   req.Number,
		Capacity: req.Capacity,
		Location: req.Location,
		Status:   req.Status,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"table": table})
}

// Update handles PUT /api/v1/restaurants/:restaurantID/tables/:tableID.
func (h *TableHandler) Update(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	tableID, err := uuid.Parse(c.Param("tableID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req tableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	table, err := h.tables.Update(c.Request.Context(), restaurantID, tableID, actor, service.TableRequest{
		Number:   req.Number,
		Capacity: req.Capacity,
		Location: req.Location,
		Status:   req.Status,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": table})
}

// Delete handles DELETE /api/v1/restaurants/:restaurantID/tables/:tableID.
func (h *TableHandler) Delete(c *gin.Context) {
	restaurantID, ok := restaurantIDOrAbort(c)
	if !ok {
		return
	}

	tableID, err := uuid.Parse(c.Param("tableID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid table ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.tables.Delete(c.Request.Context(), restaurantID, tableID, actor); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "table deleted"})
}
