package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/service"
)

// PlanHandler serves subscription plans. The active list is public for
// the pricing page; mutation is platform-owner only.
type PlanHandler struct {
	plans         *service.PlanService
	authenticator auth.Authenticator
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(plans *service.PlanService, authenticator auth.Authenticator) *PlanHandler {
	return &PlanHandler{plans: plans, authenticator: authenticator}
}

// ListActive handles GET /api/v1/plans.
func (h *PlanHandler) ListActive(c *gin.Context) {
	plans, err := h.plans.ListActive(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// ListAll handles GET /api/v1/admin/plans.
func (h *PlanHandler) ListAll(c *gin.Context) {
	plans, err := h.plans.ListAll(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

type planRequest struct {
	Name         string              `json:"name" binding:"required"`
	Price        float64             `json:"price"`
	Currency     string              `json:"currency"`
	Duration     models.PlanDuration `json:"duration"`
	Features     []string            `json:"features"`
	MaxTables    int                 `json:"max_tables"`
	MaxMenuItems int                 `json:"max_menu_items"`
	MaxStaff     int                 `json:"max_staff"`
	SupportLevel string              `json:"support_level"`
	IsActive     *bool               `json:"is_active"`
	SortOrder    int                 `json:"sort_order"`
}

func (r *planRequest) toService() service.PlanRequest {
	return service.PlanRequest{
		Name:         r.Name,
		Price:        r.Price,
		Currency:     r.Currency,
		Duration:     r.Duration,
		Features:     r.Features,
		MaxTables:    r.MaxTables,
		MaxMenuItems: r.MaxMenuItems,
		MaxStaff:     r.MaxStaff,
		SupportLevel: r.SupportLevel,
		IsActive:     r.IsActive,
		SortOrder:    r.SortOrder,
	}
}

// Create handles POST /api/v1/admin/plans.
func (h *PlanHandler) Create(c *gin.Context) {
	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.plans.Create(c.Request.Context(), actor, req.toService())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plan": plan})
}

// Update handles PUT /api/v1/admin/plans/:id.
func (h *PlanHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.plans.Update(c.Request.Context(), id, actor, req.toService())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

type planActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetActive handles PATCH /api/v1/admin/plans/:id/active.
func (h *PlanHandler) SetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req planActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan, err := h.plans.SetActive(c.Request.Context(), id, actor, *req.IsActive)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}

// Delete handles DELETE /api/v1/admin/plans/:id.
func (h *PlanHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.plans.Delete(c.Request.Context(), id, actor); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "plan deleted"})
}
