package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/service"
)

// AdminHandler serves the platform-owner console: registration review,
// tenant management and platform stats.
type AdminHandler struct {
	accounts      *service.AccountService
	restaurants   *service.RestaurantService
	authenticator auth.Authenticator
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(accounts *service.AccountService, restaurants *service.RestaurantService, authenticator auth.Authenticator) *AdminHandler {
	return &AdminHandler{accounts: accounts, restaurants: restaurants, authenticator: authenticator}
}

// ListRegistrations handles GET /api/v1/admin/registrations.
func (h *AdminHandler) ListRegistrations(c *gin.Context) {
	requests, err := h.accounts.ListPendingRequests(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}

// ApproveRegistration handles POST /api/v1/admin/registrations/:id/approve.
func (h *AdminHandler) ApproveRegistration(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request ID"})
		return
	}

	resolver, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	request, err := h.accounts.Approve(c.Request.Context(), requestID, resolver)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": request})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RejectRegistration handles POST /api/v1/admin/registrations/:id/reject.
func (h *AdminHandler) RejectRegistration(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request ID"})
		return
	}

	resolver, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body rejectRequest
	// Body is optional; a rejection without a reason is valid
	_ = c.ShouldBindJSON(&body)

	request, err := h.accounts.Reject(c.Request.Context(), requestID, resolver, body.Reason)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": request})
}

// ListAccounts handles GET /api/v1/admin/accounts.
func (h *AdminHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.ListAccounts(c.Request.Context(), service.AccountFilter{
		Role:   models.Role(c.Query("role")),
		Status: models.AccountStatus(c.Query("status")),
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts, "count": len(accounts)})
}

type accountStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetAccountStatus handles PATCH /api/v1/admin/accounts/:id/status.
func (h *AdminHandler) SetAccountStatus(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var body accountStatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accounts.SetAccountStatus(c.Request.Context(), accountID, actor, models.AccountStatus(body.Status))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": account})
}

// DeleteAccount handles DELETE /api/v1/admin/accounts/:id.
func (h *AdminHandler) DeleteAccount(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account ID"})
		return
	}

	actor, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.accounts.DeleteAccount(c.Request.Context(), accountID, actor); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

// Stats handles GET /api/v1/admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.restaurants.Stats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
