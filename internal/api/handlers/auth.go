package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/service"
)

// AuthHandler serves registration, login and the current-account
// endpoint.
type AuthHandler struct {
	accounts      *service.AccountService
	authenticator auth.Authenticator
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *service.AccountService, authenticator auth.Authenticator) *AuthHandler {
	return &AuthHandler{accounts: accounts, authenticator: authenticator}
}

type registerRequest struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6"`
	Role           string `json:"role" binding:"required"`
	RestaurantName string `json:"restaurant_name"`
	Location       string `json:"location"`
}

// Register handles POST /api/v1/auth/register. Restaurant admins get a
// 201 with no token; they must wait for approval before logging in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.accounts.Register(c.Request.Context(), service.RegisterRequest{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		Role:           models.Role(req.Role),
		RestaurantName: req.RestaurantName,
		Location:       req.Location,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	resp := gin.H{"account": result.Account}
	if result.Token != "" {
		resp["token"] = result.Token
	} else {
		resp["message"] = "registration submitted, awaiting approval"
	}
	c.JSON(http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.authenticator.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		case errors.Is(err, auth.ErrAccountNotApproved):
			c.JSON(http.StatusForbidden, gin.H{"error": "account pending approval"})
		default:
			handleServiceError(c, err)
		}
		return
	}

	h.accounts.RecordLogin(result.Account)
	c.JSON(http.StatusOK, result)
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword handles POST /api/v1/auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.accounts.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset instructions sent to email"})
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// ResetPassword handles POST /api/v1/auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.accounts.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password reset successful"})
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	account, err := h.authenticator.GetAccountFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	resp := gin.H{"account": account}
	if account.Role == models.RoleRestaurantAdmin {
		if request, err := h.accounts.GetRequestByAccount(c.Request.Context(), account.ID); err == nil {
			resp["approval_request"] = request
		}
	}
	c.JSON(http.StatusOK, resp)
}
