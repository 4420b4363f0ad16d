package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/qrplate/qrplate/internal/models"
)

var (
	// ErrInvalidCredentials is deliberately generic: it does not reveal
	// whether the email exists, to avoid account enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotApproved blocks login while the registration is pending
	// or after it was rejected.
	ErrAccountNotApproved = errors.New("account not approved")
	ErrUnauthorized       = errors.New("unauthorized")
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token   string          `json:"token"`
	Account *models.Account `json:"account"`
}

// Authenticator is an interface for authentication providers
type Authenticator interface {
	// Login authenticates an account and returns a JWT token
	Login(email, password string) (*LoginResponse, error)

	// GenerateToken issues a JWT for an already-authenticated account.
	// Used at registration time for self-service platform owners.
	GenerateToken(account *models.Account) (string, error)

	// Middleware returns a Gin middleware for authentication
	Middleware() gin.HandlerFunc

	// GetAccountFromContext extracts the authenticated account from the Gin context
	GetAccountFromContext(c *gin.Context) (*models.Account, error)
}
