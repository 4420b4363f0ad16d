package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// AccountContextKey is the key used to store the account in Gin context
	AccountContextKey = "account"
	// TokenDuration is the default validity period for JWT tokens
	TokenDuration = 30 * 24 * time.Hour
)

// BasicAuthenticator implements email/password authentication with
// stateless JWT sessions. Tokens are verified by signature and expiry
// only; there is no server-side revocation list.
type BasicAuthenticator struct {
	db        *gorm.DB
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewBasicAuthenticator creates a new basic authenticator
func NewBasicAuthenticator(db *gorm.DB, jwtSecret string, tokenTTL time.Duration) *BasicAuthenticator {
	if tokenTTL <= 0 {
		tokenTTL = TokenDuration
	}
	return &BasicAuthenticator{
		db:        db,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

// SetClock overrides the time source. Used in tests.
func (a *BasicAuthenticator) SetClock(now func() time.Time) {
	a.now = now
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks if a password matches the hash
func VerifyPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Claims represents JWT claims
type Claims struct {
	AccountID string      `json:"account_id"` // UUID stored as string
	Role      models.Role `json:"role"`
	Name      string      `json:"name"`
	jwt.RegisteredClaims
}

// Login authenticates an account and returns a JWT token. Accounts that
// are not approved cannot obtain a token; platform owners are approved
// at creation so the check never blocks them.
func (a *BasicAuthenticator) Login(email, password string) (*LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var account models.Account
	result := a.db.Where("email = ?", email).First(&account)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			slog.Warn("Login attempt with unknown email", "email", email)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	// Verify password
	if !VerifyPassword(account.PasswordHash, password) {
		slog.Warn("Login attempt with incorrect password", "account_id", account.ID)
		return nil, ErrInvalidCredentials
	}

	// Approval gate
	if account.Role != models.RolePlatformOwner && account.Status != models.AccountStatusApproved {
		slog.Warn("Login attempt on unapproved account", "account_id", account.ID, "status", account.Status)
		return nil, ErrAccountNotApproved
	}

	token, err := a.GenerateToken(&account)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	slog.Info("Account logged in", "account_id", account.ID, "role", account.Role)
	return &LoginResponse{
		Token:   token,
		Account: &account,
	}, nil
}

// GenerateToken creates a JWT token for an account
func (a *BasicAuthenticator) GenerateToken(account *models.Account) (string, error) {
	now := a.now()
	claims := Claims{
		AccountID: account.ID.String(),
		Role:      account.Role,
		Name:      account.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "qrplate",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns claims
func (a *BasicAuthenticator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	}, jwt.WithTimeFunc(func() time.Time { return a.now() }))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrUnauthorized
}

// Middleware returns a Gin middleware that authenticates bearer tokens.
func (a *BasicAuthenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		account, err := a.validateAndLoadAccount(parts[1])
		if err != nil {
			slog.Warn("Invalid token", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(AccountContextKey, account)
		c.Next()
	}
}

// validateAndLoadAccount validates a JWT and loads the account from the database.
func (a *BasicAuthenticator) validateAndLoadAccount(tokenString string) (*models.Account, error) {
	claims, err := a.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	accountID, err := uuid.Parse(claims.AccountID)
	if err != nil {
		return nil, fmt.Errorf("invalid account ID in token: %w", err)
	}

	var account models.Account
	if result := a.db.First(&account, "id = ?", accountID); result.Error != nil {
		return nil, fmt.Errorf("account not found: %w", result.Error)
	}

	return &account, nil
}

// GetAccountFromContext extracts the authenticated account from the Gin context
func (a *BasicAuthenticator) GetAccountFromContext(c *gin.Context) (*models.Account, error) {
	value, exists := c.Get(AccountContextKey)
	if !exists {
		return nil, ErrUnauthorized
	}

	account, ok := value.(*models.Account)
	if !ok {
		return nil, errors.New("invalid account in context")
	}

	return account, nil
}
