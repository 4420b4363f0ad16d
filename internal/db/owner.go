package db

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/rbac"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CreateDefaultOwner creates a platform-owner account if OWNER_EMAIL and
// OWNER_PASSWORD are set and no accounts exist in the database.
func CreateDefaultOwner(db *gorm.DB) error {
	email := strings.ToLower(strings.TrimSpace(os.Getenv("OWNER_EMAIL")))
	password := os.Getenv("OWNER_PASSWORD")
	name := os.Getenv("OWNER_NAME")

	// If no bootstrap credentials provided, skip
	if email == "" || password == "" {
		slog.Info("No OWNER_EMAIL or OWNER_PASSWORD set, skipping default owner creation")
		return nil
	}

	if name == "" {
		name = "Platform Owner"
	}

	// Check if any accounts exist
	var count int64
	if err := db.Model(&models.Account{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count accounts: %w", err)
	}

	// If accounts already exist, skip
	if count > 0 {
		slog.Info("Accounts already exist, skipping default owner creation")
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Platform owners are auto-approved at creation
	account := models.Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RolePlatformOwner,
		Status:       models.AccountStatusApproved,
	}

	if err := db.Create(&account).Error; err != nil {
		return fmt.Errorf("failed to create owner account: %w", err)
	}

	// Initialize RBAC enforcer if not already done
	if err := rbac.InitEnforcer(db, slog.Default()); err != nil {
		return fmt.Errorf("failed to initialize RBAC: %w", err)
	}

	// Grant platform-owner policy in RBAC
	if err := rbac.MakePlatformOwner(account.ID); err != nil {
		return fmt.Errorf("failed to grant platform-owner policy: %w", err)
	}

	slog.Info("Default platform owner created", "email", email)
	return nil
}
