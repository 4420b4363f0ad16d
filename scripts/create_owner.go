package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/qrplate/qrplate/internal/config"
	"github.com/qrplate/qrplate/internal/db"
	"github.com/qrplate/qrplate/internal/logger"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/rbac"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: go run scripts/create_owner.go <name> <email> <password>")
		os.Exit(1)
	}

	name := os.Args[1]
	email := strings.ToLower(strings.TrimSpace(os.Args[2]))
	password := os.Args[3]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	// Initialize logger
	logger.Init(cfg.Log.Format, cfg.Log.Level)

	// Initialize database
	database, err := db.New(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}

	// Run migrations to ensure tables exist
	if err := db.Migrate(database); err != nil {
		log.Fatal(err)
	}

	// Initialize RBAC
	if err := rbac.InitEnforcer(database, slog.Default()); err != nil {
		log.Fatal(err)
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}

	account := models.Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RolePlatformOwner,
		Status:       models.AccountStatusApproved,
	}

	if err := database.Create(&account).Error; err != nil {
		log.Fatal(err)
	}

	// Grant platform-owner policy in RBAC
	if err := rbac.MakePlatformOwner(account.ID); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("✅ Platform owner created successfully!\n")
	fmt.Printf("ID: %s\n", account.ID)
	fmt.Printf("Name: %s\n", account.Name)
	fmt.Printf("Email: %s\n", account.Email)
	fmt.Printf("\nYou can now login with:\n")
	fmt.Printf("  curl -X POST http://localhost:8470/api/v1/auth/login \\\n")
	fmt.Printf("    -H \"Content-Type: application/json\" \\\n")
	fmt.Printf("    -d '{\"email\": \"%s\", \"password\": \"%s\"}'\n", email, password)
}
