package db

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/qrplate/qrplate/internal/config"
	"github.com/qrplate/qrplate/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New creates a new database connection based on configuration
func New(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		// WAL mode and busy timeout for better concurrency
		dialector = sqlite.Open(cfg.DSN + "?_journal_mode=WAL&_busy_timeout=5000")
	case "postgres", "postgresql":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// WAL mode allows concurrent reads but only one writer
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		slog.Info("Configured SQLite with WAL mode and single connection")
	} else {
		maxIdleConns := cfg.MaxIdleConns
		if maxIdleConns <= 0 {
			maxIdleConns = 10
		}
		maxOpenConns := cfg.MaxOpenConns
		if maxOpenConns <= 0 {
			maxOpenConns = 100
		}
		connMaxLifetime := cfg.ConnMaxLifetime
		if connMaxLifetime <= 0 {
			connMaxLifetime = 60 // Default 60 minutes
		}

		sqlDB.SetMaxIdleConns(maxIdleConns)
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Minute)

		slog.Info("Configured PostgreSQL connection pool",
			"max_idle_conns", maxIdleConns,
			"max_open_conns", maxOpenConns,
			"conn_max_lifetime_min", connMaxLifetime)
	}

	return db, nil
}

// gormLogger maps the configured level onto GORM's logger.
func gormLogger(level string) logger.Interface {
	switch strings.ToLower(level) {
	case "debug":
		return logger.Default.LogMode(logger.Info)
	case "warn", "warning":
		return logger.Default.LogMode(logger.Warn)
	case "error":
		return logger.Default.LogMode(logger.Error)
	default:
		return logger.Default.LogMode(logger.Silent)
	}
}

// Migrate runs database migrations for all models
func Migrate(db *gorm.DB) error {
	slog.Info("Running database migrations...")

	// Auto-migrate all models
	err := db.AutoMigrate(
		&models.Account{},
		&models.ApprovalRequest{},
		&models.Restaurant{},
		&models.SubscriptionPlan{},
		&models.MenuItem{},
		&models.Table{},
		&models.Order{},
		&models.Notification{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Seed default subscription plans if none exist
	if err := seedDefaultPlans(db); err != nil {
		return fmt.Errorf("failed to seed subscription plans: %w", err)
	}

	return nil
}

// seedDefaultPlans creates the starter plan catalogue on first boot.
func seedDefaultPlans(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.SubscriptionPlan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaultPlans := []models.SubscriptionPlan{
		{
			Name:         "Starter",
			Price:        999,
			Duration:     models.PlanDurationMonthly,
			Features:     []string{"Basic Menu", "10 Tables", "Email Support"},
			MaxTables:    10,
			MaxMenuItems: 50,
			MaxStaff:     5,
			SupportLevel: "basic",
			SortOrder:    1,
			IsActive:     true,
		},
		{
			Name:         "Pro",
			Price:        2499,
			Duration:     models.PlanDurationMonthly,
			Features:     []string{"Unlimited Menu", "50 Tables", "Priority Support", "Analytics"},
			MaxTables:    50,
			MaxMenuItems: 500,
			MaxStaff:     20,
			SupportLevel: "priority",
			SortOrder:    2,
			IsActive:     true,
		},
		{
			Name:         "Business",
			Price:        4999,
			Duration:     models.PlanDurationMonthly,
			Features:     []string{"Unlimited Menu", "Unlimited Tables", "24/7 Phone Support", "Analytics", "API Access"},
			MaxTables:    0,
			MaxMenuItems: 0,
			MaxStaff:     0,
			SupportLevel: "dedicated",
			SortOrder:    3,
			IsActive:     true,
		},
	}

	for _, plan := range defaultPlans {
		if err := db.Create(&plan).Error; err != nil {
			return err
		}
		slog.Info("Created default subscription plan", "plan", plan.Name)
	}

	return nil
}
