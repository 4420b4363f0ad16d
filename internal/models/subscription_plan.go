package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlanDuration is the billing cycle of a subscription plan.
type PlanDuration string

const (
	PlanDurationMonthly   PlanDuration = "monthly"
	PlanDurationQuarterly PlanDuration = "quarterly"
	PlanDurationYearly    PlanDuration = "yearly"
)

// SubscriptionPlan is a platform-wide plan a restaurant subscribes to.
// Plans are managed by platform owners; the active ones are public so
// the signup page can show them.
type SubscriptionPlan struct {
	ID           uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	Name         string         `gorm:"uniqueIndex;not null" json:"name"`
	Price        float64        `gorm:"not null" json:"price"`
	Currency     string         `gorm:"default:'INR'" json:"currency"`
	Duration     PlanDuration   `gorm:"default:'monthly'" json:"duration"`
	Features     []string       `gorm:"serializer:json" json:"features"`
	MaxTables    int            `gorm:"default:10" json:"max_tables"`
	MaxMenuItems int            `gorm:"default:50" json:"max_menu_items"`
	MaxStaff     int            `gorm:"default:5" json:"max_staff"`
	SupportLevel string         `gorm:"default:'basic'" json:"support_level"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	SortOrder    int            `gorm:"default:0" json:"sort_order"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (p *SubscriptionPlan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
