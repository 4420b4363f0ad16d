package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RestaurantStatus is the operational state of a restaurant tenant.
type RestaurantStatus string

const (
	RestaurantStatusActive    RestaurantStatus = "active"
	RestaurantStatusTrial     RestaurantStatus = "trial"
	RestaurantStatusSuspended RestaurantStatus = "suspended"
	RestaurantStatusInactive  RestaurantStatus = "inactive"
)

// Restaurant is a tenant on the platform. Each restaurant belongs to one
// account and optionally references a subscription plan.
type Restaurant struct {
	ID          uuid.UUID        `gorm:"type:text;primary_key" json:"id"`
	Name        string           `gorm:"not null" json:"name"`
	OwnerID     uuid.UUID        `gorm:"type:text;index;not null" json:"owner_id"`
	Owner       Account          `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Email       string           `json:"email,omitempty"`
	Phone       string           `json:"phone,omitempty"`
	Address     string           `json:"address,omitempty"`
	Image       string           `json:"image,omitempty"`
	PlanID      *uuid.UUID       `gorm:"type:text;index" json:"plan_id,omitempty"`
	Plan        *SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Status      RestaurantStatus `gorm:"not null;default:'trial'" json:"status"`
	TrialEndsAt *time.Time       `json:"trial_ends_at,omitempty"`
	Orders      int64            `gorm:"default:0" json:"orders"`
	Revenue     float64          `gorm:"default:0" json:"revenue"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	DeletedAt   gorm.DeletedAt   `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
