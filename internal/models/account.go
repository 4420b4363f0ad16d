package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role identifies what an account is allowed to do.
type Role string

const (
	// RolePlatformOwner is the super-admin role: approves registrations
	// and manages global resources (plans, all restaurants).
	RolePlatformOwner Role = "platform-owner"
	// RoleRestaurantAdmin operates a single restaurant's menu/tables/orders.
	RoleRestaurantAdmin Role = "restaurant-admin"
	// RolePendingRestaurantAdmin is a restaurant-admin registration that
	// has not been approved yet. Promoted to RoleRestaurantAdmin on approval.
	RolePendingRestaurantAdmin Role = "pending-restaurant-admin"
)

// AccountStatus is the approval state of an account.
type AccountStatus string

const (
	AccountStatusPending  AccountStatus = "pending"
	AccountStatusApproved AccountStatus = "approved"
	AccountStatusRejected AccountStatus = "rejected"
	// AccountStatusSuspended blocks login for a previously approved
	// account until a platform owner reinstates it.
	AccountStatusSuspended AccountStatus = "suspended"
)

// Account represents a system user. Email is globally unique and stored
// lowercased. Platform owners are approved at creation; restaurant
// admins stay pending until a platform owner resolves their request.
type Account struct {
	ID             uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	Name           string         `gorm:"not null" json:"name"`
	Email          string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string         `gorm:"not null" json:"-"`
	Role           Role           `gorm:"not null" json:"role"`
	Status         AccountStatus  `gorm:"not null;default:'pending'" json:"status"`
	RestaurantName string         `json:"restaurant_name,omitempty"`
	Location       string         `json:"location,omitempty"`
	// Password reset state. The raw token is only ever emailed; the DB
	// keeps its SHA-256 hex digest.
	ResetTokenHash    string         `gorm:"index" json:"-"`
	ResetTokenExpires *time.Time     `json:"-"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
