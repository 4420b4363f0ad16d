package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestStatus is the lifecycle state of an approval request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// ApprovalRequest is created alongside a restaurant-admin registration
// and resolved exactly once by a platform owner. It snapshots the
// restaurant name/location as submitted at signup time.
type ApprovalRequest struct {
	ID             uuid.UUID     `gorm:"type:text;primary_key" json:"id"`
	AccountID      uuid.UUID     `gorm:"type:text;uniqueIndex;not null" json:"account_id"`
	Account        Account       `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Name           string        `gorm:"not null" json:"name"`
	Email          string        `gorm:"not null" json:"email"`
	RestaurantName string        `gorm:"not null" json:"restaurant_name"`
	Location       string        `json:"location,omitempty"`
	Status         RequestStatus `gorm:"not null;default:'pending'" json:"status"`
	Reason         string        `json:"reason,omitempty"`
	ResolvedByID   *uuid.UUID    `gorm:"type:text" json:"resolved_by_id,omitempty"`
	ResolvedAt     *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// BeforeCreate hook to generate UUID
func (r *ApprovalRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
