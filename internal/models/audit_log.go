package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog represents a record of user actions for compliance
type AuditLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	AccountID   uuid.UUID `gorm:"type:text;index" json:"account_id"`
	Account     Account   `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Action      string    `gorm:"not null" json:"action"`        // e.g., "approve_registration", "create_plan"
	Resource    string    `gorm:"not null" json:"resource"`      // e.g., "account:123", "restaurant:456"
	DetailsJSON string    `gorm:"type:text" json:"details_json"` // Additional context in JSON
	Timestamp   time.Time `gorm:"not null;index" json:"timestamp"`
}
