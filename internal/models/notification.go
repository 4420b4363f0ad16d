package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationType categorizes outbound notifications.
type NotificationType string

const (
	// NotificationTypeRegistration alerts platform owners about a new
	// restaurant-admin registration awaiting approval.
	NotificationTypeRegistration NotificationType = "registration"
	// NotificationTypeApproved tells an applicant their account was approved.
	NotificationTypeApproved NotificationType = "approved"
	// NotificationTypeRejected tells an applicant their account was rejected.
	NotificationTypeRejected NotificationType = "rejected"
	// NotificationTypePasswordReset carries a password reset link.
	NotificationTypePasswordReset NotificationType = "password-reset"
)

// NotificationStatus is the delivery state of a notification.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// Notification is a queued outbound email. Delivery is fire-and-forget
// relative to the request that produced it: a failed send marks the row
// failed and is dropped, it never rolls back the originating write.
type Notification struct {
	ID        uuid.UUID          `gorm:"type:text;primary_key" json:"id"`
	Type      NotificationType   `gorm:"not null" json:"type"`
	Recipient string             `gorm:"not null" json:"recipient"`
	Subject   string             `gorm:"not null" json:"subject"`
	Body      string             `gorm:"type:text" json:"body"`
	Status    NotificationStatus `gorm:"not null;default:'pending'" json:"status"`
	Error     string             `gorm:"type:text" json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	SentAt    *time.Time         `json:"sent_at,omitempty"`
	DeletedAt gorm.DeletedAt     `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}
