package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TableStatus is the seating state of a dining table.
type TableStatus string

const (
	TableStatusAvailable TableStatus = "available"
	TableStatusOccupied  TableStatus = "occupied"
	TableStatusReserved  TableStatus = "reserved"
)

// Table is a physical dining table. The QRTarget is the storefront URL
// encoded in the table's printed QR code; guests land on the menu with
// the table preselected.
type Table struct {
	ID           uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	RestaurantID uuid.UUID      `gorm:"type:text;uniqueIndex:idx_restaurant_table_number;not null" json:"restaurant_id"`
	Restaurant   Restaurant     `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	Number       int            `gorm:"uniqueIndex:idx_restaurant_table_number;not null" json:"number"`
	Capacity     int            `gorm:"default:4" json:"capacity"`
	Location     string         `gorm:"default:'indoor'" json:"location"`
	Status       TableStatus    `gorm:"not null;default:'available'" json:"status"`
	QRTarget     string         `json:"qr_target,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (t *Table) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
