package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus is the state of a guest order.
type OrderStatus string

const (
	OrderStatusPlaced    OrderStatus = "placed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusServed    OrderStatus = "served"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// OrderItem is a line item snapshotted at order time, so later menu
// edits don't rewrite order history.
type OrderItem struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Name       string    `json:"name"`
	Price      float64   `json:"price"`
	Quantity   int       `json:"quantity"`
}

// Order is placed by a guest from the storefront against a table.
type Order struct {
	ID           uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	RestaurantID uuid.UUID      `gorm:"type:text;index;not null" json:"restaurant_id"`
	Restaurant   Restaurant     `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	TableID      uuid.UUID      `gorm:"type:text;index;not null" json:"table_id"`
	Table        Table          `gorm:"foreignKey:TableID" json:"table,omitempty"`
	Items        []OrderItem    `gorm:"serializer:json" json:"items"`
	Total        float64        `gorm:"not null" json:"total"`
	Note         string         `json:"note,omitempty"`
	Status       OrderStatus    `gorm:"not null;default:'placed'" json:"status"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
