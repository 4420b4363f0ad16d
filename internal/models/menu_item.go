package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MenuItem is a dish on a restaurant's storefront menu.
type MenuItem struct {
	ID              uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	RestaurantID    uuid.UUID      `gorm:"type:text;index;not null" json:"restaurant_id"`
	Restaurant      Restaurant     `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	Name            string         `gorm:"not null" json:"name"`
	Description     string         `json:"description,omitempty"`
	Price           float64        `gorm:"not null" json:"price"`
	Category        string         `gorm:"index;not null" json:"category"`
	Image           string         `json:"image,omitempty"`
	IsVeg           bool           `gorm:"default:true" json:"is_veg"`
	IsAvailable     bool           `gorm:"default:true" json:"is_available"`
	IsPopular       bool           `gorm:"default:false" json:"is_popular"`
	IsTodaySpecial  bool           `gorm:"default:false" json:"is_today_special"`
	HasOffer        bool           `gorm:"default:false" json:"has_offer"`
	SpicyLevel      string         `json:"spicy_level,omitempty"`
	Ingredients     []string       `gorm:"serializer:json" json:"ingredients,omitempty"`
	PreparationTime int            `gorm:"default:15" json:"preparation_time"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (m *MenuItem) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
