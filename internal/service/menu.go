package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/audit"
	"github.com/qrplate/qrplate/internal/models"
	"gorm.io/gorm"
)

// MenuService manages a restaurant's menu items.
type MenuService struct {
	db *gorm.DB
}

// NewMenuService creates a new MenuService.
func NewMenuService(db *gorm.DB) *MenuService {
	return &MenuService{db: db}
}

// MenuFilter narrows List results. The storefront sets AvailableOnly;
// the dashboard sees everything.
type MenuFilter struct {
	Category      string
	AvailableOnly bool
	VegOnly       bool
	Search        string
}

// List returns a restaurant's menu items grouped by category order.
func (s *MenuService) List(ctx context.Context, restaurantID uuid.UUID, filter MenuFilter) ([]models.MenuItem, error) {
	query := s.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("category ASC, name ASC")

	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.AvailableOnly {
		query = query.Where("is_available = ?", true)
	}
	if filter.VegOnly {
		query = query.Where("is_veg = ?", true)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var items []models.MenuItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Get returns one menu item scoped to its restaurant.
func (s *MenuService) Get(ctx context.Context, restaurantID, itemID uuid.UUID) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := s.db.WithContext(ctx).
		Where("id = ? AND restaurant_id = ?", itemID, restaurantID).
		First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// MenuItemRequest carries a menu item create or update submission.
type MenuItemRequest struct {
	Name            string
	Description     string
	Price           float64
	Category        string
	Image           string
	IsVeg           *bool
	IsAvailable     *bool
	IsPopular       *bool
	IsTodaySpecial  *bool
	HasOffer        *bool
	SpicyLevel      string
	Ingredients     []string
	PreparationTime int
}

func (r *MenuItemRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Message: "item name is required"}
	}
	if strings.TrimSpace(r.Category) == "" {
		return &ValidationError{Message: "item category is required"}
	}
	if r.Price < 0 {
		return &ValidationError{Message: "item price cannot be negative"}
	}
	return nil
}

// Create adds a menu item, enforcing the restaurant's plan limit when a
// plan is assigned.
func (s *MenuService) Create(ctx context.Context, restaurantID uuid.UUID, actor *models.Account, req MenuItemRequest) (*models.MenuItem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	if err := s.checkPlanLimit(ctx, restaurantID); err != nil {
		return nil, err
	}

	item := models.MenuItem{
		RestaurantID:    restaurantID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		Price:           req.Price,
		Category:        strings.TrimSpace(req.Category),
		Image:           req.Image,
		IsVeg:           true,
		IsAvailable:     true,
		SpicyLevel:      req.SpicyLevel,
		Ingredients:     req.Ingredients,
		PreparationTime: req.PreparationTime,
	}
	if req.IsVeg != nil {
		item.IsVeg = *req.IsVeg
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	if req.IsPopular != nil {
		item.IsPopular = *req.IsPopular
	}
	if req.IsTodaySpecial != nil {
		item.IsTodaySpecial = *req.IsTodaySpecial
	}
	if req.HasOffer != nil {
		item.HasOffer = *req.HasOffer
	}
	if item.PreparationTime == 0 {
		item.PreparationTime = 15
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}

	audit.LogAction(s.db, actor.ID, audit.ActionCreateMenuItem, fmt.Sprintf("menu_item:%s", item.ID), map[string]interface{}{
		"restaurant_id": restaurantID,
		"name":          item.Name,
	})

	return &item, nil
}

// Update applies edits to a menu item.
func (s *MenuService) Update(ctx context.Context, restaurantID, itemID uuid.UUID, actor *models.Account, req MenuItemRequest) (*models.MenuItem, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	item, err := s.Get(ctx, restaurantID, itemID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":             strings.TrimSpace(req.Name),
		"description":      req.Description,
		"price":            req.Price,
		"category":         strings.TrimSpace(req.Category),
		"image":            req.Image,
		"spicy_level":      req.SpicyLevel,
		"ingredients":      req.Ingredients,
		"preparation_time": req.PreparationTime,
	}
	if req.IsVeg != nil {
		updates["is_veg"] = *req.IsVeg
	}
	if req.IsAvailable != nil {
		updates["is_available"] = *req.IsAvailable
	}
	if req.IsPopular != nil {
		updates["is_popular"] = *req.IsPopular
	}
	if req.IsTodaySpecial != nil {
		updates["is_today_special"] = *req.IsTodaySpecial
	}
	if req.HasOffer != nil {
		updates["has_offer"] = *req.HasOffer
	}

	if err := s.db.WithContext(ctx).Model(item).Updates(updates).Error; err != nil {
		return nil, err
	}

	audit.LogAction(s.db, actor.ID, audit.ActionUpdateMenuItem, fmt.Sprintf("menu_item:%s", itemID), map[string]interface{}{
		"restaurant_id": restaurantID,
	})

	return s.Get(ctx, restaurantID, itemID)
}

// SetAvailability toggles the storefront visibility of an item.
func (s *MenuService) SetAvailability(ctx context.Context, restaurantID, itemID uuid.UUID, actor *models.Account, available bool) (*models.MenuItem, error) {
	item, err := s.Get(ctx, restaurantID, itemID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(item).Update("is_available", available).Error; err != nil {
		return nil, err
	}
	item.IsAvailable = available

	audit.LogAction(s.db, actor.ID, audit.ActionUpdateMenuItem, fmt.Sprintf("menu_item:%s", itemID), map[string]interface{}{
		"is_available": available,
	})

	return item, nil
}

// Delete soft-deletes a menu item. Past orders keep their snapshotted
// line items.
func (s *MenuService) Delete(ctx context.Context, restaurantID, itemID uuid.UUID, actor *models.Account) error {
	item, err := s.Get(ctx, restaurantID, itemID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(item).Error; err != nil {
		return err
	}

	audit.LogAction(s.db, actor.ID, audit.ActionDeleteMenuItem, fmt.Sprintf("menu_item:%s", itemID), map[string]interface{}{
		"restaurant_id": restaurantID,
		"name":          item.Name,
	})

	return nil
}

// Categories returns the distinct categories in use by a restaurant.
func (s *MenuService) Categories(ctx context.Context, restaurantID uuid.UUID) ([]string, error) {
	var categories []string
	if err := s.db.WithContext(ctx).Model(&models.MenuItem{}).
		Where("restaurant_id = ?", restaurantID).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// checkPlanLimit rejects creation once the subscribed plan's item cap is
// reached. Restaurants without a plan (trial) are not capped.
func (s *MenuService) checkPlanLimit(ctx context.Context, restaurantID uuid.UUID) error {
	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).Preload("Plan").Where("id = ?", restaurantID).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if restaurant.Plan == nil || restaurant.Plan.MaxMenuItems <= 0 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.MenuItem{}).Where("restaurant_id = ?", restaurantID).Count(&count).Error; err != nil {
		return err
	}
	if count >= int64(restaurant.Plan.MaxMenuItems) {
		return &ConflictError{Message: fmt.Sprintf("menu item limit reached for plan '%s' (%d items)", restaurant.Plan.Name, restaurant.Plan.MaxMenuItems)}
	}
	return nil
}
