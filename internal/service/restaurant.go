package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/audit"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/rbac"
	"gorm.io/gorm"
)

// RestaurantService manages restaurant tenants. Listing and mutation are
// platform-owner operations except Get, which restaurant admins use for
// their own tenant.
type RestaurantService struct {
	db *gorm.DB
}

// NewRestaurantService creates a new RestaurantService.
func NewRestaurantService(db *gorm.DB) *RestaurantService {
	return &RestaurantService{db: db}
}

// RestaurantFilter narrows List results. Limit <= 0 returns everything.
type RestaurantFilter struct {
	Status models.RestaurantStatus
	Search string
	Limit  int
	Offset int
}

// List returns restaurants matching the filter, newest first, plus the
// total count before pagination.
func (s *RestaurantService) List(ctx context.Context, filter RestaurantFilter) ([]models.Restaurant, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Restaurant{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Preload("Plan").Order("created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var restaurants []models.Restaurant
	if err := query.Find(&restaurants).Error; err != nil {
		return nil, 0, err
	}
	return restaurants, total, nil
}

// CreateRestaurantRequest carries a console-created tenant. OwnerEmail
// must name an existing approved account.
type CreateRestaurantRequest struct {
	Name       string
	OwnerEmail string
	Email      string
	Phone      string
	Address    string
	PlanID     *uuid.UUID
}

// Create adds a tenant directly from the platform console, bypassing
// the self-service approval workflow.
func (s *RestaurantService) Create(ctx context.Context, actor *models.Account, req CreateRestaurantRequest) (*models.Restaurant, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &ValidationError{Message: "restaurant name is required"}
	}

	var owner models.Account
	if err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(req.OwnerEmail))).
		First(&owner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Message: "owner account not found"}
		}
		return nil, err
	}

	restaurant := models.Restaurant{
		Name:    strings.TrimSpace(req.Name),
		OwnerID: owner.ID,
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:   req.Phone,
		Address: req.Address,
		PlanID:  req.PlanID,
		Status:  models.RestaurantStatusActive,
	}
	if req.PlanID != nil {
		var plan models.SubscriptionPlan
		if err := s.db.WithContext(ctx).Where("id = ?", *req.PlanID).First(&plan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &ValidationError{Message: "subscription plan not found"}
			}
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Create(&restaurant).Error; err != nil {
		return nil, err
	}

	if err := rbac.GrantRestaurantAccess(owner.ID, restaurant.ID); err != nil {
		slog.Error("Failed to grant restaurant access", "restaurant_id", restaurant.ID, "error", err)
	}

	audit.LogAction(s.db, actor.ID, audit.ActionCreateRestaurant, fmt.Sprintf("restaurant:%s", restaurant.ID), map[string]interface{}{
		"name":  restaurant.Name,
		"owner": owner.Email,
	})

	return &restaurant, nil
}

// Get returns one restaurant by ID.
func (s *RestaurantService) Get(ctx context.Context, id uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).Preload("Plan").Where("id = ?", id).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &restaurant, nil
}

// GetByOwner returns the restaurant owned by an account.
func (s *RestaurantService) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).Preload("Plan").Where("owner_id = ?", ownerID).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &restaurant, nil
}

// UpdateRestaurantRequest carries platform-owner edits to a tenant. Nil
// pointers leave the field unchanged.
type UpdateRestaurantRequest struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	Image   *string
	Status  *models.RestaurantStatus
	PlanID  *uuid.UUID
}

// Update applies the edits and returns the updated restaurant.
func (s *RestaurantService) Update(ctx context.Context, id uuid.UUID, actor *models.Account, req UpdateRestaurantRequest) (*models.Restaurant, error) {
	restaurant, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, &ValidationError{Message: "restaurant name cannot be empty"}
		}
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.Status != nil {
		switch *req.Status {
		case models.RestaurantStatusActive, models.RestaurantStatusTrial,
			models.RestaurantStatusSuspended, models.RestaurantStatusInactive:
			updates["status"] = *req.Status
		default:
			return nil, &ValidationError{Message: fmt.Sprintf("invalid restaurant status: %s", *req.Status)}
		}
	}
	if req.PlanID != nil {
		var plan models.SubscriptionPlan
		if err := s.db.WithContext(ctx).Where("id = ?", *req.PlanID).First(&plan).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, &ValidationError{Message: "subscription plan not found"}
			}
			return nil, err
		}
		updates["plan_id"] = *req.PlanID
		// Assigning a plan ends the trial
		if restaurant.Status == models.RestaurantStatusTrial && req.Status == nil {
			updates["status"] = models.RestaurantStatusActive
		}
	}

	if len(updates) == 0 {
		return restaurant, nil
	}

	if err := s.db.WithContext(ctx).Model(restaurant).Updates(updates).Error; err != nil {
		return nil, err
	}

	audit.LogAction(s.db, actor.ID, audit.ActionUpdateRestaurant, fmt.Sprintf("restaurant:%s", id), updates)

	return s.Get(ctx, id)
}

// Delete soft-deletes a restaurant and revokes the owner's access policy.
// The owner account itself is kept for audit history.
func (s *RestaurantService) Delete(ctx context.Context, id uuid.UUID, actor *models.Account) error {
	restaurant, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.MenuItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("restaurant_id = ?", id).Delete(&models.Table{}).Error; err != nil {
			return err
		}
		return tx.Delete(restaurant).Error
	})
	if err != nil {
		return err
	}

	if err := rbac.RevokeRestaurantAccess(restaurant.OwnerID, id); err != nil {
		slog.Error("Failed to revoke restaurant access", "restaurant_id", id, "error", err)
	}

	audit.LogAction(s.db, actor.ID, audit.ActionDeleteRestaurant, fmt.Sprintf("restaurant:%s", id), map[string]interface{}{
		"name": restaurant.Name,
	})

	return nil
}

// PlatformStats summarizes the platform for the owner console.
type PlatformStats struct {
	TotalRestaurants   int64   `json:"total_restaurants"`
	ActiveRestaurants  int64   `json:"active_restaurants"`
	TrialRestaurants   int64   `json:"trial_restaurants"`
	PendingRequests    int64   `json:"pending_requests"`
	TotalOrders        int64   `json:"total_orders"`
	TotalRevenue       float64 `json:"total_revenue"`
}

// Stats aggregates tenant counts and order totals.
func (s *RestaurantService) Stats(ctx context.Context) (*PlatformStats, error) {
	stats := &PlatformStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&models.Restaurant{}).Count(&stats.TotalRestaurants).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Restaurant{}).Where("status = ?", models.RestaurantStatusActive).Count(&stats.ActiveRestaurants).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Restaurant{}).Where("status = ?", models.RestaurantStatusTrial).Count(&stats.TrialRestaurants).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.ApprovalRequest{}).Where("status = ?", models.RequestStatusPending).Count(&stats.PendingRequests).Error; err != nil {
		return nil, err
	}

	type totals struct {
		Orders  int64
		Revenue float64
	}
	var t totals
	if err := db.Model(&models.Restaurant{}).
		Select("COALESCE(SUM(orders), 0) AS orders, COALESCE(SUM(revenue), 0) AS revenue").
		Scan(&t).Error; err != nil {
		return nil, err
	}
	stats.TotalOrders = t.Orders
	stats.TotalRevenue = t.Revenue

	return stats, nil
}
