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

// TableService manages dining tables and the storefront URLs their QR
// codes point at.
type TableService struct {
	db      *gorm.DB
	baseURL string
}

// NewTableService creates a new TableService. baseURL is the public
// storefront root used to build QR targets.
func NewTableService(db *gorm.DB, baseURL string) *TableService {
	return &TableService{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

// List returns a restaurant's tables ordered by number.
func (s *TableService) List(ctx context.Context, restaurantID uuid.UUID) ([]models.Table, error) {
	var tables []models.Table
	if err := s.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("number ASC").
		Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// Get returns one table scoped to its restaurant.
func (s *TableService) Get(ctx context.Context, restaurantID, tableID uuid.UUID) (*models.Table, error) {
	var table models.Table
	if err := s.db.WithContext(ctx).
		Where("id = ? AND restaurant_id = ?", tableID, restaurantID).
		First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &table, nil
}

// TableRequest carries a table create or update submission.
type TableRequest struct {
	Number   int
	Capacity int
	Location string
	Status   models.TableStatus
}

func (r *TableRequest) validate() error {
	if r.Number <= 0 {
		return &ValidationError{Message: "table number must be positive"}
	}
	if r.Capacity < 0 {
		return &ValidationError{Message: "table capacity cannot be negative"}
	}
	switch r.Status {
	case "", models.TableStatusAvailable, models.TableStatusOccupied, models.TableStatusReserved:
	default:
		return &ValidationError{Message: fmt.Sprintf("invalid table status: %s", r.Status)}
	}
	return nil
}

// QRTarget builds the storefront URL encoded in a table's QR code.
func (s *TableService) QRTarget(restaurantID uuid.UUID, number int) string {
	return fmt.Sprintf("%s/r/%s?table=%d", s.baseURL, restaurantID, number)
}

// Create adds a table, enforcing per-restaurant number uniqueness and the
// plan's table cap when a plan is assigned.
func (s *TableService) Create(ctx context.Context, restaurantID uuid.UUID, actor *models.Account, req TableRequest) (*models.Table, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	if err := s.checkPlanLimit(ctx, restaurantID); err != nil {
		return nil, err
	}

	table := models.Table{
		RestaurantID: restaurantID,
		Number:       req.Number,
		Capacity:     req.Capacity,
		Location:     req.Location,
		Status:       models.TableStatusAvailable,
		QRTarget:     s.QRTarget(restaurantID, req.Number),
	}
	if table.Capacity == 0 {
		table.Capacity = 4
	}
	if table.Location == "" {
		table.Location = "indoor"
	}
	if req.Status != "" {
		table.Status = req.Status
	}

	if err := s.db.WithContext(ctx).Create(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, &ConflictError{Message: fmt.Sprintf("table %d already exists", req.Number)}
		}
		return nil, err
	}

	audit.LogAction(s.db, actor.ID, audit.ActionCreateTable, fmt.Sprintf("table:%s", table.ID), map[string]interface{}{
		"restaurant_id": restaurantID,
		"number":        table.Number,
	})

	return &table, nil
}

// Update applies edits to a table. Renumbering rewrites the QR target.
func (s *TableService) Update(ctx context.Context, restaurantID, tableID uuid.UUID, actor *models.Account, req TableRequest) (*models.Table, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	table, err := s.Get(ctx, restaurantID, tableID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"number": req.Number,
	}
	if req.Number != table.Number {
		updates["qr_target"] = s.QRTarget(restaurantID, req.Number)
	}
	if req.Capacity > 0 {
		updates["capacity"] = req.Capacity
	}
	if req.Location != "" {
		updates["location"] = req.Location
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}

	if err := s.db.WithContext(ctx).Model(table).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, &ConflictError{Message: fmt.Sprintf("table %d already exists", req.Number)}
		}
		return nil, err
	}

	audit.LogAction(s.db, actor.ID, audit.ActionUpdateTable, fmt.Sprintf("table:%s", tableID), updates)

	return s.Get(ctx, restaurantID, tableID)
}

// Delete removes a table unless it has open orders.
func (s *TableService) Delete(ctx context.Context, restaurantID, tableID uuid.UUID, actor *models.Account) error {
	table, err := s.Get(ctx, restaurantID, tableID)
	if err != nil {
		return err
	}

	var open int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("table_id = ? AND status IN ?", tableID, []models.OrderStatus{models.OrderStatusPlaced, models.OrderStatusPreparing, models.OrderStatusServed}).
		Count(&open).Error; err != nil {
		return err
	}
	if open > 0 {
		return &ConflictError{Message: fmt.Sprintf("table has %d open order(s)", open)}
	}

	if err := s.db.WithContext(ctx).Delete(table).Error; err != nil {
		return err
	}

	audit.LogAction(s.db, actor.ID, audit.ActionDeleteTable, fmt.Sprintf("table:%s", tableID), map[string]interface{}{
		"restaurant_id": restaurantID,
		"number":        table.Number,
	})

	return nil
}

// checkPlanLimit rejects creation once the subscribed plan's table cap
// is reached.
func (s *TableService) checkPlanLimit(ctx context.Context, restaurantID uuid.UUID) error {
	var restaurant models.Restaurant
	if err := s.db.WithContext(ctx).Preload("Plan").Where("id = ?", restaurantID).First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if restaurant.Plan == nil || restaurant.Plan.MaxTables <= 0 {
		return nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Table{}).Where("restaurant_id = ?", restaurantID).Count(&count).Error; err != nil {
		return err
	}
	if count >= int64(restaurant.Plan.MaxTables) {
		return &ConflictError{Message: fmt.Sprintf("table limit reached for plan '%s' (%d tables)", restaurant.Plan.Name, restaurant.Plan.MaxTables)}
	}
	return nil
}
