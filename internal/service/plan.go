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

// PlanService manages subscription plans. Mutation is a platform-owner
// operation; ListActive backs the public pricing page.
type PlanService struct {
	db *gorm.DB
}

// NewPlanService creates a new PlanService.
func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{db: db}
}

// ListActive returns plans visible on the public pricing page, in their
// configured display order.
func (s *PlanService) ListActive(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("sort_order ASC, price ASC").
		Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// ListAll returns every plan including inactive ones.
func (s *PlanService) ListAll(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	if err := s.db.WithContext(ctx).Order("sort_order ASC, price ASC").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

// Get returns one plan by ID.
func (s *PlanService) Get(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// PlanRequest carries a plan create or update submission.
type PlanRequest struct {
	Name         string
	Price        float64
	Currency     string
	Duration     models.PlanDuration
	Features     []string
	MaxTables    int
	MaxMenuItems int
	MaxStaff     int
	SupportLevel string
	IsActive     *bool
	SortOrder    int
}

func (r *PlanRequest) validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Message: "plan name is required"}
	}
	if r.Price < 0 {
		return &ValidationError{Message: "plan price cannot be negative"}
	}
	switch r.Duration {
	case "", models.PlanDurationMonthly, models.PlanDurationQuarterly, models.PlanDurationYearly:
	default:
		return &ValidationError{Message: fmt.Sprintf("invalid plan duration: %s", r.Duration)}
	}
	return nil
}

// Create adds a new plan.
func (s *PlanService) Create(ctx context.Context, actor *models.Account, req PlanRequest) (*models.SubscriptionPlan, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	plan := models.SubscriptionPlan{
		Name:         strings.TrimSpace(req.Name),
		Price:        req.Price,
		Currency:     req.Currency,
		Duration:     req.Duration,
		Features:     req.Features,
		MaxTables:    req.MaxTables,
		MaxMenuItems: req.MaxMenuItems,
		MaxStaff:     req.MaxStaff,
		SupportLevel: req.SupportLevel,
		IsActive:     true,
		SortOrder:    req.SortOrder,
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Create(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, &ConflictError{Message: fmt.Sprintf("plan '%s' already exists", plan.Name)}
		}
		return nil, err
	}

	audit.LogAction(s.db, actor.ID, audit.ActionCreatePlan, fmt.Sprintf("plan:%s", plan.ID), map[string]interface{}{
		"name": plan.Name,
	})

	return &plan, nil
}

// Update replaces a plan's fields.
func (s *PlanService) Update(ctx context.Context, id uuid.UUID, actor *models.Account, req PlanRequest) (*models.SubscriptionPlan, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":           strings.TrimSpace(req.Name),
		"price":          req.Price,
		"features":       req.Features,
		"max_tables":     req.MaxTables,
		"max_menu_items": req.MaxMenuItems,
		"max_staff":      req.MaxStaff,
		"sort_order":     req.SortOrder,
	}
	if req.Currency != "" {
		updates["currency"] = req.Currency
	}
	if req.Duration != "" {
		updates["duration"] = req.Duration
	}
	if req.SupportLevel != "" {
		updates["support_level"] = req.SupportLevel
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Model(plan).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, &ConflictError{Message: fmt.Sprintf("plan '%s' already exists", req.Name)}
		}
		return nil, err
	}

	audit.LogAction(s.db, actor.ID, audit.ActionUpdatePlan, fmt.Sprintf("plan:%s", id), updates)

	return s.Get(ctx, id)
}

// SetActive toggles a plan's visibility on the public pricing page.
func (s *PlanService) SetActive(ctx context.Context, id uuid.UUID, actor *models.Account, active bool) (*models.SubscriptionPlan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(plan).Update("is_active", active).Error; err != nil {
		return nil, err
	}
	plan.IsActive = active

	audit.LogAction(s.db, actor.ID, audit.ActionUpdatePlan, fmt.Sprintf("plan:%s", id), map[string]interface{}{
		"is_active": active,
	})

	return plan, nil
}

// Delete removes a plan unless a restaurant is still subscribed to it.
func (s *PlanService) Delete(ctx context.Context, id uuid.UUID, actor *models.Account) error {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	var subscribed int64
	if err := s.db.WithContext(ctx).Model(&models.Restaurant{}).Where("plan_id = ?", id).Count(&subscribed).Error; err != nil {
		return err
	}
	if subscribed > 0 {
		return &ConflictError{Message: fmt.Sprintf("plan is in use by %d restaurant(s)", subscribed)}
	}

	if err := s.db.WithContext(ctx).Delete(plan).Error; err != nil {
		return err
	}

	audit.LogAction(s.db, actor.ID, audit.ActionDeletePlan, fmt.Sprintf("plan:%s", id), map[string]interface{}{
		"name": plan.Name,
	})

	return nil
}
