package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/audit"
	"github.com/qrplate/qrplate/internal/models"
	"gorm.io/gorm"
)

// validOrderTransitions maps each order status to the statuses it may
// move to. Paid and cancelled are terminal.
var validOrderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPlaced:    {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusServed, models.OrderStatusCancelled},
	models.OrderStatusServed:    {models.OrderStatusPaid},
}

// OrderService manages guest orders. Place backs the public storefront;
// everything else is dashboard-side.
type OrderService struct {
	db *gorm.DB
}

// NewOrderService creates a new OrderService.
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// OrderLine is one requested item in a storefront submission.
type OrderLine struct {
	MenuItemID uuid.UUID
	Quantity   int
}

// PlaceOrderRequest carries a storefront order submission.
type PlaceOrderRequest struct {
	TableNumber int
	Lines       []OrderLine
	Note        string
}

// Place creates an order from the storefront. Prices are read from the
// menu at order time and snapshotted onto the order, so the submitted
// cart can never set its own prices.
func (s *OrderService) Place(ctx context.Context, restaurantID uuid.UUID, req PlaceOrderRequest) (*models.Order, error) {
	if len(req.Lines) == 0 {
		return nil, &ValidationError{Message: "order must contain at least one item"}
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, &ValidationError{Message: "item quantity must be positive"}
		}
	}

	var table models.Table
	if err := s.db.WithContext(ctx).
		Where("restaurant_id = ? AND number = ?", restaurantID, req.TableNumber).
		First(&table).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Message: fmt.Sprintf("table %d not found", req.TableNumber)}
		}
		return nil, err
	}

	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := make([]models.OrderItem, 0, len(req.Lines))
		var total float64
		for _, line := range req.Lines {
			var item models.MenuItem
			if err := tx.Where("id = ? AND restaurant_id = ?", line.MenuItemID, restaurantID).First(&item).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &ValidationError{Message: fmt.Sprintf("menu item %s not found", line.MenuItemID)}
				}
				return err
			}
			if !item.IsAvailable {
				return &ValidationError{Message: fmt.Sprintf("'%s' is currently unavailable", item.Name)}
			}
			items = append(items, models.OrderItem{
				MenuItemID: item.ID,
				Name:       item.Name,
				Price:      item.Price,
				Quantity:   line.Quantity,
			})
			total += item.Price * float64(line.Quantity)
		}

		order = models.Order{
			RestaurantID: restaurantID,
			TableID:      table.ID,
			Items:        items,
			Total:        total,
			Note:         req.Note,
			Status:       models.OrderStatusPlaced,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return tx.Model(&models.Table{}).
			Where("id = ?", table.ID).
			Update("status", models.TableStatusOccupied).Error
	})
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// OrderFilter narrows List results.
type OrderFilter struct {
	Status  models.OrderStatus
	TableID uuid.UUID
}

// List returns a restaurant's orders, newest first.
func (s *OrderService) List(ctx context.Context, restaurantID uuid.UUID, filter OrderFilter) ([]models.Order, error) {
	query := s.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("created_at DESC")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TableID != uuid.Nil {
		query = query.Where("table_id = ?", filter.TableID)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Get returns one order scoped to its restaurant.
func (s *OrderService) Get(ctx context.Context, restaurantID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := s.db.WithContext(ctx).
		Where("id = ? AND restaurant_id = ?", orderID, restaurantID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// UpdateStatus moves an order along its lifecycle. Paying an order adds
// it to the restaurant's running totals and frees the table if no other
// open orders remain on it.
func (s *OrderService) UpdateStatus(ctx context.Context, restaurantID, orderID uuid.UUID, actor *models.Account, next models.OrderStatus) (*models.Order, error) {
	order, err := s.Get(ctx, restaurantID, orderID)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, st := range validOrderTransitions[order.Status] {
		if st == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, &ConflictError{Message: fmt.Sprintf("cannot move order from '%s' to '%s'", order.Status, next)}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return &ConflictError{Message: "order was updated concurrently"}
		}

		if next == models.OrderStatusPaid {
			if err := tx.Model(&models.Restaurant{}).
				Where("id = ?", restaurantID).
				Updates(map[string]interface{}{
					"orders":  gorm.Expr("orders + 1"),
					"revenue": gorm.Expr("revenue + ?", order.Total),
				}).Error; err != nil {
				return err
			}
		}

		if next == models.OrderStatusPaid || next == models.OrderStatusCancelled {
			var open int64
			if err := tx.Model(&models.Order{}).
				Where("table_id = ? AND id <> ? AND status IN ?", order.TableID, orderID,
					[]models.OrderStatus{models.OrderStatusPlaced, models.OrderStatusPreparing, models.OrderStatusServed}).
				Count(&open).Error; err != nil {
				return err
			}
			if open == 0 {
				if err := tx.Model(&models.Table{}).
					Where("id = ?", order.TableID).
					Update("status", models.TableStatusAvailable).Error; err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	audit.LogAction(s.db, actor.ID, audit.ActionUpdateOrder, fmt.Sprintf("order:%s", orderID), map[string]interface{}{
		"from": order.Status,
		"to":   next,
	})

	order.Status = next
	return order, nil
}
