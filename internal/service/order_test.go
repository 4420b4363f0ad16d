package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/models"
	"gorm.io/gorm"
)

// orderSetup provisions an approved restaurant with one table and two
// menu items.
func orderSetup(t *testing.T) (*OrderService, *gorm.DB, *models.Restaurant, []models.MenuItem) {
	t.Helper()

	svc, db := testSetup(t)
	owner := registerOwner(t, svc, "owner@example.com")
	admin := registerAdmin(t, svc, "admin@example.com")
	request := pendingRequest(t, db, admin.Account.ID)
	if _, err := svc.Approve(context.Background(), request.ID, owner.Account); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var restaurant models.Restaurant
	if err := db.First(&restaurant, "owner_id = ?", admin.Account.ID).Error; err != nil {
		t.Fatalf("load restaurant: %v", err)
	}

	table := models.Table{RestaurantID: restaurant.ID, Number: 1, Capacity: 4, Status: models.TableStatusAvailable}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("create table: %v", err)
	}

	items := []models.MenuItem{
		{RestaurantID: restaurant.ID, Name: "Paneer Tikka", Price: 250, Category: "Starters", IsAvailable: true},
		{RestaurantID: restaurant.ID, Name: "Dal Makhani", Price: 180, Category: "Mains", IsAvailable: true},
	}
	for i := range items {
		if err := db.Create(&items[i]).Error; err != nil {
			t.Fatalf("create menu item: %v", err)
		}
	}

	return NewOrderService(db), db, &restaurant, items
}

func TestPlaceOrderSnapshotsPrices(t *testing.T) {
	svc, db, restaurant, items := orderSetup(t)

	order, err := svc.Place(context.Background(), restaurant.ID, PlaceOrderRequest{
		TableNumber: 1,
		Lines: []OrderLine{
			{MenuItemID: items[0].ID, Quantity: 2},
			{MenuItemID: items[1].ID, Quantity: 1},
		},
		Note: "less spicy",
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if order.Total != 2*250+180 {
		t.Errorf("total = %v, want 680", order.Total)
	}
	if len(order.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(order.Items))
	}
	if order.Items[0].Price != 250 || order.Items[0].Name != "Paneer Tikka" {
		t.Errorf("line item not snapshotted from the menu: %+v", order.Items[0])
	}
	if order.Status != models.OrderStatusPlaced {
		t.Errorf("status = %s, want placed", order.Status)
	}

	// The table is now occupied
	var table models.Table
	db.First(&table, "restaurant_id = ? AND number = ?", restaurant.ID, 1)
	if table.Status != models.TableStatusOccupied {
		t.Errorf("table status = %s, want occupied", table.Status)
	}
}

func TestPlaceOrderRejectsUnavailableItem(t *testing.T) {
	svc, db, restaurant, items := orderSetup(t)

	db.Model(&items[0]).Update("is_available", false)

	_, err := svc.Place(context.Background(), restaurant.ID, PlaceOrderRequest{
		TableNumber: 1,
		Lines:       []OrderLine{{MenuItemID: items[0].ID, Quantity: 1}},
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestPlaceOrderUnknownTable(t *testing.T) {
	svc, _, restaurant, items := orderSetup(t)

	_, err := svc.Place(context.Background(), restaurant.ID, PlaceOrderRequest{
		TableNumber: 99,
		Lines:       []OrderLine{{MenuItemID: items[0].ID, Quantity: 1}},
	})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestOrderLifecycle(t *testing.T) {
	svc, db, restaurant, items := orderSetup(t)
	ctx := context.Background()
	actor := &models.Account{ID: uuid.New()}

	order, err := svc.Place(ctx, restaurant.ID, PlaceOrderRequest{
		TableNumber: 1,
		Lines:       []OrderLine{{MenuItemID: items[0].ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// placed -> served is not a valid transition
	if _, err := svc.UpdateStatus(ctx, restaurant.ID, order.ID, actor, models.OrderStatusServed); err == nil {
		t.Fatal("expected invalid transition to fail")
	}

	for _, next := range []models.OrderStatus{models.OrderStatusPreparing, models.OrderStatusServed, models.OrderStatusPaid} {
		if _, err := svc.UpdateStatus(ctx, restaurant.ID, order.ID, actor, next); err != nil {
			t.Fatalf("transition to %s: %v", next, err)
		}
	}

	// Paying updates the restaurant's running totals
	var reloaded models.Restaurant
	db.First(&reloaded, "id = ?", restaurant.ID)
	if reloaded.Orders != 1 {
		t.Errorf("orders = %d, want 1", reloaded.Orders)
	}
	if reloaded.Revenue != 250 {
		t.Errorf("revenue = %v, want 250", reloaded.Revenue)
	}

	// The table is freed once no open orders remain
	var table models.Table
	db.First(&table, "restaurant_id = ? AND number = ?", restaurant.ID, 1)
	if table.Status != models.TableStatusAvailable {
		t.Errorf("table status = %s, want available", table.Status)
	}

	// Paid is terminal
	var conflictErr *ConflictError
	if _, err := svc.UpdateStatus(ctx, restaurant.ID, order.ID, actor, models.OrderStatusCancelled); !errors.As(err, &conflictErr) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
}
