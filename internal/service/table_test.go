package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/models"
	"gorm.io/gorm"
)

func tableSetup(t *testing.T) (*TableService, *gorm.DB, uuid.UUID) {
	t.Helper()

	_, db := testSetup(t)
	restaurant := models.Restaurant{
		Name:    "Test Kitchen",
		OwnerID: uuid.New(),
		Status:  models.RestaurantStatusActive,
	}
	if err := db.Create(&restaurant).Error; err != nil {
		t.Fatalf("create restaurant: %v", err)
	}

	return NewTableService(db, "https://menu.example.com/"), db, restaurant.ID
}

func TestCreateTableBuildsQRTarget(t *testing.T) {
	svc, _, restaurantID := tableSetup(t)
	actor := &models.Account{ID: uuid.New()}

	table, err := svc.Create(context.Background(), restaurantID, actor, TableRequest{Number: 7})
	if err != nil {
		t.Fatalf("create table: %v", err)
	}

	want := "https://menu.example.com/r/" + restaurantID.String() + "?table=7"
	if table.QRTarget != want {
		t.Errorf("qr target = %q, want %q", table.QRTarget, want)
	}
	if table.Capacity != 4 {
		t.Errorf("capacity = %d, want default 4", table.Capacity)
	}
	if table.Status != models.TableStatusAvailable {
		t.Errorf("status = %s, want available", table.Status)
	}
}

func TestCreateTableDuplicateNumber(t *testing.T) {
	svc, _, restaurantID := tableSetup(t)
	actor := &models.Account{ID: uuid.New()}
	ctx := context.Background()

	if _, err := svc.Create(ctx, restaurantID, actor, TableRequest{Number: 3}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(ctx, restaurantID, actor, TableRequest{Number: 3})
	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
}

func TestTableNumbersScopedPerRestaurant(t *testing.T) {
	svc, db, restaurantID := tableSetup(t)
	actor := &models.Account{ID: uuid.New()}
	ctx := context.Background()

	other := models.Restaurant{Name: "Other", OwnerID: uuid.New(), Status: models.RestaurantStatusActive}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("create second restaurant: %v", err)
	}

	if _, err := svc.Create(ctx, restaurantID, actor, TableRequest{Number: 1}); err != nil {
		t.Fatalf("create in first restaurant: %v", err)
	}
	// Same number in a different restaurant is fine
	if _, err := svc.Create(ctx, other.ID, actor, TableRequest{Number: 1}); err != nil {
		t.Fatalf("create in second restaurant: %v", err)
	}
}

func TestRenumberTableRewritesQRTarget(t *testing.T) {
	svc, _, restaurantID := tableSetup(t)
	actor := &models.Account{ID: uuid.New()}
	ctx := context.Background()

	table, err := svc.Create(ctx, restaurantID, actor, TableRequest{Number: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, restaurantID, table.ID, actor, TableRequest{Number: 9})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !strings.HasSuffix(updated.QRTarget, "?table=9") {
		t.Errorf("qr target = %q, want suffix ?table=9", updated.QRTarget)
	}
}

func TestDeleteTableWithOpenOrders(t *testing.T) {
	svc, db, restaurantID := tableSetup(t)
	actor := &models.Account{ID: uuid.New()}
	ctx := context.Background()

	table, err := svc.Create(ctx, restaurantID, actor, TableRequest{Number: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	order := models.Order{
		RestaurantID: restaurantID,
		TableID:      table.ID,
		Items:        []models.OrderItem{{MenuItemID: uuid.New(), Name: "x", Price: 1, Quantity: 1}},
		Total:        1,
		Status:       models.OrderStatusPlaced,
	}
	if err := db.Create(&order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}

	var conflictErr *ConflictError
	if err := svc.Delete(ctx, restaurantID, table.ID, actor); !errors.As(err, &conflictErr) {
		t.Fatalf("err = %v, want ConflictError", err)
	}

	// Once the order closes, deletion succeeds
	db.Model(&order).Update("status", models.OrderStatusPaid)
	if err := svc.Delete(ctx, restaurantID, table.ID, actor); err != nil {
		t.Fatalf("delete after close: %v", err)
	}
}
