package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/config"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/queue"
	"github.com/qrplate/qrplate/internal/rbac"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Account{},
		&models.ApprovalRequest{},
		&models.Restaurant{},
		&models.SubscriptionPlan{},
		&models.MenuItem{},
		&models.Table{},
		&models.Order{},
		&models.Notification{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	if err := rbac.InitEnforcer(db, slog.Default()); err != nil {
		t.Fatalf("init rbac: %v", err)
	}

	q := queue.NewMemoryQueue(100)
	t.Cleanup(func() { q.Close() })

	cfg := &config.Config{
		Server:     config.ServerConfig{Mode: "development"},
		Storefront: config.StorefrontConfig{BaseURL: "http://localhost:3000"},
	}
	authenticator := auth.NewBasicAuthenticator(db, "test-secret", 0)

	return NewRouter(db, cfg, authenticator, q), db
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestRegistrationApprovalFlow(t *testing.T) {
	router, _ := setupRouter(t)

	// Platform owner self-registers and gets a token immediately
	w := doJSON(t, router, "POST", "/api/v1/auth/register", "", gin.H{
		"name":     "Owner",
		"email":    "owner@example.com",
		"password": "ownerpass",
		"role":     "platform-owner",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("owner register status = %d, body = %s", w.Code, w.Body.String())
	}
	ownerToken, _ := decode(t, w)["token"].(string)
	if ownerToken == "" {
		t.Fatal("owner did not receive a token")
	}

	// Restaurant admin registers: 201 but no token
	w = doJSON(t, router, "POST", "/api/v1/auth/register", "", gin.H{
		"name":            "Admin",
		"email":           "admin@example.com",
		"password":        "adminpass",
		"role":            "restaurant-admin",
		"restaurant_name": "Spice Garden",
		"location":        "Pune",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("admin register status = %d, body = %s", w.Code, w.Body.String())
	}
	if _, hasToken := decode(t, w)["token"]; hasToken {
		t.Fatal("pending admin must not receive a token")
	}

	// Pending admin login is blocked with 403
	w = doJSON(t, router, "POST", "/api/v1/auth/login", "", gin.H{
		"email":    "admin@example.com",
		"password": "adminpass",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("pending login status = %d, want 403", w.Code)
	}

	// Owner sees the pending registration
	w = doJSON(t, router, "GET", "/api/v1/admin/registrations", ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list registrations status = %d, body = %s", w.Code, w.Body.String())
	}
	requests := decode(t, w)["requests"].([]interface{})
	if len(requests) != 1 {
		t.Fatalf("pending requests = %d, want 1", len(requests))
	}
	requestID := requests[0].(map[string]interface{})["id"].(string)

	// Owner approves
	w = doJSON(t, router, "POST", "/api/v1/admin/registrations/"+requestID+"/approve", ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body = %s", w.Code, w.Body.String())
	}

	// Admin can now log in with the promoted role
	w = doJSON(t, router, "POST", "/api/v1/auth/login", "", gin.H{
		"email":    "admin@example.com",
		"password": "adminpass",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login after approval status = %d, body = %s", w.Code, w.Body.String())
	}
	login := decode(t, w)
	account := login["account"].(map[string]interface{})
	if account["role"] != "restaurant-admin" {
		t.Errorf("role = %v, want restaurant-admin", account["role"])
	}

	// A second approval attempt conflicts
	w = doJSON(t, router, "POST", "/api/v1/admin/registrations/"+requestID+"/approve", ownerToken, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("second approve status = %d, want 409", w.Code)
	}
}

func TestAdminRoutesRequirePlatformOwner(t *testing.T) {
	router, _ := setupRouter(t)

	// No token
	w := doJSON(t, router, "GET", "/api/v1/admin/registrations", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d, want 401", w.Code)
	}

	// Owner registers, then approves an admin, whose token must not open
	// the console
	w = doJSON(t, router, "POST", "/api/v1/auth/register", "", gin.H{
		"name": "Owner", "email": "owner@example.com", "password": "ownerpass", "role": "platform-owner",
	})
	ownerToken := decode(t, w)["token"].(string)

	doJSON(t, router, "POST", "/api/v1/auth/register", "", gin.H{
		"name": "Admin", "email": "admin@example.com", "password": "adminpass",
		"role": "restaurant-admin", "restaurant_name": "Cafe",
	})

	w = doJSON(t, router, "GET", "/api/v1/admin/registrations", ownerToken, nil)
	requestID := decode(t, w)["requests"].([]interface{})[0].(map[string]interface{})["id"].(string)
	doJSON(t, router, "POST", "/api/v1/admin/registrations/"+requestID+"/approve", ownerToken, nil)

	w = doJSON(t, router, "POST", "/api/v1/auth/login", "", gin.H{
		"email": "admin@example.com", "password": "adminpass",
	})
	adminToken := decode(t, w)["token"].(string)

	w = doJSON(t, router, "GET", "/api/v1/admin/registrations", adminToken, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("restaurant admin console access status = %d, want 403", w.Code)
	}
}

func TestAccountConsoleFlow(t *testing.T) {
	router, _ := setupRouter(t)

	// Owner plus an approved restaurant admin
	w := doJSON(t, router, "POST", "/api/v1/auth/register", "", gin.H{
		"name": "Owner", "email": "owner@example.com", "password": "ownerpass", "role": "platform-owner",
	})
	ownerToken := decode(t, w)["token"].(string)

	doJSON(t, router, "POST", "/api/v1/auth/register", "", gin.H{
		"name": "Admin", "email": "admin@example.com", "password": "adminpass",
		"role": "restaurant-admin", "restaurant_name": "Cafe",
	})
	w = doJSON(t, router, "GET", "/api/v1/admin/registrations", ownerToken, nil)
	requestID := decode(t, w)["requests"].([]interface{})[0].(map[string]interface{})["id"].(string)
	doJSON(t, router, "POST", "/api/v1/admin/registrations/"+requestID+"/approve", ownerToken, nil)

	// Owner lists accounts
	w = doJSON(t, router, "GET", "/api/v1/admin/accounts", ownerToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list accounts status = %d, body = %s", w.Code, w.Body.String())
	}
	accounts := decode(t, w)["accounts"].([]interface{})
	if len(accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(accounts))
	}
	var adminID string
	for _, a := range accounts {
		account := a.(map[string]interface{})
		if account["email"] == "admin@example.com" {
			adminID = account["id"].(string)
		}
	}
	if adminID == "" {
		t.Fatal("admin account missing from listing")
	}

	// Suspension locks the admin out
	w = doJSON(t, router, "PATCH", "/api/v1/admin/accounts/"+adminID+"/status", ownerToken, gin.H{
		"status": "suspended",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("suspend status = %d, body = %s", w.Code, w.Body.String())
	}
	w = doJSON(t, router, "POST", "/api/v1/auth/login", "", gin.H{
		"email": "admin@example.com", "password": "adminpass",
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("suspended login status = %d, want 403", w.Code)
	}

	// Deletion is blocked while the admin still owns a restaurant
	w = doJSON(t, router, "DELETE", "/api/v1/admin/accounts/"+adminID, ownerToken, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("delete with restaurant status = %d, want 409", w.Code)
	}
}

func TestPasswordResetEndpoints(t *testing.T) {
	router, db := setupRouter(t)

	doJSON(t, router, "POST", "/api/v1/auth/register", "", gin.H{
		"name": "Owner", "email": "owner@example.com", "password": "ownerpass", "role": "platform-owner",
	})

	w := doJSON(t, router, "POST", "/api/v1/auth/forgot-password", "", gin.H{"email": "owner@example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("forgot password status = %d, body = %s", w.Code, w.Body.String())
	}

	// Unknown address reports 404 like the rest of the API
	w = doJSON(t, router, "POST", "/api/v1/auth/forgot-password", "", gin.H{"email": "ghost@example.com"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown email status = %d, want 404", w.Code)
	}

	var n models.Notification
	if err := db.Where("type = ?", models.NotificationTypePasswordReset).First(&n).Error; err != nil {
		t.Fatalf("load reset notification: %v", err)
	}
	idx := strings.Index(n.Body, "token=")
	if idx < 0 {
		t.Fatalf("no token in reset email: %q", n.Body)
	}
	token := n.Body[idx+len("token="):]
	if end := strings.IndexByte(token, '"'); end >= 0 {
		token = token[:end]
	}

	w = doJSON(t, router, "POST", "/api/v1/auth/reset-password", "", gin.H{
		"token": token, "password": "freshsecret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("reset password status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, router, "POST", "/api/v1/auth/login", "", gin.H{
		"email": "owner@example.com", "password": "freshsecret",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login with new password status = %d, body = %s", w.Code, w.Body.String())
	}

	// A made-up token is rejected
	w = doJSON(t, router, "POST", "/api/v1/auth/reset-password", "", gin.H{
		"token": "deadbeef", "password": "freshsecret",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bogus token status = %d, want 400", w.Code)
	}
}

func TestDuplicateRegistrationConflicts(t *testing.T) {
	router, _ := setupRouter(t)

	body := gin.H{
		"name": "Owner", "email": "dup@example.com", "password": "password1", "role": "platform-owner",
	}
	if w := doJSON(t, router, "POST", "/api/v1/auth/register", "", body); w.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", w.Code)
	}
	if w := doJSON(t, router, "POST", "/api/v1/auth/register", "", body); w.Code != http.StatusConflict {
		t.Fatalf("duplicate register status = %d, want 409", w.Code)
	}
}

func TestInvalidLoginIsGeneric401(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, "POST", "/api/v1/auth/login", "", gin.H{
		"email": "ghost@example.com", "password": "whatever1",
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestStorefrontAndDashboardFlow(t *testing.T) {
	router, db := setupRouter(t)

	// Bootstrap an approved restaurant through the real workflow
	w := doJSON(t, router, "POST", "/api/v1/auth/register", "", gin.H{
		"name": "Owner", "email": "owner@example.com", "password": "ownerpass", "role": "platform-owner",
	})
	ownerToken := decode(t, w)["token"].(string)

	doJSON(t, router, "POST", "/api/v1/auth/register", "", gin.H{
		"name": "Admin", "email": "admin@example.com", "password": "adminpass",
		"role": "restaurant-admin", "restaurant_name": "Spice Garden",
	})
	w = doJSON(t, router, "GET", "/api/v1/admin/registrations", ownerToken, nil)
	requestID := decode(t, w)["requests"].([]interface{})[0].(map[string]interface{})["id"].(string)
	doJSON(t, router, "POST", "/api/v1/admin/registrations/"+requestID+"/approve", ownerToken, nil)

	w = doJSON(t, router, "POST", "/api/v1/auth/login", "", gin.H{
		"email": "admin@example.com", "password": "adminpass",
	})
	adminToken := decode(t, w)["token"].(string)

	var restaurant models.Restaurant
	if err := db.First(&restaurant).Error; err != nil {
		t.Fatalf("load restaurant: %v", err)
	}
	base := fmt.Sprintf("/api/v1/restaurants/%s", restaurant.ID)

	// Admin creates a menu item and a table
	w = doJSON(t, router, "POST", base+"/menu", adminToken, gin.H{
		"name": "Paneer Tikka", "category": "Starters", "price": 250,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create menu item status = %d, body = %s", w.Code, w.Body.String())
	}
	itemID := decode(t, w)["item"].(map[string]interface{})["id"].(string)

	w = doJSON(t, router, "POST", base+"/tables", adminToken, gin.H{"number": 1})
	if w.Code != http.StatusCreated {
		t.Fatalf("create table status = %d, body = %s", w.Code, w.Body.String())
	}

	// Guests browse the menu without a token
	storefront := fmt.Sprintf("/api/v1/storefront/%s", restaurant.ID)
	w = doJSON(t, router, "GET", storefront+"/menu", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("storefront menu status = %d, body = %s", w.Code, w.Body.String())
	}
	items := decode(t, w)["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("storefront items = %d, want 1", len(items))
	}

	// Guest places an order
	w = doJSON(t, router, "POST", storefront+"/orders", "", gin.H{
		"table_number": 1,
		"items":        []gin.H{{"menu_item_id": itemID, "quantity": 2}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("place order status = %d, body = %s", w.Code, w.Body.String())
	}
	order := decode(t, w)["order"].(map[string]interface{})
	if order["total"].(float64) != 500 {
		t.Errorf("order total = %v, want 500", order["total"])
	}

	// The order shows up on the dashboard
	w = doJSON(t, router, "GET", base+"/orders", adminToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list orders status = %d", w.Code)
	}
	orders := decode(t, w)["orders"].([]interface{})
	if len(orders) != 1 {
		t.Fatalf("orders = %d, want 1", len(orders))
	}

	// A garbage token cannot touch the dashboard
	w = doJSON(t, router, "GET", base+"/orders", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", w.Code)
	}
}
