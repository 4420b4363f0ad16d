package service

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/queue"
	"github.com/qrplate/qrplate/internal/rbac"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testSetup creates an in-memory DB, migrates models, initializes RBAC,
// and returns an AccountService ready for testing.
func testSetup(t *testing.T) (*AccountService, *gorm.DB) {
	t.Helper()

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

	// RBAC enforcer is global — initialize per test
	if err := rbac.InitEnforcer(db, slog.Default()); err != nil {
		t.Fatalf("init rbac: %v", err)
	}

	q := queue.NewMemoryQueue(100)
	t.Cleanup(func() { q.Close() })

	authenticator := auth.NewBasicAuthenticator(db, "test-secret", 0)
	return NewAccountService(db, q, authenticator, "https://qrplate.example.com"), db
}

func registerOwner(t *testing.T, svc *AccountService, email string) *RegisterResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Owner",
		Email:    email,
		Password: "ownerpass",
		Role:     models.RolePlatformOwner,
	})
	if err != nil {
		t.Fatalf("register owner: %v", err)
	}
	return resp
}

func registerAdmin(t *testing.T, svc *AccountService, email string) *RegisterResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:           "Admin",
		Email:          email,
		Password:       "adminpass",
		Role:           models.RoleRestaurantAdmin,
		RestaurantName: "Spice Garden",
		Location:       "Pune",
	})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	return resp
}

func pendingRequest(t *testing.T, db *gorm.DB, accountID uuid.UUID) *models.ApprovalRequest {
	t.Helper()
	var request models.ApprovalRequest
	if err := db.Where("account_id = ?", accountID).First(&request).Error; err != nil {
		t.Fatalf("load approval request: %v", err)
	}
	return &request
}

func TestRegisterPlatformOwner(t *testing.T) {
	svc, db := testSetup(t)

	resp := registerOwner(t, svc, "owner@example.com")

	if resp.Token == "" {
		t.Error("expected platform owner to receive a token at registration")
	}
	if resp.Account.Role != models.RolePlatformOwner {
		t.Errorf("role = %s, want %s", resp.Account.Role, models.RolePlatformOwner)
	}
	if resp.Account.Status != models.AccountStatusApproved {
		t.Errorf("status = %s, want approved", resp.Account.Status)
	}
	if resp.Account.PasswordHash == "ownerpass" {
		t.Error("password stored in plaintext")
	}
	if !auth.VerifyPassword(resp.Account.PasswordHash, "ownerpass") {
		t.Error("stored hash does not verify against the original password")
	}

	// No approval request for platform owners
	var count int64
	db.Model(&models.ApprovalRequest{}).Count(&count)
	if count != 0 {
		t.Errorf("approval requests = %d, want 0", count)
	}

	owner, err := rbac.IsPlatformOwner(resp.Account.ID)
	if err != nil {
		t.Fatalf("rbac check: %v", err)
	}
	if !owner {
		t.Error("expected platform-owner policy to be granted")
	}
}

func TestRegisterRestaurantAdminIsPending(t *testing.T) {
	svc, db := testSetup(t)
	registerOwner(t, svc, "owner@example.com")

	resp := registerAdmin(t, svc, "admin@example.com")

	if resp.Token != "" {
		t.Error("pending admin must not receive a token")
	}
	if resp.Account.Role != models.RolePendingRestaurantAdmin {
		t.Errorf("role = %s, want %s", resp.Account.Role, models.RolePendingRestaurantAdmin)
	}
	if resp.Account.Status != models.AccountStatusPending {
		t.Errorf("status = %s, want pending", resp.Account.Status)
	}

	request := pendingRequest(t, db, resp.Account.ID)
	if request.Status != models.RequestStatusPending {
		t.Errorf("request status = %s, want pending", request.Status)
	}
	if request.RestaurantName != "Spice Garden" {
		t.Errorf("restaurant name = %q, want snapshot of signup value", request.RestaurantName)
	}

	// One notification enqueued per platform owner
	var notifications []models.Notification
	db.Find(&notifications)
	if len(notifications) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifications))
	}
	if notifications[0].Recipient != "owner@example.com" {
		t.Errorf("recipient = %s, want owner@example.com", notifications[0].Recipient)
	}
	if notifications[0].Type != models.NotificationTypeRegistration {
		t.Errorf("type = %s, want registration", notifications[0].Type)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, db := testSetup(t)
	registerOwner(t, svc, "taken@example.com")

	// Same email in different casing must still collide
	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:           "Second",
		Email:          "TAKEN@Example.COM",
		Password:       "password",
		Role:           models.RoleRestaurantAdmin,
		RestaurantName: "Other Place",
	})
	if err != ErrDuplicateAccount {
		t.Fatalf("err = %v, want ErrDuplicateAccount", err)
	}

	var count int64
	db.Model(&models.Account{}).Count(&count)
	if count != 1 {
		t.Errorf("accounts = %d, want 1", count)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := testSetup(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"short password", RegisterRequest{Name: "A", Email: "a@b.com", Password: "12345", Role: models.RolePlatformOwner}},
		{"bad role", RegisterRequest{Name: "A", Email: "a@b.com", Password: "123456", Role: "waiter"}},
		{"admin without restaurant", RegisterRequest{Name: "A", Email: "a@b.com", Password: "123456", Role: models.RoleRestaurantAdmin}},
		{"missing name", RegisterRequest{Email: "a@b.com", Password: "123456", Role: models.RolePlatformOwner}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.req)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestApprovePromotesAccount(t *testing.T) {
	svc, db := testSetup(t)
	owner := registerOwner(t, svc, "owner@example.com")
	admin := registerAdmin(t, svc, "admin@example.com")
	request := pendingRequest(t, db, admin.Account.ID)

	resolved, err := svc.Approve(context.Background(), request.ID, owner.Account)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if resolved.Status != models.RequestStatusApproved {
		t.Errorf("request status = %s, want approved", resolved.Status)
	}
	if resolved.ResolvedByID == nil || *resolved.ResolvedByID != owner.Account.ID {
		t.Error("resolver not recorded")
	}
	if resolved.ResolvedAt == nil {
		t.Error("resolution timestamp not recorded")
	}

	var account models.Account
	if err := db.First(&account, "id = ?", admin.Account.ID).Error; err != nil {
		t.Fatalf("load account: %v", err)
	}
	if account.Role != models.RoleRestaurantAdmin {
		t.Errorf("role = %s, want restaurant-admin", account.Role)
	}
	if account.Status != models.AccountStatusApproved {
		t.Errorf("status = %s, want approved", account.Status)
	}

	// The restaurant record is created from the signup snapshot
	var restaurant models.Restaurant
	if err := db.First(&restaurant, "owner_id = ?", admin.Account.ID).Error; err != nil {
		t.Fatalf("load restaurant: %v", err)
	}
	if restaurant.Name != "Spice Garden" {
		t.Errorf("restaurant name = %q, want Spice Garden", restaurant.Name)
	}
	if restaurant.Status != models.RestaurantStatusTrial {
		t.Errorf("restaurant status = %s, want trial", restaurant.Status)
	}

	allowed, err := rbac.CanManageRestaurant(admin.Account.ID, restaurant.ID)
	if err != nil {
		t.Fatalf("rbac check: %v", err)
	}
	if !allowed {
		t.Error("expected manage policy on the new restaurant")
	}
}

func TestRejectKeepsAccountUnpromoted(t *testing.T) {
	svc, db := testSetup(t)
	owner := registerOwner(t, svc, "owner@example.com")
	admin := registerAdmin(t, svc, "admin@example.com")
	request := pendingRequest(t, db, admin.Account.ID)

	resolved, err := svc.Reject(context.Background(), request.ID, owner.Account, "incomplete details")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}

	if resolved.Status != models.RequestStatusRejected {
		t.Errorf("request status = %s, want rejected", resolved.Status)
	}
	if resolved.Reason != "incomplete details" {
		t.Errorf("reason = %q, want recorded", resolved.Reason)
	}

	var account models.Account
	db.First(&account, "id = ?", admin.Account.ID)
	if account.Role != models.RolePendingRestaurantAdmin {
		t.Errorf("role = %s, rejection must not promote", account.Role)
	}
	if account.Status != models.AccountStatusRejected {
		t.Errorf("status = %s, want rejected", account.Status)
	}

	// No restaurant is created on rejection
	var count int64
	db.Model(&models.Restaurant{}).Count(&count)
	if count != 0 {
		t.Errorf("restaurants = %d, want 0", count)
	}
}

func TestDoubleResolutionFirstWins(t *testing.T) {
	svc, db := testSetup(t)
	owner := registerOwner(t, svc, "owner@example.com")
	admin := registerAdmin(t, svc, "admin@example.com")
	request := pendingRequest(t, db, admin.Account.ID)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, request.ID, owner.Account); err != nil {
		t.Fatalf("first approve: %v", err)
	}

	// A later reject must lose and leave the approved state untouched
	if _, err := svc.Reject(ctx, request.ID, owner.Account, "changed my mind"); err != ErrAlreadyResolved {
		t.Fatalf("err = %v, want ErrAlreadyResolved", err)
	}

	var reloaded models.ApprovalRequest
	db.First(&reloaded, "id = ?", request.ID)
	if reloaded.Status != models.RequestStatusApproved {
		t.Errorf("request status = %s, losing resolution must not change state", reloaded.Status)
	}

	var account models.Account
	db.First(&account, "id = ?", admin.Account.ID)
	if account.Status != models.AccountStatusApproved {
		t.Errorf("account status = %s, losing resolution must not change state", account.Status)
	}

	// A repeated approve also reports the conflict
	if _, err := svc.Approve(ctx, request.ID, owner.Account); err != ErrAlreadyResolved {
		t.Fatalf("second approve err = %v, want ErrAlreadyResolved", err)
	}
}

func TestResolveUnknownRequest(t *testing.T) {
	svc, _ := testSetup(t)
	owner := registerOwner(t, svc, "owner@example.com")

	if _, err := svc.Approve(context.Background(), uuid.New(), owner.Account); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

type failingIssuer struct{}

func (failingIssuer) GenerateToken(*models.Account) (string, error) {
	return "", errors.New("sign: key unavailable")
}

func TestOwnerRegistrationUndoneWhenTokenFails(t *testing.T) {
	svc, db := testSetup(t)
	svc.issuer = failingIssuer{}

	_, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Owner",
		Email:    "owner@example.com",
		Password: "ownerpass",
		Role:     models.RolePlatformOwner,
	})
	if err == nil {
		t.Fatal("expected registration to fail when token issuance fails")
	}

	// The half-created account must be gone so a retry succeeds
	var count int64
	db.Unscoped().Model(&models.Account{}).Count(&count)
	if count != 0 {
		t.Fatalf("accounts = %d, want 0 after failed owner signup", count)
	}

	svc.issuer = auth.NewBasicAuthenticator(db, "test-secret", 0)
	if _, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Owner",
		Email:    "owner@example.com",
		Password: "ownerpass",
		Role:     models.RolePlatformOwner,
	}); err != nil {
		t.Fatalf("retry after failed signup: %v", err)
	}
}

func TestSuspendedAccountCannotLogin(t *testing.T) {
	svc, db := testSetup(t)
	ctx := context.Background()
	authenticator := auth.NewBasicAuthenticator(db, "test-secret", 0)

	owner := registerOwner(t, svc, "owner@example.com")
	admin := registerAdmin(t, svc, "admin@example.com")
	request := pendingRequest(t, db, admin.Account.ID)
	if _, err := svc.Approve(ctx, request.ID, owner.Account); err != nil {
		t.Fatalf("approve: %v", err)
	}

	suspended, err := svc.SetAccountStatus(ctx, admin.Account.ID, owner.Account, models.AccountStatusSuspended)
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if suspended.Status != models.AccountStatusSuspended {
		t.Errorf("status = %s, want suspended", suspended.Status)
	}
	if _, err := authenticator.Login("admin@example.com", "adminpass"); err != auth.ErrAccountNotApproved {
		t.Fatalf("login while suspended err = %v, want ErrAccountNotApproved", err)
	}

	// Reinstating restores login
	if _, err := svc.SetAccountStatus(ctx, admin.Account.ID, owner.Account, models.AccountStatusApproved); err != nil {
		t.Fatalf("reinstate: %v", err)
	}
	if _, err := authenticator.Login("admin@example.com", "adminpass"); err != nil {
		t.Fatalf("login after reinstatement: %v", err)
	}
}

func TestSetAccountStatusGuards(t *testing.T) {
	svc, db := testSetup(t)
	ctx := context.Background()

	owner := registerOwner(t, svc, "owner@example.com")
	admin := registerAdmin(t, svc, "admin@example.com")

	var conflictErr *ConflictError
	var validationErr *ValidationError

	// Platform owners cannot be suspended
	_, err := svc.SetAccountStatus(ctx, owner.Account.ID, owner.Account, models.AccountStatusSuspended)
	if !errors.As(err, &conflictErr) {
		t.Fatalf("suspend owner err = %v, want ConflictError", err)
	}

	// A pending registration is resolved through its approval request
	_, err = svc.SetAccountStatus(ctx, admin.Account.ID, owner.Account, models.AccountStatusSuspended)
	if !errors.As(err, &conflictErr) {
		t.Fatalf("suspend pending admin err = %v, want ConflictError", err)
	}

	// Only approved and suspended are valid targets
	request := pendingRequest(t, db, admin.Account.ID)
	if _, err := svc.Approve(ctx, request.ID, owner.Account); err != nil {
		t.Fatalf("approve: %v", err)
	}
	_, err = svc.SetAccountStatus(ctx, admin.Account.ID, owner.Account, models.AccountStatusRejected)
	if !errors.As(err, &validationErr) {
		t.Fatalf("bad status err = %v, want ValidationError", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	svc, db := testSetup(t)
	ctx := context.Background()

	owner := registerOwner(t, svc, "owner@example.com")
	admin := registerAdmin(t, svc, "admin@example.com")
	request := pendingRequest(t, db, admin.Account.ID)
	if _, err := svc.Approve(ctx, request.ID, owner.Account); err != nil {
		t.Fatalf("approve: %v", err)
	}

	var conflictErr *ConflictError

	// Owners cannot delete themselves or other platform owners
	if err := svc.DeleteAccount(ctx, owner.Account.ID, owner.Account); !errors.As(err, &conflictErr) {
		t.Fatalf("self delete err = %v, want ConflictError", err)
	}

	// Blocked while the account still owns a restaurant
	if err := svc.DeleteAccount(ctx, admin.Account.ID, owner.Account); !errors.As(err, &conflictErr) {
		t.Fatalf("delete with restaurant err = %v, want ConflictError", err)
	}

	var restaurant models.Restaurant
	if err := db.First(&restaurant, "owner_id = ?", admin.Account.ID).Error; err != nil {
		t.Fatalf("load restaurant: %v", err)
	}
	if err := db.Delete(&restaurant).Error; err != nil {
		t.Fatalf("delete restaurant: %v", err)
	}

	if err := svc.DeleteAccount(ctx, admin.Account.ID, owner.Account); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	if _, err := svc.GetAccount(ctx, admin.Account.ID); err != ErrNotFound {
		t.Errorf("get deleted account err = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetRequestByAccount(ctx, admin.Account.ID); err != ErrNotFound {
		t.Errorf("approval request survived account deletion: %v", err)
	}

	allowed, err := rbac.CanManageRestaurant(admin.Account.ID, restaurant.ID)
	if err != nil {
		t.Fatalf("rbac check: %v", err)
	}
	if allowed {
		t.Error("manage policy survived account deletion")
	}
}

func TestListAccountsFilters(t *testing.T) {
	svc, _ := testSetup(t)
	ctx := context.Background()

	registerOwner(t, svc, "owner@example.com")
	registerAdmin(t, svc, "admin@example.com")

	all, err := svc.ListAccounts(ctx, AccountFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("accounts = %d, want 2", len(all))
	}

	pending, err := svc.ListAccounts(ctx, AccountFilter{Status: models.AccountStatusPending})
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 || pending[0].Email != "admin@example.com" {
		t.Fatalf("pending = %v, want just the unapproved admin", pending)
	}
}

// resetTokenFromNotification digs the raw token out of the queued reset
// email.
func resetTokenFromNotification(t *testing.T, db *gorm.DB, recipient string) string {
	t.Helper()

	var n models.Notification
	if err := db.Where("type = ? AND recipient = ?", models.NotificationTypePasswordReset, recipient).
		Order("created_at DESC").First(&n).Error; err != nil {
		t.Fatalf("load reset notification: %v", err)
	}

	idx := strings.Index(n.Body, "token=")
	if idx < 0 {
		t.Fatalf("no token in reset email body: %q", n.Body)
	}
	token := n.Body[idx+len("token="):]
	if end := strings.IndexByte(token, '"'); end >= 0 {
		token = token[:end]
	}
	return token
}

func TestPasswordResetFlow(t *testing.T) {
	svc, db := testSetup(t)
	ctx := context.Background()
	authenticator := auth.NewBasicAuthenticator(db, "test-secret", 0)

	registerOwner(t, svc, "owner@example.com")

	if err := svc.ForgotPassword(ctx, "Owner@Example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	token := resetTokenFromNotification(t, db, "owner@example.com")

	if err := svc.ResetPassword(ctx, token, "freshsecret"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	if _, err := authenticator.Login("owner@example.com", "ownerpass"); err != auth.ErrInvalidCredentials {
		t.Fatalf("old password err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := authenticator.Login("owner@example.com", "freshsecret"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}

	// The token is single-use
	var validationErr *ValidationError
	if err := svc.ResetPassword(ctx, token, "anothersecret"); !errors.As(err, &validationErr) {
		t.Fatalf("token reuse err = %v, want ValidationError", err)
	}
}

func TestPasswordResetRejectsExpiredToken(t *testing.T) {
	svc, db := testSetup(t)
	ctx := context.Background()

	owner := registerOwner(t, svc, "owner@example.com")
	if err := svc.ForgotPassword(ctx, "owner@example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	token := resetTokenFromNotification(t, db, "owner@example.com")

	expired := time.Now().UTC().Add(-time.Minute)
	if err := db.Model(&models.Account{}).Where("id = ?", owner.Account.ID).
		Update("reset_token_expires", expired).Error; err != nil {
		t.Fatalf("expire token: %v", err)
	}

	var validationErr *ValidationError
	if err := svc.ResetPassword(ctx, token, "freshsecret"); !errors.As(err, &validationErr) {
		t.Fatalf("expired token err = %v, want ValidationError", err)
	}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	svc, _ := testSetup(t)

	if err := svc.ForgotPassword(context.Background(), "nobody@example.com"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestRegistrationWorkflowEndToEnd(t *testing.T) {
	svc, db := testSetup(t)
	ctx := context.Background()
	authenticator := auth.NewBasicAuthenticator(db, "test-secret", 0)

	owner := registerOwner(t, svc, "owner@example.com")
	admin := registerAdmin(t, svc, "admin@example.com")

	// Pending admin cannot log in
	if _, err := authenticator.Login("admin@example.com", "adminpass"); err != auth.ErrAccountNotApproved {
		t.Fatalf("login before approval err = %v, want ErrAccountNotApproved", err)
	}

	// Owner approves
	request := pendingRequest(t, db, admin.Account.ID)
	if _, err := svc.Approve(ctx, request.ID, owner.Account); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// Approved admin logs in with the promoted role
	result, err := authenticator.Login("admin@example.com", "adminpass")
	if err != nil {
		t.Fatalf("login after approval: %v", err)
	}
	if result.Account.Role != models.RoleRestaurantAdmin {
		t.Errorf("role after approval = %s, want restaurant-admin", result.Account.Role)
	}
	if result.Token == "" {
		t.Error("expected a token after approval")
	}

	// Outcome notification reached the applicant
	var approvedNote models.Notification
	if err := db.Where("type = ? AND recipient = ?", models.NotificationTypeApproved, "admin@example.com").
		First(&approvedNote).Error; err != nil {
		t.Errorf("approval notification not enqueued: %v", err)
	}
}
