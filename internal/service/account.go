package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/audit"
	"github.com/qrplate/qrplate/internal/auth"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/queue"
	"github.com/qrplate/qrplate/internal/rbac"
	"gorm.io/gorm"
)

const (
	minPasswordLength = 6
	resetTokenTTL     = time.Hour
)

// TokenIssuer issues a session token for an already-authenticated account.
type TokenIssuer interface {
	GenerateToken(account *models.Account) (string, error)
}

// AccountService contains the business logic for registration, the
// approval workflow and account management. baseURL is the public
// address password reset links point at.
type AccountService struct {
	db      *gorm.DB
	queue   queue.Queue
	issuer  TokenIssuer
	baseURL string
}

// NewAccountService creates a new AccountService.
func NewAccountService(db *gorm.DB, q queue.Queue, issuer TokenIssuer, baseURL string) *AccountService {
	return &AccountService{db: db, queue: q, issuer: issuer, baseURL: strings.TrimRight(baseURL, "/")}
}

// RegisterRequest carries a signup submission.
type RegisterRequest struct {
	Name           string
	Email          string
	Password       string
	Role           models.Role
	RestaurantName string
	Location       string
}

// RegisterResponse is the outcome of a successful registration. Token is
// only set for platform-owner signups; restaurant admins must wait for
// approval before they can log in.
type RegisterResponse struct {
	Account *models.Account
	Token   string
}

// Register creates an account. Platform owners are approved immediately
// and receive a session token. Restaurant admins are stored pending with
// a paired approval request, and every platform owner is notified.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" || req.Email == "" {
		return nil, &ValidationError{Message: "name and email are required"}
	}
	if len(req.Password) < minPasswordLength {
		return nil, &ValidationError{Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}
	if req.Role != models.RolePlatformOwner && req.Role != models.RoleRestaurantAdmin {
		return nil, &ValidationError{Message: "role must be 'platform-owner' or 'restaurant-admin'"}
	}
	if req.Role == models.RoleRestaurantAdmin && strings.TrimSpace(req.RestaurantName) == "" {
		return nil, &ValidationError{Message: "restaurant name is required for restaurant-admin registrations"}
	}

	var count int64
	if err := s.db.Model(&models.Account{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check existing account: %w", err)
	}
	if count > 0 {
		return nil, ErrDuplicateAccount
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := models.Account{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
	}

	switch req.Role {
	case models.RolePlatformOwner:
		account.Role = models.RolePlatformOwner
		account.Status = models.AccountStatusApproved
	case models.RoleRestaurantAdmin:
		account.Role = models.RolePendingRestaurantAdmin
		account.Status = models.AccountStatusPending
		account.RestaurantName = strings.TrimSpace(req.RestaurantName)
		account.Location = strings.TrimSpace(req.Location)
	}

	// The account and its approval request are created together or not
	// at all.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint") {
				return ErrDuplicateAccount
			}
			return fmt.Errorf("create account: %w", err)
		}

		if account.Role == models.RolePendingRestaurantAdmin {
			request := models.ApprovalRequest{
				AccountID:      account.ID,
				Name:           account.Name,
				Email:          account.Email,
				RestaurantName: account.RestaurantName,
				Location:       account.Location,
				Status:         models.RequestStatusPending,
			}
			if err := tx.Create(&request).Error; err != nil {
				return fmt.Errorf("create approval request: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := &RegisterResponse{Account: &account}

	if account.Role == models.RolePlatformOwner {
		token, err := s.activateOwner(&account)
		if err != nil {
			// Undo the committed signup so a retry does not collide
			// with a half-created account
			s.undoSignup(ctx, &account)
			return nil, err
		}
		resp.Token = token
	} else {
		// Best-effort: notification failures never fail the registration.
		s.notifyOwnersOfRegistration(ctx, &account)
	}

	audit.LogAction(s.db, account.ID, audit.ActionRegister, fmt.Sprintf("account:%s", account.ID), map[string]interface{}{
		"email": account.Email,
		"role":  account.Role,
	})

	slog.Info("Account registered", "account_id", account.ID, "role", account.Role, "status", account.Status)
	return resp, nil
}

// activateOwner grants the platform-owner policy and issues the first
// session token for a freshly registered owner account.
func (s *AccountService) activateOwner(account *models.Account) (string, error) {
	if err := rbac.MakePlatformOwner(account.ID); err != nil {
		return "", fmt.Errorf("grant platform-owner policy: %w", err)
	}
	token, err := s.issuer.GenerateToken(account)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return token, nil
}

// undoSignup removes an account whose post-commit activation failed.
// The row is hard-deleted so the email is immediately reusable.
func (s *AccountService) undoSignup(ctx context.Context, account *models.Account) {
	if err := rbac.RevokePlatformOwner(account.ID); err != nil {
		slog.Error("Failed to revoke policy while undoing signup", "account_id", account.ID, "error", err)
	}
	if err := s.db.WithContext(ctx).Unscoped().Delete(&models.Account{}, "id = ?", account.ID).Error; err != nil {
		slog.Error("Failed to undo signup", "account_id", account.ID, "error", err)
	}
}

// RecordLogin writes the login audit entry.
func (s *AccountService) RecordLogin(account *models.Account) {
	audit.LogAction(s.db, account.ID, audit.ActionLogin, fmt.Sprintf("account:%s", account.ID), map[string]interface{}{
		"role": account.Role,
	})
}

// ListPendingRequests returns all approval requests awaiting resolution,
// oldest first.
func (s *AccountService) ListPendingRequests(ctx context.Context) ([]models.ApprovalRequest, error) {
	var requests []models.ApprovalRequest
	if err := s.db.WithContext(ctx).
		Where("status = ?", models.RequestStatusPending).
		Order("created_at ASC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// GetRequestByAccount returns the approval request paired with an account.
func (s *AccountService) GetRequestByAccount(ctx context.Context, accountID uuid.UUID) (*models.ApprovalRequest, error) {
	var request models.ApprovalRequest
	if err := s.db.WithContext(ctx).Where("account_id = ?", accountID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

// Approve resolves a pending approval request in the applicant's favor:
// the account is promoted to restaurant-admin and can log in, and a
// restaurant record is created from the signup snapshot.
func (s *AccountService) Approve(ctx context.Context, requestID uuid.UUID, resolver *models.Account) (*models.ApprovalRequest, error) {
	request, restaurantID, err := s.resolve(ctx, requestID, resolver, models.RequestStatusApproved, "")
	if err != nil {
		return nil, err
	}

	if err := rbac.GrantRestaurantAccess(request.AccountID, restaurantID); err != nil {
		slog.Error("Failed to grant restaurant access", "account_id", request.AccountID, "error", err)
	}

	s.notifyApplicant(ctx, request, models.NotificationTypeApproved, "")

	audit.LogAction(s.db, resolver.ID, audit.ActionApproveRegistration, fmt.Sprintf("request:%s", request.ID), map[string]interface{}{
		"account_id": request.AccountID,
		"restaurant": request.RestaurantName,
	})

	return request, nil
}

// Reject resolves a pending approval request against the applicant. The
// account keeps its unpromoted role and can never obtain a session token.
func (s *AccountService) Reject(ctx context.Context, requestID uuid.UUID, resolver *models.Account, reason string) (*models.ApprovalRequest, error) {
	request, _, err := s.resolve(ctx, requestID, resolver, models.RequestStatusRejected, reason)
	if err != nil {
		return nil, err
	}

	s.notifyApplicant(ctx, request, models.NotificationTypeRejected, reason)

	audit.LogAction(s.db, resolver.ID, audit.ActionRejectRegistration, fmt.Sprintf("request:%s", request.ID), map[string]interface{}{
		"account_id": request.AccountID,
		"reason":     reason,
	})

	return request, nil
}

// resolve performs the atomic state transition shared by Approve and
// Reject. The request row is claimed with a compare-and-set on its
// pending status, so of two concurrent resolutions exactly one wins and
// the other observes ErrAlreadyResolved. Account and request move in the
// same transaction: both reflect the outcome or neither does.
func (s *AccountService) resolve(ctx context.Context, requestID uuid.UUID, resolver *models.Account, outcome models.RequestStatus, reason string) (*models.ApprovalRequest, uuid.UUID, error) {
	var request models.ApprovalRequest
	if err := s.db.WithContext(ctx).Where("id = ?", requestID).First(&request).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, uuid.Nil, ErrNotFound
		}
		return nil, uuid.Nil, err
	}

	var restaurantID uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&models.ApprovalRequest{}).
			Where("id = ? AND status = ?", requestID, models.RequestStatusPending).
			Updates(map[string]interface{}{
				"status":         outcome,
				"reason":         reason,
				"resolved_by_id": resolver.ID,
				"resolved_at":    now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyResolved
		}

		accountUpdates := map[string]interface{}{}
		switch outcome {
		case models.RequestStatusApproved:
			accountUpdates["status"] = models.AccountStatusApproved
			accountUpdates["role"] = models.RoleRestaurantAdmin
		case models.RequestStatusRejected:
			accountUpdates["status"] = models.AccountStatusRejected
		}

		if err := tx.Model(&models.Account{}).
			Where("id = ?", request.AccountID).
			Updates(accountUpdates).Error; err != nil {
			return fmt.Errorf("update account: %w", err)
		}

		if outcome == models.RequestStatusApproved {
			restaurant := models.Restaurant{
				Name:    request.RestaurantName,
				OwnerID: request.AccountID,
				Email:   request.Email,
				Address: request.Location,
				Status:  models.RestaurantStatusTrial,
			}
			trialEnd := now.Add(14 * 24 * time.Hour)
			restaurant.TrialEndsAt = &trialEnd
			if err := tx.Create(&restaurant).Error; err != nil {
				return fmt.Errorf("create restaurant: %w", err)
			}
			restaurantID = restaurant.ID
		}

		return nil
	})
	if err != nil {
		return nil, uuid.Nil, err
	}

	// Reload the resolved row for the response
	if err := s.db.WithContext(ctx).Where("id = ?", requestID).First(&request).Error; err != nil {
		return nil, uuid.Nil, err
	}
	return &request, restaurantID, nil
}

// GetAccount returns one account by ID.
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// AccountFilter narrows ListAccounts.
type AccountFilter struct {
	Role   models.Role
	Status models.AccountStatus
}

// ListAccounts returns accounts for the platform console, newest first.
func (s *AccountService) ListAccounts(ctx context.Context, filter AccountFilter) ([]models.Account, error) {
	query := s.db.WithContext(ctx).Model(&models.Account{})
	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var accounts []models.Account
	if err := query.Order("created_at DESC").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// SetAccountStatus suspends or reinstates a restaurant-admin account.
// Suspension blocks login until the account is set back to approved.
// Pending and rejected accounts go through the approval workflow and
// cannot be toggled here.
func (s *AccountService) SetAccountStatus(ctx context.Context, id uuid.UUID, actor *models.Account, status models.AccountStatus) (*models.Account, error) {
	if status != models.AccountStatusApproved && status != models.AccountStatusSuspended {
		return nil, &ValidationError{Message: "status must be 'approved' or 'suspended'"}
	}

	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if account.Role == models.RolePlatformOwner {
		return nil, &ConflictError{Message: "platform-owner accounts cannot be suspended"}
	}
	if account.Status != models.AccountStatusApproved && account.Status != models.AccountStatusSuspended {
		return nil, &ConflictError{Message: "account has an unresolved registration, resolve its approval request instead"}
	}

	if err := s.db.WithContext(ctx).Model(account).Update("status", status).Error; err != nil {
		return nil, err
	}
	account.Status = status

	audit.LogAction(s.db, actor.ID, audit.ActionUpdateAccount, fmt.Sprintf("account:%s", id), map[string]interface{}{
		"status": status,
	})

	return account, nil
}

// DeleteAccount removes an account from the platform. The account's
// restaurants must be deleted first; self-deletion and platform-owner
// deletion are refused.
func (s *AccountService) DeleteAccount(ctx context.Context, id uuid.UUID, actor *models.Account) error {
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	if account.ID == actor.ID {
		return &ConflictError{Message: "cannot delete your own account"}
	}
	if account.Role == models.RolePlatformOwner {
		return &ConflictError{Message: "platform-owner accounts cannot be deleted"}
	}

	var owned int64
	if err := s.db.WithContext(ctx).Model(&models.Restaurant{}).Where("owner_id = ?", id).Count(&owned).Error; err != nil {
		return err
	}
	if owned > 0 {
		return &ConflictError{Message: fmt.Sprintf("account still owns %d restaurant(s), delete them first", owned)}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", id).Delete(&models.ApprovalRequest{}).Error; err != nil {
			return fmt.Errorf("delete approval request: %w", err)
		}
		if err := tx.Delete(account).Error; err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Revoke any leftover policies; access checks already fail for a
	// deleted account, so failures here are only logged
	if ids, err := rbac.GetManagedRestaurantIDs(id); err == nil {
		for _, restaurantID := range ids {
			if err := rbac.RevokeRestaurantAccess(id, restaurantID); err != nil {
				slog.Error("Failed to revoke restaurant access", "account_id", id, "error", err)
			}
		}
	}

	audit.LogAction(s.db, actor.ID, audit.ActionDeleteAccount, fmt.Sprintf("account:%s", id), map[string]interface{}{
		"email": account.Email,
		"role":  account.Role,
	})

	return nil
}

// ForgotPassword issues a reset token for the account behind email and
// mails a link containing it. Only the token's digest is stored.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	var account models.Account
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)
	digest := sha256.Sum256([]byte(token))
	expires := time.Now().UTC().Add(resetTokenTTL)

	if err := s.db.WithContext(ctx).Model(&account).Updates(map[string]interface{}{
		"reset_token_hash":    hex.EncodeToString(digest[:]),
		"reset_token_expires": expires,
	}).Error; err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/admin/reset-password?token=%s", s.baseURL, token)
	body := fmt.Sprintf(
		"<h2>Password Reset Request</h2>"+
			"<p>You requested to reset your password. Click the link below:</p>"+
			"<p><a href=%q>Reset Password</a></p>"+
			"<p>This link expires in 1 hour.</p>"+
			"<p>If you didn't request this, please ignore this email.</p>",
		resetURL)
	s.enqueueNotification(ctx, models.NotificationTypePasswordReset, account.Email, "Password Reset Request", body)

	return nil
}

// ResetPassword consumes a reset token and sets a new password. The
// token is single-use: its digest is cleared on success.
func (s *AccountService) ResetPassword(ctx context.Context, token, password string) error {
	if len(password) < minPasswordLength {
		return &ValidationError{Message: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}

	digest := sha256.Sum256([]byte(token))
	var account models.Account
	if err := s.db.WithContext(ctx).
		Where("reset_token_hash = ? AND reset_token_expires > ?", hex.EncodeToString(digest[:]), time.Now().UTC()).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationError{Message: "invalid or expired reset token"}
		}
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(&account).Updates(map[string]interface{}{
		"password_hash":       hash,
		"reset_token_hash":    "",
		"reset_token_expires": nil,
	}).Error; err != nil {
		return err
	}

	audit.LogAction(s.db, account.ID, audit.ActionResetPassword, fmt.Sprintf("account:%s", account.ID), nil)

	return nil
}

// notifyOwnersOfRegistration enqueues a notification for every platform
// owner. Errors are logged and dropped.
func (s *AccountService) notifyOwnersOfRegistration(ctx context.Context, account *models.Account) {
	var owners []models.Account
	if err := s.db.WithContext(ctx).Where("role = ?", models.RolePlatformOwner).Find(&owners).Error; err != nil {
		slog.Error("Failed to list platform owners for notification", "error", err)
		return
	}

	subject := "New restaurant registration awaiting approval"
	body := fmt.Sprintf(
		"<h2>New Registration Request</h2>"+
			"<p>A new restaurant admin has registered and needs approval:</p>"+
			"<ul><li><strong>Name:</strong> %s</li>"+
			"<li><strong>Email:</strong> %s</li>"+
			"<li><strong>Restaurant:</strong> %s</li>"+
			"<li><strong>Location:</strong> %s</li></ul>"+
			"<p>Please review the request in the platform console.</p>",
		account.Name, account.Email, account.RestaurantName, account.Location)

	for _, owner := range owners {
		s.enqueueNotification(ctx, models.NotificationTypeRegistration, owner.Email, subject, body)
	}
}

// notifyApplicant enqueues the approval/rejection outcome email.
func (s *AccountService) notifyApplicant(ctx context.Context, request *models.ApprovalRequest, typ models.NotificationType, reason string) {
	var subject, body string
	switch typ {
	case models.NotificationTypeApproved:
		subject = "Your restaurant registration was approved"
		body = fmt.Sprintf(
			"<h2>Welcome aboard!</h2>"+
				"<p>Your registration for <strong>%s</strong> has been approved. You can now log in and set up your menu.</p>",
			request.RestaurantName)
	case models.NotificationTypeRejected:
		subject = "Your restaurant registration was rejected"
		body = fmt.Sprintf(
			"<h2>Registration update</h2>"+
				"<p>Your registration for <strong>%s</strong> was not approved.</p>",
			request.RestaurantName)
		if reason != "" {
			body += fmt.Sprintf("<p>Reason: %s</p>", reason)
		}
	}

	s.enqueueNotification(ctx, typ, request.Email, subject, body)
}

// enqueueNotification persists and queues one notification, logging any
// failure instead of returning it.
func (s *AccountService) enqueueNotification(ctx context.Context, typ models.NotificationType, recipient, subject, body string) {
	n := models.Notification{
		Type:      typ,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Status:    models.NotificationStatusPending,
	}
	if err := s.db.WithContext(ctx).Create(&n).Error; err != nil {
		slog.Error("Failed to persist notification", "recipient", recipient, "error", err)
		return
	}
	if err := s.queue.Enqueue(ctx, &n); err != nil {
		slog.Error("Failed to enqueue notification", "notification_id", n.ID, "error", err)
	}
}
