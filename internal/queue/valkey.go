package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/valkey-io/valkey-go"
	"gorm.io/gorm"
)

// ValkeyQueue implements a distributed notification queue using Valkey.
// Valkey carries notification IDs only; the database is the source of truth.
type ValkeyQueue struct {
	client valkey.Client
	db     *gorm.DB
	key    string // Queue key: "qrplate:notifications"
}

// NewValkeyQueue creates a new Valkey-backed queue
func NewValkeyQueue(addr string, db *gorm.DB) (*ValkeyQueue, error) {
	if db == nil {
		return nil, fmt.Errorf("database instance is required for Valkey queue")
	}

	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{addr},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pingCmd := client.B().Ping().Build()
	if err := client.Do(ctx, pingCmd).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Valkey: %w", err)
	}

	q := &ValkeyQueue{
		client: client,
		db:     db,
		key:    "qrplate:notifications",
	}

	slog.Info("Initialized Valkey notification queue", "address", addr, "queue_key", q.key)
	return q, nil
}

// Enqueue persists the notification and pushes its ID to the Valkey list.
func (q *ValkeyQueue) Enqueue(ctx context.Context, n *models.Notification) error {
	if n.ID == uuid.Nil {
		return fmt.Errorf("notification must have an ID")
	}

	// Save to database first (source of truth)
	if err := q.db.WithContext(ctx).Save(n).Error; err != nil {
		return fmt.Errorf("failed to save notification to database: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"id":   n.ID.String(),
		"type": string(n.Type),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification data: %w", err)
	}

	// Push to Valkey list (RPUSH for FIFO)
	cmd := q.client.B().Rpush().Key(q.key).Element(string(payload)).Build()
	if err := q.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to push notification to Valkey: %w", err)
	}

	slog.Debug("Notification enqueued", "notification_id", n.ID, "type", n.Type)
	return nil
}

// Dequeue blocks on the Valkey list and loads the full notification from
// the database.
func (q *ValkeyQueue) Dequeue(ctx context.Context) (*models.Notification, error) {
	// BLPOP with 5 second timeout
	cmd := q.client.B().Blpop().Key(q.key).Timeout(5).Build()
	result := q.client.Do(ctx, cmd)

	values, err := result.AsStrSlice()
	if err != nil {
		if errors.Is(err, valkey.ErrClosing) {
			return nil, ErrClosed
		}
		// BLPOP timeout (valkey nil message): queue is empty
		return nil, context.DeadlineExceeded
	}
	if len(values) < 2 {
		return nil, fmt.Errorf("invalid BLPOP result: expected 2 values, got %d", len(values))
	}

	var payload map[string]string
	if err := json.Unmarshal([]byte(values[1]), &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification data: %w", err)
	}

	id, err := uuid.Parse(payload["id"])
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification ID: %w", err)
	}

	var n models.Notification
	if err := q.db.WithContext(ctx).First(&n, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch notification from database: %w", err)
	}

	slog.Debug("Notification dequeued", "notification_id", n.ID, "type", n.Type)
	return &n, nil
}

// Complete marks a notification as sent in the database.
func (q *ValkeyQueue) Complete(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	result := q.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  models.NotificationStatusSent,
			"sent_at": &now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}

	slog.Info("Notification sent", "notification_id", id)
	return nil
}

// Fail marks a notification as failed in the database.
func (q *ValkeyQueue) Fail(ctx context.Context, id uuid.UUID, errorMsg string) error {
	result := q.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status": models.NotificationStatusFailed,
			"error":  errorMsg,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}

	slog.Error("Notification failed", "notification_id", id, "error", errorMsg)
	return nil
}

// GetClient returns the underlying Valkey client
func (q *ValkeyQueue) GetClient() valkey.Client {
	return q.client
}

// Close closes the Valkey connection
func (q *ValkeyQueue) Close() error {
	q.client.Close()
	slog.Info("Valkey queue closed")
	return nil
}
