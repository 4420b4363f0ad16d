package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/models"
)

// ErrNotificationNotFound is returned when a notification is not found
var ErrNotificationNotFound = errors.New("notification not found")

// ErrClosed is returned by Enqueue and Dequeue after Close. Workers treat
// it as a shutdown signal, not a delivery error.
var ErrClosed = errors.New("queue is closed")

// Queue carries pending outbound notifications from request handlers to
// the delivery worker. Enqueueing is fire-and-forget from the caller's
// perspective: the request that produced the notification has already
// committed by the time anything here can fail.
type Queue interface {
	// Enqueue adds a notification to the queue
	Enqueue(ctx context.Context, n *models.Notification) error

	// Dequeue retrieves the next notification from the queue
	Dequeue(ctx context.Context) (*models.Notification, error)

	// Complete marks a notification as sent
	Complete(ctx context.Context, id uuid.UUID) error

	// Fail marks a notification as failed with the delivery error
	Fail(ctx context.Context, id uuid.UUID, errorMsg string) error

	// Close closes the queue and releases resources
	Close() error
}
