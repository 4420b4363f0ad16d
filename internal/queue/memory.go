package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qrplate/qrplate/internal/models"
)

// MemoryQueue implements an in-memory notification queue
type MemoryQueue struct {
	notifications map[uuid.UUID]*models.Notification
	ch            chan *models.Notification
	mu            sync.RWMutex
	closed        bool
}

// NewMemoryQueue creates a new in-memory queue
func NewMemoryQueue(bufferSize int) *MemoryQueue {
	if bufferSize <= 0 {
		bufferSize = 100
	}

	q := &MemoryQueue{
		notifications: make(map[uuid.UUID]*models.Notification),
		ch:            make(chan *models.Notification, bufferSize),
	}

	slog.Info("Initialized in-memory notification queue", "buffer_size", bufferSize)
	return q
}

// Enqueue adds a notification to the queue
func (q *MemoryQueue) Enqueue(ctx context.Context, n *models.Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if n.ID == uuid.Nil {
		return fmt.Errorf("notification must have an ID")
	}

	q.notifications[n.ID] = n

	// Send to channel (non-blocking with timeout)
	select {
	case q.ch <- n:
		slog.Debug("Notification enqueued", "notification_id", n.ID, "type", n.Type)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		return fmt.Errorf("queue is full, could not enqueue notification %s", n.ID)
	}
}

// Dequeue retrieves the next notification from the queue. Buffered
// notifications are drained after Close; once the channel is empty,
// Dequeue reports ErrClosed instead of a nil notification.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*models.Notification, error) {
	select {
	case n, ok := <-q.ch:
		if !ok {
			return nil, ErrClosed
		}
		slog.Debug("Notification dequeued", "notification_id", n.ID, "type", n.Type)
		return n, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Complete marks a notification as sent
func (q *MemoryQueue) Complete(ctx context.Context, id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	n, exists := q.notifications[id]
	if !exists {
		return ErrNotificationNotFound
	}

	n.Status = models.NotificationStatusSent
	now := time.Now()
	n.SentAt = &now

	slog.Info("Notification sent", "notification_id", id, "type", n.Type)
	return nil
}

// Fail marks a notification as failed
func (q *MemoryQueue) Fail(ctx context.Context, id uuid.UUID, errorMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	n, exists := q.notifications[id]
	if !exists {
		return ErrNotificationNotFound
	}

	n.Status = models.NotificationStatusFailed
	n.Error = errorMsg

	slog.Error("Notification failed", "notification_id", id, "type", n.Type, "error", errorMsg)
	return nil
}

// Close closes the queue and releases resources. Safe to call more
// than once.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.ch)

	slog.Info("Memory queue closed")
	return nil
}
