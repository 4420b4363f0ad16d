package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/qrplate/qrplate/internal/mailer"
	"github.com/qrplate/qrplate/internal/models"
	"github.com/qrplate/qrplate/internal/queue"
	"gorm.io/gorm"
)

// Worker delivers queued notifications. Delivery failures are recorded
// and dropped; nothing here retries or reports back to the request that
// produced the notification.
type Worker struct {
	db         *gorm.DB
	queue      queue.Queue
	sender     mailer.Sender
	logger     *slog.Logger
	maxWorkers int
	semaphore  chan struct{}
	wg         sync.WaitGroup
}

// New creates a new worker instance
func New(db *gorm.DB, q queue.Queue, sender mailer.Sender, logger *slog.Logger) *Worker {
	maxWorkers := 10 // Allow up to 10 concurrent deliveries
	return &Worker{
		db:         db,
		queue:      q,
		sender:     sender,
		logger:     logger,
		maxWorkers: maxWorkers,
		semaphore:  make(chan struct{}, maxWorkers),
	}
}

// Start begins processing notifications from the queue
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Notification worker started", "max_concurrent_deliveries", w.maxWorkers)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Worker shutting down, waiting for deliveries to complete")
			w.wg.Wait()
			w.logger.Info("All deliveries completed, worker stopped")
			return ctx.Err()
		default:
			n, err := w.queue.Dequeue(ctx)
			if err != nil {
				// DeadlineExceeded means the queue is empty (normal timeout)
				if err == context.DeadlineExceeded {
					continue
				}
				// The queue was closed under us: drain in-flight
				// deliveries and stop
				if errors.Is(err, queue.ErrClosed) {
					w.logger.Info("Queue closed, worker stopping")
					w.wg.Wait()
					return nil
				}
				if ctx.Err() != nil {
					continue
				}
				w.logger.Error("Failed to dequeue notification", "error", err)
				time.Sleep(time.Second) // Backoff on real errors
				continue
			}

			if n == nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}

			// Acquire semaphore slot (blocks if max workers reached)
			select {
			case w.semaphore <- struct{}{}:
				w.wg.Add(1)
				go func(n *models.Notification) {
					defer w.wg.Done()
					defer func() { <-w.semaphore }()

					w.deliver(ctx, n)
				}(n)
			case <-ctx.Done():
				w.logger.Info("Context cancelled while waiting for worker slot")
				return ctx.Err()
			}
		}
	}
}

// deliver sends one notification and records the outcome.
func (w *Worker) deliver(ctx context.Context, n *models.Notification) {
	// Panic recovery so a bad message never takes the worker down
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Panic recovered in deliver", "notification_id", n.ID, "panic", r)
			w.markFailed(ctx, n, fmt.Sprintf("delivery panicked: %v", r))
		}
	}()

	w.logger.Debug("Delivering notification",
		"notification_id", n.ID,
		"type", n.Type,
		"recipient", n.Recipient)

	if err := w.sender.Send(ctx, n.Recipient, n.Subject, n.Body); err != nil {
		w.markFailed(ctx, n, err.Error())
		return
	}

	now := time.Now()
	if err := w.db.Model(&models.Notification{}).
		Where("id = ?", n.ID).
		Updates(map[string]interface{}{
			"status":  models.NotificationStatusSent,
			"sent_at": &now,
		}).Error; err != nil {
		w.logger.Error("Failed to record notification delivery", "notification_id", n.ID, "error", err)
	}

	if err := w.queue.Complete(ctx, n.ID); err != nil && err != queue.ErrNotificationNotFound {
		w.logger.Error("Failed to complete notification in queue", "notification_id", n.ID, "error", err)
	}

	w.logger.Info("Notification delivered", "notification_id", n.ID, "type", n.Type)
}

// markFailed records a failed delivery. Transient notification failures
// are logged and dropped, never retried.
func (w *Worker) markFailed(ctx context.Context, n *models.Notification, errorMsg string) {
	if err := w.db.Model(&models.Notification{}).
		Where("id = ?", n.ID).
		Updates(map[string]interface{}{
			"status": models.NotificationStatusFailed,
			"error":  errorMsg,
		}).Error; err != nil {
		w.logger.Error("Failed to record notification failure", "notification_id", n.ID, "error", err)
	}

	if err := w.queue.Fail(ctx, n.ID, errorMsg); err != nil && err != queue.ErrNotificationNotFound {
		w.logger.Error("Failed to mark notification failed in queue", "notification_id", n.ID, "error", err)
	}
}
