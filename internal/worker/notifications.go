package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"taskboard/backend/internal/models"

	"gorm.io/gorm"
)

// NotificationPayload is the job body for a committed notification.
type NotificationPayload struct {
	NotificationID uint      `json:"notification_id"`
	UserID         uint      `json:"user_id"`
	TaskID         uint      `json:"task_id"`
	Message        string    `json:"message"`
	CreatedAt      time.Time `json:"created_at"`
}

// NotificationPublisher queues every committed notification for delivery.
// Queue failures are logged and never reach the caller.
type NotificationPublisher struct {
	jobs    *JobQueue
	breaker *CircuitBreaker
	queue   string
	timeout time.Duration
}

func NewNotificationPublisher(jobs *JobQueue, breaker *CircuitBreaker, queue string) *NotificationPublisher {
	if breaker == nil {
		breaker = NewCircuitBreaker(DefaultBreakerConfig())
	}
	return &NotificationPublisher{
		jobs:    jobs,
		breaker: breaker,
		queue:   queue,
		timeout: 2 * time.Second,
	}
}

func (p *NotificationPublisher) NotificationCreated(notification models.Notification) {
	payload := NotificationPayload{
		NotificationID: notification.ID,
		UserID:         notification.UserID,
		TaskID:         notification.TaskID,
		Message:        notification.Message,
		CreatedAt:      notification.CreatedAt,
	}

	err := p.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()

		_, err := p.jobs.Enqueue(ctx, p.queue, JobTypeNotificationDelivery, payload)
		return err
	})
	if err != nil {
		log.Printf("Failed to publish notification %d: %v", notification.ID, err)
	}
}

func (p *NotificationPublisher) Stats() map[string]interface{} {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	stats := p.jobs.Stats(ctx, p.queue)
	stats["breaker"] = p.breaker.Stats()
	return stats
}

// DeliverNotifications handles notification jobs. A notification removed
// since it was queued is skipped.
func DeliverNotifications(db *gorm.DB) JobHandler {
	return func(ctx context.Context, job *Job) error {
		var payload NotificationPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("invalid notification payload: %w", err)
		}

		var notification models.Notification
		err := db.WithContext(ctx).First(&notification, payload.NotificationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Notification %d no longer exists, skipping delivery", payload.NotificationID)
			return nil
		}
		if err != nil {
			return err
		}

		log.Printf("Delivered notification %d to user %d: %s", notification.ID, notification.UserID, notification.Message)
		return nil
	}
}
