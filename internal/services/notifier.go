package services

import "taskboard/backend/internal/models"

// Notifier is told about every notification after the transaction that
// created it has committed.
type Notifier interface {
	NotificationCreated(notification models.Notification)
}

type NopNotifier struct{}

func (NopNotifier) NotificationCreated(models.Notification) {}
