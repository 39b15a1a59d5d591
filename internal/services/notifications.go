package services

import (
	"taskboard/backend/internal/models"

	"gorm.io/gorm"
)

type NotificationService interface {
	GetNotifications(db *gorm.DB, userID uint) ([]models.Notification, error)
	MarkRead(db *gorm.DB, id uint) (models.Notification, error)
}

type NotificationServiceImpl struct{}

func NewNotificationService() *NotificationServiceImpl {
	return &NotificationServiceImpl{}
}

// GetNotifications lists a user's notifications newest first. The id breaks
// ties between rows created within the same clock tick.
func (s *NotificationServiceImpl) GetNotifications(db *gorm.DB, userID uint) ([]models.Notification, error) {
	notifications := []models.Notification{}
	err := db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *NotificationServiceImpl) MarkRead(db *gorm.DB, id uint) (models.Notification, error) {
	var notification models.Notification
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&notification, id).Error; err != nil {
			return notFoundAs(err, ErrNotificationNotFound)
		}

		if err := tx.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error; err != nil {
			return err
		}
		notification = models.Notification{}
		return tx.First(&notification, id).Error
	})
	if err != nil {
		return models.Notification{}, err
	}
	return notification, nil
}
