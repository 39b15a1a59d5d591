package services

import (
	"errors"

	"taskboard/backend/internal/models"

	"gorm.io/gorm"
)

// requireLead loads userID and returns denied unless the user exists with the
// lead role. Assignment and approval both authorize through here.
func requireLead(db *gorm.DB, userID *uint, denied error) (*models.User, error) {
	if userID == nil {
		return nil, denied
	}

	var user models.User
	if err := db.First(&user, *userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, denied
		}
		return nil, err
	}

	if !user.IsLead() {
		return nil, denied
	}
	return &user, nil
}
