package services

import (
	"taskboard/backend/internal/models"

	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"`
}

// UpdateUserRequest carries only the fields present in the payload.
type UpdateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
}

type UserService interface {
	GetUsers(db *gorm.DB) ([]models.User, error)
	GetMembers(db *gorm.DB) ([]models.User, error)
	GetUser(db *gorm.DB, id uint) (models.User, error)
	CreateUser(db *gorm.DB, req CreateUserRequest) (models.User, error)
	UpdateUser(db *gorm.DB, id uint, req UpdateUserRequest) (models.User, error)
	DeleteUser(db *gorm.DB, id uint) error
}

type UserServiceImpl struct{}

func NewUserService() *UserServiceImpl {
	return &UserServiceImpl{}
}

func (s *UserServiceImpl) GetUsers(db *gorm.DB) ([]models.User, error) {
	users := []models.User{}
	if err := db.Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserServiceImpl) GetMembers(db *gorm.DB) ([]models.User, error) {
	users := []models.User{}
	if err := db.Where("role = ?", models.RoleMember).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *UserServiceImpl) GetUser(db *gorm.DB, id uint) (models.User, error) {
	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		return models.User{}, notFoundAs(err, ErrUserNotFound)
	}
	return user, nil
}

func (s *UserServiceImpl) CreateUser(db *gorm.DB, req CreateUserRequest) (models.User, error) {
	if req.Role == "" {
		req.Role = models.RoleMember
	}
	if !models.IsValidRole(req.Role) {
		return models.User{}, ErrInvalidRole
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     req.Role,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateUser
			}
			return err
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *UserServiceImpl) UpdateUser(db *gorm.DB, id uint, req UpdateUserRequest) (models.User, error) {
	var user models.User

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&user, id).Error; err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}

		updates := map[string]interface{}{}
		if req.Username != nil {
			updates["username"] = *req.Username
		}
		if req.Email != nil {
			updates["email"] = *req.Email
		}
		if req.FullName != nil {
			updates["full_name"] = *req.FullName
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateUser
			}
			return err
		}
		user = models.User{}
		return tx.First(&user, id).Error
	})
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// DeleteUser removes the user together with the tasks it owns and every
// notification addressed to it or attached to those tasks. Tasks it merely
// assigned or received keep existing with the reference cleared.
func (s *UserServiceImpl) DeleteUser(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}

		var ownedTaskIDs []uint
		if err := tx.Model(&models.Task{}).Where("user_id = ?", id).Pluck("id", &ownedTaskIDs).Error; err != nil {
			return err
		}

		notifications := tx.Where("user_id = ?", id)
		if len(ownedTaskIDs) > 0 {
			notifications = tx.Where("user_id = ? OR task_id IN ?", id, ownedTaskIDs)
		}
		if err := notifications.Delete(&models.Notification{}).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Task{}).Where("assigned_to = ?", id).Update("assigned_to", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("assigned_by = ?", id).Update("assigned_by", nil).Error; err != nil {
			return err
		}

		return tx.Delete(&user).Error
	})
}
