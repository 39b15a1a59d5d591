package services

import (
	"time"

	"taskboard/backend/internal/models"

	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	UserID      uint           `json:"user_id" binding:"required"`
	Title       string         `json:"title" binding:"required"`
	Description *string        `json:"description"`
	Priority    string         `json:"priority"`
	DueDate     OptionalString `json:"due_date"`
}

type AssignTaskRequest struct {
	Title       string         `json:"title" binding:"required"`
	AssignedTo  uint           `json:"assigned_to" binding:"required"`
	AssignedBy  uint           `json:"assigned_by" binding:"required"`
	Description *string        `json:"description"`
	Priority    string         `json:"priority"`
	DueDate     OptionalString `json:"due_date"`
}

type UpdateTaskRequest struct {
	Title       *string        `json:"title"`
	Description OptionalString `json:"description"`
	Completed   *bool          `json:"completed"`
	Priority    *string        `json:"priority"`
	DueDate     OptionalString `json:"due_date"`
}

type CompleteTaskRequest struct {
	Result *string `json:"result"`
}

type ApproveTaskRequest struct {
	UserID *uint `json:"user_id"`
}

// TaskFilter narrows a task listing; nil fields are ignored.
type TaskFilter struct {
	UserID     *uint
	AssignedTo *uint
	AssignedBy *uint
}

type TaskService interface {
	GetTasks(db *gorm.DB, filter TaskFilter) ([]models.Task, error)
	GetTaskByID(db *gorm.DB, id uint) (models.Task, error)
	CreateTask(db *gorm.DB, req CreateTaskRequest) (models.Task, error)
	AssignTask(db *gorm.DB, req AssignTaskRequest) (models.Task, error)
	UpdateTask(db *gorm.DB, id uint, req UpdateTaskRequest) (models.Task, error)
	CompleteTask(db *gorm.DB, id uint, req CompleteTaskRequest) (models.Task, error)
	ApproveTask(db *gorm.DB, id uint, req ApproveTaskRequest) (models.Task, error)
	DeleteTask(db *gorm.DB, id uint) error
}

type TaskServiceImpl struct {
	notifier Notifier
}

func NewTaskService(notifier Notifier) *TaskServiceImpl {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &TaskServiceImpl{notifier: notifier}
}

func (s *TaskServiceImpl) GetTasks(db *gorm.DB, filter TaskFilter) ([]models.Task, error) {
	query := db.Model(&models.Task{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.AssignedTo != nil {
		query = query.Where("assigned_to = ?", *filter.AssignedTo)
	}
	if filter.AssignedBy != nil {
		query = query.Where("assigned_by = ?", *filter.AssignedBy)
	}

	tasks := []models.Task{}
	if err := query.Order("id ASC").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (s *TaskServiceImpl) GetTaskByID(db *gorm.DB, id uint) (models.Task, error) {
	var task models.Task
	if err := db.First(&task, id).Error; err != nil {
		return models.Task{}, notFoundAs(err, ErrTaskNotFound)
	}
	return task, nil
}

func (s *TaskServiceImpl) CreateTask(db *gorm.DB, req CreateTaskRequest) (models.Task, error) {
	priority, err := resolvePriority(req.Priority)
	if err != nil {
		return models.Task{}, err
	}

	var task models.Task
	err = db.Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.First(&owner, req.UserID).Error; err != nil {
			return notFoundAs(err, ErrUserNotFound)
		}

		dueDate, err := parseOptionalDueDate(req.DueDate)
		if err != nil {
			return err
		}

		task = models.Task{
			UserID:      owner.ID,
			Title:       req.Title,
			Description: req.Description,
			Priority:    priority,
			Status:      models.StatusPending,
			DueDate:     dueDate,
		}
		return tx.Create(&task).Error
	})
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskServiceImpl) AssignTask(db *gorm.DB, req AssignTaskRequest) (models.Task, error) {
	priority, err := resolvePriority(req.Priority)
	if err != nil {
		return models.Task{}, err
	}

	var (
		task         models.Task
		notification models.Notification
	)
	err = db.Transaction(func(tx *gorm.DB) error {
		assigner, err := requireLead(tx, &req.AssignedBy, ErrLeadRequiredToAssign)
		if err != nil {
			return err
		}

		var assignee models.User
		if err := tx.First(&assignee, req.AssignedTo).Error; err != nil {
			return notFoundAs(err, ErrAssigneeNotFound)
		}

		dueDate, err := parseOptionalDueDate(req.DueDate)
		if err != nil {
			return err
		}

		task = models.Task{
			UserID:      assigner.ID,
			AssignedTo:  &assignee.ID,
			AssignedBy:  &assigner.ID,
			Title:       req.Title,
			Description: req.Description,
			Priority:    priority,
			Status:      models.StatusPending,
			DueDate:     dueDate,
		}
		if err := tx.Create(&task).Error; err != nil {
			return err
		}

		notification = models.Notification{
			UserID:  assignee.ID,
			TaskID:  task.ID,
			Message: models.AssignmentMessage(task.Title),
		}
		return tx.Create(&notification).Error
	})
	if err != nil {
		return models.Task{}, err
	}

	s.notifier.NotificationCreated(notification)
	return task, nil
}

func (s *TaskServiceImpl) UpdateTask(db *gorm.DB, id uint, req UpdateTaskRequest) (models.Task, error) {
	if req.Priority != nil && !models.IsValidPriority(*req.Priority) {
		return models.Task{}, ErrInvalidPriority
	}

	var task models.Task
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, id).Error; err != nil {
			return notFoundAs(err, ErrTaskNotFound)
		}

		updates := map[string]interface{}{}
		if req.Title != nil {
			updates["title"] = *req.Title
		}
		if req.Description.Set {
			updates["description"] = req.Description.Value
		}
		if req.Completed != nil {
			updates["completed"] = *req.Completed
		}
		if req.Priority != nil {
			updates["priority"] = *req.Priority
		}
		if req.DueDate.Set {
			dueDate, err := parseOptionalDueDate(req.DueDate)
			if err != nil {
				return err
			}
			updates["due_date"] = dueDate
		}
		if len(updates) == 0 {
			return nil
		}

		if err := tx.Model(&models.Task{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		task = models.Task{}
		return tx.First(&task, id).Error
	})
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *TaskServiceImpl) CompleteTask(db *gorm.DB, id uint, req CompleteTaskRequest) (models.Task, error) {
	result := ""
	if req.Result != nil {
		result = *req.Result
	}

	var (
		task          models.Task
		notifications []models.Notification
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, id).Error; err != nil {
			return notFoundAs(err, ErrTaskNotFound)
		}

		err := tx.Model(&models.Task{}).Where("id = ?", id).Updates(map[string]interface{}{
			"completed":    true,
			"status":       models.StatusCompleted,
			"result":       result,
			"completed_at": time.Now().UTC(),
		}).Error
		if err != nil {
			return err
		}

		if task.AssignedBy != nil {
			notification := models.Notification{
				UserID:  *task.AssignedBy,
				TaskID:  task.ID,
				Message: models.CompletionMessage(task.Title),
			}
			if err := tx.Create(&notification).Error; err != nil {
				return err
			}
			notifications = append(notifications, notification)
		}

		task = models.Task{}
		return tx.First(&task, id).Error
	})
	if err != nil {
		return models.Task{}, err
	}

	s.publish(notifications)
	return task, nil
}

func (s *TaskServiceImpl) ApproveTask(db *gorm.DB, id uint, req ApproveTaskRequest) (models.Task, error) {
	var (
		task          models.Task
		notifications []models.Notification
	)
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, id).Error; err != nil {
			return notFoundAs(err, ErrTaskNotFound)
		}

		if _, err := requireLead(tx, req.UserID, ErrLeadRequiredToApprove); err != nil {
			return err
		}

		err := tx.Model(&models.Task{}).Where("id = ?", id).Updates(map[string]interface{}{
			"approved": true,
			"status":   models.StatusApproved,
		}).Error
		if err != nil {
			return err
		}

		if task.AssignedTo != nil {
			notification := models.Notification{
				UserID:  *task.AssignedTo,
				TaskID:  task.ID,
				Message: models.ApprovalMessage(task.Title),
			}
			if err := tx.Create(&notification).Error; err != nil {
				return err
			}
			notifications = append(notifications, notification)
		}

		task = models.Task{}
		return tx.First(&task, id).Error
	})
	if err != nil {
		return models.Task{}, err
	}

	s.publish(notifications)
	return task, nil
}

func (s *TaskServiceImpl) DeleteTask(db *gorm.DB, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var task models.Task
		if err := tx.First(&task, id).Error; err != nil {
			return notFoundAs(err, ErrTaskNotFound)
		}

		if err := tx.Where("task_id = ?", id).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&task).Error
	})
}

func (s *TaskServiceImpl) publish(notifications []models.Notification) {
	for _, notification := range notifications {
		s.notifier.NotificationCreated(notification)
	}
}

func resolvePriority(priority string) (string, error) {
	if priority == "" {
		return models.PriorityMedium, nil
	}
	if !models.IsValidPriority(priority) {
		return "", ErrInvalidPriority
	}
	return priority, nil
}

func parseOptionalDueDate(value OptionalString) (*time.Time, error) {
	if !value.Present() {
		return nil, nil
	}

	dueDate, err := models.ParseDueDate(*value.Value)
	if err != nil {
		return nil, err
	}
	return &dueDate, nil
}
