package models

import (
	"fmt"
	"time"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusApproved  = "approved"
)

// Task is owned by UserID; AssignedTo and AssignedBy are set only for tasks
// created through assignment.
type Task struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"not null;index"`
	AssignedTo  *uint      `json:"assigned_to" gorm:"index"`
	AssignedBy  *uint      `json:"assigned_by" gorm:"index"`
	Title       string     `json:"title" gorm:"not null;size:200"`
	Description *string    `json:"description" gorm:"type:text"`
	Priority    string     `json:"priority" gorm:"not null;default:'medium';size:20"`
	Status      string     `json:"status" gorm:"not null;default:'pending';size:20"`
	Completed   bool       `json:"completed" gorm:"not null;default:false"`
	Approved    bool       `json:"approved" gorm:"not null;default:false"`
	DueDate     *time.Time `json:"due_date"`
	Result      *string    `json:"result" gorm:"type:text"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Owner    *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Assignee *User `json:"-" gorm:"foreignKey:AssignedTo;constraint:OnDelete:SET NULL"`
	Assigner *User `json:"-" gorm:"foreignKey:AssignedBy;constraint:OnDelete:SET NULL"`
}

func IsValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDueDate accepts the ISO-8601 shapes browsers and clients commonly send.
// Values without a zone are taken as UTC.
func ParseDueDate(value string) (time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid due_date %q: expected an ISO-8601 date-time", value)
}
