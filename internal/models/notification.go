package models

import "time"

type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	TaskID    uint      `json:"task_id" gorm:"not null;index"`
	Message   string    `json:"message" gorm:"not null;size:255"`
	Read      bool      `json:"read" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`

	Recipient *User `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Task      *Task `json:"-" gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

func AssignmentMessage(title string) string {
	return "New task assigned: " + title
}

func CompletionMessage(title string) string {
	return "Task '" + title + "' has been completed by team member"
}

func ApprovalMessage(title string) string {
	return "Task '" + title + "' has been approved"
}
