package models

import (
	"time"
)

const (
	RoleLead   = "lead"
	RoleMember = "member"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null;size:80"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;size:120"`
	FullName  string    `json:"full_name" gorm:"not null;size:120"`
	Role      string    `json:"role" gorm:"not null;default:'member';size:20"`
	Password  string    `json:"-" gorm:"column:password_hash"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) IsLead() bool {
	return u.Role == RoleLead
}

func (u *User) HasPassword() bool {
	return u.Password != ""
}

func IsValidRole(role string) bool {
	return role == RoleLead || role == RoleMember
}
