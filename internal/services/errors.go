package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
)

// Error is a domain failure with a message that is safe to return to the caller.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func NewValidationError(message string) error {
	return newError(KindValidation, message)
}

var (
	ErrMissingFields   = newError(KindValidation, "Missing required fields")
	ErrUserIDRequired  = newError(KindValidation, "user_id is required")
	ErrInvalidRole     = newError(KindValidation, "role must be one of: lead, member")
	ErrInvalidPriority = newError(KindValidation, "priority must be one of: low, medium, high")

	ErrUserNotFound         = newError(KindNotFound, "User not found")
	ErrTaskNotFound         = newError(KindNotFound, "Task not found")
	ErrAssigneeNotFound     = newError(KindNotFound, "Assignee not found")
	ErrNotificationNotFound = newError(KindNotFound, "Notification not found")

	ErrDuplicateUser = newError(KindConflict, "Username or email already exists")
	ErrUsernameTaken = newError(KindConflict, "Username already exists")
	ErrEmailTaken    = newError(KindConflict, "Email already exists")

	ErrLeadRequiredToAssign  = newError(KindForbidden, "Only team leads can assign tasks")
	ErrLeadRequiredToApprove = newError(KindForbidden, "Only team leads can approve tasks")

	ErrInvalidCredentials = newError(KindUnauthorized, "Invalid username or password")
)

// KindOf reports the kind of err, or KindInternal when err is not a domain error.
func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// notFoundAs maps gorm's missing-row error onto the given domain error.
func notFoundAs(err error, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}
