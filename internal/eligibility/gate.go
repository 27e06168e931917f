// Package eligibility decides whether a user may take an exam right now.
package eligibility

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-online/internal/model"
)

// ErrDenied matches every denial returned by Check.
var ErrDenied = errors.New("exam attempt not permitted")

// RoleError denies administrators, who author exams but never take them.
type RoleError struct {
	UserID int
}

func (e *RoleError) Error() string {
	return fmt.Sprintf("user %d is an administrator and cannot take exams", e.UserID)
}

func (e *RoleError) Is(target error) bool { return target == ErrDenied }

// NotYetOpenError denies attempts before the exam window opens.
type NotYetOpenError struct {
	StartTime time.Time
}

func (e *NotYetOpenError) Error() string {
	return fmt.Sprintf("exam opens at %s", e.StartTime.Format(time.RFC3339))
}

func (e *NotYetOpenError) Is(target error) bool { return target == ErrDenied }

// ExpiredError denies attempts after the exam window closes.
type ExpiredError struct {
	EndTime time.Time
}

func (e *ExpiredError) Error() string {
	return fmt.Sprintf("exam closed at %s", e.EndTime.Format(time.RFC3339))
}

func (e *ExpiredError) Is(target error) bool { return target == ErrDenied }

// AlreadyTakenError denies a second attempt and points at the first result.
type AlreadyTakenError struct {
	ResultID uuid.UUID
}

func (e *AlreadyTakenError) Error() string {
	return fmt.Sprintf("exam already taken (result %s)", e.ResultID)
}

func (e *AlreadyTakenError) Is(target error) bool { return target == ErrDenied }

// Check applies the admission rules in order and returns the first denial,
// or nil. The window is inclusive at both ends. existing is the user's prior
// result for this exam, if any.
func Check(now time.Time, exam model.Exam, user model.User, existing *model.Result) error {
	if user.IsAdmin {
		return &RoleError{UserID: user.ID}
	}
	if now.Before(exam.StartTime) {
		return &NotYetOpenError{StartTime: exam.StartTime}
	}
	if now.After(exam.EndTime) {
		return &ExpiredError{EndTime: exam.EndTime}
	}
	if existing != nil {
		return &AlreadyTakenError{ResultID: existing.ID}
	}
	return nil
}
