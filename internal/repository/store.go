// Package repository defines the persistence contracts of the exam service.
// Backends live in the postgres and sqlite subpackages.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-online/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateResult is returned when a result already exists for the
	// (user, exam) pair. It is the authoritative duplicate-attempt signal.
	ErrDuplicateResult = errors.New("result already exists for this user and exam")
	ErrDuplicateUser   = errors.New("username or email already registered")
)

// UserStore persists accounts.
type UserStore interface {
	// CreateUser inserts u and fills ID, CreatedAt and IsAdmin. The first
	// account ever created is promoted to administrator.
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	CountStudents(ctx context.Context) (int, error)
}

// ExamStore persists exams and their question banks.
type ExamStore interface {
	CreateExam(ctx context.Context, e *model.Exam) error
	GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error)
	// ListExams returns every exam ordered by start time.
	ListExams(ctx context.Context) ([]model.Exam, error)
	CountExams(ctx context.Context) (int, error)

	// AddQuestion appends q to its exam in one transaction: the exam row is
	// locked, q.OrderNum becomes max+1 and the exam's total marks grow by
	// q.Marks.
	AddQuestion(ctx context.Context, q *model.Question) error
	ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
	// GetExamSnapshot reads an exam and its ordered questions in a single
	// read transaction.
	GetExamSnapshot(ctx context.Context, examID uuid.UUID) (*model.ExamSnapshot, error)
}

// ResultStore persists graded attempts.
type ResultStore interface {
	GetResultByUserAndExam(ctx context.Context, userID int, examID uuid.UUID) (*model.Result, error)
	// CreateResult inserts r and all of r.Answers atomically. A second
	// result for the same (user, exam) yields ErrDuplicateResult.
	CreateResult(ctx context.Context, r *model.Result) error
	SetEmailSent(ctx context.Context, id uuid.UUID, sent bool) error
	// GetResult returns the result with its answers in question order.
	GetResult(ctx context.Context, id uuid.UUID) (*model.Result, error)
	ListResults(ctx context.Context, filter model.ResultFilter) ([]model.ResultRow, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	UserStore
	ExamStore
	ResultStore
	Close() error
}
