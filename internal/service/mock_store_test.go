package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/notify"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateExam(ctx context.Context, e *model.Exam) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockStore) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Exam), args.Error(1)
}

func (m *MockStore) ListExams(ctx context.Context) ([]model.Exam, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Exam), args.Error(1)
}

func (m *MockStore) CountExams(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) AddQuestion(ctx context.Context, q *model.Question) error {
	return m.Called(ctx, q).Error(0)
}

func (m *MockStore) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	args := m.Called(ctx, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Question), args.Error(1)
}

func (m *MockStore) GetExamSnapshot(ctx context.Context, examID uuid.UUID) (*model.ExamSnapshot, error) {
	args := m.Called(ctx, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ExamSnapshot), args.Error(1)
}

func (m *MockStore) GetResultByUserAndExam(ctx context.Context, userID int, examID uuid.UUID) (*model.Result, error) {
	args := m.Called(ctx, userID, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Result), args.Error(1)
}

func (m *MockStore) CreateResult(ctx context.Context, r *model.Result) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockStore) SetEmailSent(ctx context.Context, id uuid.UUID, sent bool) error {
	return m.Called(ctx, id, sent).Error(0)
}

func (m *MockStore) GetResult(ctx context.Context, id uuid.UUID) (*model.Result, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Result), args.Error(1)
}

func (m *MockStore) ListResults(ctx context.Context, f model.ResultFilter) ([]model.ResultRow, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ResultRow), args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, n notify.Notification) error {
	return m.Called(ctx, n).Error(0)
}
