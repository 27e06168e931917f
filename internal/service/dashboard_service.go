package service

import (
	"context"

	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/repository"
)

// DashboardService assembles the landing page for each kind of user.
type DashboardService struct {
	users   repository.UserStore
	exams   repository.ExamStore
	examSvc *ExamService
	results *ResultService
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(users repository.UserStore, exams repository.ExamStore, examSvc *ExamService, results *ResultService) *DashboardService {
	return &DashboardService{users: users, exams: exams, examSvc: examSvc, results: results}
}

// Admin returns platform totals and every exam.
func (s *DashboardService) Admin(ctx context.Context) (*model.AdminDashboard, error) {
	students, err := s.users.CountStudents(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.exams.CountExams(ctx)
	if err != nil {
		return nil, err
	}
	exams, err := s.exams.ListExams(ctx)
	if err != nil {
		return nil, err
	}
	return &model.AdminDashboard{TotalStudents: students, TotalExams: total, Exams: exams}, nil
}

// Student returns upcoming exams and the student's own results.
func (s *DashboardService) Student(ctx context.Context, user model.User) (*model.StudentDashboard, error) {
	upcoming, err := s.examSvc.UpcomingExams(ctx)
	if err != nil {
		return nil, err
	}
	results, err := s.results.ListResults(ctx, user)
	if err != nil {
		return nil, err
	}
	return &model.StudentDashboard{UpcomingExams: upcoming, Results: results}, nil
}
