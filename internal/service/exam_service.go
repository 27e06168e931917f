package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/repository"
)

// Domain errors
var (
	ErrInvalidSchedule = errors.New("exam must start before it ends")
	ErrInvalidExam     = errors.New("invalid exam definition")
)

// AdmitCardRenderer draws an admit card for a student.
type AdmitCardRenderer interface {
	Render(w io.Writer, exam model.Exam, user model.User) error
}

// ExamService handles exam authoring and listing.
type ExamService struct {
	exams   repository.ExamStore
	results repository.ResultStore
	cards   AdmitCardRenderer
	log     zerolog.Logger
	now     func() time.Time
}

// NewExamService creates a new ExamService.
func NewExamService(exams repository.ExamStore, results repository.ResultStore, cards AdmitCardRenderer, log zerolog.Logger) *ExamService {
	return &ExamService{
		exams:   exams,
		results: results,
		cards:   cards,
		log:     log.With().Str("component", "exam_service").Logger(),
		now:     time.Now,
	}
}

// CreateExam validates and stores a new exam authored by author.
// passing_marks is deliberately not compared with total_marks: questions
// are added after creation.
func (s *ExamService) CreateExam(ctx context.Context, req model.CreateExamRequest, author model.User) (*model.Exam, error) {
	if !req.StartTime.Before(req.EndTime) {
		return nil, ErrInvalidSchedule
	}
	if req.DurationMinutes <= 0 || req.PassingMarks < 0 {
		return nil, ErrInvalidExam
	}

	e := &model.Exam{
		ID:              uuid.New(),
		Title:           req.Title,
		Description:     req.Description,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
		PassingMarks:    req.PassingMarks,
		CreatedBy:       author.ID,
	}
	if err := s.exams.CreateExam(ctx, e); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().Str("exam_id", e.ID.String()).Int("created_by", author.ID).Msg("Exam created")
	return e, nil
}

// GetExam retrieves an exam by ID.
func (s *ExamService) GetExam(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.exams.GetExam(ctx, id)
}

// Detail returns the exam overview for viewer, including their own result.
func (s *ExamService) Detail(ctx context.Context, id uuid.UUID, viewer model.User) (*model.ExamDetail, error) {
	exam, err := s.exams.GetExam(ctx, id)
	if err != nil {
		return nil, err
	}
	questions, err := s.exams.ListQuestions(ctx, id)
	if err != nil {
		return nil, err
	}

	d := &model.ExamDetail{Exam: *exam, QuestionCount: len(questions)}
	if !viewer.IsAdmin {
		r, err := s.results.GetResultByUserAndExam(ctx, viewer.ID, id)
		switch {
		case err == nil:
			d.Result = r
		case !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}
	return d, nil
}

// ListExams returns every exam to administrators and only exams that have
// not yet closed to students.
func (s *ExamService) ListExams(ctx context.Context, viewer model.User) ([]model.Exam, error) {
	exams, err := s.exams.ListExams(ctx)
	if err != nil {
		return nil, err
	}
	if viewer.IsAdmin {
		return exams, nil
	}

	now := s.now()
	open := make([]model.Exam, 0, len(exams))
	for _, e := range exams {
		if e.EndTime.After(now) {
			open = append(open, e)
		}
	}
	return open, nil
}

// UpcomingExams returns exams that have not started yet.
func (s *ExamService) UpcomingExams(ctx context.Context) ([]model.Exam, error) {
	exams, err := s.exams.ListExams(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	upcoming := make([]model.Exam, 0, len(exams))
	for _, e := range exams {
		if e.StartTime.After(now) {
			upcoming = append(upcoming, e)
		}
	}
	return upcoming, nil
}

// AdmitCard renders the admit card of exam id for user into w.
func (s *ExamService) AdmitCard(ctx context.Context, w io.Writer, id uuid.UUID, user model.User) (*model.Exam, error) {
	exam, err := s.exams.GetExam(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cards.Render(w, *exam, user); err != nil {
		return nil, fmt.Errorf("render admit card: %w", err)
	}
	return exam, nil
}
