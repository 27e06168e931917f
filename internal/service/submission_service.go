package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-online/internal/eligibility"
	"github.com/stemsi/exstem-online/internal/grading"
	"github.com/stemsi/exstem-online/internal/metrics"
	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/notify"
	"github.com/stemsi/exstem-online/internal/repository"
)

// ErrSubmissionFailed means the attempt could not be stored. Nothing was
// persisted and the caller may retry.
var ErrSubmissionFailed = errors.New("submission could not be saved")

// SubmissionService admits, grades and records exam attempts.
type SubmissionService struct {
	exams      repository.ExamStore
	results    repository.ResultStore
	dispatcher notify.Dispatcher
	log        zerolog.Logger
	now        func() time.Time
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(
	exams repository.ExamStore,
	results repository.ResultStore,
	dispatcher notify.Dispatcher,
	log zerolog.Logger,
) *SubmissionService {
	return &SubmissionService{
		exams:      exams,
		results:    results,
		dispatcher: dispatcher,
		log:        log.With().Str("component", "submission_service").Logger(),
		now:        time.Now,
	}
}

// WithClock overrides the time source used by the eligibility gate.
func (s *SubmissionService) WithClock(now func() time.Time) *SubmissionService {
	s.now = now
	return s
}

func (s *SubmissionService) existingResult(ctx context.Context, userID int, examID uuid.UUID) (*model.Result, error) {
	r, err := s.results.GetResultByUserAndExam(ctx, userID, examID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return r, err
}

// CheckEligibility runs the gate for user against exam examID without
// side effects.
func (s *SubmissionService) CheckEligibility(ctx context.Context, examID uuid.UUID, user model.User) (*model.Exam, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return nil, err
	}
	existing, err := s.existingResult(ctx, user.ID, examID)
	if err != nil {
		return nil, err
	}
	if err := eligibility.Check(s.now(), *exam, user, existing); err != nil {
		return nil, err
	}
	return exam, nil
}

// Paper returns the exam and its questions without answer keys, provided
// user may take it now.
func (s *SubmissionService) Paper(ctx context.Context, examID uuid.UUID, user model.User) (*model.ExamPaper, error) {
	if _, err := s.CheckEligibility(ctx, examID, user); err != nil {
		return nil, err
	}
	snap, err := s.exams.GetExamSnapshot(ctx, examID)
	if err != nil {
		return nil, err
	}

	paper := &model.ExamPaper{Exam: snap.Exam, Questions: make([]model.QuestionForStudent, 0, len(snap.Questions))}
	for _, q := range snap.Questions {
		paper.Questions = append(paper.Questions, q.ForStudent())
	}
	return paper, nil
}

// Submit grades answers (question ID → raw text) for user and records the
// attempt. Missing answers count as unanswered; answers to unknown question
// IDs are ignored. A concurrent duplicate is reported as
// *eligibility.AlreadyTakenError carrying the winning result's ID.
func (s *SubmissionService) Submit(ctx context.Context, examID uuid.UUID, user model.User, answers map[uuid.UUID]string) (*model.Result, error) {
	snap, err := s.exams.GetExamSnapshot(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, s.failed(examID, user, err)
	}

	existing, err := s.existingResult(ctx, user.ID, examID)
	if err != nil {
		return nil, s.failed(examID, user, err)
	}

	now := s.now()
	if err := eligibility.Check(now, snap.Exam, user, existing); err != nil {
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeDenied).Inc()
		return nil, err
	}

	result := &model.Result{
		ID:          uuid.New(),
		UserID:      user.ID,
		ExamID:      examID,
		TotalMarks:  snap.Exam.TotalMarks,
		SubmittedAt: now,
		Answers:     make([]model.Answer, 0, len(snap.Questions)),
	}

	outcomes := make([]grading.Outcome, 0, len(snap.Questions))
	for _, q := range snap.Questions {
		text := answers[q.ID]
		o := grading.Grade(q, text)
		outcomes = append(outcomes, o)
		result.Answers = append(result.Answers, model.Answer{
			ID:            uuid.New(),
			ResultID:      result.ID,
			QuestionID:    q.ID,
			AnswerText:    text,
			IsCorrect:     o.Correct,
			MarksObtained: o.Marks,
		})
	}

	summary := grading.Summarize(outcomes, snap.Exam.TotalMarks, snap.Exam.PassingMarks)
	result.MarksObtained = summary.MarksObtained
	result.Percentage = summary.Percentage
	result.Status = summary.Status

	if err := s.results.CreateResult(ctx, result); err != nil {
		if errors.Is(err, repository.ErrDuplicateResult) {
			metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			return nil, s.alreadyTaken(ctx, examID, user)
		}
		return nil, s.failed(examID, user, err)
	}

	metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeGraded).Inc()
	metrics.ScorePercentage.Observe(result.Percentage)
	s.log.Info().
		Str("exam_id", examID.String()).
		Int("user_id", user.ID).
		Str("result_id", result.ID.String()).
		Int("marks", result.MarksObtained).
		Str("status", string(result.Status)).
		Msg("Submission graded")

	s.notify(ctx, result, snap.Exam, user)
	return result, nil
}

// alreadyTaken resolves the result that won a concurrent insert.
func (s *SubmissionService) alreadyTaken(ctx context.Context, examID uuid.UUID, user model.User) error {
	winner, err := s.results.GetResultByUserAndExam(ctx, user.ID, examID)
	if err != nil {
		return s.failed(examID, user, fmt.Errorf("read winning result: %w", err))
	}
	return &eligibility.AlreadyTakenError{ResultID: winner.ID}
}

func (s *SubmissionService) failed(examID uuid.UUID, user model.User, err error) error {
	metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
	s.log.Error().Err(err).Str("exam_id", examID.String()).Int("user_id", user.ID).Msg("Submission failed")
	return fmt.Errorf("%w: %v", ErrSubmissionFailed, err)
}

// notify hands the result to the dispatcher after commit. Failure to hand
// off is logged only; the submission has already succeeded.
func (s *SubmissionService) notify(ctx context.Context, r *model.Result, exam model.Exam, user model.User) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Dispatch(ctx, notify.NewNotification(r, exam, user)); err != nil {
		metrics.NotificationsTotal.WithLabelValues(metrics.NotifyEnqueueFailed).Inc()
		s.log.Warn().Err(err).Str("result_id", r.ID.String()).Msg("Result notification not queued")
		return
	}
	metrics.NotificationsTotal.WithLabelValues(metrics.NotifyEnqueued).Inc()
}
