package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/repository"
)

// ErrInvalidQuestion wraps answer-key and option validation failures.
var ErrInvalidQuestion = errors.New("invalid question")

// QuestionService manages an exam's question bank.
type QuestionService struct {
	exams repository.ExamStore
	log   zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(exams repository.ExamStore, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		exams: exams,
		log:   log.With().Str("component", "question_service").Logger(),
	}
}

// AddQuestion appends a question to an exam. The store assigns order_num
// and grows the exam's total marks in the same transaction.
func (s *QuestionService) AddQuestion(ctx context.Context, examID uuid.UUID, req model.AddQuestionRequest) (*model.Question, error) {
	q, err := req.Build()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuestion, err)
	}
	q.ID = uuid.New()
	q.ExamID = examID

	if err := s.exams.AddQuestion(ctx, &q); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("exam_id", examID.String()).
		Str("question_id", q.ID.String()).
		Int("order_num", q.OrderNum).
		Msg("Question added")
	return &q, nil
}

// ListQuestions returns the full questions, answer keys included.
func (s *QuestionService) ListQuestions(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	if _, err := s.exams.GetExam(ctx, examID); err != nil {
		return nil, err
	}
	return s.exams.ListQuestions(ctx, examID)
}

// ListForStudent returns the questions with answer keys stripped.
func (s *QuestionService) ListForStudent(ctx context.Context, examID uuid.UUID) ([]model.QuestionForStudent, error) {
	questions, err := s.ListQuestions(ctx, examID)
	if err != nil {
		return nil, err
	}
	out := make([]model.QuestionForStudent, 0, len(questions))
	for _, q := range questions {
		out = append(out, q.ForStudent())
	}
	return out, nil
}
