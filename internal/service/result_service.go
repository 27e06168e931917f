package service

import (
	"bytes"
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-online/internal/export"
	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/repository"
)

// ErrNotResultOwner is returned when a student opens someone else's result.
var ErrNotResultOwner = errors.New("result belongs to another user")

// ResultService exposes graded attempts.
type ResultService struct {
	exams   repository.ExamStore
	results repository.ResultStore
	log     zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(exams repository.ExamStore, results repository.ResultStore, log zerolog.Logger) *ResultService {
	return &ResultService{
		exams:   exams,
		results: results,
		log:     log.With().Str("component", "result_service").Logger(),
	}
}

// GetResult returns a result with its answers. Students may only open
// their own.
func (s *ResultService) GetResult(ctx context.Context, id uuid.UUID, viewer model.User) (*model.Result, error) {
	r, err := s.results.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin && r.UserID != viewer.ID {
		return nil, ErrNotResultOwner
	}
	return r, nil
}

// ListResults returns every result to administrators and a student's own
// results otherwise.
func (s *ResultService) ListResults(ctx context.Context, viewer model.User) ([]model.ResultRow, error) {
	var f model.ResultFilter
	if !viewer.IsAdmin {
		id := viewer.ID
		f.UserID = &id
	}
	return s.results.ListResults(ctx, f)
}

// ExportResults renders an exam's results as an XLSX workbook and returns
// it with its download filename.
func (s *ResultService) ExportResults(ctx context.Context, examID uuid.UUID) ([]byte, string, error) {
	exam, err := s.exams.GetExam(ctx, examID)
	if err != nil {
		return nil, "", err
	}
	rows, err := s.results.ListResults(ctx, model.ResultFilter{ExamID: &examID})
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := export.WriteResults(&buf, *exam, rows); err != nil {
		return nil, "", err
	}

	s.log.Info().Str("exam_id", examID.String()).Int("rows", len(rows)).Msg("Results exported")
	return buf.Bytes(), export.Filename(*exam), nil
}
