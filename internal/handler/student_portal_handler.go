package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-online/internal/middleware"
	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/response"
	"github.com/stemsi/exstem-online/internal/service"
	"github.com/stemsi/exstem-online/internal/validator"
)

// StudentPortalHandler serves the exam-taking flow.
type StudentPortalHandler struct {
	submissionService *service.SubmissionService
	log               zerolog.Logger
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(submissionService *service.SubmissionService, log zerolog.Logger) *StudentPortalHandler {
	return &StudentPortalHandler{
		submissionService: submissionService,
		log:               log.With().Str("component", "student_portal_handler").Logger(),
	}
}

// TakeExam godoc
// GET /api/v1/exams/:exam_id/take
// Checks eligibility and returns the question paper without answer keys.
func (h *StudentPortalHandler) TakeExam(c *gin.Context) {
	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}

	paper, err := h.submissionService.Paper(c.Request.Context(), examID, *middleware.CurrentUser(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// SubmitExam godoc
// POST /api/v1/exams/:exam_id/submit
// Grades the submitted answers and records the attempt.
func (h *StudentPortalHandler) SubmitExam(c *gin.Context) {
	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}

	var req model.SubmitRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	answers := make(map[uuid.UUID]string, len(req.Answers))
	for key, text := range req.Answers {
		qid, err := uuid.Parse(key)
		if err != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidID, map[string]string{"answers": key})
			return
		}
		answers[qid] = text
	}

	result, err := h.submissionService.Submit(c.Request.Context(), examID, *middleware.CurrentUser(c), answers)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"result": result})
}
