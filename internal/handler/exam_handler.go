package handler

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-online/internal/admitcard"
	"github.com/stemsi/exstem-online/internal/middleware"
	"github.com/stemsi/exstem-online/internal/model"
	"github.com/stemsi/exstem-online/internal/response"
	"github.com/stemsi/exstem-online/internal/service"
	"github.com/stemsi/exstem-online/internal/validator"
)

// ExamHandler handles exam authoring and browsing endpoints.
type ExamHandler struct {
	examService     *service.ExamService
	questionService *service.QuestionService
	log             zerolog.Logger
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, questionService *service.QuestionService, log zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		examService:     examService,
		questionService: questionService,
		log:             log.With().Str("component", "exam_handler").Logger(),
	}
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// ListExams godoc
// GET /api/v1/exams
// Administrators see every exam; students see exams that have not ended.
func (h *ExamHandler) ListExams(c *gin.Context) {
	user := middleware.CurrentUser(c)

	exams, err := h.examService.ListExams(c.Request.Context(), *user)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// GetExam godoc
// GET /api/v1/exams/:exam_id
// Returns the exam overview with the viewer's own result, if any.
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}

	detail, err := h.examService.Detail(c.Request.Context(), examID, *middleware.CurrentUser(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// AdmitCard godoc
// GET /api/v1/exams/:exam_id/admit-card
// Streams the PDF admit card for the current user.
func (h *ExamHandler) AdmitCard(c *gin.Context) {
	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}

	var buf bytes.Buffer
	exam, err := h.examService.AdmitCard(c.Request.Context(), &buf, examID, *middleware.CurrentUser(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+admitcard.Filename(*exam)+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// CreateExam godoc
// POST /api/v1/admin/exams
// Creates a new exam with no questions.
func (h *ExamHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.CreateExam(c.Request.Context(), req, *middleware.CurrentUser(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// ListQuestions godoc
// GET /api/v1/admin/exams/:exam_id/questions
// Lists an exam's questions with answer keys.
func (h *ExamHandler) ListQuestions(c *gin.Context) {
	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}

	questions, err := h.questionService.ListQuestions(c.Request.Context(), examID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// AddQuestion godoc
// POST /api/v1/admin/exams/:exam_id/questions
// Appends a question and grows the exam's total marks.
func (h *ExamHandler) AddQuestion(c *gin.Context) {
	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.questionService.AddQuestion(c.Request.Context(), examID, req)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": q})
}
