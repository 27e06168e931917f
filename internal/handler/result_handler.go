package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-online/internal/middleware"
	"github.com/stemsi/exstem-online/internal/response"
	"github.com/stemsi/exstem-online/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ResultHandler exposes graded attempts.
type ResultHandler struct {
	resultService *service.ResultService
	log           zerolog.Logger
}

// NewResultHandler creates a new ResultHandler.
func NewResultHandler(resultService *service.ResultService, log zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		resultService: resultService,
		log:           log.With().Str("component", "result_handler").Logger(),
	}
}

// ListResults godoc
// GET /api/v1/results
// Administrators see every result; students see their own.
func (h *ResultHandler) ListResults(c *gin.Context) {
	results, err := h.resultService.ListResults(c.Request.Context(), *middleware.CurrentUser(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// GetResult godoc
// GET /api/v1/results/:result_id
// Returns a result with its graded answers.
func (h *ResultHandler) GetResult(c *gin.Context) {
	resultID, ok := parseID(c, "result_id")
	if !ok {
		return
	}

	result, err := h.resultService.GetResult(c.Request.Context(), resultID, *middleware.CurrentUser(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": result})
}

// ExportResults godoc
// GET /api/v1/admin/exams/:exam_id/results/export
// Downloads an exam's results as an XLSX workbook.
func (h *ResultHandler) ExportResults(c *gin.Context) {
	examID, ok := parseID(c, "exam_id")
	if !ok {
		return
	}

	data, filename, err := h.resultService.ExportResults(c.Request.Context(), examID)
	if err != nil {
		fail(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
