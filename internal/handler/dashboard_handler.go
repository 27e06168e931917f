package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-online/internal/middleware"
	"github.com/stemsi/exstem-online/internal/response"
	"github.com/stemsi/exstem-online/internal/service"
)

// DashboardHandler serves the landing dashboard.
type DashboardHandler struct {
	service *service.DashboardService
	log     zerolog.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(s *service.DashboardService, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{service: s, log: log.With().Str("component", "dashboard_handler").Logger()}
}

// GetDashboard godoc
// GET /api/v1/dashboard
// Returns totals for administrators, upcoming exams and results for students.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	user := middleware.CurrentUser(c)

	if user.IsAdmin {
		data, err := h.service.Admin(c.Request.Context())
		if err != nil {
			fail(c, h.log, err)
			return
		}
		response.Success(c, http.StatusOK, data)
		return
	}

	data, err := h.service.Student(c.Request.Context(), *user)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, data)
}
