package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-online/internal/admitcard"
	"github.com/stemsi/exstem-online/internal/eligibility"
	"github.com/stemsi/exstem-online/internal/repository"
	"github.com/stemsi/exstem-online/internal/response"
	"github.com/stemsi/exstem-online/internal/service"
)

// fail translates a service error into the matching HTTP response.
func fail(c *gin.Context, log zerolog.Logger, err error) {
	var (
		role    *eligibility.RoleError
		early   *eligibility.NotYetOpenError
		expired *eligibility.ExpiredError
		taken   *eligibility.AlreadyTakenError
	)

	switch {
	case errors.As(err, &role):
		response.Fail(c, http.StatusForbidden, response.ErrAdminCannotTake)
	case errors.As(err, &taken):
		response.FailWithFields(c, http.StatusConflict, response.ErrAlreadyTaken,
			map[string]string{"result_id": taken.ResultID.String()})
	case errors.As(err, &early):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrExamNotOpen)
	case errors.As(err, &expired):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrExamExpired)
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, repository.ErrDuplicateUser):
		response.Fail(c, http.StatusConflict, response.ErrUserExists)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	case errors.Is(err, service.ErrNotResultOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrInvalidSchedule):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidSchedule)
	case errors.Is(err, service.ErrInvalidExam):
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
	case errors.Is(err, service.ErrInvalidQuestion):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrInvalidQuestion,
			map[string]string{"detail": err.Error()})
	case errors.Is(err, service.ErrSubmissionFailed), errors.Is(err, admitcard.ErrFontUnavailable):
		response.Fail(c, http.StatusServiceUnavailable, response.ErrUnavailable)
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
