package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/middleware"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stemsi/schoolhub-backend/internal/response"
	"github.com/stemsi/schoolhub-backend/internal/service"
)

// errorStatus maps domain errors to HTTP status and error code.
var errorStatus = []struct {
	err    error
	status int
	code   response.ErrCode
}{
	{repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	{repository.ErrConflict, http.StatusConflict, response.ErrConflict},
	{repository.ErrDependencyExists, http.StatusConflict, response.ErrDependencyExists},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, response.ErrInvalidCredentials},
	{service.ErrAccountInactive, http.StatusForbidden, response.ErrAccountInactive},
	{service.ErrForbidden, http.StatusForbidden, response.ErrForbidden},
	{service.ErrInvalidDateRange, http.StatusBadRequest, response.ErrInvalidDate},
	{service.ErrInvalidDate, http.StatusBadRequest, response.ErrInvalidDate},
	{service.ErrSelfAction, http.StatusBadRequest, response.ErrActionForbidden},
	{service.ErrNotExamAuthor, http.StatusForbidden, response.ErrNotExamAuthor},
	{service.ErrNoQuestions, http.StatusBadRequest, response.ErrNoQuestions},
	{service.ErrClassAccessDenied, http.StatusForbidden, response.ErrClassAccess},
	{service.ErrNotParticipant, http.StatusForbidden, response.ErrNotParticipant},
	{service.ErrNoRelationship, http.StatusForbidden, response.ErrNoRelationship},
	{service.ErrInvalidRoleCombination, http.StatusBadRequest, response.ErrInvalidRolePair},
	{service.ErrMessageRequired, http.StatusBadRequest, response.ErrMessageRequired},
	{service.ErrTitleRequired, http.StatusBadRequest, response.ErrTitleRequired},
	{service.ErrSpreadsheetInvalid, http.StatusBadRequest, response.ErrSpreadsheetInvalid},
}

// failWith writes the error envelope for err. Unknown errors become a logged 500.
func failWith(c *gin.Context, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			response.Fail(c, m.status, m.code)
			return
		}
	}
	zerolog.Ctx(c.Request.Context()).Error().
		Err(err).
		Str("method", c.Request.Method).
		Str("path", c.FullPath()).
		Msg("Request failed")
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}

// paramUUID parses a path parameter, writing a 400 on failure.
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

// actor returns the authenticated caller, writing a 401 when missing.
func actor(c *gin.Context) (service.Actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return service.Actor{}, false
	}
	return claims.Actor(), true
}
