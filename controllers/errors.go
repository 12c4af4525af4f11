package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/leonardo27oliveira02-spec/garccom-app/middlewares"
	"github.com/leonardo27oliveira02-spec/garccom-app/services"
	"github.com/leonardo27oliveira02-spec/garccom-app/utils"
)

// errorStatus maps a service error kind to the HTTP status and response code.
// Order matters: a submission failure also wraps ErrPersistence.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrPartialFailure):
		return http.StatusAccepted, "partial_failure"
	case errors.Is(err, services.ErrDuplicateSubmission):
		return http.StatusConflict, "duplicate_submission"
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, services.ErrPersistence):
		return http.StatusServiceUnavailable, "persistence_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

// respondServiceError writes err using its kind. data travels with partial
// failures so the caller still sees what was written.
func respondServiceError(c *gin.Context, err error, data interface{}) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		utils.ErrorLogger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	utils.RespondErrorCode(c, status, code, err, data)
}

func badRequest(c *gin.Context, err error) {
	utils.RespondErrorCode(c, http.StatusBadRequest, "validation_error", err, nil)
}

// paramID reads a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, errors.New("invalid "+name))
		return 0, false
	}
	return uint(id), true
}

func principal(c *gin.Context) (middlewares.Principal, bool) {
	p, ok := middlewares.CurrentPrincipal(c)
	if !ok {
		utils.RespondErrorCode(c, http.StatusUnauthorized, "unauthorized", errors.New("unauthorized"), nil)
	}
	return p, ok
}
