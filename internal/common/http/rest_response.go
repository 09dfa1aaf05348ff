package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp/go-multierror"
	"github.com/labstack/echo/v4"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
)

type (
	RestErrorResponseModel struct {
		Status  string      `json:"status" example:"error"`
		Code    interface{} `json:"code"`
		Message string      `json:"message" example:"error"`
		Details interface{} `json:"details,omitempty"`
	}

	RestErrorValidationResponseModel struct {
		Status  string      `json:"status" example:"error"`
		Message string      `json:"message" example:"validation error"`
		Errors  interface{} `json:"errors"`
	}
)

var statusByCode = map[string]int{
	models.ErrCodeNotFound:            http.StatusNotFound,
	models.ErrCodeFeedError:           http.StatusBadGateway,
	models.ErrCodeMutationConflict:    http.StatusConflict,
	models.ErrCodeInvalidInput:        http.StatusUnprocessableEntity,
	models.ErrCodePartialLedgerUpdate: http.StatusInternalServerError,
	models.ErrCodeDatabaseError:       http.StatusInternalServerError,
}

// StatusFromError picks the response status for a service error.
func StatusFromError(err error) int {
	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		return echoErr.Code
	}
	if code, ok := models.ErrorCodeOf(err); ok {
		if status, ok := statusByCode[code]; ok {
			return status
		}
	}

	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrFeed):
		return http.StatusBadGateway
	case errors.Is(err, common.ErrMutationConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, common.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func RestSuccessResponse(c echo.Context, code int, in interface{}) error {
	return c.JSON(code, in)
}

func RestErrorResponse(c echo.Context, statusCode int, err error) error {
	return c.JSON(statusCode, NewRestErrorResponseModel(statusCode, err))
}

// NewRestErrorResponseModel is the error body RestErrorResponse writes. SSE
// streams send it as the data of their error frame.
func NewRestErrorResponseModel(statusCode int, err error) RestErrorResponseModel {
	res := RestErrorResponseModel{
		Status:  "error",
		Code:    statusCode,
		Message: err.Error(),
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		res.Code = echoErr.Code
		res.Message = fmt.Sprint(echoErr.Message)
	}

	var data models.ErrorDetail
	if errors.As(err, &data) {
		res.Code = data.Code
		res.Message = data.ErrorMessage.Error()
	}

	var partial *models.PartialLedgerUpdateError
	if errors.As(err, &partial) {
		res.Code = models.ErrCodePartialLedgerUpdate
		res.Details = partial
	}

	return res
}

// HandleServiceError renders err with the status StatusFromError picks.
func HandleServiceError(c echo.Context, err error) error {
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return RestErrorValidationResponse(c, merr)
	}
	return RestErrorResponse(c, StatusFromError(err), err)
}

func RestErrorValidationResponse(c echo.Context, errors interface{}) error {
	res := RestErrorValidationResponseModel{
		Status:  "error",
		Message: common.ErrValidation.Error(),
	}
	if data, ok := errors.(*multierror.Error); ok {
		res.Errors = data.Errors
	}

	return c.JSON(http.StatusUnprocessableEntity, res)
}
