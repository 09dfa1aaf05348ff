package grpc

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
)

var codeByErrorCode = map[string]codes.Code{
	models.ErrCodeNotFound:            codes.NotFound,
	models.ErrCodeFeedError:           codes.Unavailable,
	models.ErrCodeMutationConflict:    codes.Aborted,
	models.ErrCodeInvalidInput:        codes.InvalidArgument,
	models.ErrCodePartialLedgerUpdate: codes.DataLoss,
	models.ErrCodeDatabaseError:       codes.Internal,
}

// toStatus maps a service error to the status sent to the client.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	code := codes.Internal
	msg := err.Error()

	var detail models.ErrorDetail
	var merr *multierror.Error
	switch {
	case errors.As(err, &merr):
		code = codes.InvalidArgument
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	default:
		if c, ok := models.ErrorCodeOf(err); ok {
			if mapped, ok := codeByErrorCode[c]; ok {
				code = mapped
			}
			if c != models.ErrCodePartialLedgerUpdate && errors.As(err, &detail) && detail.ErrorMessage != nil {
				msg = detail.ErrorMessage.Error()
			}
			break
		}
		switch {
		case errors.Is(err, common.ErrNotFound):
			code = codes.NotFound
		case errors.Is(err, common.ErrFeed):
			code = codes.Unavailable
		case errors.Is(err, common.ErrMutationConflict):
			code = codes.Aborted
		case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
			code = codes.InvalidArgument
		}
	}

	return status.Error(code, msg)
}
