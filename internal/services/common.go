package services

import (
	"errors"
	"fmt"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
)

// checkStoreError maps a document store error onto the error map. Errors
// that already carry a code are returned untouched.
func checkStoreError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := models.ErrorCodeOf(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrNotFound):
		return models.WrapErrMap(models.ErrKeyDataNotFound, err)
	case errors.Is(err, common.ErrMutationConflict):
		return models.WrapErrMap(models.ErrKeyMutationConflict, err)
	case errors.Is(err, common.ErrInvalidInput):
		return models.WrapErrMap(models.ErrKeyInvalidInput, err)
	default:
		return models.WrapErrMap(models.ErrKeyDatabaseError, err)
	}
}

// feedError is the terminal error of a session whose feed failed.
func feedError(err error) error {
	if _, ok := models.ErrorCodeOf(err); ok && errors.Is(err, common.ErrFeed) {
		return err
	}
	return models.ErrorDetail{
		Code:         models.ErrCodeFeedError,
		ErrorMessage: fmt.Errorf("%w: %w", common.ErrFeed, err),
	}
}

func sessionNotFound(key string) error {
	return models.WrapErrMap(key, common.ErrNotFound)
}
