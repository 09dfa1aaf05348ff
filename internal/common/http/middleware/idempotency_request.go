package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	commonhttp "bitbucket.org/Amartha/go-fp-portfolio/internal/common/http"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

// CheckIdempotentRequest makes POST requests safe to retry: a key that already
// completed gets the stored response back, a key still in flight is rejected
// with 409 and a key reused with another payload with 422.
func (m *AppMiddleware) CheckIdempotentRequest() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			// only transaction method POST
			if req.Method != http.MethodPost {
				return next(c)
			}

			idempotencyKey := req.Header.Get(HeaderIdempotencyKey)
			if idempotencyKey == "" {
				return commonhttp.RestErrorResponse(c, http.StatusBadRequest, common.ErrMissingIdempotencyKey)
			}

			// the cache writes below must outlive a client that hung up
			ctx := context.WithoutCancel(req.Context())
			route := req.Method + " " + req.URL.Path

			idm, err := m.getOrCreateIdempotency(ctx, idempotencyKey, route, m.parseRequestBody(c))
			if err != nil {
				switch {
				case errors.Is(err, common.ErrInvalidFingerprint):
					return commonhttp.RestErrorResponse(c, http.StatusUnprocessableEntity, err)
				case errors.Is(err, common.ErrRequestBeingProcessed):
					return commonhttp.RestErrorResponse(c, http.StatusConflict, err)
				default:
					return commonhttp.RestErrorResponse(c, http.StatusInternalServerError, err)
				}
			}

			if idm.StatusProcess == models.IdempotencyStatusProcessFinished {
				for k, v := range idm.ResponseHeaders {
					c.Response().Header().Set(k, v)
				}
				return c.Blob(idm.HTTPStatusCode, idm.ResponseHeaders[echo.HeaderContentType], []byte(idm.ResponseBody))
			}

			resBody := m.getResponseBodyBuffer(c)
			if err = next(c); err != nil {
				c.Error(err)
			}

			statusCode := c.Response().Status
			if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
				// a failed request can be retried with the same key
				return m.releaseLock(ctx, idm)
			}

			headers := make(map[string]string)
			for k, v := range c.Response().Header() {
				if len(v) > 0 {
					headers[k] = v[len(v)-1]
				}
			}
			idm.SetResponse(statusCode, headers, resBody.String())

			// the response is already written, a cache failure only costs the replay
			if err = m.saveResponseToCache(ctx, idm); err != nil {
				xlog.Warn(ctx, "failed to save idempotent response",
					xlog.String("idempotency_key", idempotencyKey),
					xlog.Err(err))
			}

			return nil
		}
	}
}

func (m *AppMiddleware) idempotencyTTL() time.Duration {
	if m.conf.Idempotency.TTL > 0 {
		return m.conf.Idempotency.TTL
	}
	return models.TTLIdempotency
}

// getOrCreateIdempotency will get idempotency data from cache, if not found, it will create new one.
// created idempotency will be using status pending since the request is still being processed
func (m *AppMiddleware) getOrCreateIdempotency(ctx context.Context, key, route string, requestBody []byte) (*models.Idempotency, error) {
	idm := models.NewIdempotency(key, route, models.IdempotencyStatusProcessPending, requestBody)

	strIdm, err := m.cacheRepo.Get(ctx, idm.CacheKey)
	if errors.Is(err, common.ErrDataNotFound) {
		err = m.createLock(ctx, idm)
		if err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to get idempotency data: %w", err)
	}

	if strIdm == "" {
		// no previous idempotency data found
		return idm, nil
	}

	var cachedIdm models.Idempotency
	err = json.Unmarshal([]byte(strIdm), &cachedIdm)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal idempotency data: %w", err)
	}

	if cachedIdm.Fingerprint != idm.Fingerprint {
		return nil, common.ErrInvalidFingerprint
	}

	if cachedIdm.StatusProcess == models.IdempotencyStatusProcessPending {
		return nil, common.ErrRequestBeingProcessed
	}

	return &cachedIdm, nil
}

func (m *AppMiddleware) saveResponseToCache(ctx context.Context, idm *models.Idempotency) error {
	bytIdm, err := json.Marshal(idm)
	if err != nil {
		return fmt.Errorf("failed to marshal idempotency data: %w", err)
	}

	err = m.cacheRepo.Set(ctx, idm.CacheKey, string(bytIdm), m.idempotencyTTL())
	if err != nil {
		return fmt.Errorf("failed to save idempotency data: %w", err)
	}

	return nil
}

func (m *AppMiddleware) createLock(ctx context.Context, idm *models.Idempotency) error {
	bytIdm, err := json.Marshal(idm)
	if err != nil {
		return fmt.Errorf("failed to marshal idempotency data: %w", err)
	}

	set, err := m.cacheRepo.SetIfNotExists(ctx, idm.CacheKey, string(bytIdm), m.idempotencyTTL())
	if err != nil {
		return fmt.Errorf("failed to save idempotency data: %w", err)
	}

	// same key raced in from another request
	if !set {
		return common.ErrRequestBeingProcessed
	}

	return nil
}

func (m *AppMiddleware) releaseLock(ctx context.Context, idm *models.Idempotency) error {
	err := m.cacheRepo.Del(ctx, idm.CacheKey)
	if err != nil {
		return fmt.Errorf("failed to release idempotency data: %w", err)
	}

	return nil
}
