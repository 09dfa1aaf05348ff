package middleware

import (
	"github.com/labstack/echo/v4"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog/ctxdata"
)

// Context puts the correlation id of the request into the request context and
// echoes it back on the response.
func (m *AppMiddleware) Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := ctxdata.SetContextFromHTTP(req.Context(), req)
			c.SetRequest(req.WithContext(ctx))
			c.Response().Header().Set(ctxdata.HeaderCorrelationID, ctxdata.GetCorrelationId(ctx))
			return next(c)
		}
	}
}
