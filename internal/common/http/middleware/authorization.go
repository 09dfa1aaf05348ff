package middleware

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	commonhttp "bitbucket.org/Amartha/go-fp-portfolio/internal/common/http"
)

const HeaderSecretKey = "X-Secret-Key"

func (m *AppMiddleware) InternalAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			secretKey := c.Request().Header.Get(HeaderSecretKey)
			statusCode := http.StatusUnauthorized
			if secretKey == "" {
				return commonhttp.RestErrorResponse(c, statusCode, fmt.Errorf("%s", "required secret key"))
			}

			if secretKey != m.conf.SecretKey {
				return commonhttp.RestErrorResponse(c, statusCode, fmt.Errorf("%s", "invalid secret key"))
			}

			return next(c)
		}
	}
}
