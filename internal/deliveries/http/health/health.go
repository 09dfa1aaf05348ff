package health

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	commonhttp "bitbucket.org/Amartha/go-fp-portfolio/internal/common/http"
)

// Check is one dependency probed by the readiness endpoint.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type healthHandler struct {
	checks []Check
}

// New health handler will initialize the health/ resources endpoint
func New(app *echo.Group, checks ...Check) {
	hh := healthHandler{checks: checks}
	app.GET("/health", hh.healthCheck())
	app.GET("/health/ready", hh.readinessCheck())
}

type (
	DoHealthCheckLivenessResponse struct {
		Kind   string `json:"kind"`
		Status string `json:"status"`
	}

	DoHealthCheckReadinessResponse struct {
		Kind   string            `json:"kind"`
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
)

// healthCheck godoc
// @Summary 	Liveness of the server
// @Produce		json
// @Success 200 {object} DoHealthCheckLivenessResponse
// @Router /health [get]
func (th healthHandler) healthCheck() echo.HandlerFunc {
	return func(c echo.Context) error {
		return commonhttp.RestSuccessResponse(c, http.StatusOK, DoHealthCheckLivenessResponse{
			Kind:   "health",
			Status: "server is up and running",
		})
	}
}

// readinessCheck answers 503 as soon as one dependency fails its ping.
// @Summary 	Readiness of the server dependencies
// @Produce		json
// @Success 200 {object} DoHealthCheckReadinessResponse
// @Failure 503 {object} DoHealthCheckReadinessResponse
// @Router /health/ready [get]
func (th healthHandler) readinessCheck() echo.HandlerFunc {
	return func(c echo.Context) error {
		res := DoHealthCheckReadinessResponse{
			Kind:   "readiness",
			Status: "ready",
			Checks: make(map[string]string, len(th.checks)),
		}
		code := http.StatusOK
		for _, check := range th.checks {
			if err := check.Ping(c.Request().Context()); err != nil {
				res.Checks[check.Name] = fmt.Sprintf("down: %v", err)
				res.Status = "not ready"
				code = http.StatusServiceUnavailable
				continue
			}
			res.Checks[check.Name] = "up"
		}
		return commonhttp.RestSuccessResponse(c, code, res)
	}
}
