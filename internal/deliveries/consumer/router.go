package consumer

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"

	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/graceful"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/metrics"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/deliveries/http/health"
)

type svc struct {
	e    *echo.Echo
	addr string
}

var _ graceful.ProcessStartStopper = (*svc)(nil)

func (s *svc) Start() graceful.ProcessStarter {
	return func() error {
		if err := s.e.Start(s.addr); !errors.Is(err, nethttp.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *svc) Stop() graceful.ProcessStopper {
	return func(ctx context.Context) error {
		return s.e.Shutdown(ctx)
	}
}

// NewHTTPServer serves health and metrics next to a consumer process.
func NewHTTPServer(conf config.Config, m metrics.Metrics, checks ...health.Check) *svc {
	app := echo.New()
	app.HideBanner = true
	app.HidePort = true

	app.Pre(echomiddleware.RemoveTrailingSlash())
	app.Use(echomiddleware.Recover())
	app.Use(echomiddleware.RequestID())

	if config.StringToEnvironment(conf.App.Env) != config.PROD_ENV {
		pprof.Register(app)
	}

	m.RegisterEcho(app, "/metrics", fmt.Sprintf("%s_consumer", conf.App.Name))

	health.New(app.Group("/api"), checks...)

	return &svc{e: app, addr: fmt.Sprintf(":%d", conf.App.HTTPPort)}
}
