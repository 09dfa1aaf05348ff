package http

import (
	"context"
	"fmt"
	nethttp "net/http"
	"time"

	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/newrelic"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/graceful"
	commonhttp "bitbucket.org/Amartha/go-fp-portfolio/internal/common/http"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/http/middleware"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/metrics"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog/ctxdata"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/deliveries/http/health"
	v1portfolio "bitbucket.org/Amartha/go-fp-portfolio/internal/deliveries/http/v1/portfolio"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/repositories"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/services"
)

type svc struct {
	e               *echo.Echo
	addr            string
	gracefulTimeout time.Duration
}

var _ graceful.ProcessStartStopper = (*svc)(nil)

func (s *svc) Start() graceful.ProcessStarter {
	return func() error {
		return s.e.Start(s.addr)
	}
}

func (s *svc) Stop() graceful.ProcessStopper {
	return func(ctx context.Context) error {
		err := s.e.Shutdown(ctx)

		if err != nil {
			xlog.Errorf(ctx, "[SHUTDOWN] HTTP server error: %v", err)
		} else {
			xlog.Info(ctx, "[SHUTDOWN] HTTP server stopped successfully")
		}

		return err
	}
}

// Handler exposes the router, mostly for tests.
func (s *svc) Handler() nethttp.Handler { return s.e }

// NewHTTPServer builds the public API: health, metrics and the /api/v1
// portfolio routes behind the internal secret key.
//
// @title GO FP PORTFOLIO API DOCUMENTATION
// @version 1.0
// @description Accounts, holdings and their ledgers, with live queries over Server-Sent Events.
// @BasePath /api
func NewHTTPServer(
	conf config.Config,
	nr *newrelic.Application,
	cacheRepo repositories.CacheRepository,
	ledgerService services.LedgerService,
	subscriptionService services.SubscriptionService,
	reconService services.ReconService,
	metrics metrics.Metrics,
	checks ...health.Check,
) *svc {
	app := echo.New()
	app.HideBanner = true

	svc := &svc{
		e:               app,
		addr:            fmt.Sprintf(":%d", conf.App.HTTPPort),
		gracefulTimeout: conf.App.GracefulTimeout,
	}

	m := middleware.NewMiddleware(conf, cacheRepo)
	// options middleware
	app.Pre(echomiddleware.RemoveTrailingSlash())
	app.Use(echomiddleware.Recover())
	app.Use(echomiddleware.RequestID())
	app.Use(m.Context())
	app.Use(m.Logger())

	if nr != nil {
		app.Use(nrecho.Middleware(nr), tagTransaction)
	}

	// pprof
	// Endpoint debug/pprof/
	env := config.StringToEnvironment(conf.App.Env)
	if env != config.PROD_ENV {
		pprof.Register(app)
	}

	// prometheus metrics
	metrics.RegisterEcho(app, "/metrics", conf.App.Name)

	// apiGroup
	apiGroup := app.Group("/api")

	// health check
	health.New(apiGroup, checks...)

	// v1Group
	v1Group := apiGroup.Group("/v1")
	// v1Group middleware
	v1Group.Use(m.InternalAuth())
	// v1Group register api
	v1portfolio.New(v1Group, ledgerService, subscriptionService, reconService, conf.Subscription.KeepAlive, m)

	// prepare an endpoint for 'Not Found'.
	app.Any("*", func(c echo.Context) error {
		errorMessage := fmt.Errorf("route '%s' does not exist in this API", c.Request().URL)
		return commonhttp.RestErrorResponse(c, nethttp.StatusNotFound, errorMessage)
	})

	return svc
}

// tagTransaction labels the New Relic transaction with the correlation id and
// the account the request is about.
func tagTransaction(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
			txn.AddAttribute("x-correlation-id", ctxdata.GetCorrelationId(c.Request().Context()))
			if accountID := c.Param("accountId"); accountID != "" {
				txn.AddAttribute("accountId", accountID)
			}
		}
		return next(c)
	}
}
