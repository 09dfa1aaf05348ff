package metrics

import (
	"database/sql"
	"fmt"
	"time"

	prometheusmetrics "github.com/deathowl/go-metrics-prometheus"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	saramaMetrics "github.com/rcrowley/go-metrics"
	"github.com/redis/go-redis/extra/redisprometheus/v9"
	"github.com/redis/go-redis/v9"
)

type Metrics interface {
	RegisterDB(db *sql.DB, role string, dbName string) error
	RegisterRedis(client *redis.Client, serviceName, namespace string) error
	// RegisterEcho installs the request middleware and serves the registry
	// at path.
	RegisterEcho(app *echo.Echo, path, serviceName string)
	SaramaRegistry(name string, flushInterval time.Duration) saramaMetrics.Registry
	PrometheusRegisterer() prometheus.Registerer
	GetLedgerPrometheus() *LedgerPrometheusMetrics
	GetSubscriptionPrometheus() *SubscriptionPrometheusMetrics
	GetPublisherPrometheus() *PublisherPrometheusMetrics
}

type metrics struct {
	reg                 prometheus.Registerer
	gatherer            prometheus.Gatherer
	ledgerMetrics       *LedgerPrometheusMetrics
	subscriptionMetrics *SubscriptionPrometheusMetrics
	publisherMetrics    *PublisherPrometheusMetrics
}

func New() Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// NewWithRegistry is New on a private registry, used by tests that need
// fresh counters.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) Metrics {
	return &metrics{
		reg:                 reg,
		gatherer:            gatherer,
		ledgerMetrics:       newLedgerPrometheusMetrics(reg),
		subscriptionMetrics: newSubscriptionPrometheusMetrics(reg),
		publisherMetrics:    newPublisherPrometheusMetrics(reg),
	}
}

func (m *metrics) RegisterDB(db *sql.DB, role string, dbName string) error {
	return m.reg.Register(collectors.NewDBStatsCollector(db, fmt.Sprintf("%s_%s", dbName, role)))
}

func (m *metrics) RegisterRedis(client *redis.Client, serviceName, namespace string) error {
	return m.reg.Register(redisprometheus.NewCollector(BuildFQName(serviceName, namespace), "redis", client))
}

func (m *metrics) RegisterEcho(app *echo.Echo, path, serviceName string) {
	app.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  FlattenName(serviceName),
		Registerer: m.reg,
		Skipper: func(c echo.Context) bool {
			return c.Path() == path
		},
	}))
	app.GET(path, echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: m.gatherer,
	}))
}

func (m *metrics) SaramaRegistry(name string, flushInterval time.Duration) saramaMetrics.Registry {
	appMetrics := saramaMetrics.NewPrefixedRegistry(name + "_")
	prometheusClient := prometheusmetrics.NewPrometheusProvider(
		appMetrics, "", "", m.reg, flushInterval,
	)
	go prometheusClient.UpdatePrometheusMetrics()

	return appMetrics
}

func (m *metrics) PrometheusRegisterer() prometheus.Registerer {
	return m.reg
}

func (m *metrics) GetLedgerPrometheus() *LedgerPrometheusMetrics {
	return m.ledgerMetrics
}

func (m *metrics) GetSubscriptionPrometheus() *SubscriptionPrometheusMetrics {
	return m.subscriptionMetrics
}

func (m *metrics) GetPublisherPrometheus() *PublisherPrometheusMetrics {
	return m.publisherMetrics
}
