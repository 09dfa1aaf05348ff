package setup

import (
	"context"
	"database/sql"

	"github.com/Shopify/sarama"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	cMetrics "bitbucket.org/Amartha/go-fp-portfolio/internal/common/metrics"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/deliveries/http/health"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/repositories"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/services"
)

type Setup struct {
	Config    config.Config
	NewRelic  *newrelic.Application
	DB        *sql.DB
	Store     docstore.Store
	Cache     *redis.Client
	RepoCache repositories.CacheRepository
	Producer  sarama.SyncProducer
	Service   *services.Services
	Metrics   cMetrics.Metrics
}

// HealthChecks are the dependencies the readiness probe pings.
func (s *Setup) HealthChecks() []health.Check {
	checks := []health.Check{{
		Name: "redis",
		Ping: func(ctx context.Context) error { return s.Cache.Ping(ctx).Err() },
	}}
	if s.DB != nil {
		checks = append(checks, health.Check{Name: "postgres", Ping: s.DB.PingContext})
	}
	return checks
}
