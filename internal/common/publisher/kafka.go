package publisher

import (
	"hash"
	"time"

	"github.com/Shopify/sarama"
	goMetrics "github.com/rcrowley/go-metrics"
)

type Option func(*sarama.Config)

func NewKafkaSyncProducer(brokers []string, opts ...Option) (sarama.SyncProducer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.Return.Errors = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Idempotent = true
	saramaCfg.Net.MaxOpenRequests = 1
	saramaCfg.Producer.Timeout = 2 * time.Second
	saramaCfg.Net.DialTimeout = 2 * time.Second
	saramaCfg.Net.ReadTimeout = 2 * time.Second
	saramaCfg.Net.WriteTimeout = 2 * time.Second
	saramaCfg.Version = sarama.V3_0_0_0

	for _, opt := range opts {
		opt(saramaCfg)
	}

	return sarama.NewSyncProducer(brokers, saramaCfg)
}

func WithCustomHasher(hasher func() hash.Hash32) Option {
	return func(cfg *sarama.Config) {
		cfg.Producer.Partitioner = sarama.NewCustomHashPartitioner(hasher)
	}
}

// WithMetricRegistry exports the sarama client metrics through r.
func WithMetricRegistry(r goMetrics.Registry) Option {
	return func(cfg *sarama.Config) {
		cfg.MetricRegistry = r
	}
}

func WithClientID(id string) Option {
	return func(cfg *sarama.Config) {
		cfg.ClientID = id
	}
}
