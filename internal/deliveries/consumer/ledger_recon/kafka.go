package ledger_recon

import (
	"context"

	"github.com/Shopify/sarama"

	dlqpublisher "bitbucket.org/Amartha/go-fp-portfolio/internal/common/dlq_publisher"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/kafka"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/metrics"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/retry"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/services"
)

const logMessage = "[KAFKA-CONSUMER] [LEDGER-RECON] "

// New consumes ledger events and reconciles the account each one touched.
func New(
	ctx context.Context,
	cfg config.Config,
	recon services.ReconService,
	dlq dlqpublisher.Publisher,
	m metrics.Metrics,
	opts ...Option,
) (*kafka.BaseConsumer, error) {
	o := options{retryer: retry.NewExponentialBackOff(cfg.ExponentialBackoff)}
	for _, opt := range opts {
		opt(&o)
	}

	return kafka.NewBaseConsumer(kafka.BaseConsumerConfig{
		Ctx:     ctx,
		Config:  cfg,
		Metrics: m,
		Handler: func(clientID string, consumerMetrics *metrics.ConsumerMetrics) sarama.ConsumerGroupHandler {
			return NewLedgerReconHandler(kafka.BaseHandler{
				ClientID:        clientID,
				ConsumerMetrics: consumerMetrics,
				DLQ:             dlq,
				LogPrefix:       logMessage,
			}, recon, o.retryer)
		},
		Group:         o.group,
		LogPrefix:     logMessage,
		Topic:         cfg.MessageBroker.KafkaConsumer.TopicLedger,
		ConsumerGroup: cfg.MessageBroker.KafkaConsumer.ConsumerGroupLedgerRecon,
	})
}

type options struct {
	retryer retry.Retryer
	group   kafka.GroupFactory
}

type Option func(*options)

func WithRetryer(r retry.Retryer) Option {
	return func(o *options) { o.retryer = r }
}

func WithGroupFactory(f kafka.GroupFactory) Option {
	return func(o *options) { o.group = f }
}
