package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"golang.org/x/sync/errgroup"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/graceful"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/messaging"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/metrics"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
)

// HandlerFactory builds the group handler once the client id and the consumer
// metrics are known.
type HandlerFactory func(clientID string, consumerMetrics *metrics.ConsumerMetrics) sarama.ConsumerGroupHandler

// GroupFactory opens the consumer group. Tests swap it for a mock group.
type GroupFactory func(brokers []string, group string, cfg *sarama.Config) (sarama.ConsumerGroup, error)

type BaseConsumer struct {
	ctx             context.Context
	clientID        string
	cfg             config.Config
	consumerCfg     config.ConsumerConfig
	cg              sarama.ConsumerGroup
	newHandler      HandlerFactory
	newGroup        GroupFactory
	handler         sarama.ConsumerGroupHandler
	metrics         metrics.Metrics
	consumerMetrics *metrics.ConsumerMetrics
	logPrefix       string
	topic           string
	consumerGroup   string
}

type BaseConsumerConfig struct {
	Ctx           context.Context
	Config        config.Config
	Metrics       metrics.Metrics
	Handler       HandlerFactory
	Group         GroupFactory
	LogPrefix     string
	Topic         string
	ConsumerGroup string
}

func NewBaseConsumer(cfg BaseConsumerConfig) (*BaseConsumer, error) {
	if cfg.Handler == nil {
		return nil, errors.New("consumer handler is required")
	}
	newGroup := cfg.Group
	if newGroup == nil {
		newGroup = sarama.NewConsumerGroup
	}

	return &BaseConsumer{
		ctx:           cfg.Ctx,
		cfg:           cfg.Config,
		consumerCfg:   cfg.Config.MessageBroker.KafkaConsumer,
		newHandler:    cfg.Handler,
		newGroup:      newGroup,
		metrics:       cfg.Metrics,
		logPrefix:     cfg.LogPrefix,
		topic:         cfg.Topic,
		consumerGroup: cfg.ConsumerGroup,
	}, nil
}

func (c *BaseConsumer) PreStart() error {
	saramaCfg, err := messaging.CreateSaramaConsumerConfig(c.consumerCfg, c.logPrefix)
	if err != nil {
		return fmt.Errorf("failed to create consumer config: %w", err)
	}

	if c.topic == "" {
		return errors.New("no topics given to be consumed, please set the topic")
	}

	if c.consumerGroup == "" {
		return errors.New("no kafka consumer group defined, please set the group")
	}

	if c.metrics != nil {
		c.consumerMetrics = metrics.NewConsumerMetrics(c.consumerGroup, time.Second, c.metrics.PrometheusRegisterer())
		c.consumerMetrics.Run()
		saramaCfg.MetricRegistry = c.consumerMetrics.Registry
	}

	c.clientID = saramaCfg.ClientID
	c.handler = c.newHandler(c.clientID, c.consumerMetrics)

	client, err := c.newGroup(c.consumerCfg.Brokers, c.consumerGroup, saramaCfg)
	if err != nil {
		return err
	}
	c.cg = client

	return nil
}

func (c *BaseConsumer) Start() graceful.ProcessStarter {
	return func() error {
		if err := c.PreStart(); err != nil {
			return err
		}

		go func() {
			for errCg := range c.cg.Errors() {
				xlog.Error(c.ctx, c.logPrefix, xlog.Err(fmt.Errorf("client error: %w", errCg)))
			}
		}()

		xlog.Info(c.ctx, c.logPrefix,
			xlog.String("status", "consumer started"),
			xlog.String("topic", c.topic),
			xlog.String("group", c.consumerGroup))

		eg, ctx := errgroup.WithContext(c.ctx)

		eg.Go(func() error {
			for {
				if err := c.cg.Consume(ctx, []string{c.topic}, c.handler); err != nil {
					if errors.Is(err, sarama.ErrClosedConsumerGroup) {
						return nil
					}
					xlog.Warn(c.ctx, c.logPrefix, xlog.Err(fmt.Errorf("error start consumer: %w", err)))
				}
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("context was canceled: %w", err)
				}
			}
		})

		return eg.Wait()
	}
}

func (c *BaseConsumer) Stop() graceful.ProcessStopper {
	return func(ctx context.Context) error {
		if c.cg == nil {
			return nil
		}
		return c.cg.Close()
	}
}
