package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Shopify/sarama"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/metrics"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog/ctxdata"
)

const (
	logIdentifier = "[GENERAL-PUBLISHER]"

	HeaderCorrelationID = "X-Correlation-Id"
)

type Publisher interface {
	Publish(ctx context.Context, message any, opts ...PublishOption) error
}

type publishOptions struct {
	key     string
	headers map[string]string
}

type PublishOption func(*publishOptions)

// WithKey sets the partition key. Ledger events are keyed by account so one
// account's events stay ordered.
func WithKey(key string) PublishOption {
	return func(opts *publishOptions) {
		opts.key = key
	}
}

func WithHeaders(headers map[string]string) PublishOption {
	return func(opts *publishOptions) {
		opts.headers = headers
	}
}

type publisher struct {
	producer sarama.SyncProducer
	topic    string
	metrics  metrics.Metrics
}

func NewPublisher(p sarama.SyncProducer, topic string, m metrics.Metrics) Publisher {
	return publisher{
		producer: p,
		topic:    topic,
		metrics:  m,
	}
}

func (d publisher) Publish(ctx context.Context, message any, opts ...PublishOption) (err error) {
	startTime := time.Now()
	defer func() {
		if d.metrics != nil {
			d.metrics.GetPublisherPrometheus().GenerateMetrics(startTime, d.topic, err)
		}
	}()

	options := &publishOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if cid := ctxdata.GetCorrelationId(ctx); cid != "" {
		if options.headers == nil {
			options.headers = map[string]string{}
		}
		if _, ok := options.headers[HeaderCorrelationID]; !ok {
			options.headers[HeaderCorrelationID] = cid
		}
	}

	msg, err := d.prepareMessage(message, options)
	if err != nil {
		xlog.Error(ctx, logIdentifier,
			xlog.String("status", "failed prepare message"),
			xlog.Err(err))
		return err
	}

	partition, offset, err := d.producer.SendMessage(msg)
	if err != nil {
		xlog.Error(ctx, logIdentifier,
			xlog.String("status", "failed send message"),
			xlog.String("topic", d.topic),
			xlog.Err(err))
		return err
	}

	xlog.Info(ctx, logIdentifier,
		xlog.String("status", "success publish message"),
		xlog.String("topic", d.topic),
		xlog.Int32("partition", partition),
		xlog.Int64("offset", offset),
	)

	return nil
}

func (d publisher) prepareMessage(message any, opts *publishOptions) (*sarama.ProducerMessage, error) {
	msgByte, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	producerMsg := &sarama.ProducerMessage{
		Topic: d.topic,
		Value: sarama.ByteEncoder(msgByte),
	}

	if opts.key != "" {
		producerMsg.Key = sarama.StringEncoder(opts.key)
	}
	for key, value := range opts.headers {
		producerMsg.Headers = append(producerMsg.Headers, sarama.RecordHeader{
			Key:   []byte(key),
			Value: []byte(value),
		})
	}

	return producerMsg, nil
}

// Noop drops every message. It stands in when no producer brokers are
// configured.
type Noop struct{}

func (Noop) Publish(context.Context, any, ...PublishOption) error { return nil }
