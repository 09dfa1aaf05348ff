package dlqpublisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Shopify/sarama"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/metrics"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog/ctxdata"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
)

const (
	prefixLogMessage = "[DLQ]"

	HeaderSourceTopic = "X-Source-Topic"
	HeaderAttempts    = "X-Attempts"
)

type Publisher interface {
	Publish(ctx context.Context, message models.FailedMessage) error
}

type kafkaDlq struct {
	producer sarama.SyncProducer
	topic    string
	metrics  metrics.Metrics
}

func New(p sarama.SyncProducer, topic string, metrics metrics.Metrics) Publisher {
	return kafkaDlq{p, topic, metrics}
}

// Publish parks message on the DLQ topic. The record keeps the source key so
// a replay lands on the same partition as the original ledger events.
func (d kafkaDlq) Publish(ctx context.Context, message models.FailedMessage) (err error) {
	startTime := time.Now()
	defer func() {
		if d.metrics != nil {
			d.metrics.GetPublisherPrometheus().GenerateMetrics(startTime, d.topic, err)
		}
	}()

	fields := []xlog.Field{
		xlog.String("topic", d.topic),
		xlog.String("source_topic", message.Topic),
		xlog.Int32("source_partition", message.Partition),
		xlog.Int64("source_offset", message.Offset),
		xlog.Int("attempts", message.Attempts),
	}

	msg, err := d.record(ctx, message)
	if err != nil {
		xlog.Error(ctx, prefixLogMessage+" encode failed", append(fields, xlog.Err(err))...)
		return err
	}

	if _, _, err = d.producer.SendMessage(msg); err != nil {
		xlog.Error(ctx, prefixLogMessage+" publish failed", append(fields, xlog.Err(err))...)
		return err
	}

	xlog.Info(ctx, prefixLogMessage+" parked", fields...)
	return nil
}

func (d kafkaDlq) record(ctx context.Context, message models.FailedMessage) (*sarama.ProducerMessage, error) {
	if message.CauseError != nil && message.Error == "" {
		message.Error = message.CauseError.Error()
	}

	value, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal failed message: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: d.topic,
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderSourceTopic), Value: []byte(message.Topic)},
			{Key: []byte(HeaderAttempts), Value: []byte(strconv.Itoa(message.Attempts))},
		},
	}
	if cid := ctxdata.GetCorrelationId(ctx); cid != "" {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{Key: []byte(ctxdata.HeaderCorrelationID), Value: []byte(cid)})
	}
	if message.Key != "" {
		msg.Key = sarama.StringEncoder(message.Key)
	}
	return msg, nil
}
