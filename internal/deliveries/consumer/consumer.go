package consumer

import (
	"context"
	"errors"
	"fmt"

	"bitbucket.org/Amartha/go-fp-portfolio/cmd/setup"
	dlqpublisher "bitbucket.org/Amartha/go-fp-portfolio/internal/common/dlq_publisher"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/graceful"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/publisher"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/deliveries/consumer/ledger_recon"
)

const NameLedgerRecon = "ledger_recon"

// NewKafkaConsumer builds the consumer registered under consumerName. The
// returned stoppers release resources the consumer owns.
func NewKafkaConsumer(
	ctx context.Context,
	consumerName string,
	contract *setup.Setup,
) (consumerProcess graceful.ProcessStartStopper, stoppers []graceful.ProcessStopper, err error) {
	conf := contract.Config

	switch consumerName {
	case NameLedgerRecon:
		if conf.MessageBroker.KafkaConsumer.TopicDLQ == "" {
			err = errors.New("no dlq topic defined, please set message_broker.kafka_consumer.topic_dlq")
			return
		}

		producer, errProducer := publisher.NewKafkaSyncProducer(
			conf.MessageBroker.KafkaConsumer.Brokers,
			publisher.WithClientID(conf.App.Name+"-"+consumerName+"-dlq"),
		)
		if errProducer != nil {
			err = fmt.Errorf("failed setup kafka dlq publisher : %w", errProducer)
			return
		}
		stoppers = append(stoppers, func(ctx context.Context) error { return producer.Close() })

		dlq := dlqpublisher.New(producer, conf.MessageBroker.KafkaConsumer.TopicDLQ, contract.Metrics)
		consumerProcess, err = ledger_recon.New(ctx, conf, contract.Service.Recon, dlq, contract.Metrics)
	default:
		err = fmt.Errorf("consumer type name for %s not found", consumerName)
	}

	return
}
