package metrics

import (
	"strconv"
	"time"

	"github.com/Shopify/sarama"
	prometheusmetrics "github.com/deathowl/go-metrics-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	goMetrics "github.com/rcrowley/go-metrics"
)

var consumerBuckets = []float64{0.001, 0.010, 0.100, 0.200, 0.500, 1, 2, 5, 10, 60}

// ConsumerMetrics times one consumer group. Registry is handed to sarama so
// the client metrics are bridged to prometheus as well.
type ConsumerMetrics struct {
	group         string
	flushInterval time.Duration
	registerer    prometheus.Registerer
	Registry      goMetrics.Registry

	lagHist        *prometheus.HistogramVec
	processingHist *prometheus.HistogramVec
}

func NewConsumerMetrics(group string, flushInterval time.Duration, reg prometheus.Registerer) *ConsumerMetrics {
	lagHist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kafka_consumer_lag_seconds",
		Help:    "time between a message being produced and its handling finished",
		Buckets: consumerBuckets,
	}, []string{"topic", "consumer_group"})

	processingHist := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kafka_consumer_processing_seconds",
		Help:    "processing time of one message, retries included",
		Buckets: consumerBuckets,
	}, []string{"topic", "success", "consumer_group"})

	reg.MustRegister(lagHist, processingHist)

	return &ConsumerMetrics{
		group:          group,
		flushInterval:  flushInterval,
		registerer:     reg,
		Registry:       goMetrics.NewPrefixedRegistry(FlattenName(group) + "_"),
		lagHist:        lagHist,
		processingHist: processingHist,
	}
}

func (m *ConsumerMetrics) Run() {
	prometheusClient := prometheusmetrics.NewPrometheusProvider(
		m.Registry, "", "", m.registerer, m.flushInterval,
	)
	go prometheusClient.UpdatePrometheusMetrics()
}

func (m *ConsumerMetrics) Observe(startTime time.Time, message *sarama.ConsumerMessage, processErr error) {
	if message == nil {
		return
	}
	endTime := time.Now()

	m.lagHist.WithLabelValues(message.Topic, m.group).
		Observe(endTime.Sub(message.Timestamp).Seconds())
	m.processingHist.WithLabelValues(message.Topic, strconv.FormatBool(processErr == nil), m.group).
		Observe(endTime.Sub(startTime).Seconds())
}
