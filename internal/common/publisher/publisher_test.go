package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Shopify/sarama"
	mockSarama "github.com/Shopify/sarama/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/metrics"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog/ctxdata"
)

func TestMain(m *testing.M) {
	xlog.InitForTest()
	m.Run()
}

func TestPublisher_Publish(t *testing.T) {
	sp := mockSarama.NewSyncProducer(t, nil)
	defer sp.Close()

	var got *sarama.ProducerMessage
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		got = msg
		return nil
	})

	reg := prometheus.NewRegistry()
	p := NewPublisher(sp, "portfolio.ledger", metrics.NewWithRegistry(reg, reg))

	ctx := ctxdata.Sets(context.Background(), ctxdata.SetCorrelationId("cid-1"))
	err := p.Publish(ctx, map[string]string{"accountId": "A1"}, WithKey("A1"))
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "portfolio.ledger", got.Topic)

	key, err := got.Key.Encode()
	require.NoError(t, err)
	assert.Equal(t, "A1", string(key))

	raw, err := got.Value.Encode()
	require.NoError(t, err)
	var body map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "A1", body["accountId"])

	require.Len(t, got.Headers, 1)
	assert.Equal(t, HeaderCorrelationID, string(got.Headers[0].Key))
	assert.Equal(t, "cid-1", string(got.Headers[0].Value))
}

func TestPublisher_PublishFailed(t *testing.T) {
	sp := mockSarama.NewSyncProducer(t, nil)
	defer sp.Close()

	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := NewPublisher(sp, "portfolio.ledger", nil)
	err := p.Publish(context.Background(), "payload")
	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
}

func TestPublisher_PublishUnencodable(t *testing.T) {
	sp := mockSarama.NewSyncProducer(t, nil)
	defer sp.Close()

	p := NewPublisher(sp, "portfolio.ledger", nil)
	err := p.Publish(context.Background(), make(chan int))

	var jsonErr *json.UnsupportedTypeError
	assert.True(t, errors.As(err, &jsonErr))
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Publish(context.Background(), "ignored"))
}
