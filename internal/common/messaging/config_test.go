package messaging

import (
	"testing"

	"github.com/Shopify/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
)

func TestCreateSaramaConsumerConfig(t *testing.T) {
	brokers := []string{"localhost:9092"}

	tests := []struct {
		name         string
		cfg          config.ConsumerConfig
		wantStrategy string
		wantInitial  int64
		wantErr      error
	}{
		{
			name:         "oldest offset",
			cfg:          config.ConsumerConfig{Brokers: brokers, IsOldest: true},
			wantStrategy: sarama.BalanceStrategyRange.Name(),
			wantInitial:  sarama.OffsetOldest,
		},
		{
			name:         "sticky",
			cfg:          config.ConsumerConfig{Brokers: brokers, Assignor: "sticky"},
			wantStrategy: sarama.BalanceStrategySticky.Name(),
			wantInitial:  sarama.OffsetNewest,
		},
		{
			name:         "roundrobin",
			cfg:          config.ConsumerConfig{Brokers: brokers, Assignor: "roundrobin"},
			wantStrategy: sarama.BalanceStrategyRoundRobin.Name(),
			wantInitial:  sarama.OffsetNewest,
		},
		{
			name:         "unknown assignor falls back to range",
			cfg:          config.ConsumerConfig{Brokers: brokers, Assignor: "cooperative"},
			wantStrategy: sarama.BalanceStrategyRange.Name(),
			wantInitial:  sarama.OffsetNewest,
		},
		{
			name:    "missing broker",
			cfg:     config.ConsumerConfig{},
			wantErr: ErrNoBrokers,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CreateSaramaConsumerConfig(tt.cfg, "[TEST]")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, got.Consumer.Group.Rebalance.GroupStrategies, 1)
			assert.Equal(t, tt.wantStrategy, got.Consumer.Group.Rebalance.GroupStrategies[0].Name())
			assert.Equal(t, tt.wantInitial, got.Consumer.Offsets.Initial)
			assert.True(t, got.Consumer.Return.Errors)
		})
	}
}
