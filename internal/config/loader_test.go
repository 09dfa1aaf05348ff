package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(WithConfigFileSearchPaths(t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, "go-fp-portfolio", cfg.App.Name)
	assert.Equal(t, 50052, cfg.App.GRPCPort)
	assert.Equal(t, 10*time.Second, cfg.App.GracefulTimeout)
	assert.Equal(t, DocStoreBadger, cfg.DocStore.Backend)
	assert.True(t, cfg.DocStore.Badger.InMemory)
	assert.True(t, cfg.Ledger.Atomic)
	assert.True(t, cfg.Subscription.FilterCatalogByAccount)
	assert.Equal(t, 16, cfg.Subscription.BufferSize)
	assert.Equal(t, 24*time.Hour, cfg.Idempotency.TTL)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	content := `
app:
  name: portfolio-test
  http_port: 8080
doc_store:
  backend: postgres
  postgres:
    db_host: db.local
    maxOpenConnections: 20
message_broker:
  kafka_consumer:
    brokers: ["k1:9092", "k2:9092"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))

	t.Setenv("GO_FP_PORTFOLIO_LEDGER_ATOMIC", "false")
	t.Setenv("GO_FP_PORTFOLIO_SUBSCRIPTION_BUFFER_SIZE", "4")
	t.Setenv("PORT", "6000")

	cfg, err := Load(WithConfigFileSearchPaths(dir))
	require.NoError(t, err)

	assert.Equal(t, "portfolio-test", cfg.App.Name)
	assert.Equal(t, 8080, cfg.App.HTTPPort)
	assert.Equal(t, 6000, cfg.App.GRPCPort)
	assert.Equal(t, DocStorePostgres, cfg.DocStore.Backend)
	assert.Equal(t, "db.local", cfg.DocStore.Postgres.DbHost)
	assert.Equal(t, 20, cfg.DocStore.Postgres.MaxOpenConnection)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.MessageBroker.KafkaConsumer.Brokers)
	assert.False(t, cfg.Ledger.Atomic)
	assert.Equal(t, 4, cfg.Subscription.BufferSize)
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	_, err := Load(WithConfigFileSearchPaths(t.TempDir()))
	assert.Error(t, err)
}

func TestStringToEnvironment(t *testing.T) {
	assert.Equal(t, PROD_ENV, StringToEnvironment("PROD"))
	assert.Equal(t, UNDEFINED_ENV, StringToEnvironment("staging"))
	assert.Equal(t, "uat", EnvironmentToString(UAT_ENV))
}
