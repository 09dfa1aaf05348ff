package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const EnvPrefix = "GO_FP_PORTFOLIO"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "local")
	v.SetDefault("app.name", "go-fp-portfolio")
	v.SetDefault("app.http_port", 9567)
	v.SetDefault("app.grpc_port", 50052)
	v.SetDefault("app.http_timeout", "30s")
	v.SetDefault("app.graceful_timeout", "10s")
	v.SetDefault("app.log_option", "stdout")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("doc_store.backend", DocStoreBadger)
	v.SetDefault("doc_store.firestore.project_id", "")
	v.SetDefault("doc_store.firestore.database_id", "")
	v.SetDefault("doc_store.firestore.credentials_file", "")
	v.SetDefault("doc_store.postgres.db_host", "")
	v.SetDefault("doc_store.postgres.db_port", "5432")
	v.SetDefault("doc_store.postgres.db_user", "")
	v.SetDefault("doc_store.postgres.db_pass", "")
	v.SetDefault("doc_store.postgres.db_name", "")
	v.SetDefault("doc_store.postgres.db_schema", "public")
	v.SetDefault("doc_store.badger.path", "")
	v.SetDefault("doc_store.badger.in_memory", true)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("ledger.atomic", true)
	v.SetDefault("subscription.buffer_size", 16)
	v.SetDefault("subscription.filter_catalog_by_account", true)
	v.SetDefault("subscription.keep_alive", "15s")
	v.SetDefault("idempotency.ttl", "24h")
	v.SetDefault("message_broker.kafka_producer.brokers", []string{})
	v.SetDefault("message_broker.kafka_producer.topic_ledger", "portfolio.ledger")
	v.SetDefault("message_broker.kafka_consumer.brokers", []string{})
	v.SetDefault("message_broker.kafka_consumer.consumer_group_ledger_recon", "go-fp-portfolio-ledger-recon")
	v.SetDefault("message_broker.kafka_consumer.topic_ledger", "portfolio.ledger")
	v.SetDefault("message_broker.kafka_consumer.topic_dlq", "portfolio.ledger.dlq")
	v.SetDefault("message_broker.kafka_consumer.assignor", "range")
	v.SetDefault("message_broker.kafka_consumer.is_oldest", true)
	v.SetDefault("message_broker.kafka_consumer.is_verbose", false)
	v.SetDefault("exponential_backoff.max_retries", 3)
	v.SetDefault("exponential_backoff.max_backoff_time", "5s")
	v.SetDefault("exponential_backoff.backoff_multiplier", 1.5)
	v.SetDefault("secret_key", "")
	v.SetDefault("gcloud_project_id", "")
	v.SetDefault("new_relic_license_key", "")
}

type loaderOptions struct {
	fileName    string
	searchPaths []string
}

type LoaderOption func(o *loaderOptions)

func WithConfigFileName(name string) LoaderOption {
	return func(o *loaderOptions) { o.fileName = name }
}

func WithConfigFileSearchPaths(paths ...string) LoaderOption {
	return func(o *loaderOptions) { o.searchPaths = append(o.searchPaths, paths...) }
}

// Load reads the config file (when one is found) and applies environment
// overrides. A key "app.http_port" is overridden by GO_FP_PORTFOLIO_APP_HTTP_PORT.
func Load(opts ...LoaderOption) (Config, error) {
	o := loaderOptions{fileName: "config"}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName(o.fileName)
	for _, p := range o.searchPaths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	})
	if err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	// PORT is what the hosting platform sets for the public listener.
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return Config{}, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.App.GRPCPort = p
	}

	return cfg, nil
}
