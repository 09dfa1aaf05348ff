package config

import (
	"time"
)

type (
	Config struct {
		App                App                      `json:"app"`
		DocStore           DocStore                 `json:"doc_store"`
		Redis              Redis                    `json:"redis"`
		Ledger             Ledger                   `json:"ledger"`
		Subscription       Subscription             `json:"subscription"`
		Idempotency        Idempotency              `json:"idempotency"`
		MessageBroker      MessageBroker            `json:"message_broker"`
		ExponentialBackoff ExponentialBackOffConfig `json:"exponential_backoff"`
		SecretKey          string                   `json:"secret_key"`
		GcloudProjectID    string                   `json:"gcloud_project_id"`
		NewRelicLicenseKey string                   `json:"new_relic_license_key"`
	}

	App struct {
		Env             string        `json:"env"`
		HTTPPort        int           `json:"http_port"`
		GRPCPort        int           `json:"grpc_port"`
		HTTPTimeout     time.Duration `json:"http_timeout"`
		GracefulTimeout time.Duration `json:"graceful_timeout"`
		Name            string        `json:"name"`
		LogOption       string        `json:"log_option"`
		LogLevel        string        `json:"log_level"`
	}

	// DocStore selects and configures the document store backend. Only the
	// section matching Backend is read.
	DocStore struct {
		Backend   string    `json:"backend"`
		Firestore Firestore `json:"firestore"`
		Postgres  Database  `json:"postgres"`
		Badger    Badger    `json:"badger"`
	}

	Firestore struct {
		ProjectID       string `json:"project_id"`
		DatabaseID      string `json:"database_id"`
		CredentialsFile string `json:"credentials_file"`
	}

	Badger struct {
		Path     string `json:"path"`
		InMemory bool   `json:"in_memory"`
	}

	Database struct {
		DbHost            string `json:"db_host"`
		DbPort            string `json:"db_port"`
		DbUser            string `json:"db_user"`
		DbPass            string `json:"db_pass"`
		DbName            string `json:"db_name"`
		DbSchema          string `json:"db_schema"`
		MaxOpenConnection int    `json:"maxOpenConnections"`
		MaxIdleConnection int    `json:"maxIdleConnections"`
		ConnMaxLifetime   int    `json:"connMaxLifetime"`
	}

	Redis struct {
		Host     string `json:"host"`
		Port     string `json:"port"`
		Password string `json:"password"`
		Db       int    `json:"db"`
	}

	Ledger struct {
		// Atomic runs every record mutation of one ledger call in a single
		// store transaction. When false the steps are applied one by one and
		// a failure halfway is reported as a partial update.
		Atomic bool `json:"atomic"`
	}

	Subscription struct {
		BufferSize             int  `json:"buffer_size"`
		FilterCatalogByAccount bool `json:"filter_catalog_by_account"`
		// KeepAlive is the interval of comment frames on idle SSE streams.
		KeepAlive time.Duration `json:"keep_alive"`
	}

	Idempotency struct {
		TTL time.Duration `json:"ttl"`
	}

	MessageBroker struct {
		KafkaProducer ProducerConfig `json:"kafka_producer"`
		KafkaConsumer ConsumerConfig `json:"kafka_consumer"`
	}

	// ProducerConfig with no brokers disables ledger event publishing.
	ProducerConfig struct {
		Brokers     []string `json:"brokers"`
		TopicLedger string   `json:"topic_ledger"`
	}

	ConsumerConfig struct {
		Brokers                  []string `json:"brokers"`
		ConsumerGroupLedgerRecon string   `json:"consumer_group_ledger_recon"`
		TopicLedger              string   `json:"topic_ledger"`
		TopicDLQ                 string   `json:"topic_dlq"`
		Assignor                 string   `json:"assignor"`
		IsOldest                 bool     `json:"is_oldest"`
		IsVerbose                bool     `json:"is_verbose"`
	}

	ExponentialBackOffConfig struct {
		MaxRetries        uint64        `json:"max_retries"`
		MaxBackoffTime    time.Duration `json:"max_backoff_time"`
		BackoffMultiplier float64       `json:"backoff_multiplier"`
	}
)

const (
	DocStoreBadger    = "badger"
	DocStorePostgres  = "postgres"
	DocStoreFirestore = "firestore"
)
