package setup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/compute/metadata"
	"github.com/newrelic/go-agent/v3/integrations/nrzap"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"golang.org/x/exp/slices"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/graceful"
	cMetrics "bitbucket.org/Amartha/go-fp-portfolio/internal/common/metrics"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/publisher"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore/badgerstore"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore/firestorestore"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore/pgstore"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/repositories"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/services"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

// Init loads the config and builds every collaborator. The returned stoppers
// release them; graceful.StopProcess runs them last to first.
func Init(command string) (setup *Setup, stopper []graceful.ProcessStopper, err error) {
	ctx := context.Background()

	cfg, err := config.Load(
		config.WithConfigFileName("config"),
		config.WithConfigFileSearchPaths("/config", ".", "./config"),
	)
	if err != nil {
		return
	}

	logLevel := xlog.DebugLogLevel()
	excludedDebugLevelOnEnvs := []config.Environment{
		config.DEV_ENV,
		config.UAT_ENV,
		config.PROD_ENV,
	}

	if slices.Contains(excludedDebugLevelOnEnvs, config.StringToEnvironment(cfg.App.Env)) {
		logLevel = xlog.InfoLogLevel()
	}

	xlog.Init(cfg.App.Name,
		xlog.WithLogToOption(cfg.App.LogOption),
		xlog.WithLogEnvOption(cfg.App.Env),
		xlog.WithCaller(true),
		xlog.AddCallerSkip(2),
		logLevel)

	stopper = append(stopper, func(ctx context.Context) error {
		xlog.Sync()
		return nil
	})

	newRelic := setupNR(ctx, cfg)
	if newRelic != nil {
		stopper = append(stopper, func(ctx context.Context) error {
			newRelic.Shutdown(5 * time.Second)
			return nil
		})
	}

	mtc := cMetrics.New()

	store, db, storeStoppers, err := setupDocStore(ctx, cfg)
	stopper = append(stopper, storeStoppers...)
	if err != nil {
		err = fmt.Errorf("failed to open document store: %w", err)
		return
	}

	if db != nil {
		err = mtc.RegisterDB(db, cfg.App.Name+"-"+command, cfg.DocStore.Postgres.DbName)
		if err != nil {
			err = fmt.Errorf("failed register DB stat prometheus: %w", err)
			return
		}
	}

	cache := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.Db,
	})
	if err = cache.Ping(ctx).Err(); err != nil {
		err = fmt.Errorf("failed connect to redis: %w", err)
		return
	}
	stopper = append(stopper, func(ctx context.Context) error { return cache.Close() })

	err = mtc.RegisterRedis(cache, cfg.App.Name, command)
	if err != nil {
		err = fmt.Errorf("failed register redis prometheus: %w", err)
		return
	}

	var ledgerPub publisher.Publisher = publisher.Noop{}
	producerCfg := cfg.MessageBroker.KafkaProducer
	setup = &Setup{}
	if len(producerCfg.Brokers) > 0 {
		producer, errProducer := publisher.NewKafkaSyncProducer(
			producerCfg.Brokers,
			publisher.WithClientID(cfg.App.Name+"-"+command),
			publisher.WithMetricRegistry(mtc.SaramaRegistry(cfg.App.Name+"-producer", time.Second)),
		)
		if errProducer != nil {
			err = fmt.Errorf("unable to create client kafka sync producer: %w", errProducer)
			return
		}
		stopper = append(stopper, func(ctx context.Context) error { return producer.Close() })

		setup.Producer = producer
		ledgerPub = publisher.NewPublisher(producer, producerCfg.TopicLedger, mtc)
	} else {
		xlog.Warn(ctx, "[SETUP] no kafka producer brokers, ledger events are not published")
	}

	docRepo := repositories.NewDocRepository(store, cfg)
	cacheRepo := repositories.NewCacheRepository(cache)

	srv := services.New(cfg, docRepo, ledgerPub, mtc)

	setup.Config = cfg
	setup.NewRelic = newRelic
	setup.DB = db
	setup.Store = store
	setup.Cache = cache
	setup.RepoCache = cacheRepo
	setup.Service = srv
	setup.Metrics = mtc

	return setup, stopper, nil
}

func setupDocStore(ctx context.Context, cfg config.Config) (docstore.Store, *sql.DB, []graceful.ProcessStopper, error) {
	var stoppers []graceful.ProcessStopper

	switch cfg.DocStore.Backend {
	case config.DocStoreBadger, "":
		store, err := badgerstore.Open(cfg.DocStore.Badger)
		if err != nil {
			return nil, nil, nil, err
		}
		stoppers = append(stoppers, func(context.Context) error { return store.Close() })
		return store, nil, stoppers, nil

	case config.DocStorePostgres:
		dsn := postgresDSN(cfg.DocStore.Postgres)
		db, err := initDB(dsn, cfg.DocStore.Postgres)
		if err != nil {
			return nil, nil, nil, err
		}
		stoppers = append(stoppers, func(context.Context) error { return db.Close() })

		listener, err := pgstore.NewListener(ctx, dsn)
		if err != nil {
			return nil, nil, stoppers, err
		}

		store := pgstore.New(db, pgstore.WithListener(listener))
		stoppers = append(stoppers, func(context.Context) error { return store.Close() })

		if err := store.EnsureSchema(ctx); err != nil {
			return nil, nil, stoppers, fmt.Errorf("failed to create schema: %w", err)
		}
		return store, db, stoppers, nil

	case config.DocStoreFirestore:
		fsConf := cfg.DocStore.Firestore
		if fsConf.ProjectID == "" {
			fsConf.ProjectID = gcloudProjectID(ctx, cfg)
		}
		store, err := firestorestore.Open(ctx, fsConf)
		if err != nil {
			return nil, nil, nil, err
		}
		stoppers = append(stoppers, func(context.Context) error { return store.Close() })
		return store, nil, stoppers, nil

	default:
		return nil, nil, nil, errors.New("unknown doc_store.backend " + cfg.DocStore.Backend)
	}
}

// gcloudProjectID falls back to the metadata server when the config names no project.
func gcloudProjectID(ctx context.Context, cfg config.Config) string {
	if cfg.GcloudProjectID != "" {
		return cfg.GcloudProjectID
	}
	projectID, err := metadata.ProjectID()
	if err != nil {
		xlog.Info(ctx, "can not determine google cloud project, for local use set the gcloud_project_id in config yaml")
	}
	return projectID
}

func postgresDSN(pgConf config.Database) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s search_path=%s sslmode=disable",
		pgConf.DbHost, pgConf.DbPort, pgConf.DbUser, pgConf.DbPass, pgConf.DbName, pgConf.DbSchema,
	)
}

func initDB(dsn string, pgConf config.Database) (*sql.DB, error) {
	const (
		DefaultMaxOpen     = 10
		DefaultMaxIdle     = 10
		DefaultMaxLifetime = 3 // minutes
	)

	db, err := sql.Open("nrpgx", dsn)
	if err != nil {
		return nil, err
	}

	if pgConf.MaxOpenConnection > 0 {
		db.SetMaxOpenConns(pgConf.MaxOpenConnection)
	} else {
		db.SetMaxOpenConns(DefaultMaxOpen)
	}

	if pgConf.MaxIdleConnection > 0 {
		db.SetMaxIdleConns(pgConf.MaxIdleConnection)
	} else {
		db.SetMaxIdleConns(DefaultMaxIdle)
	}

	if pgConf.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(pgConf.ConnMaxLifetime) * time.Minute)
	} else {
		db.SetConnMaxLifetime(time.Duration(DefaultMaxLifetime) * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

func setupNR(ctx context.Context, cfg config.Config) *newrelic.Application {
	if cfg.NewRelicLicenseKey == "" {
		return nil
	}
	if env := config.StringToEnvironment(cfg.App.Env); env != config.PROD_ENV && env != config.UAT_ENV {
		return nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.App.Name),
		newrelic.ConfigLicense(cfg.NewRelicLicenseKey),
		func(nrCfg *newrelic.Config) {
			nrCfg.Logger = nrzap.Transform(xlog.Logger())
		},
		newrelic.ConfigDistributedTracerEnabled(true),
	)
	if err != nil {
		xlog.Errorf(ctx, "setupNR.NewApplication - %v", err)
		return nil
	}
	if err = app.WaitForConnection(15 * time.Second); err != nil {
		xlog.Errorf(ctx, "setupNR.WaitForConnection - %v", err)
	}
	return app
}
