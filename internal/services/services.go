package services

import (
	"time"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/metrics"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/publisher"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/repositories"
)

type service struct {
	srv *Services
}

type Services struct {
	conf config.Config

	docRepo   repositories.DocRepository
	ledgerPub publisher.Publisher
	metrics   metrics.Metrics
	now       func() time.Time

	common service

	Ledger       *ledger
	Subscription *subscription
	Recon        *recon
}

type Option func(*Services)

// WithClock replaces the wall clock used for transfer dates.
func WithClock(now func() time.Time) Option {
	return func(s *Services) { s.now = now }
}

func New(
	conf config.Config,
	docRepo repositories.DocRepository,
	ledgerPub publisher.Publisher,
	metrics metrics.Metrics,
	opts ...Option,
) *Services {
	if ledgerPub == nil {
		ledgerPub = publisher.Noop{}
	}

	srv := &Services{
		conf:      conf,
		docRepo:   docRepo,
		ledgerPub: ledgerPub,
		metrics:   metrics,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(srv)
	}

	srv.common.srv = srv
	srv.Ledger = (*ledger)(&srv.common)
	srv.Subscription = (*subscription)(&srv.common)
	srv.Recon = (*recon)(&srv.common)

	return srv
}
