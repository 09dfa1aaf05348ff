package repositories

import (
	"context"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
)

type docRepo struct {
	r *Repository
}

type Repository struct {
	store  docstore.Store
	config config.Config
	common docRepo

	ar *accountRepository
	hr *holdingRepository
	ir *instrumentRepository
	tr *transactionRepository
}

func NewDocRepository(store docstore.Store, cfg config.Config) *Repository {
	rtx := &Repository{
		store:  store,
		config: cfg,
	}
	rtx.common.r = rtx
	rtx.ar = (*accountRepository)(&rtx.common)
	rtx.hr = (*holdingRepository)(&rtx.common)
	rtx.ir = (*instrumentRepository)(&rtx.common)
	rtx.tr = (*transactionRepository)(&rtx.common)

	return rtx
}

type DocRepository interface {
	// Atomic runs steps as one unit of the document store. Every repository
	// call made with the ctx passed to steps joins the unit.
	Atomic(ctx context.Context, steps func(ctx context.Context, r DocRepository) error) error
	GetAccountRepository() AccountRepository
	GetHoldingRepository() HoldingRepository
	GetInstrumentRepository() InstrumentRepository
	GetTransactionRepository() TransactionRepository
}

var _ DocRepository = (*Repository)(nil)

func (r *Repository) Atomic(ctx context.Context, steps func(ctx context.Context, r DocRepository) error) error {
	if _, ok := ctx.Value(opsKey{}).(docstore.Operations); ok {
		return steps(ctx, r)
	}

	return r.store.RunAtomic(ctx, func(ctx context.Context, ops docstore.Operations) error {
		return steps(injectOps(ctx, ops), r)
	})
}

func (r *Repository) GetAccountRepository() AccountRepository {
	return r.ar
}

func (r *Repository) GetHoldingRepository() HoldingRepository {
	return r.hr
}

func (r *Repository) GetInstrumentRepository() InstrumentRepository {
	return r.ir
}

func (r *Repository) GetTransactionRepository() TransactionRepository {
	return r.tr
}
