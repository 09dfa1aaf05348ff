package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/feed"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/monitoring"
)

type AccountRepository interface {
	// Get returns ErrKeyAccountNotFound, wrapping common.ErrNotFound, for a
	// missing account.
	Get(ctx context.Context, accountID string) (*models.Account, error)
	// Create stores a new account and reports false when it already exists.
	Create(ctx context.Context, in models.Account) (created bool, err error)
	IncrementBalance(ctx context.Context, accountID string, delta decimal.Decimal) error
	Feed(accountID string) *feed.Feed[models.Account]
}

type accountRepository docRepo

var _ AccountRepository = (*accountRepository)(nil)

func (ar *accountRepository) Get(ctx context.Context, accountID string) (out *models.Account, err error) {
	monitor := monitoring.New(ctx)
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	ref := accountRef(accountID)
	doc, err := ar.r.extractOps(ctx).Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !doc.Exists {
		return nil, notFound(models.ErrKeyAccountNotFound, ref, common.ErrNotFound)
	}

	account, err := decodeAccount(doc)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (ar *accountRepository) Create(ctx context.Context, in models.Account) (created bool, err error) {
	monitor := monitoring.New(ctx)
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	return ar.r.extractOps(ctx).CreateIfAbsent(ctx, accountRef(in.ID), encodeAccount(in))
}

func (ar *accountRepository) IncrementBalance(ctx context.Context, accountID string, delta decimal.Decimal) (err error) {
	monitor := monitoring.New(ctx)
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	ref := accountRef(accountID)
	err = ar.r.extractOps(ctx).Increment(ctx, ref, fieldBalance, delta)
	if err != nil && isNotFound(err) {
		return notFound(models.ErrKeyAccountNotFound, ref, err)
	}
	return err
}

func (ar *accountRepository) Feed(accountID string) *feed.Feed[models.Account] {
	return feed.New(ar.r.store, documentQuery(accountRef(accountID)), decodeAccount)
}
