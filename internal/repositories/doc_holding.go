package repositories

import (
	"context"

	"github.com/shopspring/decimal"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/feed"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/monitoring"
)

type HoldingRepository interface {
	// Get returns the zero holding and false when the account does not hold
	// the instrument yet.
	Get(ctx context.Context, accountID, instrumentID string) (models.Holding, bool, error)
	// Ensure creates an empty holding unless one exists.
	Ensure(ctx context.Context, accountID, instrumentID string) error
	IncrementQuantity(ctx context.Context, accountID, instrumentID string, delta decimal.Decimal) error
	AppendTransaction(ctx context.Context, in models.InstrumentTransaction) (models.InstrumentTransaction, error)
	Feed(accountID string) *feed.Feed[models.Holding]
	TransactionsFeed(accountID, instrumentID string) *feed.Feed[models.InstrumentTransaction]
}

type holdingRepository docRepo

var _ HoldingRepository = (*holdingRepository)(nil)

func (hr *holdingRepository) Get(ctx context.Context, accountID, instrumentID string) (out models.Holding, found bool, err error) {
	monitor := monitoring.New(ctx)
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	doc, err := hr.r.extractOps(ctx).Get(ctx, holdingRef(accountID, instrumentID))
	if err != nil || !doc.Exists {
		return models.Holding{ID: instrumentID, InstrumentID: instrumentID}, false, err
	}

	out, err = decodeHolding(doc)
	return out, err == nil, err
}

func (hr *holdingRepository) Ensure(ctx context.Context, accountID, instrumentID string) (err error) {
	monitor := monitoring.New(ctx)
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	_, err = hr.r.extractOps(ctx).CreateIfAbsent(ctx, holdingRef(accountID, instrumentID), docstore.Fields{
		fieldInstrumentID: instrumentID,
		fieldQuantity:     decimal.Zero,
	})
	return err
}

func (hr *holdingRepository) IncrementQuantity(ctx context.Context, accountID, instrumentID string, delta decimal.Decimal) (err error) {
	monitor := monitoring.New(ctx)
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	return hr.r.extractOps(ctx).Increment(ctx, holdingRef(accountID, instrumentID), fieldQuantity, delta)
}

func (hr *holdingRepository) AppendTransaction(ctx context.Context, in models.InstrumentTransaction) (out models.InstrumentTransaction, err error) {
	monitor := monitoring.New(ctx)
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	coll := holdingTransactionsCollection(in.AccountID, in.InstrumentID)
	id, err := hr.r.extractOps(ctx).Append(ctx, coll, encodeInstrumentTransaction(in))
	if err != nil {
		return models.InstrumentTransaction{}, err
	}
	in.ID = id
	return in, nil
}

func (hr *holdingRepository) Feed(accountID string) *feed.Feed[models.Holding] {
	return feed.New(hr.r.store, docstore.CollectionQuery(holdingsCollection(accountID)), decodeHolding)
}

func (hr *holdingRepository) TransactionsFeed(accountID, instrumentID string) *feed.Feed[models.InstrumentTransaction] {
	q := docstore.CollectionQuery(holdingTransactionsCollection(accountID, instrumentID))
	return feed.New(hr.r.store, q, decodeInstrumentTransaction)
}
