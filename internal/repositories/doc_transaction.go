package repositories

import (
	"context"
	"errors"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/feed"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/monitoring"
)

type TransactionRepository interface {
	Append(ctx context.Context, in models.Transaction) (models.Transaction, error)
	// ListByAccount reads the account ledger once, oldest first.
	ListByAccount(ctx context.Context, accountID string) ([]models.Transaction, error)
	Feed(accountID string) *feed.Feed[models.Transaction]
}

type transactionRepository docRepo

var _ TransactionRepository = (*transactionRepository)(nil)

func (tr *transactionRepository) Append(ctx context.Context, in models.Transaction) (out models.Transaction, err error) {
	monitor := monitoring.New(ctx)
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	id, err := tr.r.extractOps(ctx).Append(ctx, transactionsCollection, encodeTransaction(in))
	if err != nil {
		return models.Transaction{}, err
	}
	in.ID = id
	return in, nil
}

func (tr *transactionRepository) ListByAccount(ctx context.Context, accountID string) (out []models.Transaction, err error) {
	monitor := monitoring.New(ctx)
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	snap, err := tr.Feed(accountID).Get(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Items, nil
}

func (tr *transactionRepository) Feed(accountID string) *feed.Feed[models.Transaction] {
	q := docstore.CollectionQuery(transactionsCollection,
		docstore.Where(fieldAccountID, docstore.OpEqual, accountID))
	return feed.New(tr.r.store, q, decodeTransaction)
}

func documentQuery(ref docstore.DocumentRef) docstore.Query {
	return docstore.DocumentQuery(ref)
}

func isNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
