package repositories

import (
	"context"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/feed"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/monitoring"
)

type InstrumentRepository interface {
	Get(ctx context.Context, instrumentID string) (*models.Instrument, error)
	// Upsert writes a catalog entry. The catalog is owned elsewhere, this is
	// used to seed local stores.
	Upsert(ctx context.Context, in models.Instrument) error
	// CatalogFeed is the catalog visible to accountID. With
	// subscription.filter_catalog_by_account off it is the whole catalog.
	CatalogFeed(accountID string) *feed.Feed[models.Instrument]
}

type instrumentRepository docRepo

var _ InstrumentRepository = (*instrumentRepository)(nil)

func (ir *instrumentRepository) Get(ctx context.Context, instrumentID string) (out *models.Instrument, err error) {
	monitor := monitoring.New(ctx)
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	ref := instrumentRef(instrumentID)
	doc, err := ir.r.extractOps(ctx).Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !doc.Exists {
		return nil, notFound(models.ErrKeyInstrumentNotFound, ref, common.ErrNotFound)
	}

	inst, err := decodeInstrument(doc)
	if err != nil {
		return nil, err
	}
	return &inst, nil
}

func (ir *instrumentRepository) Upsert(ctx context.Context, in models.Instrument) (err error) {
	monitor := monitoring.New(ctx)
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	return ir.r.extractOps(ctx).Merge(ctx, instrumentRef(in.ID), encodeInstrument(in))
}

func (ir *instrumentRepository) CatalogFeed(accountID string) *feed.Feed[models.Instrument] {
	q := docstore.CollectionQuery(instrumentsCollection)
	if ir.r.config.Subscription.FilterCatalogByAccount {
		q = docstore.CollectionQuery(instrumentsCollection,
			docstore.Where(fieldAccountIDs, docstore.OpArrayContains, accountID))
	}
	return feed.New(ir.r.store, q, decodeInstrument)
}
