package services

import (
	"context"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/feed"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/mergejoin"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/monitoring"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/session"
)

const logSubscription = "[SUBSCRIPTION]"

// SubscriptionService opens live queries. Every returned stream must be
// cancelled by the caller once it stops reading, whatever the reason.
type SubscriptionService interface {
	OpenAccount(ctx context.Context, accountID string) (session.Stream[models.Account], error)
	OpenHoldings(ctx context.Context, accountID string) (session.Stream[[]models.MergedHolding], error)
	OpenTransactions(ctx context.Context, accountID string) (session.Stream[[]models.Transaction], error)
	OpenHoldingTransactions(ctx context.Context, accountID, instrumentID string) (session.Stream[[]models.InstrumentTransaction], error)
}

type subscription service

var _ SubscriptionService = (*subscription)(nil)

func (ss *subscription) OpenAccount(ctx context.Context, accountID string) (session.Stream[models.Account], error) {
	f := ss.srv.docRepo.GetAccountRepository().Feed(accountID)
	return openSingle(ctx, ss, models.KindAccount, f, models.ErrKeyAccountNotFound)
}

func (ss *subscription) OpenTransactions(ctx context.Context, accountID string) (session.Stream[[]models.Transaction], error) {
	f := ss.srv.docRepo.GetTransactionRepository().Feed(accountID)
	return openList(ctx, ss, models.KindTransactions, f)
}

func (ss *subscription) OpenHoldingTransactions(ctx context.Context, accountID, instrumentID string) (session.Stream[[]models.InstrumentTransaction], error) {
	f := ss.srv.docRepo.GetHoldingRepository().TransactionsFeed(accountID, instrumentID)
	return openList(ctx, ss, models.KindInstrumentTransaction, f)
}

// OpenHoldings joins the catalog visible to the account with its holdings.
// Each session owns its own engine, so views are never shared.
func (ss *subscription) OpenHoldings(ctx context.Context, accountID string) (_ session.Stream[[]models.MergedHolding], err error) {
	monitor := monitoring.New(ctx, monitoring.WithAttribute("account_id", accountID))
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	kind := models.KindHoldings
	ss.srv.metrics.GetSubscriptionPrometheus().SessionOpened(kind)
	sess := session.Open[[]models.MergedHolding](ctx, ss.srv.conf.Subscription.BufferSize, ss.onClose(ctx, kind))

	engine := mergejoin.New(func(_ context.Context, view []models.MergedHolding) error {
		err := sess.Send(view)
		if err == nil {
			ss.srv.metrics.GetSubscriptionPrometheus().ObserveSnapshot(kind)
		}
		return err
	})

	catalog := ss.srv.docRepo.GetInstrumentRepository().CatalogFeed(accountID)
	holdings := ss.srv.docRepo.GetHoldingRepository().Feed(accountID)

	catalogReg, err := catalog.Subscribe(ctx, func(snap feed.Snapshot[models.Instrument], err error) {
		if err != nil {
			sess.Fail(feedError(err))
			return
		}
		// ErrClosed only means the session ended meanwhile
		_ = engine.ApplyCatalog(ctx, snap.Items)
	})
	if err != nil {
		sess.Cancel()
		return nil, feedError(err)
	}
	sess.Attach(catalogReg)

	holdingsReg, err := holdings.Subscribe(ctx, func(snap feed.Snapshot[models.Holding], err error) {
		if err != nil {
			sess.Fail(feedError(err))
			return
		}
		_ = engine.ApplyHoldings(ctx, snap.Items)
	})
	if err != nil {
		sess.Cancel()
		return nil, feedError(err)
	}
	sess.Attach(holdingsReg)

	return sess, nil
}

func (ss *subscription) onClose(ctx context.Context, kind string) session.Option {
	return session.WithOnClose(func(err error) {
		m := ss.srv.metrics.GetSubscriptionPrometheus()
		m.SessionClosed(kind)
		if err == nil {
			xlog.Debug(ctx, logSubscription, xlog.String("status", "closed"), xlog.String("kind", kind))
			return
		}

		code, _ := models.ErrorCodeOf(err)
		m.ObserveFailure(kind, code)
		xlog.Warn(ctx, logSubscription,
			xlog.String("status", "failed"),
			xlog.String("kind", kind),
			xlog.String("code", code),
			xlog.Err(err))
	})
}

// openSingle streams one document. A missing document fails the session
// with notFoundKey instead of emitting an empty value.
func openSingle[T any](ctx context.Context, ss *subscription, kind string, f *feed.Feed[T], notFoundKey string) (_ session.Stream[T], err error) {
	monitor := monitoring.New(ctx, monitoring.WithAttribute("kind", kind))
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	ss.srv.metrics.GetSubscriptionPrometheus().SessionOpened(kind)
	sess := session.Open[T](ctx, ss.srv.conf.Subscription.BufferSize, ss.onClose(ctx, kind))

	reg, err := f.Subscribe(ctx, func(snap feed.Snapshot[T], err error) {
		if err != nil {
			sess.Fail(feedError(err))
			return
		}
		item, ok := snap.Single()
		if !ok {
			sess.Fail(sessionNotFound(notFoundKey))
			return
		}
		if sess.Send(item) == nil {
			ss.srv.metrics.GetSubscriptionPrometheus().ObserveSnapshot(kind)
		}
	})
	if err != nil {
		sess.Cancel()
		return nil, feedError(err)
	}
	sess.Attach(reg)

	return sess, nil
}

// openList streams a collection. An empty result is emitted as an empty
// list.
func openList[T any](ctx context.Context, ss *subscription, kind string, f *feed.Feed[T]) (_ session.Stream[[]T], err error) {
	monitor := monitoring.New(ctx, monitoring.WithAttribute("kind", kind))
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	ss.srv.metrics.GetSubscriptionPrometheus().SessionOpened(kind)
	sess := session.Open[[]T](ctx, ss.srv.conf.Subscription.BufferSize, ss.onClose(ctx, kind))

	reg, err := f.Subscribe(ctx, func(snap feed.Snapshot[T], err error) {
		if err != nil {
			sess.Fail(feedError(err))
			return
		}
		items := snap.Items
		if items == nil {
			items = []T{}
		}
		if sess.Send(items) == nil {
			ss.srv.metrics.GetSubscriptionPrometheus().ObserveSnapshot(kind)
		}
	})
	if err != nil {
		sess.Cancel()
		return nil, feedError(err)
	}
	sess.Attach(reg)

	return sess, nil
}
