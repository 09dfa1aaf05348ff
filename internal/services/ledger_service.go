package services

import (
	"context"

	"github.com/shopspring/decimal"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/metrics"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/publisher"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/monitoring"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/repositories"
)

const logLedger = "[LEDGER]"

type LedgerService interface {
	// ApplyAccountTransaction moves an account balance by magnitude, up for a
	// credit and down otherwise, and records the move in the account ledger.
	ApplyAccountTransaction(ctx context.Context, accountID string, magnitude decimal.Decimal, credit bool) (models.Transaction, error)

	// ApplyHoldingTransaction moves a holding quantity and settles its value
	// at the current instrument price against the account balance.
	ApplyHoldingTransaction(ctx context.Context, accountID, instrumentID string, quantity decimal.Decimal, credit bool) (models.InstrumentTransaction, error)
}

type ledger service

var _ LedgerService = (*ledger)(nil)

// ledgerSteps records the mutations the store acknowledged so far.
type ledgerSteps struct {
	applied []models.LedgerStep
	failed  models.LedgerStep
}

func (st *ledgerSteps) do(step models.LedgerStep, fn func() error) error {
	if err := fn(); err != nil {
		st.failed = step
		return err
	}
	st.applied = append(st.applied, step)
	return nil
}

type ledgerBody func(ctx context.Context, r repositories.DocRepository, st *ledgerSteps) error

// run executes body as one atomic unit, or step by step when the ledger is
// configured non-atomic. In the latter case a failure after at least one
// acknowledged step is a partial update.
func (ls *ledger) run(ctx context.Context, accountID, instrumentID string, body ledgerBody) error {
	st := &ledgerSteps{}

	if ls.srv.conf.Ledger.Atomic {
		err := ls.srv.docRepo.Atomic(ctx, func(ctx context.Context, r repositories.DocRepository) error {
			// replayed on conflict
			*st = ledgerSteps{}
			return body(ctx, r, st)
		})
		return checkStoreError(err)
	}

	err := body(ctx, ls.srv.docRepo, st)
	if err == nil {
		return nil
	}
	if len(st.applied) == 0 {
		return checkStoreError(err)
	}

	partial := &models.PartialLedgerUpdateError{
		AccountID:    accountID,
		InstrumentID: instrumentID,
		Applied:      st.applied,
		Failed:       st.failed,
		Cause:        checkStoreError(err),
	}
	ls.reportPartial(ctx, partial)
	return partial
}

func (ls *ledger) reportPartial(ctx context.Context, partial *models.PartialLedgerUpdateError) {
	kind := metrics.LedgerKindAccount
	if partial.InstrumentID != "" {
		kind = metrics.LedgerKindHolding
	}
	ls.srv.metrics.GetLedgerPrometheus().ObservePartialUpdate(kind, string(partial.Failed))

	xlog.Error(ctx, logLedger,
		xlog.String("status", "partial ledger update"),
		xlog.String("account_id", partial.AccountID),
		xlog.String("instrument_id", partial.InstrumentID),
		xlog.Any("applied", partial.Applied),
		xlog.String("failed", string(partial.Failed)),
		xlog.Err(partial.Cause))

	ls.publish(ctx, models.LedgerEvent{
		Type:         models.LedgerEventPartialUpdate,
		AccountID:    partial.AccountID,
		InstrumentID: partial.InstrumentID,
		Applied:      partial.Applied,
		Failed:       partial.Failed,
		Error:        partial.Cause.Error(),
		OccurredAt:   ls.srv.now().Unix(),
	})
}

// publish never fails the ledger call: the store already holds the change.
func (ls *ledger) publish(ctx context.Context, ev models.LedgerEvent) {
	if err := ls.srv.ledgerPub.Publish(ctx, ev, publisher.WithKey(ev.AccountID)); err != nil {
		xlog.Warn(ctx, logLedger,
			xlog.String("status", "failed publish ledger event"),
			xlog.String("type", string(ev.Type)),
			xlog.String("account_id", ev.AccountID),
			xlog.Err(err))
	}
}

func validateLedgerInput(magnitude decimal.Decimal, refs ...string) error {
	for _, ref := range refs {
		if ref == "" {
			return models.WrapErrMap(models.ErrKeyMissingReference, common.ErrMissingReference)
		}
	}
	if magnitude.IsNegative() {
		return models.WrapErrMap(models.ErrKeyInvalidAmount, common.ErrInvalidAmount)
	}
	return nil
}

func (ls *ledger) ApplyAccountTransaction(ctx context.Context, accountID string, magnitude decimal.Decimal, credit bool) (out models.Transaction, err error) {
	monitor := monitoring.New(ctx, monitoring.WithAttribute("account_id", accountID))
	defer func() {
		ls.srv.metrics.GetLedgerPrometheus().ObserveTransaction(metrics.LedgerKindAccount, credit, err)
		monitor.Finish(monitoring.WithFinishCheckError(err))
	}()

	if err = validateLedgerInput(magnitude, accountID); err != nil {
		return out, err
	}

	trx := models.Transaction{
		AccountID:    accountID,
		Amount:       magnitude,
		SignedAmount: models.Signed(magnitude, credit),
		TransferDate: ls.srv.now().Unix(),
		Credit:       credit,
	}

	err = ls.run(ctx, accountID, "", func(ctx context.Context, r repositories.DocRepository, st *ledgerSteps) error {
		// balance first, so the entry never shows up before its effect
		err := st.do(models.StepIncrementBalance, func() error {
			return r.GetAccountRepository().IncrementBalance(ctx, accountID, trx.SignedAmount)
		})
		if err != nil {
			return err
		}

		return st.do(models.StepAppendTransaction, func() error {
			var err error
			out, err = r.GetTransactionRepository().Append(ctx, trx)
			return err
		})
	})
	if err != nil {
		return models.Transaction{}, err
	}

	ls.publish(ctx, models.LedgerEvent{
		Type:          models.LedgerEventTransactionApplied,
		AccountID:     accountID,
		TransactionID: out.ID,
		SignedAmount:  out.SignedAmount,
		OccurredAt:    out.TransferDate,
	})

	return out, nil
}

func (ls *ledger) ApplyHoldingTransaction(ctx context.Context, accountID, instrumentID string, quantity decimal.Decimal, credit bool) (out models.InstrumentTransaction, err error) {
	monitor := monitoring.New(ctx,
		monitoring.WithAttribute("account_id", accountID),
		monitoring.WithAttribute("instrument_id", instrumentID))
	defer func() {
		ls.srv.metrics.GetLedgerPrometheus().ObserveTransaction(metrics.LedgerKindHolding, credit, err)
		monitor.Finish(monitoring.WithFinishCheckError(err))
	}()

	if err = validateLedgerInput(quantity, accountID, instrumentID); err != nil {
		return out, err
	}

	signedQty := models.Signed(quantity, credit)
	transferDate := ls.srv.now().Unix()

	var currencyTrx models.Transaction
	err = ls.run(ctx, accountID, instrumentID, func(ctx context.Context, r repositories.DocRepository, st *ledgerSteps) error {
		// reads first: nothing is written for an unknown account or instrument
		if _, err := r.GetAccountRepository().Get(ctx, accountID); err != nil {
			return err
		}
		_, found, err := r.GetHoldingRepository().Get(ctx, accountID, instrumentID)
		if err != nil {
			return err
		}
		instrument, err := r.GetInstrumentRepository().Get(ctx, instrumentID)
		if err != nil {
			return err
		}

		value := signedQty.Mul(instrument.UnitPrice)
		itrx := models.InstrumentTransaction{
			AccountID:      accountID,
			InstrumentID:   instrumentID,
			Quantity:       quantity,
			SignedQuantity: signedQty,
			UnitPrice:      instrument.UnitPrice,
			SignedValue:    value,
			TransferDate:   transferDate,
			Credit:         credit,
		}
		trx := models.Transaction{
			AccountID:    accountID,
			Amount:       value.Abs(),
			SignedAmount: value,
			TransferDate: transferDate,
			Credit:       credit,
			InstrumentID: instrumentID,
		}

		if !found {
			err = st.do(models.StepCreateHolding, func() error {
				return r.GetHoldingRepository().Ensure(ctx, accountID, instrumentID)
			})
			if err != nil {
				return err
			}
		}

		err = st.do(models.StepIncrementHolding, func() error {
			return r.GetHoldingRepository().IncrementQuantity(ctx, accountID, instrumentID, signedQty)
		})
		if err != nil {
			return err
		}

		err = st.do(models.StepIncrementBalance, func() error {
			return r.GetAccountRepository().IncrementBalance(ctx, accountID, value)
		})
		if err != nil {
			return err
		}

		err = st.do(models.StepAppendInstrumentTransaction, func() error {
			var err error
			out, err = r.GetHoldingRepository().AppendTransaction(ctx, itrx)
			return err
		})
		if err != nil {
			return err
		}

		return st.do(models.StepAppendTransaction, func() error {
			var err error
			currencyTrx, err = r.GetTransactionRepository().Append(ctx, trx)
			return err
		})
	})
	if err != nil {
		return models.InstrumentTransaction{}, err
	}

	ls.publish(ctx, models.LedgerEvent{
		Type:          models.LedgerEventTransactionApplied,
		AccountID:     accountID,
		InstrumentID:  instrumentID,
		TransactionID: currencyTrx.ID,
		SignedAmount:  currencyTrx.SignedAmount,
		OccurredAt:    transferDate,
	})

	return out, nil
}
