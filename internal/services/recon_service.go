package services

import (
	"context"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/monitoring"
)

type ReconService interface {
	// ReconcileAccount compares the cached balance with the sum of the
	// account ledger. A drift is reported in the result, not as an error.
	ReconcileAccount(ctx context.Context, accountID string) (models.ReconResult, error)
}

type recon service

var _ ReconService = (*recon)(nil)

func (rs *recon) ReconcileAccount(ctx context.Context, accountID string) (out models.ReconResult, err error) {
	monitor := monitoring.New(ctx, monitoring.WithAttribute("account_id", accountID))
	defer func() { monitor.Finish(monitoring.WithFinishCheckError(err)) }()

	out, err = rs.read(ctx, accountID)
	if err != nil {
		return out, err
	}

	// the two reads are not atomic, a write landing between them looks like
	// drift until both are read again
	if !out.Consistent {
		out, err = rs.read(ctx, accountID)
		if err != nil {
			return out, err
		}
	}

	if !out.Consistent {
		rs.srv.metrics.GetLedgerPrometheus().ObserveReconDrift()
		xlog.Warn(ctx, "[RECON]",
			xlog.String("status", "balance drift"),
			xlog.String("account_id", accountID),
			xlog.String("balance", out.Balance.String()),
			xlog.String("ledger_sum", out.LedgerSum.String()),
			xlog.String("drift", out.Drift.String()))
	}

	return out, nil
}

func (rs *recon) read(ctx context.Context, accountID string) (models.ReconResult, error) {
	account, err := rs.srv.docRepo.GetAccountRepository().Get(ctx, accountID)
	if err != nil {
		return models.ReconResult{}, checkStoreError(err)
	}

	trxs, err := rs.srv.docRepo.GetTransactionRepository().ListByAccount(ctx, accountID)
	if err != nil {
		return models.ReconResult{}, checkStoreError(err)
	}

	return models.NewReconResult(*account, trxs), nil
}
