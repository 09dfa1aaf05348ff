package models

import (
	"github.com/shopspring/decimal"
)

type LedgerEventType string

const (
	LedgerEventTransactionApplied LedgerEventType = "ledger.transaction_applied"
	LedgerEventPartialUpdate      LedgerEventType = "ledger.partial_update"
)

// LedgerEvent is published after every ledger call that touched the store.
type LedgerEvent struct {
	Type          LedgerEventType `json:"type"`
	AccountID     string          `json:"accountId"`
	InstrumentID  string          `json:"instrumentId,omitempty"`
	TransactionID string          `json:"transactionId,omitempty"`
	SignedAmount  decimal.Decimal `json:"signedAmount"`
	Applied       []LedgerStep    `json:"applied,omitempty"`
	Failed        LedgerStep      `json:"failed,omitempty"`
	Error         string          `json:"error,omitempty"`
	OccurredAt    int64           `json:"occurredAt"`
}

type ReconResult struct {
	AccountID        string          `json:"accountId"`
	Balance          decimal.Decimal `json:"balance"`
	LedgerSum        decimal.Decimal `json:"ledgerSum"`
	Drift            decimal.Decimal `json:"drift"`
	TransactionCount int             `json:"transactionCount"`
	Consistent       bool            `json:"consistent"`
}

func NewReconResult(account Account, trxs []Transaction) ReconResult {
	sum := decimal.Zero
	for _, t := range trxs {
		sum = sum.Add(t.SignedAmount)
	}
	drift := account.Balance.Sub(sum)

	return ReconResult{
		AccountID:        account.ID,
		Balance:          account.Balance,
		LedgerSum:        sum,
		Drift:            drift,
		TransactionCount: len(trxs),
		Consistent:       drift.IsZero(),
	}
}
