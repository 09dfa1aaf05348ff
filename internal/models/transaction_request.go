package models

import (
	"github.com/shopspring/decimal"
)

type DoAccountTransactionRequest struct {
	AccountID string           `param:"accountId" json:"-" validate:"required,documentId"`
	Amount    *decimal.Decimal `json:"amount" validate:"required,decimalGreaterOrEqual=0"`
	Credit    bool             `json:"credit"`
}

type DoHoldingTransactionRequest struct {
	AccountID    string           `param:"accountId" json:"-" validate:"required,documentId"`
	InstrumentID string           `param:"instrumentId" json:"-" validate:"required,documentId"`
	Quantity     *decimal.Decimal `json:"quantity" validate:"required,decimalGreaterOrEqual=0"`
	Credit       bool             `json:"credit"`
}

// StreamSnapshot is the envelope of one live query emission.
type StreamSnapshot struct {
	Kind     string `json:"kind"`
	Count    int    `json:"count"`
	Contents any    `json:"contents"`
}

const (
	KindAccount               = "account"
	KindHoldings              = "holdings"
	KindTransactions          = "transactions"
	KindInstrumentTransaction = "instrument_transactions"
)

func NewAccountSnapshot(a Account) StreamSnapshot {
	return StreamSnapshot{Kind: KindAccount, Count: 1, Contents: a}
}

func NewHoldingsSnapshot(h []MergedHolding) StreamSnapshot {
	if h == nil {
		h = []MergedHolding{}
	}
	return StreamSnapshot{Kind: KindHoldings, Count: len(h), Contents: h}
}

func NewTransactionsSnapshot(t []Transaction) StreamSnapshot {
	if t == nil {
		t = []Transaction{}
	}
	return StreamSnapshot{Kind: KindTransactions, Count: len(t), Contents: t}
}

func NewInstrumentTransactionsSnapshot(t []InstrumentTransaction) StreamSnapshot {
	if t == nil {
		t = []InstrumentTransaction{}
	}
	return StreamSnapshot{Kind: KindInstrumentTransaction, Count: len(t), Contents: t}
}

type DoStreamAccountRequest struct {
	AccountID string `param:"accountId" validate:"required,documentId"`
}

type DoStreamHoldingTransactionsRequest struct {
	AccountID    string `param:"accountId" validate:"required,documentId"`
	InstrumentID string `param:"instrumentId" validate:"required,documentId"`
}
