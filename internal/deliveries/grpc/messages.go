package grpc

import (
	"github.com/shopspring/decimal"
)

type AccountRequest struct {
	AccountID string `json:"accountId" validate:"required,documentId"`
}

type HoldingRequest struct {
	AccountID    string `json:"accountId" validate:"required,documentId"`
	InstrumentID string `json:"instrumentId" validate:"required,documentId"`
}

type AddAccountTransactionRequest struct {
	AccountID string           `json:"accountId" validate:"required,documentId"`
	Amount    *decimal.Decimal `json:"amount" validate:"required,decimalGreaterOrEqual=0"`
	Credit    bool             `json:"credit"`
}

type AddHoldingTransactionRequest struct {
	AccountID    string           `json:"accountId" validate:"required,documentId"`
	InstrumentID string           `json:"instrumentId" validate:"required,documentId"`
	Quantity     *decimal.Decimal `json:"quantity" validate:"required,decimalGreaterOrEqual=0"`
	Credit       bool             `json:"credit"`
}
