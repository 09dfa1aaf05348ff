package models

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Instrument is a catalog entry. It is owned by the catalog and only read here.
type Instrument struct {
	ID            string          `json:"id"`
	DisplayName   string          `json:"displayName"`
	ShortCode     string          `json:"shortCode"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	ChangePercent float64         `json:"changePercent"`
	IconRef       string          `json:"iconRef"`

	// AccountIDs lists the accounts the instrument is offered to.
	AccountIDs []string `json:"-"`
}

func (i Instrument) Clone() Instrument {
	i.AccountIDs = slices.Clone(i.AccountIDs)
	return i
}

// Holding is the quantity of one instrument owned by one account.
type Holding struct {
	ID           string          `json:"id"`
	InstrumentID string          `json:"instrumentId"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// MergedHolding joins a holding with its catalog entry. Instrument stays nil
// until the catalog has delivered the instrument at least once.
type MergedHolding struct {
	ID           string          `json:"id"`
	InstrumentID string          `json:"instrumentId"`
	Quantity     decimal.Decimal `json:"quantity"`
	Instrument   *Instrument     `json:"instrument,omitempty"`
}

func (m MergedHolding) Clone() MergedHolding {
	if m.Instrument != nil {
		inst := m.Instrument.Clone()
		m.Instrument = &inst
	}
	return m
}

type Account struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Balance       decimal.Decimal `json:"balance"`
	ProfilePicRef string          `json:"profilePicRef"`
}

// Transaction is an immutable ledger entry against an account balance.
// InstrumentID is set when the entry is the currency leg of a holding trade.
type Transaction struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"accountId"`
	Amount       decimal.Decimal `json:"amount"`
	SignedAmount decimal.Decimal `json:"signedAmount"`
	TransferDate int64           `json:"transferDate"`
	Credit       bool            `json:"credit"`
	InstrumentID string          `json:"instrumentId,omitempty"`
}

// InstrumentTransaction is an immutable ledger entry against a holding.
type InstrumentTransaction struct {
	ID             string          `json:"id"`
	AccountID      string          `json:"accountId"`
	InstrumentID   string          `json:"instrumentId"`
	Quantity       decimal.Decimal `json:"quantity"`
	SignedQuantity decimal.Decimal `json:"signedQuantity"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	SignedValue    decimal.Decimal `json:"signedValue"`
	TransferDate   int64           `json:"transferDate"`
	Credit         bool            `json:"credit"`
}

// Signed returns magnitude when credit is true and -magnitude otherwise.
func Signed(magnitude decimal.Decimal, credit bool) decimal.Decimal {
	if credit {
		return magnitude
	}
	return magnitude.Neg()
}
