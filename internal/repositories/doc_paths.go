package repositories

import (
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
)

const (
	collectionAccounts     = "accounts"
	collectionHoldings     = "holdings"
	collectionTransactions = "transactions"
	collectionInstruments  = "instruments"

	fieldAccountID     = "accountId"
	fieldAccountIDs    = "accountIds"
	fieldAmount        = "amount"
	fieldBalance       = "balance"
	fieldChangePercent = "changePercent"
	fieldCredit        = "credit"
	fieldDisplayName   = "displayName"
	fieldIconRef       = "iconRef"
	fieldInstrumentID  = "instrumentId"
	fieldName          = "name"
	fieldProfilePicRef = "profilePicRef"
	fieldQuantity      = "quantity"
	fieldShortCode     = "shortCode"
	fieldSignedAmount  = "signedAmount"
	fieldSignedQty     = "signedQuantity"
	fieldSignedValue   = "signedValue"
	fieldTransferDate  = "transferDate"
	fieldUnitPrice     = "unitPrice"
)

var (
	accountsCollection     = docstore.Collection(collectionAccounts)
	transactionsCollection = docstore.Collection(collectionTransactions)
	instrumentsCollection  = docstore.Collection(collectionInstruments)
)

func accountRef(accountID string) docstore.DocumentRef {
	return accountsCollection.Doc(accountID)
}

func holdingsCollection(accountID string) docstore.CollectionRef {
	return accountRef(accountID).Sub(collectionHoldings)
}

func holdingRef(accountID, instrumentID string) docstore.DocumentRef {
	return holdingsCollection(accountID).Doc(instrumentID)
}

func holdingTransactionsCollection(accountID, instrumentID string) docstore.CollectionRef {
	return holdingRef(accountID, instrumentID).Sub(collectionTransactions)
}

func instrumentRef(instrumentID string) docstore.DocumentRef {
	return instrumentsCollection.Doc(instrumentID)
}
