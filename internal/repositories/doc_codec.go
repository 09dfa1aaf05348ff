package repositories

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
)

// decimals collects the first decimal decoding error of a document.
type decimals struct {
	f   docstore.Fields
	err error
}

func (d *decimals) get(key string) decimal.Decimal {
	v, err := d.f.Decimal(key)
	if err != nil && d.err == nil {
		d.err = err
	}
	return v
}

func decodeAccount(doc docstore.Document) (models.Account, error) {
	d := decimals{f: doc.Fields}
	a := models.Account{
		ID:            doc.Ref.ID,
		Name:          doc.Fields.String(fieldName),
		Balance:       d.get(fieldBalance),
		ProfilePicRef: doc.Fields.String(fieldProfilePicRef),
	}
	return a, d.err
}

func encodeAccount(a models.Account) docstore.Fields {
	return docstore.Fields{
		fieldName:          a.Name,
		fieldBalance:       a.Balance,
		fieldProfilePicRef: a.ProfilePicRef,
	}
}

func decodeHolding(doc docstore.Document) (models.Holding, error) {
	d := decimals{f: doc.Fields}
	h := models.Holding{
		ID:           doc.Ref.ID,
		InstrumentID: doc.Fields.String(fieldInstrumentID),
		Quantity:     d.get(fieldQuantity),
	}
	return h, d.err
}

func decodeInstrument(doc docstore.Document) (models.Instrument, error) {
	d := decimals{f: doc.Fields}
	i := models.Instrument{
		ID:            doc.Ref.ID,
		DisplayName:   doc.Fields.String(fieldDisplayName),
		ShortCode:     doc.Fields.String(fieldShortCode),
		UnitPrice:     d.get(fieldUnitPrice),
		ChangePercent: doc.Fields.Float64(fieldChangePercent),
		IconRef:       doc.Fields.String(fieldIconRef),
		AccountIDs:    doc.Fields.Strings(fieldAccountIDs),
	}
	return i, d.err
}

func encodeInstrument(i models.Instrument) docstore.Fields {
	accountIDs := i.AccountIDs
	if accountIDs == nil {
		accountIDs = []string{}
	}
	return docstore.Fields{
		fieldDisplayName:   i.DisplayName,
		fieldShortCode:     i.ShortCode,
		fieldUnitPrice:     i.UnitPrice,
		fieldChangePercent: i.ChangePercent,
		fieldIconRef:       i.IconRef,
		fieldAccountIDs:    accountIDs,
	}
}

func decodeTransaction(doc docstore.Document) (models.Transaction, error) {
	d := decimals{f: doc.Fields}
	t := models.Transaction{
		ID:           doc.Ref.ID,
		AccountID:    doc.Fields.String(fieldAccountID),
		Amount:       d.get(fieldAmount),
		SignedAmount: d.get(fieldSignedAmount),
		TransferDate: doc.Fields.Int64(fieldTransferDate),
		Credit:       doc.Fields.Bool(fieldCredit),
		InstrumentID: doc.Fields.String(fieldInstrumentID),
	}
	return t, d.err
}

func encodeTransaction(t models.Transaction) docstore.Fields {
	f := docstore.Fields{
		fieldAccountID:    t.AccountID,
		fieldAmount:       t.Amount,
		fieldSignedAmount: t.SignedAmount,
		fieldTransferDate: t.TransferDate,
		fieldCredit:       t.Credit,
	}
	if t.InstrumentID != "" {
		f[fieldInstrumentID] = t.InstrumentID
	}
	return f
}

func decodeInstrumentTransaction(doc docstore.Document) (models.InstrumentTransaction, error) {
	d := decimals{f: doc.Fields}
	t := models.InstrumentTransaction{
		ID:             doc.Ref.ID,
		AccountID:      doc.Fields.String(fieldAccountID),
		InstrumentID:   doc.Fields.String(fieldInstrumentID),
		Quantity:       d.get(fieldQuantity),
		SignedQuantity: d.get(fieldSignedQty),
		UnitPrice:      d.get(fieldUnitPrice),
		SignedValue:    d.get(fieldSignedValue),
		TransferDate:   doc.Fields.Int64(fieldTransferDate),
		Credit:         doc.Fields.Bool(fieldCredit),
	}
	return t, d.err
}

func encodeInstrumentTransaction(t models.InstrumentTransaction) docstore.Fields {
	return docstore.Fields{
		fieldAccountID:    t.AccountID,
		fieldInstrumentID: t.InstrumentID,
		fieldQuantity:     t.Quantity,
		fieldSignedQty:    t.SignedQuantity,
		fieldUnitPrice:    t.UnitPrice,
		fieldSignedValue:  t.SignedValue,
		fieldTransferDate: t.TransferDate,
		fieldCredit:       t.Credit,
	}
}

func notFound(key string, ref docstore.DocumentRef, cause error) error {
	return models.WrapErrMap(key, fmt.Errorf("%w: %s", cause, ref.Path()))
}
