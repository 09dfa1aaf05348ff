package models

import (
	"errors"
	"fmt"
	"strings"
)

type (
	MapErrs     map[string]ErrorDetail
	ErrorDetail struct {
		Code         string `json:"code,omitempty"`
		ErrorMessage error  `json:"message,omitempty"`
	}
)

func (e ErrorDetail) Error() string {
	return fmt.Sprintf("code: %s, message: %v", e.Code, e.ErrorMessage)
}

func (e ErrorDetail) Unwrap() error {
	return e.ErrorMessage
}

// Is matches any ErrorDetail carrying the same code, so callers can test
// errors.Is(err, GetErrMap(ErrKeyDataNotFound)) regardless of the cause text.
func (e ErrorDetail) Is(target error) bool {
	t, ok := target.(ErrorDetail)
	return ok && t.Code == e.Code
}

func GetErrMap(code string, args ...string) ErrorDetail {
	v, ok := MapErrors[code]
	if !ok {
		return ErrorDetail{
			Code:         code,
			ErrorMessage: errors.New("unknown error mapping"),
		}
	}
	if len(args) > 0 {
		v.ErrorMessage = fmt.Errorf("%w caused by %s", v.ErrorMessage, args[0])
	}

	return v
}

// WrapErrMap is GetErrMap for an underlying error. The cause stays reachable
// with errors.Is and errors.As.
func WrapErrMap(key string, cause error) ErrorDetail {
	v := GetErrMap(key)
	if cause != nil {
		v.ErrorMessage = fmt.Errorf("%w: %w", v.ErrorMessage, cause)
	}
	return v
}

// ErrorCodeOf returns the code of the first ErrorDetail in err's chain. A
// PartialLedgerUpdateError reports ErrCodePartialLedgerUpdate.
func ErrorCodeOf(err error) (string, bool) {
	var partial *PartialLedgerUpdateError
	if errors.As(err, &partial) {
		return ErrCodePartialLedgerUpdate, true
	}
	var detail ErrorDetail
	if errors.As(err, &detail) {
		return detail.Code, true
	}
	return "", false
}

// LedgerStep names one record mutation of a ledger call.
type LedgerStep string

const (
	StepIncrementBalance            LedgerStep = "increment_balance"
	StepAppendTransaction           LedgerStep = "append_transaction"
	StepCreateHolding               LedgerStep = "create_holding"
	StepIncrementHolding            LedgerStep = "increment_holding"
	StepAppendInstrumentTransaction LedgerStep = "append_instrument_transaction"
)

// PartialLedgerUpdateError reports a ledger call that stopped after some of
// its record mutations were already acknowledged by the store.
type PartialLedgerUpdateError struct {
	AccountID    string       `json:"accountId"`
	InstrumentID string       `json:"instrumentId,omitempty"`
	Applied      []LedgerStep `json:"applied"`
	Failed       LedgerStep   `json:"failed"`
	Cause        error        `json:"-"`
}

func (e *PartialLedgerUpdateError) Error() string {
	applied := make([]string, len(e.Applied))
	for i, s := range e.Applied {
		applied[i] = string(s)
	}
	return fmt.Sprintf("partial ledger update on account %s: applied [%s], failed at %s: %v",
		e.AccountID, strings.Join(applied, ","), e.Failed, e.Cause)
}

func (e *PartialLedgerUpdateError) Unwrap() error {
	return e.Cause
}
