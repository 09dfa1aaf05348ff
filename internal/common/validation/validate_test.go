package validation

import (
	"errors"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
)

func ptr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		toValidate interface{}
		want       []ErrorValidateResponse
	}{
		{
			name:       "valid account transaction",
			toValidate: models.DoAccountTransactionRequest{AccountID: "A1", Amount: ptr("100"), Credit: true},
		},
		{
			name:       "zero amount is allowed",
			toValidate: models.DoAccountTransactionRequest{AccountID: "A1", Amount: ptr("0")},
		},
		{
			name:       "missing amount",
			toValidate: models.DoAccountTransactionRequest{AccountID: "A1"},
			want: []ErrorValidateResponse{
				{Code: models.ErrCodeInvalidInput, Field: "amount", Message: "amount is required"},
			},
		},
		{
			name:       "negative amount",
			toValidate: models.DoAccountTransactionRequest{AccountID: "A1", Amount: ptr("-0.01")},
			want: []ErrorValidateResponse{
				{Code: models.ErrCodeInvalidInput, Field: "amount", Message: "amount must not be negative"},
			},
		},
		{
			name:       "account id with slash",
			toValidate: models.DoAccountTransactionRequest{AccountID: "A1/holdings", Amount: ptr("1")},
			want: []ErrorValidateResponse{
				{Code: models.ErrCodeInvalidInput, Field: "accountId", Message: "account id is not a valid document id"},
			},
		},
		{
			name:       "holding transaction without references",
			toValidate: models.DoHoldingTransactionRequest{Quantity: ptr("-1")},
			want: []ErrorValidateResponse{
				{Code: models.ErrCodeInvalidInput, Field: "accountId", Message: "account id is required"},
				{Code: models.ErrCodeInvalidInput, Field: "instrumentId", Message: "instrument id is required"},
				{Code: models.ErrCodeInvalidInput, Field: "quantity", Message: "quantity must not be negative"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.toValidate)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}

			var merr *multierror.Error
			require.True(t, errors.As(err, &merr))
			got := make([]ErrorValidateResponse, 0, len(merr.Errors))
			for _, e := range merr.Errors {
				got = append(got, e.(ErrorValidateResponse))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateStruct_UnknownTag(t *testing.T) {
	type req struct {
		Name string `json:"name" validate:"min=3"`
	}

	err := ValidateStruct(req{Name: "ab"})

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Equal(t, ErrorValidateResponse{Code: "UNKNOW", Field: "name", Message: "min 3"}, merr.Errors[0])
}

func TestValidateStruct_InvalidInput(t *testing.T) {
	err := ValidateStruct(nil)
	assert.Error(t, err)
}
