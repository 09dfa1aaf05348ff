package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/http/middleware"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/session"
)

type sseFrame struct {
	event string
	data  string
}

func parseFrames(body string) []sseFrame {
	var frames []sseFrame
	for _, block := range strings.Split(body, "\n\n") {
		var f sseFrame
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				f.event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				f.data = strings.TrimPrefix(line, "data: ")
			}
		}
		if f.data != "" {
			frames = append(frames, f)
		}
	}
	return frames
}

func feedFailure() error {
	return models.ErrorDetail{Code: models.ErrCodeFeedError, ErrorMessage: common.ErrFeed}
}

// endedSession returns a session holding values that ends with err once they
// are read.
func endedSession[T any](t *testing.T, err error, values ...T) session.Stream[T] {
	t.Helper()
	sess := session.Open[T](context.Background(), len(values))
	for _, v := range values {
		require.NoError(t, sess.Send(v))
	}
	sess.Fail(err)
	return sess
}

func TestPortfolioHandler_streamAccount(t *testing.T) {
	account := models.Account{ID: "A1", Name: "Alice", Balance: decimal.NewFromInt(70)}

	tests := []struct {
		name       string
		doMock     func(h testPortfolioHelper)
		wantCode   int
		wantFrames []sseFrame
		wantBody   string
	}{
		{
			name: "snapshot then feed failure",
			doMock: func(h testPortfolioHelper) {
				h.mockSubscriptionService.EXPECT().OpenAccount(gomock.Any(), "A1").
					Return(endedSession(t, feedFailure(), account), nil)
			},
			wantCode: http.StatusOK,
			wantFrames: []sseFrame{
				{data: `{"kind":"account","count":1,"contents":{"id":"A1","name":"Alice","balance":"70","profilePicRef":""}}`},
				{event: "error", data: `{"status":"error","code":"FEED_ERROR","message":"change feed failed"}`},
			},
		},
		{
			name: "not found before the first snapshot",
			doMock: func(h testPortfolioHelper) {
				h.mockSubscriptionService.EXPECT().OpenAccount(gomock.Any(), "A1").
					Return(endedSession[models.Account](t, models.WrapErrMap(models.ErrKeyAccountNotFound, common.ErrNotFound)), nil)
			},
			wantCode: http.StatusNotFound,
			wantBody: `{"status":"error","code":"NOT_FOUND","message":"account not found: data not found"}`,
		},
		{
			name: "open rejected",
			doMock: func(h testPortfolioHelper) {
				h.mockSubscriptionService.EXPECT().OpenAccount(gomock.Any(), "A1").
					Return(nil, feedFailure())
			},
			wantCode: http.StatusBadGateway,
			wantBody: `{"status":"error","code":"FEED_ERROR","message":"change feed failed"}`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			testHelper := portfolioTestHelper(t)
			tc.doMock(testHelper)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts/A1/stream", nil)
			rec := httptest.NewRecorder()
			testHelper.router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, rec.Body.String())
				return
			}

			assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
			frames := parseFrames(rec.Body.String())
			require.Len(t, frames, len(tc.wantFrames))
			for i, want := range tc.wantFrames {
				assert.Equal(t, want.event, frames[i].event)
				assert.JSONEq(t, want.data, frames[i].data)
			}
		})
	}
}

func TestPortfolioHandler_streamHoldings(t *testing.T) {
	testHelper := portfolioTestHelper(t)

	btc := models.Instrument{ID: "BTC", DisplayName: "Bitcoin", ShortCode: "BTC", UnitPrice: decimal.NewFromInt(50000)}
	views := [][]models.MergedHolding{
		{{InstrumentID: "BTC", Instrument: &btc}},
		{{ID: "BTC", InstrumentID: "BTC", Quantity: decimal.RequireFromString("0.01"), Instrument: &btc}},
	}
	testHelper.mockSubscriptionService.EXPECT().OpenHoldings(gomock.Any(), "A1").
		Return(endedSession(t, feedFailure(), views...), nil)

	rec := httptest.NewRecorder()
	testHelper.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/A1/holdings/stream", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	frames := parseFrames(rec.Body.String())
	require.Len(t, frames, 3)

	var last models.StreamSnapshot
	require.NoError(t, json.Unmarshal([]byte(frames[1].data), &last))
	assert.Equal(t, models.KindHoldings, last.Kind)
	assert.Equal(t, 1, last.Count)
	assert.Equal(t, "error", frames[2].event)
}

func TestPortfolioHandler_streamTransactions_Empty(t *testing.T) {
	testHelper := portfolioTestHelper(t)
	testHelper.mockSubscriptionService.EXPECT().OpenTransactions(gomock.Any(), "A1").
		Return(endedSession(t, feedFailure(), []models.Transaction{}), nil)

	rec := httptest.NewRecorder()
	testHelper.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/A1/transactions/stream", nil))

	frames := parseFrames(rec.Body.String())
	require.NotEmpty(t, frames)
	assert.JSONEq(t, `{"kind":"transactions","count":0,"contents":[]}`, frames[0].data)
}

func TestPortfolioHandler_streamHoldingTransactions(t *testing.T) {
	testHelper := portfolioTestHelper(t)
	itrx := models.InstrumentTransaction{ID: "IT1", AccountID: "A1", InstrumentID: "BTC"}
	testHelper.mockSubscriptionService.EXPECT().OpenHoldingTransactions(gomock.Any(), "A1", "BTC").
		Return(endedSession(t, feedFailure(), []models.InstrumentTransaction{itrx}), nil)

	rec := httptest.NewRecorder()
	testHelper.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/A1/holdings/BTC/transactions/stream", nil))

	frames := parseFrames(rec.Body.String())
	require.NotEmpty(t, frames)
	var snap models.StreamSnapshot
	require.NoError(t, json.Unmarshal([]byte(frames[0].data), &snap))
	assert.Equal(t, models.KindInstrumentTransaction, snap.Kind)
	assert.Equal(t, 1, snap.Count)
}

func TestPortfolioHandler_addAccountTransaction(t *testing.T) {
	trx := models.Transaction{
		ID:           "T1",
		AccountID:    "A1",
		Amount:       decimal.NewFromInt(100),
		SignedAmount: decimal.NewFromInt(100),
		TransferDate: 1700000000,
		Credit:       true,
	}

	tests := []struct {
		name     string
		body     string
		doMock   func(h testPortfolioHelper)
		wantCode int
		wantBody string
	}{
		{
			name: "credit",
			body: `{"amount":"100","credit":true}`,
			doMock: func(h testPortfolioHelper) {
				h.mockLedgerService.EXPECT().
					ApplyAccountTransaction(gomock.Any(), "A1", decimal.NewFromInt(100), true).
					Return(trx, nil)
			},
			wantCode: http.StatusCreated,
			wantBody: `{"id":"T1","accountId":"A1","amount":"100","signedAmount":"100","transferDate":1700000000,"credit":true}`,
		},
		{
			name: "account not found",
			body: `{"amount":"100","credit":false}`,
			doMock: func(h testPortfolioHelper) {
				h.mockLedgerService.EXPECT().
					ApplyAccountTransaction(gomock.Any(), "A1", gomock.Any(), false).
					Return(models.Transaction{}, models.WrapErrMap(models.ErrKeyAccountNotFound, common.ErrNotFound))
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "partial update",
			body: `{"amount":"100","credit":true}`,
			doMock: func(h testPortfolioHelper) {
				h.mockLedgerService.EXPECT().
					ApplyAccountTransaction(gomock.Any(), "A1", gomock.Any(), true).
					Return(models.Transaction{}, &models.PartialLedgerUpdateError{
						AccountID: "A1",
						Applied:   []models.LedgerStep{models.StepIncrementBalance},
						Failed:    models.StepAppendTransaction,
						Cause:     errors.New("boom"),
					})
			},
			wantCode: http.StatusInternalServerError,
		},
		{
			name:     "negative amount",
			body:     `{"amount":"-1","credit":true}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "missing amount",
			body:     `{"credit":true}`,
			wantCode: http.StatusUnprocessableEntity,
		},
		{
			name:     "malformed body",
			body:     `{"amount":`,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			testHelper := portfolioTestHelper(t)
			testHelper.allowIdempotency()
			if tc.doMock != nil {
				tc.doMock(testHelper)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/A1/transactions", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			req.Header.Set(middleware.HeaderIdempotencyKey, "K1")
			rec := httptest.NewRecorder()
			testHelper.router.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, rec.Body.String())
			}
		})
	}
}

func TestPortfolioHandler_addAccountTransaction_RequiresIdempotencyKey(t *testing.T) {
	testHelper := portfolioTestHelper(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/A1/transactions", strings.NewReader(`{"amount":"1","credit":true}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	testHelper.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPortfolioHandler_addHoldingTransaction(t *testing.T) {
	testHelper := portfolioTestHelper(t)
	testHelper.allowIdempotency()

	qty := decimal.RequireFromString("0.01")
	testHelper.mockLedgerService.EXPECT().
		ApplyHoldingTransaction(gomock.Any(), "A1", "BTC", qty, true).
		Return(models.InstrumentTransaction{
			ID:             "IT1",
			AccountID:      "A1",
			InstrumentID:   "BTC",
			Quantity:       qty,
			SignedQuantity: qty,
			UnitPrice:      decimal.NewFromInt(50000),
			SignedValue:    decimal.NewFromInt(500),
			Credit:         true,
		}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/A1/holdings/BTC/transactions", strings.NewReader(`{"quantity":"0.01","credit":true}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(middleware.HeaderIdempotencyKey, "K2")
	rec := httptest.NewRecorder()
	testHelper.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.InstrumentTransaction
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.SignedValue.Equal(decimal.NewFromInt(500)))
	assert.True(t, got.SignedQuantity.Equal(qty))
}

func TestPortfolioHandler_reconcileAccount(t *testing.T) {
	testHelper := portfolioTestHelper(t)
	testHelper.mockReconService.EXPECT().ReconcileAccount(gomock.Any(), "A1").
		Return(models.ReconResult{
			AccountID:        "A1",
			Balance:          decimal.NewFromInt(100),
			LedgerSum:        decimal.NewFromInt(70),
			Drift:            decimal.NewFromInt(30),
			TransactionCount: 2,
		}, nil)

	rec := httptest.NewRecorder()
	testHelper.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/A1/reconciliation", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"accountId":"A1","balance":"100","ledgerSum":"70","drift":"30","transactionCount":2,"consistent":false}`, rec.Body.String())
}
