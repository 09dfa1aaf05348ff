package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog/ctxdata"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/services/mock"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/session"
)

func TestMain(m *testing.M) {
	xlog.InitForTest()
	os.Exit(m.Run())
}

type testGRPCHelper struct {
	conn                    *grpc.ClientConn
	mockLedgerService       *mock.MockLedgerService
	mockSubscriptionService *mock.MockSubscriptionService
}

func grpcTestHelper(t *testing.T) testGRPCHelper {
	t.Helper()

	mockCtrl := gomock.NewController(t)
	ledgerSrv := mock.NewMockLedgerService(mockCtrl)
	subscriptionSrv := mock.NewMockSubscriptionService(mockCtrl)

	lis := bufconn.Listen(1 << 20)
	srv := NewGRPCServer(config.Config{}, ledgerSrv, subscriptionSrv)
	go func() { _ = srv.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Stop()(ctx)
	})

	return testGRPCHelper{
		conn:                    conn,
		mockLedgerService:       ledgerSrv,
		mockSubscriptionService: subscriptionSrv,
	}
}

type snapshot struct {
	Kind     string          `json:"kind"`
	Count    int             `json:"count"`
	Contents json.RawMessage `json:"contents"`
}

// collect opens a server stream, sends req and reads every message until the
// stream ends.
func (h testGRPCHelper) collect(ctx context.Context, method string, req any) ([]snapshot, error) {
	desc := &grpc.StreamDesc{StreamName: method, ServerStreams: true}
	stream, err := h.conn.NewStream(ctx, desc, "/"+ServiceName+"/"+method)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	var got []snapshot
	for {
		var snap snapshot
		err := stream.RecvMsg(&snap)
		if errors.Is(err, io.EOF) {
			return got, nil
		}
		if err != nil {
			return got, err
		}
		got = append(got, snap)
	}
}

// readN opens a server stream, reads n messages and then hangs up the way a
// client that got what it needed would.
func (h testGRPCHelper) readN(method string, req any, n int) ([]snapshot, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	desc := &grpc.StreamDesc{StreamName: method, ServerStreams: true}
	stream, err := h.conn.NewStream(ctx, desc, "/"+ServiceName+"/"+method)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(req); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}

	got := make([]snapshot, 0, n)
	for len(got) < n {
		var snap snapshot
		if err := stream.RecvMsg(&snap); err != nil {
			return got, err
		}
		got = append(got, snap)
	}
	return got, nil
}

// endedSession returns a session holding values that ends with err once they
// are read. err must not be nil: a cancelled session drops what it holds.
func endedSession[T any](t *testing.T, err error, values ...T) session.Stream[T] {
	t.Helper()
	require.Error(t, err)
	sess := openSession(t, values...)
	sess.Fail(err)
	return sess
}

// openSession returns a live session holding values. It stays open until the
// relay cancels it.
func openSession[T any](t *testing.T, values ...T) *session.Session[T] {
	t.Helper()
	sess := session.Open[T](context.Background(), len(values))
	for _, v := range values {
		require.NoError(t, sess.Send(v))
	}
	return sess
}

func TestPortfolioServer_GetAccount(t *testing.T) {
	account := models.Account{ID: "A1", Name: "Alice", Balance: decimal.NewFromInt(70)}
	feedErr := models.ErrorDetail{Code: models.ErrCodeFeedError, ErrorMessage: common.ErrFeed}

	tests := []struct {
		name      string
		req       *AccountRequest
		doMock    func(h testGRPCHelper)
		wantKinds []string
		wantCode  codes.Code
	}{
		{
			name: "snapshots then feed failure",
			req:  &AccountRequest{AccountID: "A1"},
			doMock: func(h testGRPCHelper) {
				h.mockSubscriptionService.EXPECT().OpenAccount(gomock.Any(), "A1").
					Return(endedSession(t, feedErr, account, account), nil)
			},
			wantKinds: []string{models.KindAccount, models.KindAccount},
			wantCode:  codes.Unavailable,
		},
		{
			name: "unknown account",
			req:  &AccountRequest{AccountID: "A1"},
			doMock: func(h testGRPCHelper) {
				h.mockSubscriptionService.EXPECT().OpenAccount(gomock.Any(), "A1").
					Return(endedSession[models.Account](t, models.WrapErrMap(models.ErrKeyAccountNotFound, common.ErrNotFound)), nil)
			},
			wantCode: codes.NotFound,
		},
		{
			name: "open rejected",
			req:  &AccountRequest{AccountID: "A1"},
			doMock: func(h testGRPCHelper) {
				h.mockSubscriptionService.EXPECT().OpenAccount(gomock.Any(), "A1").Return(nil, feedErr)
			},
			wantCode: codes.Unavailable,
		},
		{
			name:     "invalid id",
			req:      &AccountRequest{AccountID: "a/b"},
			doMock:   func(h testGRPCHelper) {},
			wantCode: codes.InvalidArgument,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := grpcTestHelper(t)
			tc.doMock(h)

			got, err := h.collect(context.Background(), "GetAccount", tc.req)
			assert.Equal(t, tc.wantCode, status.Code(err))

			var kinds []string
			for _, snap := range got {
				kinds = append(kinds, snap.Kind)
			}
			assert.Equal(t, tc.wantKinds, kinds)
		})
	}
}

func TestPortfolioServer_GetAccountTransactions(t *testing.T) {
	h := grpcTestHelper(t)

	trx := models.Transaction{ID: "T1", AccountID: "A1", Amount: decimal.NewFromInt(30), SignedAmount: decimal.NewFromInt(30), Credit: true}
	h.mockSubscriptionService.EXPECT().OpenTransactions(gomock.Any(), "A1").
		Return(openSession[[]models.Transaction](t, nil, []models.Transaction{trx}), nil)

	got, err := h.readN("GetAccountTransactions", &AccountRequest{AccountID: "A1"}, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 0, got[0].Count)
	assert.JSONEq(t, `[]`, string(got[0].Contents))
	assert.Equal(t, 1, got[1].Count)

	var contents []models.Transaction
	require.NoError(t, json.Unmarshal(got[1].Contents, &contents))
	assert.Equal(t, "T1", contents[0].ID)
	assert.True(t, contents[0].SignedAmount.Equal(decimal.NewFromInt(30)))
}

func TestPortfolioServer_GetAccountHoldings(t *testing.T) {
	h := grpcTestHelper(t)

	merged := []models.MergedHolding{{InstrumentID: "BTC"}, {InstrumentID: "ETH"}}
	h.mockSubscriptionService.EXPECT().OpenHoldings(gomock.Any(), "A1").
		Return(openSession(t, merged), nil)

	got, err := h.readN("GetAccountHoldings", &AccountRequest{AccountID: "A1"}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.KindHoldings, got[0].Kind)
	assert.Equal(t, 2, got[0].Count)
}

func TestPortfolioServer_GetHoldingTransactions(t *testing.T) {
	h := grpcTestHelper(t)

	h.mockSubscriptionService.EXPECT().OpenHoldingTransactions(gomock.Any(), "A1", "BTC").
		Return(openSession(t, []models.InstrumentTransaction{{ID: "I1", InstrumentID: "BTC"}}), nil)

	got, err := h.readN("GetHoldingTransactions", &HoldingRequest{AccountID: "A1", InstrumentID: "BTC"}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.KindInstrumentTransaction, got[0].Kind)
}

func TestPortfolioServer_clientCancel(t *testing.T) {
	h := grpcTestHelper(t)

	sess := session.Open[models.Account](context.Background(), 1)
	require.NoError(t, sess.Send(models.Account{ID: "A1"}))
	h.mockSubscriptionService.EXPECT().OpenAccount(gomock.Any(), "A1").Return(sess, nil)

	ctx, cancel := context.WithCancel(context.Background())
	desc := &grpc.StreamDesc{StreamName: "GetAccount", ServerStreams: true}
	stream, err := h.conn.NewStream(ctx, desc, "/"+ServiceName+"/GetAccount")
	require.NoError(t, err)
	require.NoError(t, stream.SendMsg(&AccountRequest{AccountID: "A1"}))
	require.NoError(t, stream.CloseSend())

	var snap snapshot
	require.NoError(t, stream.RecvMsg(&snap))
	assert.Equal(t, models.KindAccount, snap.Kind)

	cancel()

	select {
	case <-sess.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("session was not cancelled after the client left")
	}
}

func TestPortfolioServer_AddAccountTransaction(t *testing.T) {
	amount := decimal.NewFromInt(100)
	trx := models.Transaction{ID: "T1", AccountID: "A1", Amount: amount, SignedAmount: amount, Credit: true}

	tests := []struct {
		name     string
		req      *AddAccountTransactionRequest
		doMock   func(h testGRPCHelper)
		wantID   string
		wantCode codes.Code
		wantMsg  string
	}{
		{
			name: "credit",
			req:  &AddAccountTransactionRequest{AccountID: "A1", Amount: &amount, Credit: true},
			doMock: func(h testGRPCHelper) {
				h.mockLedgerService.EXPECT().ApplyAccountTransaction(gomock.Any(), "A1", amount, true).Return(trx, nil)
			},
			wantID:   "T1",
			wantCode: codes.OK,
		},
		{
			name:     "missing amount",
			req:      &AddAccountTransactionRequest{AccountID: "A1"},
			doMock:   func(h testGRPCHelper) {},
			wantCode: codes.InvalidArgument,
		},
		{
			name: "unknown account",
			req:  &AddAccountTransactionRequest{AccountID: "A1", Amount: &amount},
			doMock: func(h testGRPCHelper) {
				h.mockLedgerService.EXPECT().ApplyAccountTransaction(gomock.Any(), "A1", amount, false).
					Return(models.Transaction{}, models.WrapErrMap(models.ErrKeyAccountNotFound, common.ErrNotFound))
			},
			wantCode: codes.NotFound,
		},
		{
			name: "partial update",
			req:  &AddAccountTransactionRequest{AccountID: "A1", Amount: &amount},
			doMock: func(h testGRPCHelper) {
				h.mockLedgerService.EXPECT().ApplyAccountTransaction(gomock.Any(), "A1", amount, false).
					Return(models.Transaction{}, &models.PartialLedgerUpdateError{
						Applied: []models.LedgerStep{models.StepIncrementBalance},
						Failed:  models.StepAppendTransaction,
						Cause:   errors.New("disk full"),
					})
			},
			wantCode: codes.DataLoss,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := grpcTestHelper(t)
			tc.doMock(h)

			var got models.Transaction
			ctx := metadata.AppendToOutgoingContext(context.Background(), ctxdata.HeaderCorrelationID, "corr-1")
			err := h.conn.Invoke(ctx, "/"+ServiceName+"/AddAccountTransaction", tc.req, &got)

			assert.Equal(t, tc.wantCode, status.Code(err))
			assert.Equal(t, tc.wantID, got.ID)
		})
	}
}

func TestPortfolioServer_AddHoldingTransaction(t *testing.T) {
	h := grpcTestHelper(t)

	qty := decimal.RequireFromString("0.01")
	itrx := models.InstrumentTransaction{ID: "I1", AccountID: "A1", InstrumentID: "BTC", Quantity: qty}
	h.mockLedgerService.EXPECT().ApplyHoldingTransaction(gomock.Any(), "A1", "BTC", qty, true).Return(itrx, nil)

	var got models.InstrumentTransaction
	err := h.conn.Invoke(context.Background(), "/"+ServiceName+"/AddHoldingTransaction",
		&AddHoldingTransactionRequest{AccountID: "A1", InstrumentID: "BTC", Quantity: &qty, Credit: true}, &got)
	require.NoError(t, err)
	assert.Equal(t, "I1", got.ID)
	assert.True(t, got.Quantity.Equal(qty))
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "nil", err: nil, want: codes.OK},
		{name: "conflict", err: models.WrapErrMap(models.ErrKeyMutationConflict, common.ErrMutationConflict), want: codes.Aborted},
		{name: "database", err: models.GetErrMap(models.ErrKeyDatabaseError), want: codes.Internal},
		{name: "sentinel", err: common.ErrInvalidInput, want: codes.InvalidArgument},
		{name: "canceled", err: context.Canceled, want: codes.Canceled},
		{name: "status passthrough", err: status.Error(codes.PermissionDenied, "no"), want: codes.PermissionDenied},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, status.Code(toStatus(tc.err)))
		})
	}
}
