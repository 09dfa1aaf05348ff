package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/graceful"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/validation"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog/ctxdata"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/services"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/session"
)

type portfolioServer struct {
	ledgerService       services.LedgerService
	subscriptionService services.SubscriptionService
}

var _ PortfolioServer = (*portfolioServer)(nil)

func (ps *portfolioServer) GetAccount(req *AccountRequest, stream grpc.ServerStream) error {
	if err := validation.ValidateStruct(req); err != nil {
		return toStatus(err)
	}
	return relay(stream, func(ctx context.Context) (session.Stream[models.Account], error) {
		return ps.subscriptionService.OpenAccount(ctx, req.AccountID)
	}, models.NewAccountSnapshot)
}

func (ps *portfolioServer) GetAccountHoldings(req *AccountRequest, stream grpc.ServerStream) error {
	if err := validation.ValidateStruct(req); err != nil {
		return toStatus(err)
	}
	return relay(stream, func(ctx context.Context) (session.Stream[[]models.MergedHolding], error) {
		return ps.subscriptionService.OpenHoldings(ctx, req.AccountID)
	}, models.NewHoldingsSnapshot)
}

func (ps *portfolioServer) GetAccountTransactions(req *AccountRequest, stream grpc.ServerStream) error {
	if err := validation.ValidateStruct(req); err != nil {
		return toStatus(err)
	}
	return relay(stream, func(ctx context.Context) (session.Stream[[]models.Transaction], error) {
		return ps.subscriptionService.OpenTransactions(ctx, req.AccountID)
	}, models.NewTransactionsSnapshot)
}

func (ps *portfolioServer) GetHoldingTransactions(req *HoldingRequest, stream grpc.ServerStream) error {
	if err := validation.ValidateStruct(req); err != nil {
		return toStatus(err)
	}
	return relay(stream, func(ctx context.Context) (session.Stream[[]models.InstrumentTransaction], error) {
		return ps.subscriptionService.OpenHoldingTransactions(ctx, req.AccountID, req.InstrumentID)
	}, models.NewInstrumentTransactionsSnapshot)
}

func (ps *portfolioServer) AddAccountTransaction(ctx context.Context, req *AddAccountTransactionRequest) (*models.Transaction, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, toStatus(err)
	}
	trx, err := ps.ledgerService.ApplyAccountTransaction(ctx, req.AccountID, *req.Amount, req.Credit)
	if err != nil {
		return nil, toStatus(err)
	}
	return &trx, nil
}

func (ps *portfolioServer) AddHoldingTransaction(ctx context.Context, req *AddHoldingTransactionRequest) (*models.InstrumentTransaction, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, toStatus(err)
	}
	itrx, err := ps.ledgerService.ApplyHoldingTransaction(ctx, req.AccountID, req.InstrumentID, *req.Quantity, req.Credit)
	if err != nil {
		return nil, toStatus(err)
	}
	return &itrx, nil
}

// relay sends every snapshot of a live query until the client goes away or
// the session fails. The session is cancelled on every path out.
func relay[T any](
	stream grpc.ServerStream,
	open func(ctx context.Context) (session.Stream[T], error),
	toSnapshot func(T) models.StreamSnapshot,
) error {
	ctx := stream.Context()

	sess, err := open(ctx)
	if err != nil {
		return toStatus(err)
	}
	defer sess.Cancel()

	updates := sess.Updates()
	for {
		select {
		case <-ctx.Done():
			return status.FromContextError(ctx.Err()).Err()
		case v, ok := <-updates:
			if !ok {
				return toStatus(sess.Err())
			}
			snap := toSnapshot(v)
			if err := stream.SendMsg(&snap); err != nil {
				return err
			}
		}
	}
}

// contextFromMetadata mirrors the HTTP context middleware for gRPC calls.
func contextFromMetadata(ctx context.Context) context.Context {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for _, key := range []string{ctxdata.HeaderCorrelationID, ctxdata.HeaderRequestID} {
			if v := md.Get(key); len(v) > 0 && v[0] != "" {
				id = v[0]
				break
			}
		}
	}
	if id == "" {
		id = uuid.New().String()
	}
	return ctxdata.Sets(ctx, ctxdata.SetCorrelationId(id))
}

func logCall(ctx context.Context, method string, start time.Time, err error) {
	code := status.Code(err)
	fields := []xlog.Field{
		xlog.String("method", method),
		xlog.String("code", code.String()),
		xlog.String("latency", time.Since(start).String()),
	}
	message := fmt.Sprintf("%v %v", code, method)

	switch code {
	case codes.OK, codes.Canceled:
		xlog.Info(ctx, message, fields...)
	case codes.Internal, codes.DataLoss, codes.Unknown:
		xlog.Error(ctx, message, append(fields, xlog.Err(err))...)
	default:
		xlog.Warn(ctx, message, append(fields, xlog.Err(err))...)
	}
}

func unaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ctx = contextFromMetadata(ctx)
	start := time.Now()
	res, err := handler(ctx, req)
	logCall(ctx, info.FullMethod, start, err)
	return res, err
}

type contextStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *contextStream) Context() context.Context { return s.ctx }

func streamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx := contextFromMetadata(ss.Context())
	start := time.Now()
	err := handler(srv, &contextStream{ServerStream: ss, ctx: ctx})
	logCall(ctx, info.FullMethod, start, err)
	return err
}

type svc struct {
	server          *grpc.Server
	addr            string
	gracefulTimeout time.Duration
	listener        net.Listener
}

var _ graceful.ProcessStartStopper = (*svc)(nil)

// NewGRPCServer serves portfolio.v1.PortfolioService on app.grpc_port.
func NewGRPCServer(
	conf config.Config,
	ledgerService services.LedgerService,
	subscriptionService services.SubscriptionService,
	opts ...grpc.ServerOption,
) *svc {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(unaryInterceptor),
		grpc.ChainStreamInterceptor(streamInterceptor),
	}, opts...)
	server := grpc.NewServer(opts...)

	RegisterPortfolioServer(server, &portfolioServer{
		ledgerService:       ledgerService,
		subscriptionService: subscriptionService,
	})

	return &svc{
		server:          server,
		addr:            fmt.Sprintf(":%d", conf.App.GRPCPort),
		gracefulTimeout: conf.App.GracefulTimeout,
	}
}

// Serve blocks on lis. Start uses it with a TCP listener on the configured
// port.
func (s *svc) Serve(lis net.Listener) error {
	err := s.server.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

func (s *svc) Start() graceful.ProcessStarter {
	return func() error {
		lis, err := net.Listen("tcp", s.addr)
		if err != nil {
			return err
		}
		s.listener = lis
		return s.Serve(lis)
	}
}

// Stop waits for running calls. Live streams only end when their clients
// leave, so the server is stopped hard once ctx is done.
func (s *svc) Stop() graceful.ProcessStopper {
	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			s.server.GracefulStop()
			close(done)
		}()

		select {
		case <-done:
			xlog.Info(ctx, "[SHUTDOWN] gRPC server stopped successfully")
		case <-ctx.Done():
			s.server.Stop()
			xlog.Warn(ctx, "[SHUTDOWN] gRPC server stopped before every stream ended")
		}
		return nil
	}
}
