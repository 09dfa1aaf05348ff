package grpc

import (
	"context"

	"google.golang.org/grpc"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
)

const ServiceName = "portfolio.v1.PortfolioService"

// PortfolioServer is the server side of portfolio.v1.PortfolioService.
type PortfolioServer interface {
	GetAccount(req *AccountRequest, stream grpc.ServerStream) error
	GetAccountHoldings(req *AccountRequest, stream grpc.ServerStream) error
	GetAccountTransactions(req *AccountRequest, stream grpc.ServerStream) error
	GetHoldingTransactions(req *HoldingRequest, stream grpc.ServerStream) error
	AddAccountTransaction(ctx context.Context, req *AddAccountTransactionRequest) (*models.Transaction, error)
	AddHoldingTransaction(ctx context.Context, req *AddHoldingTransactionRequest) (*models.InstrumentTransaction, error)
}

// ServiceDesc describes the service for grpc.Server.RegisterService. There
// is no generated code, messages travel with the json codec.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PortfolioServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddAccountTransaction", Handler: addAccountTransactionHandler},
		{MethodName: "AddHoldingTransaction", Handler: addHoldingTransactionHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "GetAccount", Handler: accountStreamHandler(PortfolioServer.GetAccount), ServerStreams: true},
		{StreamName: "GetAccountHoldings", Handler: accountStreamHandler(PortfolioServer.GetAccountHoldings), ServerStreams: true},
		{StreamName: "GetAccountTransactions", Handler: accountStreamHandler(PortfolioServer.GetAccountTransactions), ServerStreams: true},
		{StreamName: "GetHoldingTransactions", Handler: getHoldingTransactionsHandler, ServerStreams: true},
	},
	Metadata: "portfolio/v1/portfolio.proto",
}

func RegisterPortfolioServer(s grpc.ServiceRegistrar, srv PortfolioServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func addAccountTransactionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AddAccountTransactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PortfolioServer).AddAccountTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/AddAccountTransaction",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PortfolioServer).AddAccountTransaction(ctx, req.(*AddAccountTransactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func addHoldingTransactionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(AddHoldingTransactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PortfolioServer).AddHoldingTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/AddHoldingTransaction",
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PortfolioServer).AddHoldingTransaction(ctx, req.(*AddHoldingTransactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func accountStreamHandler(method func(PortfolioServer, *AccountRequest, grpc.ServerStream) error) grpc.StreamHandler {
	return func(srv any, stream grpc.ServerStream) error {
		in := new(AccountRequest)
		if err := stream.RecvMsg(in); err != nil {
			return err
		}
		return method(srv.(PortfolioServer), in, stream)
	}
}

func getHoldingTransactionsHandler(srv any, stream grpc.ServerStream) error {
	in := new(HoldingRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(PortfolioServer).GetHoldingTransactions(in, stream)
}
