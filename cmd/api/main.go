package main

import (
	"context"
	"time"

	"bitbucket.org/Amartha/go-fp-portfolio/cmd/setup"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/graceful"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/deliveries/grpc"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/deliveries/http"
)

func main() {
	var (
		ctx      = context.Background()
		starters []graceful.ProcessStarter
		stoppers []graceful.ProcessStopper
	)

	s, stopperContract, err := setup.Init("api")
	if err != nil {
		timeout := 5 * time.Second
		if s != nil && s.Config.App.GracefulTimeout != 0 {
			timeout = s.Config.App.GracefulTimeout
		}

		graceful.StopProcess(timeout, stopperContract...)

		xlog.Fatalf(ctx, "failed to setup app: %v", err)
	}

	httpServer := http.NewHTTPServer(s.Config, s.NewRelic,
		s.RepoCache,
		s.Service.Ledger,
		s.Service.Subscription,
		s.Service.Recon,
		s.Metrics,
		s.HealthChecks()...,
	)

	grpcServer := grpc.NewGRPCServer(s.Config,
		s.Service.Ledger,
		s.Service.Subscription,
	)

	starters = append(starters, httpServer.Start(), grpcServer.Start())

	// stopped last to first: servers before the stores they read
	stoppers = append(stoppers, stopperContract...)
	stoppers = append(stoppers, grpcServer.Stop(), httpServer.Stop())

	graceful.StartProcessAtBackground(starters...)
	xlog.Infof(ctx, "%s started, http :%d grpc :%d", s.Config.App.Name, s.Config.App.HTTPPort, s.Config.App.GRPCPort)

	graceful.StopProcessAtBackground(s.Config.App.GracefulTimeout, stoppers...)
	xlog.Info(ctx, "api stopped!")
}
