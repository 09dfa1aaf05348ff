package cmd

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"bitbucket.org/Amartha/go-fp-portfolio/cmd/setup"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/graceful"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/deliveries/consumer"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "consumer",
	Short: "Consumer runs one kafka consumer group of the portfolio service",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runConsumerCmd)

	runConsumerCmd.Flags().StringP(runConsumerCmdName, "n", "", "consumer name")
	_ = runConsumerCmd.MarkFlagRequired(runConsumerCmdName)
}

var (
	runConsumerCmd = &cobra.Command{
		Use:     "run",
		Short:   "Run consumer",
		Long:    `Run one consumer group, available consumer names: ` + consumer.NameLedgerRecon,
		Example: "consumer run -n " + consumer.NameLedgerRecon,
		Run:     runConsumer,
	}
	runConsumerCmdName = "name"
)

func runConsumer(ccmd *cobra.Command, _ []string) {
	var (
		ctx      = context.Background()
		starters []graceful.ProcessStarter
		stoppers []graceful.ProcessStopper
	)

	consumerName, _ := ccmd.Flags().GetString(runConsumerCmdName)

	s, stopperContract, err := setup.Init("consumer-" + consumerName)
	if err != nil {
		graceful.StopProcess(5*time.Second, stopperContract...)
		xlog.Fatalf(ctx, "failed to setup app: %v", err)
	}
	xlog.Infof(ctx, "initializing consumer: %s", consumerName)

	consumerProcess, consumerStopper, err := consumer.NewKafkaConsumer(ctx, consumerName, s)
	if err != nil {
		graceful.StopProcess(s.Config.App.GracefulTimeout, append(stopperContract, consumerStopper...)...)
		xlog.Fatalf(ctx, "failed to setup consumer: %v", err)
	}

	healthCheckProcess := consumer.NewHTTPServer(s.Config, s.Metrics, s.HealthChecks()...)

	starters = append(starters, consumerProcess.Start(), healthCheckProcess.Start())

	// graceful.StopProcess runs these last to first
	stoppers = append(stoppers, stopperContract...)
	stoppers = append(stoppers, consumerStopper...)
	stoppers = append(stoppers, consumerProcess.Stop())
	stoppers = append(stoppers, healthCheckProcess.Stop())

	graceful.StartProcessAtBackground(starters...)
	xlog.Infof(ctx, "consumer %s started, waiting for shutdown signal...", consumerName)

	graceful.StopProcessAtBackground(s.Config.App.GracefulTimeout, stoppers...)
	xlog.Infof(ctx, "consumer %s stopped successfully!", consumerName)
}
