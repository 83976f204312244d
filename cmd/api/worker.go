package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xavierca1/edconsult-leads/internal/infra/queue"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume queued conversion jobs and send them to the ad platforms",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		broker, err := queue.NewRabbitMQ(cfg.Queue.URL)
		if err != nil {
			return err
		}
		defer func() { _ = broker.Close() }()

		logger := zap.L()
		d := newDispatcher(cfg.Conversion, cfg.App.SiteURL, logger)
		w := queue.NewWorker(broker.Ch, d, logger, cfg.Queue.JobTimeout, cfg.Queue.Prefetch)
		return w.Run(ctx, queue.QueueName)
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
