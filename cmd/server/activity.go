package main

import (
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/movie-tracker/internal/events"
)

func newActivityCommand(ctx *commandContext) *cobra.Command {
	activityCmd := &cobra.Command{
		Use:   "activity",
		Short: "Work with the activity event queue",
	}

	var logPath string
	consume := &cobra.Command{
		Use:   "consume",
		Short: "Append queued activity events to a log file until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.AMQPURL == "" {
				return errors.New("RABBITMQ_URL is not set")
			}
			sigCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			logger := ctx.logger()
			logger.Info("consuming activity events", "queue", events.QueueName, "log", logPath)
			err = events.Consume(sigCtx, cfg.AMQPURL, logPath, logger)
			if sigCtx.Err() != nil {
				return nil
			}
			return err
		},
	}
	consume.Flags().StringVar(&logPath, "log", events.DefaultLogPath, "Activity log file")
	activityCmd.AddCommand(consume)
	return activityCmd
}
