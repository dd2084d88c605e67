package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/user/a11y-crawler/internal/usecase"
)

var errNoQueue = errors.New("the worker needs Redis for its job queue")

// NewWorkerCmd creates the worker command.
func NewWorkerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run queued crawls until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, runWorker)
		},
	}
}

func runWorker(ctx context.Context, a *app) error {
	if a.queue == nil {
		return errNoQueue
	}
	worker := usecase.NewCrawlWorker(a.queue, a.orchestrator(), a.cfg.WorkerConcurrency, a.cfg.WorkerPollInterval, a.logger)
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
