package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/user/a11y-crawler/internal/delivery/http/handler"
	"github.com/user/a11y-crawler/internal/delivery/http/router"
	"github.com/user/a11y-crawler/internal/delivery/http/server"
	"golang.org/x/sync/errgroup"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().Bool("worker", false, "Also run the crawl worker in this process")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	withWorker, _ := cmd.Flags().GetBool("worker")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		h := handler.NewHandler(a.crawlManager(), a.scanService(), handler.Options{
			DefaultMaxPages: a.cfg.DefaultMaxPages,
			DefaultMaxDepth: a.cfg.DefaultMaxDepth,
			HealthChecks:    a.healthChecks,
		}, a.logger)
		srv := server.New(a.cfg.ServerPort, router.New(h, a.logger), a.logger)

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error { return srv.Run(ctx) })
		if withWorker {
			g.Go(func() error { return runWorker(ctx, a) })
		}
		return g.Wait()
	})
}
