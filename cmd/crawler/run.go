package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <crawl-id>",
		Short: "Run a queued crawl to completion",
		Long: `Run takes a crawl created with "crawler start" and processes its frontier
in this process. The exit status is non-zero if the crawl ends in error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crawlID, err := parseID(args[0], "crawl id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				return runCrawl(ctx, a, crawlID)
			})
		},
	}
}

func runCrawl(ctx context.Context, a *app, crawlID int64) error {
	log := a.logger.With(zap.Int64("crawl_id", crawlID))
	log.Info("crawl starting")

	if err := a.orchestrator().RunCrawl(ctx, crawlID); err != nil {
		log.Error("crawl failed", zap.Error(err))
		return err
	}

	crawl, err := a.crawlManager().GetCrawl(ctx, crawlID)
	if err != nil {
		return err
	}
	log.Info("crawl completed",
		zap.String("status", string(crawl.Status)),
		zap.Int("pages_done", crawl.PagesDone),
		zap.Int("pages_queued", crawl.PagesQueued))
	return nil
}
