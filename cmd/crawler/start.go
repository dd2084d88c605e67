package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/a11y-crawler/internal/usecase"
	"go.uber.org/zap"
)

// NewStartCmd creates the start command.
func NewStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <site-id>",
		Short: "Queue a crawl of a site",
		Long: `Start creates a crawl for the site seeded with its root URL and prints the
crawl id. The crawl is pushed onto the job queue for "crawler worker" unless
--run is given, in which case it runs in this process.`,
		Args: cobra.ExactArgs(1),
		RunE: runStartCmd,
	}

	cmd.Flags().Int("max-pages", usecase.DefaultMaxPages, "Maximum number of pages to scan (default from DEFAULT_MAX_PAGES)")
	cmd.Flags().Int("max-depth", usecase.DefaultMaxDepth, "Maximum link depth from the root (default from DEFAULT_MAX_DEPTH)")
	cmd.Flags().Bool("run", false, "Run the crawl in this process instead of queueing it")

	return cmd
}

func runStartCmd(cmd *cobra.Command, args []string) error {
	siteID, err := parseID(args[0], "site id")
	if err != nil {
		return err
	}
	runNow, _ := cmd.Flags().GetBool("run")

	return withApp(cmd, func(ctx context.Context, a *app) error {
		maxPages, maxDepth := a.cfg.DefaultMaxPages, a.cfg.DefaultMaxDepth
		if cmd.Flags().Changed("max-pages") {
			maxPages, _ = cmd.Flags().GetInt("max-pages")
		}
		if cmd.Flags().Changed("max-depth") {
			maxDepth, _ = cmd.Flags().GetInt("max-depth")
		}

		crawl, err := a.crawlManager().StartCrawl(ctx, siteID, maxPages, maxDepth)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), crawl.ID)

		if runNow {
			return runCrawl(ctx, a, crawl.ID)
		}
		if a.queue == nil {
			a.logger.Warn("no job queue available, run the crawl explicitly",
				zap.Int64("crawl_id", crawl.ID))
		}
		return nil
	})
}
