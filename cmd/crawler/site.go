package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewSiteCmd creates the site command group.
func NewSiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Manage registered sites",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <root-url>",
		Short: "Register a site by its root URL and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				site, err := a.crawlManager().CreateSite(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), site.ID)
				return nil
			})
		},
	})
	return cmd
}
