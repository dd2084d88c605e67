package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <site-id> <url>",
		Short: "Scan a single page and print the stored scan as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			siteID, err := parseID(args[0], "site id")
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				scan, err := a.scanService().ScanURL(ctx, siteID, args[1])
				if err != nil {
					return err
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(scan)
			})
		},
	}
}
