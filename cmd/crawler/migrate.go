package main

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/user/a11y-crawler/internal/adapter/postgres"
	"github.com/user/a11y-crawler/internal/adapter/sqlite"
	"github.com/user/a11y-crawler/pkg/config"
	"go.uber.org/zap"
)

// NewMigrateCmd creates the migrate command.
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck
			ctx := cmd.Context()

			if cfg.StoreDriver == config.DriverSQLite {
				db, err := sqlite.Open(ctx, cfg.SQLitePath)
				if err != nil {
					return err
				}
				log.Info("schema applied", zap.String("driver", cfg.StoreDriver), zap.String("path", cfg.SQLitePath))
				return db.Close()
			}

			pool, err := pgxpool.New(ctx, cfg.PostgresURL)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := postgres.Migrate(ctx, pool); err != nil {
				log.Error("migration failed", zap.Error(err))
				return err
			}
			log.Info("schema applied", zap.String("driver", cfg.StoreDriver))
			return nil
		},
	}
}
