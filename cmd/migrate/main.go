package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/dualauth/internal/config"
	"github.com/BradenHooton/dualauth/internal/database"
	"github.com/BradenHooton/dualauth/internal/repositories"
	"github.com/spf13/cobra"
)

type options struct {
	timeout time.Duration
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the users schema",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "operation timeout")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), opts, migrateUp)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest migration (postgres only)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), opts, postgresOnly(database.MigrateDown))
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print migration status (postgres only)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), opts, postgresOnly(database.MigrationStatus))
			},
		},
	)
	return cmd
}

type action func(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) error

func run(parent context.Context, opts *options, fn action) error {
	if parent == nil {
		parent = context.Background()
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(parent, opts.timeout)
	defer cancel()

	if err := fn(ctx, cfg, logger); err != nil {
		logger.Error("migration command failed", slog.Any("error", err))
		return err
	}
	return nil
}

func migrateUp(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) error {
	if cfg.Driver == config.DriverSQLite {
		db, err := database.OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		if err := repositories.NewSQLiteUserRepository(db).Migrate(ctx); err != nil {
			return err
		}
		logger.Info("sqlite schema up to date", slog.String("path", cfg.SQLitePath))
		return nil
	}

	return postgresOnly(database.MigrateUp)(ctx, cfg, logger)
}

func postgresOnly(fn func(ctx context.Context, db *sql.DB) error) action {
	return func(ctx context.Context, cfg *config.DatabaseConfig, logger *slog.Logger) error {
		if cfg.Driver != config.DriverPostgres {
			return fmt.Errorf("command requires DB_DRIVER=%s", config.DriverPostgres)
		}

		db, err := database.NewConnection(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		sqlDB := database.OpenStdlib(db.Pool)
		defer sqlDB.Close()

		return fn(ctx, sqlDB)
	}
}
