package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"appointment-scheduler/internal/app"
	"appointment-scheduler/internal/config"
	"appointment-scheduler/internal/store"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "scheduler",
		Short:        "Appointment scheduling service for patients and doctors",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gRPC, grpc-web and HTTP servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := app.NewLogger(cfg.Env)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := app.NewServer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", zap.Error(err))
		return err
	}
	defer srv.Close()

	logger.Info("starting scheduler",
		zap.String("env", cfg.Env),
		zap.String("store", cfg.Store),
		zap.String("timezone", cfg.Timezone),
	)
	if cfg.IsDev() {
		logger.Warn("running in development mode, set ENV=production for JSON logs")
	}
	return srv.Run(ctx)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	// migrate up
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(ctx context.Context, mg *app.Migrator) error {
				if err := mg.Up(ctx); err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				v, err := mg.Version(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("Database at version %d.\n", v)
				return nil
			})
		},
	})

	// migrate status
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(func(ctx context.Context, mg *app.Migrator) error {
				if err := mg.Status(ctx); err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				return nil
			})
		},
	})
	return cmd
}

func withMigrator(fn func(context.Context, *app.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	logger := app.NewLogger(cfg.Env)
	defer logger.Sync()

	ctx := context.Background()
	pool, err := store.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	mg, err := app.NewMigrator(pool, logger)
	if err != nil {
		return err
	}
	defer mg.Close()
	return fn(ctx, mg)
}
