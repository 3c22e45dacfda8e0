package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"appointment-scheduler/internal/store"
)

const migrationsDir = "migrations"

// Migrator applies the SQL migrations embedded in the store package.
type Migrator struct {
	db  *sql.DB
	log *zap.Logger
}

func NewMigrator(pool *pgxpool.Pool, log *zap.Logger) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(store.Migrations)
	goose.SetLogger(zap.NewStdLog(log))

	// goose works on *sql.DB, so wrap the pool
	return &Migrator{db: stdlib.OpenDBFromPool(pool), log: log}, nil
}

func (mg *Migrator) Up(ctx context.Context) error {
	mg.log.Info("applying database migrations")
	if err := goose.UpContext(ctx, mg.db, migrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	v, err := mg.Version(ctx)
	if err != nil {
		return err
	}
	mg.log.Info("migrations applied", zap.Int64("version", v))
	return nil
}

func (mg *Migrator) Status(ctx context.Context) error {
	return goose.StatusContext(ctx, mg.db, migrationsDir)
}

func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close closes the sql.DB wrapper, not the pool.
func (mg *Migrator) Close() error {
	return mg.db.Close()
}
