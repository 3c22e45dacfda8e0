// Package store is the PostgreSQL implementation of the scheduling, identity
// and directory storage contracts.
package store

import (
	"embed"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"appointment-scheduler/internal/model"
)

//go:embed migrations/*.sql
var Migrations embed.FS

const (
	codeUniqueViolation    = "23505"
	codeExclusionViolation = "23P01"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// mapErr turns driver errors into the model sentinels callers test for.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrNoRecord
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return model.ErrDuplicate
		case codeExclusionViolation:
			return model.ErrOverlap
		}
	}
	return err
}
