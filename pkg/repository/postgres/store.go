// Package postgres implements repository.Store on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/medreza/honcho-rewards-ledger/pkg/repository"
)

const pgUniqueViolationCode = "23505"

// Constraint names declared in pkg/database/migration.go.
const (
	wheelDailyIndex        = "uq_discount_codes_wheel_daily"
	contestEntryDailyIndex = "uq_contest_entries_user_day"
)

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool *pgxpool.Pool
}

var _ repository.Store = (*Store)(nil)

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close(context.Context) error {
	s.pool.Close()
	return nil
}

// inTx runs fn in a transaction and commits when fn returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func uniqueViolation(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolationCode {
		return pgErr, true
	}
	return nil, false
}

func exists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var found bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (`+query+`)`, args...).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

// notFoundOr returns ErrNotFound when the record addressed by query is
// missing and fallback otherwise.
func notFoundOr(ctx context.Context, q querier, fallback error, query string, args ...any) error {
	found, err := exists(ctx, q, query, args...)
	if err != nil {
		return err
	}
	if !found {
		return repository.ErrNotFound
	}
	return fallback
}
