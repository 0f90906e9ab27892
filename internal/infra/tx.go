package infra

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the part of *pgxpool.Pool and pgx.Tx the repositories use.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type txKey struct{}

// Conn returns the transaction carried by ctx, or pool when there is none.
// Begin on the returned value opens a savepoint inside an outer transaction,
// so nested repository updates stay on one connection and commit together.
func Conn(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}

// Transactor runs fn so that every repository call made with the ctx it
// receives commits or rolls back as one unit.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewTransactor returns a Postgres transactor, or one that simply calls fn
// when pool is nil and the in-memory repositories are in use.
func NewTransactor(pool *pgxpool.Pool) Transactor {
	if pool == nil {
		return NoTx{}
	}
	return pgTransactor{pool: pool}
}

type pgTransactor struct {
	pool *pgxpool.Pool
}

func (t pgTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := Conn(ctx, t.pool).Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// NoTx runs fn directly.
type NoTx struct{}

func (NoTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
