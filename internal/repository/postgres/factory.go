package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	repo "github.com/baharkarakas/account-ledger/internal/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so every repo
// works the same inside and outside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	r := bind(pool)
	r.Tx = &txRunner{db: pool}
	return r
}

func bind(q querier) repo.Repositories {
	return repo.Repositories{
		Owners:       &ownersRepo{q},
		Accounts:     &accountsRepo{q},
		Transactions: &transactionsRepo{q},
		AuditLogs:    &auditLogsRepo{q},
	}
}

type txStarter interface {
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
}

type txRunner struct{ db txStarter }

func (t *txRunner) WithTx(ctx context.Context, fn func(repo.Repositories) error) error {
	tx, err := t.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return err
	}
	// no-op after Commit; covers error returns and panics in fn
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	r := bind(tx)
	r.Tx = nestedTx{r}
	if err := fn(r); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// nestedTx joins the enclosing transaction instead of opening a new one.
type nestedTx struct{ r repo.Repositories }

func (n nestedTx) WithTx(_ context.Context, fn func(repo.Repositories) error) error {
	return fn(n.r)
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repo.ErrNotFound
	}
	return err
}

func uniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
