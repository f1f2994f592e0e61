package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/baharkarakas/account-ledger/internal/models"
	repo "github.com/baharkarakas/account-ledger/internal/repository"
)

type transactionsRepo struct{ q querier }

const transactionColumns = `t.id, t.transaction_id, t.account_id, a.account_number, t.kind, t.result,
       t.amount, t.balance_snapshot, t.transacted_at, COALESCE(t.cancels_transaction_id, '')`

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.TransactionID, &t.AccountID, &t.AccountNumber, &t.Kind, &t.Result,
		&t.Amount, &t.BalanceSnapshot, &t.TransactedAt, &t.CancelsTransactionID)
	return t, err
}

func (r *transactionsRepo) Create(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	var cancels *string
	if t.CancelsTransactionID != "" {
		cancels = &t.CancelsTransactionID
	}
	err := r.q.QueryRow(ctx,
		`INSERT INTO transactions (
		   transaction_id, account_id, kind, result, amount, balance_snapshot, transacted_at, cancels_transaction_id
		 ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 RETURNING id`,
		t.TransactionID, t.AccountID, t.Kind, t.Result, t.Amount, t.BalanceSnapshot, t.TransactedAt, cancels,
	).Scan(&t.ID)
	if uniqueViolation(err) {
		return models.Transaction{}, fmt.Errorf("transaction %s: %w", t.TransactionID, repo.ErrConflict)
	}
	return t, err
}

func (r *transactionsRepo) GetByTransactionID(ctx context.Context, transactionID string) (models.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRow(ctx,
		`SELECT `+transactionColumns+`
		   FROM transactions t
		   JOIN accounts a ON a.id = t.account_id
		  WHERE t.transaction_id=$1`,
		transactionID,
	))
	return t, notFound(err)
}

func (r *transactionsRepo) HasCancellation(ctx context.Context, transactionID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM transactions WHERE cancels_transaction_id=$1 AND result='SUCCEEDED')`, transactionID,
	).Scan(&exists)
	return exists, err
}
