package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/account-ledger/internal/models"
	repo "github.com/baharkarakas/account-ledger/internal/repository"
)

func TestAccounts_HighestNumberIsNumeric(t *testing.T) {
	ctx := context.Background()
	r := NewRepositories(New())

	_, ok, err := r.Accounts.HighestNumber(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, n := range []string{"999999999", "1000000012", "1000000002"} {
		_, err := r.Accounts.Save(ctx, models.Account{OwnerID: 1, Number: n, Status: models.AccountActive})
		require.NoError(t, err)
	}
	highest, ok, err := r.Accounts.HighestNumber(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1000000012", highest)
}

func TestAccounts_DuplicateNumberConflicts(t *testing.T) {
	ctx := context.Background()
	r := NewRepositories(New())

	_, err := r.Accounts.Save(ctx, models.Account{OwnerID: 1, Number: "1000000000"})
	require.NoError(t, err)
	_, err = r.Accounts.Save(ctx, models.Account{OwnerID: 2, Number: "1000000000"})
	assert.ErrorIs(t, err, repo.ErrConflict)
}

func TestAccounts_ListByOwnerInInsertionOrder(t *testing.T) {
	ctx := context.Background()
	r := NewRepositories(New())

	for _, a := range []models.Account{
		{OwnerID: 1, Number: "1000000000"},
		{OwnerID: 2, Number: "1000000001"},
		{OwnerID: 1, Number: "1000000002"},
	} {
		_, err := r.Accounts.Save(ctx, a)
		require.NoError(t, err)
	}

	list, err := r.Accounts.ListByOwner(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1000000000", list[0].Number)
	assert.Equal(t, "1000000002", list[1].Number)

	n, err := r.Accounts.CountByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	empty, err := r.Accounts.ListByOwner(ctx, 42)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	r := NewRepositories(New())

	a, err := r.Accounts.Save(ctx, models.Account{OwnerID: 1, Number: "1000000000", Balance: 100})
	require.NoError(t, err)

	err = r.Tx.WithTx(ctx, func(tx repo.Repositories) error {
		a.Balance = 40
		if _, err := tx.Accounts.Save(ctx, a); err != nil {
			return err
		}
		if _, err := tx.Transactions.Create(ctx, models.Transaction{TransactionID: "t1", AccountID: a.ID}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	got, err := r.Accounts.GetByNumber(ctx, "1000000000")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Balance)
	_, err = r.Transactions.GetByTransactionID(ctx, "t1")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestWithTx_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := NewRepositories(New()).Tx.WithTx(ctx, func(repo.Repositories) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestTransactions_SingleCancellationPerOriginal(t *testing.T) {
	ctx := context.Background()
	r := NewRepositories(New())

	_, err := r.Transactions.Create(ctx, models.Transaction{
		TransactionID: "c1", Kind: models.TxnCancel, Result: models.TxnSucceeded, CancelsTransactionID: "u1",
	})
	require.NoError(t, err)

	done, err := r.Transactions.HasCancellation(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, done)

	_, err = r.Transactions.Create(ctx, models.Transaction{
		TransactionID: "c2", Kind: models.TxnCancel, Result: models.TxnSucceeded, CancelsTransactionID: "u1",
	})
	assert.ErrorIs(t, err, repo.ErrConflict)

	_, err = r.Transactions.Create(ctx, models.Transaction{TransactionID: "c1"})
	assert.ErrorIs(t, err, repo.ErrConflict)
}

func TestOwnersAndAudit(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := NewRepositories(s)

	o, err := r.Owners.Create(ctx, "ada")
	require.NoError(t, err)
	got, err := r.Owners.GetByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Name)

	_, err = r.Owners.GetByID(ctx, o.ID+100)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	require.NoError(t, r.AuditLogs.Create(ctx, models.AuditLog{EntityType: models.EntityAccount, EntityID: "1000000000", Action: "created"}))
	logs := s.AuditLogs()
	require.Len(t, logs, 1)
	assert.False(t, logs[0].CreatedAt.IsZero())
}

func TestWithTx_RollbackKeepsWritesMadeOutsideIt(t *testing.T) {
	ctx := context.Background()
	r := NewRepositories(New())

	err := r.Tx.WithTx(ctx, func(tx repo.Repositories) error {
		if _, err := tx.Transactions.Create(ctx, models.Transaction{TransactionID: "inside"}); err != nil {
			return err
		}
		// e.g. a FAILED record written for another account meanwhile
		if _, err := r.Transactions.Create(ctx, models.Transaction{TransactionID: "outside", Result: models.TxnFailed}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = r.Transactions.GetByTransactionID(ctx, "inside")
	assert.ErrorIs(t, err, repo.ErrNotFound)
	_, err = r.Transactions.GetByTransactionID(ctx, "outside")
	assert.NoError(t, err)
}

func TestWithTx_RollbackUndoesInsertsAndCancellations(t *testing.T) {
	ctx := context.Background()
	s := New()
	r := NewRepositories(s)

	err := r.Tx.WithTx(ctx, func(tx repo.Repositories) error {
		if _, err := tx.Accounts.Save(ctx, models.Account{OwnerID: 1, Number: "1000000000"}); err != nil {
			return err
		}
		if _, err := tx.Transactions.Create(ctx, models.Transaction{
			TransactionID: "c1", Result: models.TxnSucceeded, CancelsTransactionID: "u1",
		}); err != nil {
			return err
		}
		if err := tx.AuditLogs.Create(ctx, models.AuditLog{Action: "created"}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, ok, err := r.Accounts.HighestNumber(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	done, err := r.Transactions.HasCancellation(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, done)
	assert.Empty(t, s.AuditLogs())

	// the number is free again
	_, err = r.Accounts.Save(ctx, models.Account{OwnerID: 1, Number: "1000000000"})
	assert.NoError(t, err)
}
