package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/account-ledger/internal/lock"
	"github.com/baharkarakas/account-ledger/internal/models"
	repo "github.com/baharkarakas/account-ledger/internal/repository"
	"github.com/baharkarakas/account-ledger/internal/repository/memory"
)

var errStoreDown = errors.New("store down")

// faults switches individual store calls to failure. The zero value
// passes everything through.
type faults struct {
	ownerLookup        error
	accountSave        error
	accountLookup      error
	cancellationLookup error
	createSucceeded    error
}

func faulty(r repo.Repositories, f *faults) repo.Repositories {
	return repo.Repositories{
		Owners:       faultyOwners{Owners: r.Owners, f: f},
		Accounts:     faultyAccounts{Accounts: r.Accounts, f: f},
		Transactions: faultyTransactions{Transactions: r.Transactions, f: f},
		AuditLogs:    r.AuditLogs,
		Tx:           faultyTx{inner: r.Tx, f: f},
	}
}

type faultyOwners struct {
	repo.Owners
	f *faults
}

func (o faultyOwners) GetByID(ctx context.Context, id int64) (models.Owner, error) {
	if o.f.ownerLookup != nil {
		return models.Owner{}, o.f.ownerLookup
	}
	return o.Owners.GetByID(ctx, id)
}

type faultyAccounts struct {
	repo.Accounts
	f *faults
}

func (a faultyAccounts) Save(ctx context.Context, acc models.Account) (models.Account, error) {
	if a.f.accountSave != nil {
		return models.Account{}, a.f.accountSave
	}
	return a.Accounts.Save(ctx, acc)
}

func (a faultyAccounts) GetByNumber(ctx context.Context, number string) (models.Account, error) {
	if a.f.accountLookup != nil {
		return models.Account{}, a.f.accountLookup
	}
	return a.Accounts.GetByNumber(ctx, number)
}

type faultyTransactions struct {
	repo.Transactions
	f *faults
}

func (t faultyTransactions) Create(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	if t.f.createSucceeded != nil && tx.Result == models.TxnSucceeded {
		return models.Transaction{}, t.f.createSucceeded
	}
	return t.Transactions.Create(ctx, tx)
}

func (t faultyTransactions) HasCancellation(ctx context.Context, transactionID string) (bool, error) {
	if t.f.cancellationLookup != nil {
		return false, t.f.cancellationLookup
	}
	return t.Transactions.HasCancellation(ctx, transactionID)
}

type faultyTx struct {
	inner repo.TxRunner
	f     *faults
}

func (t faultyTx) WithTx(ctx context.Context, fn func(repo.Repositories) error) error {
	return t.inner.WithTx(ctx, func(r repo.Repositories) error {
		return fn(faulty(r, t.f))
	})
}

type brokenLocker struct{}

func (brokenLocker) Acquire(context.Context, string) (lock.Handle, error) {
	return nil, errors.New("lock backend unreachable")
}

type fixture struct {
	store    *memory.Store
	repos    repo.Repositories
	faults   *faults
	accounts *AccountService
	txns     *TransactionService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	f := &faults{}
	repos := faulty(memory.NewRepositories(store), f)
	locker := lock.NewLocal()
	return &fixture{
		store:    store,
		repos:    repos,
		faults:   f,
		accounts: NewAccountService(repos, locker, nil, nil),
		txns:     NewTransactionService(repos, locker, nil, nil),
	}
}

func (f *fixture) owner(t *testing.T) models.Owner {
	t.Helper()
	o, err := f.accounts.RegisterOwner(context.Background(), "ada")
	require.NoError(t, err)
	return o
}

func (f *fixture) account(t *testing.T, ownerID, balance int64) models.Account {
	t.Helper()
	a, err := f.accounts.CreateAccount(context.Background(), ownerID, balance)
	require.NoError(t, err)
	return a
}

func (f *fixture) balance(t *testing.T, number string) int64 {
	t.Helper()
	a, err := f.repos.Accounts.GetByNumber(context.Background(), number)
	require.NoError(t, err)
	return a.Balance
}

// setNow pins both services' clocks to at.
func (f *fixture) setNow(at time.Time) {
	now := func() time.Time { return at }
	f.accounts.now = now
	f.txns.now = now
}
