package repository

import (
	"context"
	"errors"

	"github.com/baharkarakas/account-ledger/internal/models"
)

var (
	// ErrNotFound is returned by every lookup when no row matches.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write breaks a uniqueness rule.
	ErrConflict = errors.New("conflict")
)

type Owners interface {
	Create(ctx context.Context, name string) (models.Owner, error)
	GetByID(ctx context.Context, id int64) (models.Owner, error)
}

type Accounts interface {
	// Save inserts a when a.ID is zero and updates it otherwise.
	Save(ctx context.Context, a models.Account) (models.Account, error)
	GetByID(ctx context.Context, id int64) (models.Account, error)
	GetByNumber(ctx context.Context, number string) (models.Account, error)
	// HighestNumber reports the numerically highest account number, or
	// false when no account exists yet.
	HighestNumber(ctx context.Context) (string, bool, error)
	CountByOwner(ctx context.Context, ownerID int64) (int, error)
	// ListByOwner returns accounts in insertion order.
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Account, error)
}

type Transactions interface {
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	GetByTransactionID(ctx context.Context, transactionID string) (models.Transaction, error)
	HasCancellation(ctx context.Context, transactionID string) (bool, error)
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}

// TxRunner runs fn atomically: either every write made through the
// Repositories passed to fn is persisted, or none is.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(Repositories) error) error
}

type Repositories struct {
	Owners       Owners
	Accounts     Accounts
	Transactions Transactions
	AuditLogs    AuditLogs
	Tx           TxRunner
}
