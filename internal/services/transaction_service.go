package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/baharkarakas/account-ledger/internal/apperr"
	"github.com/baharkarakas/account-ledger/internal/lock"
	"github.com/baharkarakas/account-ledger/internal/metrics"
	"github.com/baharkarakas/account-ledger/internal/models"
	repo "github.com/baharkarakas/account-ledger/internal/repository"
	"github.com/baharkarakas/account-ledger/internal/worker"
)

// CancelWindow is how far back a USE may still be cancelled.
const CancelWindow = 365 * 24 * time.Hour

// TransactionService is the transaction engine. Every balance mutation
// runs under the account's lock and re-reads the account inside it.
type TransactionService struct {
	ledger
	newID func() string
}

func NewTransactionService(r repo.Repositories, l lock.Locker, wp *worker.Pool, log *slog.Logger) *TransactionService {
	return &TransactionService{
		ledger: newLedger(r, l, wp, log),
		newID:  newTransactionID,
	}
}

func newTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// UseBalance debits amount from accountNumber on behalf of ownerID.
// A rejected request writes no transaction record.
func (s *TransactionService) UseBalance(ctx context.Context, ownerID int64, accountNumber string, amount int64) (models.Transaction, error) {
	const op = "use_balance"
	attrs := []any{"owner_id", ownerID, "account_number", accountNumber, "amount", amount}

	if amount <= 0 {
		return models.Transaction{}, s.reject(op, apperr.Newf(apperr.InvalidRequest, "amount must be > 0"), attrs...)
	}

	var rec models.Transaction
	err := s.withLock(ctx, lock.AccountKey(accountNumber), func(ctx context.Context) error {
		if _, err := s.owner(ctx, ownerID); err != nil {
			return err
		}
		account, err := s.accountByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}
		if account.OwnerID != ownerID {
			return apperr.New(apperr.OwnerAccountMismatch)
		}
		if !account.Active() {
			return apperr.New(apperr.AccountAlreadyClosed)
		}
		if amount > account.Balance {
			return apperr.New(apperr.AmountExceedsBalance)
		}

		rec, err = s.apply(ctx, account.Debit(amount), models.Transaction{
			Kind:   models.TxnUse,
			Amount: amount,
		})
		return err
	})
	if err != nil {
		return models.Transaction{}, s.reject(op, err, attrs...)
	}

	s.succeeded(rec)
	return rec, nil
}

// CancelBalance reverses the USE recorded as transactionID in full,
// crediting amount back to accountNumber.
func (s *TransactionService) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (models.Transaction, error) {
	const op = "cancel_balance"
	attrs := []any{"transaction_id", transactionID, "account_number", accountNumber, "amount", amount}

	var rec models.Transaction
	err := s.withLock(ctx, lock.AccountKey(accountNumber), func(ctx context.Context) error {
		original, err := s.transaction(ctx, transactionID)
		if err != nil {
			return err
		}
		account, err := s.accountByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}
		if err := s.checkCancel(ctx, original, account, amount); err != nil {
			return err
		}

		rec, err = s.apply(ctx, account.Credit(amount), models.Transaction{
			Kind:                 models.TxnCancel,
			Amount:               amount,
			CancelsTransactionID: original.TransactionID,
		})
		if errors.Is(err, repo.ErrConflict) {
			return apperr.Wrap(apperr.AlreadyCancelled, err)
		}
		return err
	})
	if err != nil {
		return models.Transaction{}, s.reject(op, err, attrs...)
	}

	s.succeeded(rec)
	return rec, nil
}

func (s *TransactionService) checkCancel(ctx context.Context, original models.Transaction, account models.Account, amount int64) error {
	if original.AccountID != account.ID {
		return apperr.New(apperr.TransactionAccountMismatch)
	}
	if amount != original.Amount {
		return apperr.New(apperr.CancelMustBeFull)
	}
	if s.now().Sub(original.TransactedAt) > CancelWindow {
		return apperr.New(apperr.TooOldToCancel)
	}
	if amount < 0 {
		return apperr.Newf(apperr.InvalidRequest, "amount must be >= 0")
	}
	if original.Kind != models.TxnUse || original.Result != models.TxnSucceeded {
		return apperr.Newf(apperr.InvalidRequest, "only a succeeded USE can be cancelled")
	}
	done, err := s.repos.Transactions.HasCancellation(ctx, original.TransactionID)
	if err != nil {
		return storeFailure(err)
	}
	if done {
		return apperr.New(apperr.AlreadyCancelled)
	}
	// A closed account must stay at zero.
	if !account.Active() {
		return apperr.New(apperr.AccountAlreadyClosed)
	}
	return nil
}

// apply persists the mutated account and its SUCCEEDED record in one store
// transaction. Any store error comes back as StoreUnavailable wrapping
// ErrPersist, except a uniqueness conflict which is returned as is for the
// caller to classify.
func (s *TransactionService) apply(ctx context.Context, account models.Account, rec models.Transaction) (models.Transaction, error) {
	rec.TransactionID = s.newID()
	rec.AccountID = account.ID
	rec.AccountNumber = account.Number
	rec.Result = models.TxnSucceeded
	rec.BalanceSnapshot = account.Balance
	rec.TransactedAt = s.now()

	err := s.repos.Tx.WithTx(ctx, func(r repo.Repositories) error {
		if _, err := r.Accounts.Save(ctx, account); err != nil {
			return err
		}
		var err error
		rec, err = r.Transactions.Create(ctx, rec)
		return err
	})
	switch {
	case errors.Is(err, repo.ErrConflict):
		return models.Transaction{}, err
	case err != nil:
		return models.Transaction{}, storeFailure(fmt.Errorf("%w: %w", ErrPersist, err))
	}
	return rec, nil
}

func (s *TransactionService) succeeded(rec models.Transaction) {
	metrics.TransactionsTotal.WithLabelValues(string(rec.Kind), string(rec.Result)).Inc()
	s.log.Info("transaction applied",
		"transaction_id", rec.TransactionID,
		"kind", rec.Kind,
		"account_number", rec.AccountNumber,
		"amount", rec.Amount,
		"balance", rec.BalanceSnapshot,
	)
	details := map[string]any{
		"account_number":   rec.AccountNumber,
		"amount":           rec.Amount,
		"balance_snapshot": rec.BalanceSnapshot,
	}
	if rec.CancelsTransactionID != "" {
		details["cancels"] = rec.CancelsTransactionID
	}
	s.audit(models.EntityTransaction, rec.TransactionID, strings.ToLower(string(rec.Kind)), details)
}

// RecordFailedUse writes a FAILED USE record for accountNumber carrying
// the account's current, unchanged balance. Callers invoke it when
// UseBalance fails with ErrPersist.
func (s *TransactionService) RecordFailedUse(ctx context.Context, accountNumber string, amount int64) (models.Transaction, error) {
	return s.recordFailure(ctx, models.TxnUse, accountNumber, amount)
}

// RecordFailedCancel is RecordFailedUse for CANCEL attempts.
func (s *TransactionService) RecordFailedCancel(ctx context.Context, accountNumber string, amount int64) (models.Transaction, error) {
	return s.recordFailure(ctx, models.TxnCancel, accountNumber, amount)
}

func (s *TransactionService) recordFailure(ctx context.Context, kind models.TransactionKind, accountNumber string, amount int64) (models.Transaction, error) {
	const op = "record_failure"
	attrs := []any{"kind", kind, "account_number", accountNumber, "amount", amount}

	if amount <= 0 {
		return models.Transaction{}, s.reject(op, apperr.Newf(apperr.InvalidRequest, "amount must be > 0"), attrs...)
	}

	var rec models.Transaction
	err := s.withLock(ctx, lock.AccountKey(accountNumber), func(ctx context.Context) error {
		account, err := s.accountByNumber(ctx, accountNumber)
		if err != nil {
			return err
		}
		rec, err = s.repos.Transactions.Create(ctx, models.Transaction{
			TransactionID:   s.newID(),
			AccountID:       account.ID,
			AccountNumber:   account.Number,
			Kind:            kind,
			Result:          models.TxnFailed,
			Amount:          amount,
			BalanceSnapshot: account.Balance,
			TransactedAt:    s.now(),
		})
		if err != nil {
			return storeFailure(err)
		}
		return nil
	})
	if err != nil {
		return models.Transaction{}, s.reject(op, err, attrs...)
	}

	metrics.TransactionsTotal.WithLabelValues(string(kind), string(models.TxnFailed)).Inc()
	s.log.Warn("failed transaction recorded", "transaction_id", rec.TransactionID, "kind", kind, "account_number", accountNumber, "amount", amount)
	s.audit(models.EntityTransaction, rec.TransactionID, "failed", map[string]any{
		"kind":           string(kind),
		"account_number": accountNumber,
		"amount":         amount,
	})
	return rec, nil
}

// QueryTransaction looks a record up by its transaction identifier.
// It takes no lock.
func (s *TransactionService) QueryTransaction(ctx context.Context, transactionID string) (models.Transaction, error) {
	t, err := s.transaction(ctx, transactionID)
	if err != nil {
		return models.Transaction{}, s.reject("query_transaction", err, "transaction_id", transactionID)
	}
	return t, nil
}
