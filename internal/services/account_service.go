package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/baharkarakas/account-ledger/internal/apperr"
	"github.com/baharkarakas/account-ledger/internal/lock"
	"github.com/baharkarakas/account-ledger/internal/metrics"
	"github.com/baharkarakas/account-ledger/internal/models"
	repo "github.com/baharkarakas/account-ledger/internal/repository"
	"github.com/baharkarakas/account-ledger/internal/worker"
)

const (
	// MaxAccountsPerOwner counts every account ever issued to an owner,
	// closed ones included.
	MaxAccountsPerOwner = 10
	FirstAccountNumber  = "1000000000"

	// registryLockKey serializes numbering across all account creations.
	registryLockKey = "registry:accounts"
)

// AccountService is the account registry: it opens and closes accounts
// and answers read-only account lookups.
type AccountService struct {
	ledger
}

func NewAccountService(r repo.Repositories, l lock.Locker, wp *worker.Pool, log *slog.Logger) *AccountService {
	return &AccountService{ledger: newLedger(r, l, wp, log)}
}

func (s *AccountService) RegisterOwner(ctx context.Context, name string) (models.Owner, error) {
	o := models.Owner{Name: name}
	if err := o.Validate(); err != nil {
		return models.Owner{}, s.reject("register_owner", apperr.Newf(apperr.InvalidRequest, "%v", err))
	}
	created, err := s.repos.Owners.Create(ctx, o.Name)
	if err != nil {
		return models.Owner{}, s.reject("register_owner", storeFailure(err))
	}
	s.log.Info("owner registered", "owner_id", created.ID)
	return created, nil
}

// CreateAccount opens a new ACTIVE account for ownerID holding
// initialBalance. Its number is one above the highest number in the
// ledger, or FirstAccountNumber for the very first account.
func (s *AccountService) CreateAccount(ctx context.Context, ownerID, initialBalance int64) (models.Account, error) {
	const op = "create_account"
	if initialBalance < 0 {
		return models.Account{}, s.reject(op, apperr.Newf(apperr.InvalidRequest, "initial balance must be >= 0"), "owner_id", ownerID)
	}
	if _, err := s.owner(ctx, ownerID); err != nil {
		return models.Account{}, s.reject(op, err, "owner_id", ownerID)
	}

	var created models.Account
	err := s.withLock(ctx, registryLockKey, func(ctx context.Context) error {
		n, err := s.repos.Accounts.CountByOwner(ctx, ownerID)
		if err != nil {
			return storeFailure(err)
		}
		if n >= MaxAccountsPerOwner {
			return apperr.New(apperr.AccountLimitExceeded)
		}

		number, err := s.nextAccountNumber(ctx)
		if err != nil {
			return err
		}

		return s.repos.Tx.WithTx(ctx, func(r repo.Repositories) error {
			created, err = r.Accounts.Save(ctx, models.Account{
				OwnerID:   ownerID,
				Number:    number,
				Status:    models.AccountActive,
				Balance:   initialBalance,
				CreatedAt: s.now(),
			})
			if err != nil {
				return storeFailure(err)
			}
			return nil
		})
	})
	if err != nil {
		return models.Account{}, s.reject(op, err, "owner_id", ownerID)
	}

	metrics.AccountsTotal.WithLabelValues("created").Inc()
	s.log.Info("account created", "owner_id", ownerID, "account_number", created.Number, "balance", created.Balance)
	s.audit(models.EntityAccount, created.Number, "created", map[string]any{
		"owner_id": ownerID,
		"balance":  created.Balance,
	})
	return created, nil
}

func (s *AccountService) nextAccountNumber(ctx context.Context) (string, error) {
	highest, ok, err := s.repos.Accounts.HighestNumber(ctx)
	if err != nil {
		return "", storeFailure(err)
	}
	if !ok {
		return FirstAccountNumber, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(highest), 10, 64)
	if err != nil {
		return "", apperr.Wrap(apperr.Internal, err)
	}
	return strconv.FormatInt(n+1, 10), nil
}

// CloseAccount moves an ACTIVE, empty account owned by ownerID to CLOSED.
// It holds the account lock so no USE or CANCEL can slip in between the
// balance check and the status change.
func (s *AccountService) CloseAccount(ctx context.Context, ownerID int64, accountNumber string) (models.Account, error) {
	const op = "close_account"

	var closed models.Account
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
		if account.Status == models.AccountClosed {
			return apperr.New(apperr.AccountAlreadyClosed)
		}
		if account.Balance != 0 {
			return apperr.New(apperr.BalanceNotEmpty)
		}

		return s.repos.Tx.WithTx(ctx, func(r repo.Repositories) error {
			closed, err = r.Accounts.Save(ctx, account.Close(s.now()))
			if err != nil {
				return storeFailure(err)
			}
			return nil
		})
	})
	if err != nil {
		return models.Account{}, s.reject(op, err, "owner_id", ownerID, "account_number", accountNumber)
	}

	metrics.AccountsTotal.WithLabelValues("closed").Inc()
	s.log.Info("account closed", "owner_id", ownerID, "account_number", accountNumber)
	s.audit(models.EntityAccount, accountNumber, "closed", map[string]any{"owner_id": ownerID})
	return closed, nil
}

// ListAccounts returns every account of ownerID in creation order.
func (s *AccountService) ListAccounts(ctx context.Context, ownerID int64) ([]models.Account, error) {
	if _, err := s.owner(ctx, ownerID); err != nil {
		return nil, s.reject("list_accounts", err, "owner_id", ownerID)
	}
	accounts, err := s.repos.Accounts.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.reject("list_accounts", storeFailure(err), "owner_id", ownerID)
	}
	return accounts, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	a, err := s.repos.Accounts.GetByID(ctx, id)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return models.Account{}, s.reject("get_account", apperr.Newf(apperr.AccountNotFound, "account %d not found", id))
	case err != nil:
		return models.Account{}, s.reject("get_account", storeFailure(err))
	}
	return a, nil
}
