package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/baharkarakas/account-ledger/internal/apperr"
	"github.com/baharkarakas/account-ledger/internal/lock"
	"github.com/baharkarakas/account-ledger/internal/metrics"
	"github.com/baharkarakas/account-ledger/internal/models"
	repo "github.com/baharkarakas/account-ledger/internal/repository"
	"github.com/baharkarakas/account-ledger/internal/worker"
)

// ledger holds what both services share: the store, the per-key locker,
// the audit worker pool and a clock.
type ledger struct {
	repos  repo.Repositories
	locker lock.Locker
	wp     *worker.Pool
	log    *slog.Logger
	now    func() time.Time
}

func newLedger(r repo.Repositories, l lock.Locker, wp *worker.Pool, log *slog.Logger) ledger {
	if log == nil {
		log = slog.Default()
	}
	return ledger{
		repos:  r,
		locker: l,
		wp:     wp,
		log:    log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// withLock runs fn under key. Lock failures surface as Internal errors,
// everything fn returns passes through untouched.
func (l ledger) withLock(ctx context.Context, key string, fn func(context.Context) error) error {
	err := lock.With(ctx, l.log, l.locker, key, fn)
	if errors.Is(err, lock.ErrAcquire) {
		return apperr.Wrap(apperr.Internal, err)
	}
	return err
}

// reject logs err for op and counts it by kind.
func (l ledger) reject(op string, err error, attrs ...any) error {
	kind := apperr.KindOf(err)
	metrics.ErrorsTotal.WithLabelValues(op, string(kind)).Inc()

	attrs = append(attrs, "op", op, "kind", kind, "err", err)
	switch kind {
	case apperr.StoreUnavailable, apperr.Internal:
		l.log.Error("ledger operation failed", attrs...)
	default:
		l.log.Warn("ledger operation rejected", attrs...)
	}
	return err
}

func (l ledger) audit(entityType, entityID, action string, details map[string]any) {
	entry := models.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
		CreatedAt:  l.now(),
	}
	write := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := l.repos.AuditLogs.Create(ctx, entry); err != nil {
			l.log.Error("audit log write failed", "entity_type", entityType, "entity_id", entityID, "action", action, "err", err)
		}
	}
	if l.wp == nil {
		write()
		return
	}
	l.wp.Submit(write)
}

// ErrPersist marks a StoreUnavailable raised by the final write of an
// already validated mutation. Only such attempts get a FAILED record.
var ErrPersist = errors.New("persist ledger mutation")

func storeFailure(err error) error {
	return apperr.Wrap(apperr.StoreUnavailable, err)
}

func (l ledger) owner(ctx context.Context, id int64) (models.Owner, error) {
	o, err := l.repos.Owners.GetByID(ctx, id)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return o, apperr.Newf(apperr.OwnerNotFound, "owner %d not found", id)
	case err != nil:
		return o, storeFailure(err)
	}
	return o, nil
}

func (l ledger) accountByNumber(ctx context.Context, number string) (models.Account, error) {
	a, err := l.repos.Accounts.GetByNumber(ctx, number)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return a, apperr.Newf(apperr.AccountNotFound, "account %s not found", number)
	case err != nil:
		return a, storeFailure(err)
	}
	return a, nil
}

func (l ledger) transaction(ctx context.Context, transactionID string) (models.Transaction, error) {
	t, err := l.repos.Transactions.GetByTransactionID(ctx, transactionID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return t, apperr.Newf(apperr.TransactionNotFound, "transaction %s not found", transactionID)
	case err != nil:
		return t, storeFailure(err)
	}
	return t, nil
}
