// Package lock serializes work per key. The ledger keys locks by account
// number so USE, CANCEL and close on one account never interleave.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/baharkarakas/account-ledger/internal/metrics"
)

var (
	// ErrAcquire wraps every failure to obtain a lock in With.
	ErrAcquire    = errors.New("acquire lock")
	ErrEmptyKey   = errors.New("lock key cannot be empty")
	ErrNotHeld    = errors.New("lock was not held or already expired")
	ErrNilHandler = errors.New("lock function is nil")
)

// Handle is an acquired lock. Release must be called exactly once.
type Handle interface {
	Release(ctx context.Context) error
}

type Locker interface {
	// Acquire blocks until key is held, ctx is done, or the backend gives up.
	Acquire(ctx context.Context, key string) (Handle, error)
}

// With runs fn while holding key on l. The lock is released on every exit
// path, including a panic inside fn, and a release failure never masks
// the error returned by fn. Release failures go to log, or slog.Default
// when log is nil.
func With(ctx context.Context, log *slog.Logger, l Locker, key string, fn func(context.Context) error) error {
	if fn == nil {
		return ErrNilHandler
	}
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	start := time.Now()
	h, err := l.Acquire(ctx, key)
	metrics.LockWait.Observe(time.Since(start).Seconds())
	if err != nil {
		return fmt.Errorf("%w %s: %w", ErrAcquire, key, err)
	}

	defer func() {
		// Release on a fresh context so a cancelled caller still unlocks.
		relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if rerr := h.Release(relCtx); rerr != nil {
			if log == nil {
				log = slog.Default()
			}
			log.Error("release lock", "key", key, "err", rerr)
		}
	}()

	return fn(ctx)
}

// AccountKey is the lock key for balance mutations on one account.
func AccountKey(accountNumber string) string { return "account:" + accountNumber }
