package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredislib "github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "lock:"

// RedisOptions tunes the RedLock mutex behind each key.
type RedisOptions struct {
	// Expiry bounds how long a crashed holder can block the key.
	Expiry      time.Duration
	Tries       int
	RetryDelay  time.Duration
	DriftFactor float64
}

// DefaultRedisOptions waits up to about three seconds for a busy account
// and auto-expires a held lock after 15 seconds.
func DefaultRedisOptions() RedisOptions {
	return RedisOptions{
		Expiry:      15 * time.Second,
		Tries:       30,
		RetryDelay:  100 * time.Millisecond,
		DriftFactor: 0.01,
	}
}

func (o RedisOptions) validate() error {
	switch {
	case o.Expiry <= 0:
		return errors.New("lock expiry must be greater than 0")
	case o.Tries < 1:
		return errors.New("lock tries must be at least 1")
	case o.RetryDelay < 0:
		return errors.New("lock retry delay cannot be negative")
	case o.DriftFactor < 0 || o.DriftFactor >= 1:
		return errors.New("lock drift factor must be in [0, 1)")
	}
	return nil
}

// Redis is a distributed Locker built on redsync, so several API
// instances sharing one ledger still serialize per account.
type Redis struct {
	rs   *redsync.Redsync
	opts RedisOptions
}

func NewRedis(client goredislib.UniversalClient, opts RedisOptions) (*Redis, error) {
	if client == nil {
		return nil, errors.New("redis client is nil")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Redis{
		rs:   redsync.New(goredis.NewPool(client)),
		opts: opts,
	}, nil
}

func (r *Redis) Acquire(ctx context.Context, key string) (Handle, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}
	m := r.rs.NewMutex(redisKeyPrefix+key,
		redsync.WithExpiry(r.opts.Expiry),
		redsync.WithTries(r.opts.Tries),
		redsync.WithRetryDelay(r.opts.RetryDelay),
		redsync.WithDriftFactor(r.opts.DriftFactor),
	)
	if err := m.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("redis lock: %w", err)
	}
	return &redisHandle{m: m}, nil
}

type redisHandle struct{ m *redsync.Mutex }

func (h *redisHandle) Release(ctx context.Context) error {
	ok, err := h.m.UnlockContext(ctx)
	if err != nil {
		return fmt.Errorf("redis unlock: %w", err)
	}
	if !ok {
		return ErrNotHeld
	}
	return nil
}
