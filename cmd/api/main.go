package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/baharkarakas/account-ledger/internal/api"
	"github.com/baharkarakas/account-ledger/internal/config"
	"github.com/baharkarakas/account-ledger/internal/db"
	"github.com/baharkarakas/account-ledger/internal/lock"
	"github.com/baharkarakas/account-ledger/internal/logger"
	"github.com/baharkarakas/account-ledger/internal/metrics"
	repo "github.com/baharkarakas/account-ledger/internal/repository"
	"github.com/baharkarakas/account-ledger/internal/repository/memory"
	"github.com/baharkarakas/account-ledger/internal/repository/postgres"
	"github.com/baharkarakas/account-ledger/internal/services"
	"github.com/baharkarakas/account-ledger/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("exit", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	repos, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	locker, closeLocker, err := openLocker(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLocker()

	wp := worker.NewPool(cfg.Workers)
	defer wp.Stop()

	accountSvc := services.NewAccountService(repos, locker, wp, log)
	txnSvc := services.NewTransactionService(repos, locker, wp, log)

	metrics.Init()
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(cfg, log, accountSvc, txnSvc),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "store", cfg.Store, "lock_backend", cfg.LockBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (repo.Repositories, func(), error) {
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store, data is lost on exit")
		return memory.NewRepositories(memory.New()), func() {}, nil
	case config.StorePostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return repo.Repositories{}, nil, fmt.Errorf("db connect: %w", err)
		}
		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return repo.Repositories{}, nil, fmt.Errorf("migrations: %w", err)
			}
		}
		return postgres.NewRepositories(pool), pool.Close, nil
	default:
		return repo.Repositories{}, nil, fmt.Errorf("unknown STORE %q", cfg.Store)
	}
}

func openLocker(ctx context.Context, cfg config.Config, log *slog.Logger) (lock.Locker, func(), error) {
	switch cfg.LockBackend {
	case config.LockLocal:
		return lock.NewLocal(), func() {}, nil
	case config.LockRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis connect: %w", err)
		}
		opts := lock.DefaultRedisOptions()
		opts.Expiry = cfg.LockExpiry
		opts.Tries = cfg.LockTries
		opts.RetryDelay = cfg.LockRetryDelay
		l, err := lock.NewRedis(client, opts)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Error("redis close", "err", err)
			}
		}
		return l, closeFn, nil
	default:
		return nil, nil, fmt.Errorf("unknown LOCK_BACKEND %q", cfg.LockBackend)
	}
}
