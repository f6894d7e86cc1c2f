// Package main is the entry point for the orderdesk background worker.
// It drains the transactional outbox and expires idempotency keys.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appctx "orderdesk/internal/core/context"
	"orderdesk/internal/infrastructure/storage/postgres"
	"orderdesk/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
		Format:      getEnv("LOG_FORMAT", ""),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// One trace per worker process so relay and cleanup lines correlate
	baseCtx := appctx.WithTrace(logger.WithLogger(context.Background(), log), appctx.NewTraceContext())
	ctx, stop := signal.NotifyContext(baseCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting orderdesk worker")

	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	poolCfg.AppName = "orderdesk-worker"
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	txManager := postgres.NewTxManager(pool)
	worker := NewWorker(txManager, NewLogNotifier(log), log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx, getEnvDuration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond))
	}()

	<-ctx.Done()
	log.Info("shutting down worker...")
	wg.Wait()
	log.Info("worker stopped")
}

// Worker runs the outbox relay and periodic cleanup.
type Worker struct {
	relay       *postgres.OutboxRelay
	idempotency *postgres.IdempotencyStore
	log         *logger.Logger
}

// NewWorker creates a worker delivering outbox messages to notifier.
func NewWorker(txManager *postgres.TxManager, notifier *LogNotifier, log *logger.Logger) *Worker {
	return &Worker{
		relay:       postgres.NewOutboxRelay(txManager, 100, notifier),
		idempotency: postgres.NewIdempotencyStore(txManager, 0),
		log:         log.WithComponent("worker"),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context, pollInterval time.Duration) {
	w.log.Infow("relay running", "poll_interval", pollInterval)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.relay.Run(ctx, pollInterval)
	}()

	cleanupTicker := time.NewTicker(time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case <-cleanupTicker.C:
			w.cleanupIdempotency(ctx)
		}
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	n, err := w.idempotency.CleanupExpired(ctx)
	if err != nil {
		logger.Warn(ctx, "idempotency cleanup failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info(ctx, "cleaned up idempotency keys", "count", n)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
