// Package main is the entry point for the orderdesk API server.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"orderdesk/internal/domain/audit"
	"orderdesk/internal/domain/auth"
	"orderdesk/internal/domain/editor"
	"orderdesk/internal/domain/orders"
	"orderdesk/internal/domain/payments"
	"orderdesk/internal/domain/reports"
	"orderdesk/internal/domain/visibility"
	v1 "orderdesk/internal/infrastructure/http/v1"
	"orderdesk/internal/infrastructure/http/v1/dto"
	"orderdesk/internal/infrastructure/numerator"
	"orderdesk/internal/infrastructure/storage/postgres"
	"orderdesk/internal/infrastructure/storage/postgres/catalog_repo"
	"orderdesk/internal/infrastructure/storage/postgres/document_repo"
	"orderdesk/internal/infrastructure/storage/postgres/register_repo"
	"orderdesk/internal/infrastructure/storage/postgres/report_repo"
	"orderdesk/pkg/logger"
)

func main() {
	// .env is optional; real environment variables win
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

	// Requests run on baseCtx so shutdown lets them finish
	baseCtx := logger.WithLogger(context.Background(), log)
	ctx, stop := signal.NotifyContext(baseCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting orderdesk server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(mustEnv("DATABASE_URL"))
	if maxConns := getEnvInt("DB_MAX_CONNS", 0); maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	}
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Infow("database connection established", "max_conns", poolCfg.MaxConns)

	txManager := postgres.NewTxManager(pool)

	// --- Visibility ---
	policy, err := loadPolicy(getEnv("VISIBILITY_OVERRIDES_FILE", ""))
	if err != nil {
		log.Fatalw("failed to load visibility policy", "error", err)
	}

	// --- Audit ---
	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit log", "error", err)
	}

	// --- Domain services ---
	events := postgres.NewOutboxPublisher(txManager)
	products := catalog_repo.NewProductRepo(txManager)

	orderService := orders.NewService(orders.ServiceConfig{
		Repo: document_repo.NewOrderRepo(txManager),
		Numerator: numerator.New(func(ctx context.Context) numerator.Querier {
			return txManager.GetQuerier(ctx)
		}, "orders"),
		TxManager: txManager,
		Events:    events,
	})
	registerAuditHooks(orderService, auditService)

	paymentService := payments.NewService(payments.ServiceConfig{
		Repo:      register_repo.NewPaymentRepo(txManager),
		Orders:    orderService,
		TxManager: txManager,
		Events:    events,
		Audit:     auditService,
	})

	reportService := reports.NewService(report_repo.NewReportRepo(txManager), policy)

	drafts := editor.NewStore(ctx, products, getEnvDuration("DRAFT_SESSION_TTL", editor.DefaultSessionTTL))
	go drafts.RunJanitor(ctx, time.Minute)

	// --- Auth ---
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(mustEnv("JWT_SECRET")))

	// --- Validation ---
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := dto.RegisterValidators(v); err != nil {
			log.Fatalw("failed to register validators", "error", err)
		}
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		JWTValidator: jwtService,
		Policy:       policy,
		Orders:       orderService,
		Payments:     paymentService,
		Reports:      reportService,
		Drafts:       drafts,
		Products:     products,
		Health:       pool,
		Idempotency:  postgres.NewIdempotencyStore(txManager, getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour)),
		Debug:        getEnv("APP_ENV", "development") == "development",
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		BaseContext:  func(net.Listener) context.Context { return baseCtx },
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	<-ctx.Done()
	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}
	pool.LogStats(shutdownCtx)

	log.Info("server stopped")
}

// loadPolicy compiles the visibility rules, with identity overrides from
// path when set.
func loadPolicy(path string) (*visibility.Policy, error) {
	if path == "" {
		return visibility.NewPolicy(nil, nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open overrides: %w", err)
	}
	defer f.Close()

	overrides, err := visibility.LoadOverrides(f)
	if err != nil {
		return nil, err
	}
	return visibility.NewPolicy(nil, overrides)
}

// registerAuditHooks records order saves in the audit log. Failures are
// logged by the hook registry and never fail the save.
func registerAuditHooks(service *orders.Service, recorder audit.Recorder) {
	record := func(action audit.Action) func(ctx context.Context, o *orders.Order) error {
		return func(ctx context.Context, o *orders.Order) error {
			return recorder.LogChange(ctx, orders.AggregateType, o.ID, action, map[string]any{
				"number":         o.Number,
				"items":          len(o.Items),
				"totalValue":     o.TotalValue,
				"totalCostValue": o.TotalCostValue,
				"freightValue":   o.FreightValue,
				"version":        o.Version,
			})
		}
	}
	hooks := service.Hooks()
	hooks.OnAfterCreate(record(audit.ActionCreate))
	hooks.OnAfterUpdate(record(audit.ActionUpdate))
	hooks.OnAfterDelete(record(audit.ActionDelete))
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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
