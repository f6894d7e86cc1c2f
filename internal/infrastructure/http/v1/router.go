// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"orderdesk/internal/core/security"
	"orderdesk/internal/domain/catalog"
	"orderdesk/internal/domain/editor"
	"orderdesk/internal/domain/orders"
	"orderdesk/internal/domain/payments"
	"orderdesk/internal/domain/reports"
	"orderdesk/internal/domain/visibility"
	"orderdesk/internal/infrastructure/http/v1/handlers"
	"orderdesk/internal/infrastructure/http/v1/middleware"
	"orderdesk/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Policy decides field visibility and report access
	Policy *visibility.Policy

	Orders   *orders.Service
	Payments *payments.Service
	Reports  *reports.Service
	Drafts   *editor.Store
	Products catalog.Lookup

	// Health checks database readiness
	Health handlers.ReadinessChecker

	// Idempotency is optional; nil disables Idempotency-Key handling
	Idempotency middleware.IdempotencyStore

	// Debug keeps gin in debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.Health)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	base := handlers.NewBaseHandler(cfg.Policy)

	protected := router.Group("/api/v1")
	protected.Use(middleware.Auth(cfg.JWTValidator))

	idem := func(c *gin.Context) { c.Next() }
	if cfg.Idempotency != nil {
		idem = middleware.Idempotency(cfg.Idempotency)
	}

	registerOrderRoutes(protected.Group("/orders"),
		handlers.NewOrderHandler(base, cfg.Orders, cfg.Products),
		handlers.NewPaymentHandler(base, cfg.Payments),
		idem)

	registerDraftRoutes(protected.Group("/order-drafts"),
		handlers.NewDraftHandler(base, cfg.Drafts, cfg.Orders))

	reportsGroup := protected.Group("/reports")
	reportsGroup.Use(middleware.RequireCapability(cfg.Policy, security.CapAdmin, security.CapFinance))
	registerReportRoutes(reportsGroup, handlers.NewReportsHandler(base, cfg.Reports))

	return router
}
