// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/delivery"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/document"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/infrastructure/http/v1/handlers"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/infrastructure/http/v1/middleware"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/infrastructure/storage/postgres"
	"github.com/SaqibDoullah/invoice-flow-sub002/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool (for health checks)
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// TokenValidator for bearer token validation
	TokenValidator middleware.TokenValidator

	// DocumentService provides invoice/quote business logic
	DocumentService *document.Service

	// DeliveryService sends documents by email
	DeliveryService *delivery.Service
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	apiV1 := router.Group("/api/v1")
	{
		protected := apiV1.Group("")
		protected.Use(middleware.Auth(cfg.TokenValidator))

		registerDocumentRoutes(protected, cfg)
	}

	return router
}

// registerDocumentRoutes registers invoice/quote endpoints.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewDocumentHandler(baseHandler, cfg.DocumentService, cfg.DeliveryService)

	docs := rg.Group("/documents")
	{
		docs.GET("", handler.List)
		docs.POST("", handler.Create)
		docs.POST("/totals/preview", handler.PreviewTotals)
		docs.GET("/:id", handler.Get)
		docs.PUT("/:id", handler.Update)
		docs.DELETE("/:id", handler.Delete)
		docs.POST("/:id/status", handler.SetStatus)
		docs.POST("/:id/send", handler.Send)
		docs.GET("/:id/artifact", handler.Artifact)
	}
}
