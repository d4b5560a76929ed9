// Package main is the entry point for the invoice-flow API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sashabaranov/go-openai"

	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/auth"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/delivery"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/domain/document"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/generation"
	v1 "github.com/SaqibDoullah/invoice-flow-sub002/internal/infrastructure/http/v1"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/infrastructure/mail"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/infrastructure/storage/postgres"
	"github.com/SaqibDoullah/invoice-flow-sub002/internal/render"
	"github.com/SaqibDoullah/invoice-flow-sub002/pkg/logger"
	"github.com/SaqibDoullah/invoice-flow-sub002/pkg/numerator"
)

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log.Info("starting invoice-flow server")

	// --- Database ---
	dsn := mustEnv("DATABASE_URL")
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dsn))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	documentRepo := postgres.NewDocumentRepo(txManager)
	sequenceRepo := postgres.NewSequenceRepo(txManager)

	artifactArchive, err := postgres.NewArtifactArchive(txManager)
	if err != nil {
		log.Fatalw("failed to initialize artifact archive", "error", err)
	}

	// --- AI content generator (optional) ---
	var contentGen generation.Generator
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		client := openai.NewClient(apiKey)
		contentGen = generation.New(client, generation.Config{
			Model:          getEnv("OPENAI_MODEL", ""),
			MaxRetries:     getEnvInt("OPENAI_MAX_RETRIES", 0),
			RequestTimeout: getEnvDuration("OPENAI_REQUEST_TIMEOUT", 0),
		})
		log.Info("ai content generator enabled")
	} else {
		log.Info("no OPENAI_API_KEY set, using deterministic numbering and fallback emails")
	}

	// --- Number allocator ---
	allocator := numerator.New(postgres.NewNumberLedger(documentRepo), sequenceRepo)
	if contentGen != nil {
		allocator = allocator.WithSuffixSource(numerator.CandidateFunc(
			func(ctx context.Context, scope numerator.Scope) (int64, error) {
				return contentGen.NumberSuffix(ctx, scope.Key())
			},
		))
	}

	// --- Delivery pipeline ---
	renderer := render.NewPDFRenderer(render.Options{
		CompanyName: getEnv("COMPANY_NAME", "invoice-flow"),
		FooterNote:  getEnv("PDF_FOOTER_NOTE", ""),
		Currency:    getEnv("CURRENCY", ""),
	})

	transport := mail.NewSMTPTransport(mail.Config{
		Host:     mustEnv("SMTP_HOST"),
		Port:     getEnvInt("SMTP_PORT", 587),
		Username: getEnv("SMTP_USERNAME", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     mustEnv("SMTP_FROM"),
	})

	orchestrator := delivery.NewOrchestrator(renderer, contentGen, transport, delivery.Config{
		ComposeTimeout: getEnvDuration("DELIVERY_COMPOSE_TIMEOUT", 0),
		SendTimeout:    getEnvDuration("DELIVERY_SEND_TIMEOUT", 0),
	})

	// --- Services ---
	documentService := document.NewService(documentRepo, allocator).WithTxManager(txManager)
	deliveryService := delivery.NewService(documentRepo, orchestrator, artifactArchive)

	// --- JWT ---
	jwtSecret := getEnv("JWT_SECRET", "your-secret-key-change-in-production")
	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(jwtSecret))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:            pool,
		Logger:          log,
		TokenValidator:  jwtService,
		DocumentService: documentService,
		DeliveryService: deliveryService,
	})

	// --- HTTP Server ---
	port := getEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
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
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
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
