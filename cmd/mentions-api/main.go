// @title Mention Resolution API
// @version 1.0
// @description Resolves free-text people references from enrichment transcripts against a user's contacts

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"contact-crm/internal/api"
	"contact-crm/internal/api/handlers"
	"contact-crm/internal/auth"
	"contact-crm/internal/config"
	"contact-crm/internal/db"
	"contact-crm/internal/health"
	"contact-crm/internal/logger"
	"contact-crm/internal/repository"
	"contact-crm/internal/service"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	// Load and validate configuration first (before logger)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger with configuration
	logger.Init(cfg.Logger)

	logger.Info().
		Str("environment", cfg.Logger.Environment).
		Str("log_level", cfg.Logger.Level).
		Msg("configuration loaded successfully")

	// Run migrations before connecting to database
	logger.Info().Msg("running database migrations")
	if err := db.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Initialize database
	ctx := context.Background()
	database, err := db.NewDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("database connected successfully")

	// Initialize repositories
	contactRepo := repository.NewContactRepository(database.Pool)
	mentionRepo := repository.NewMentionRepository(database.Pool)

	// Initialize mention resolution service
	mentionService := service.NewMentionService(contactRepo, mentionRepo, cfg.Resolver)

	logger.Info().
		Float64("name_weight", cfg.Resolver.NameWeight).
		Float64("company_weight", cfg.Resolver.CompanyWeight).
		Float64("domain_weight", cfg.Resolver.DomainWeight).
		Float64("fuzzy_floor", cfg.Resolver.FuzzyFloor).
		Int("max_concurrency", cfg.Resolver.MaxConcurrency).
		Msg("mention resolver configured")

	// Initialize handlers
	mentionHandler := handlers.NewMentionHandler(mentionService, mentionRepo, cfg.Resolver.MaxBatchSize)

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(api.RequestIDMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(api.CORSMiddleware(cfg.CORS))
	router.Use(api.ErrorHandlerMiddleware())

	// Health check endpoint
	healthChecker := health.NewHealthChecker(database, cfg.Database.HealthTimeout)
	router.GET("/health", healthChecker.Handler)

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(auth.APIKeyMiddleware(cfg))
	v1.Use(api.NoStoreMiddleware())
	{
		contacts := v1.Group("/contacts")
		{
			contacts.POST("/:id/mentions/resolve", mentionHandler.ResolveMentions)
			contacts.GET("/:id/mentions", mentionHandler.ListMentionsForContact)
		}

		mentions := v1.Group("/mentions")
		{
			mentions.GET("", mentionHandler.ListMentions)
			mentions.GET("/:id", mentionHandler.GetMention)
			mentions.PATCH("/:id/status", mentionHandler.UpdateMentionStatus)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Start server with configured bind address
	addr := cfg.GetBindAddress()
	// Use a listener so we can discover the selected port when PORT=0
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", addr).Msg("failed to bind listener")
	}

	srv := &http.Server{
		Addr:    ln.Addr().String(),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Msg("starting server")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	// Give outstanding requests a configured timeout to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")
}
