package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/sundarv/expense-bot/internal/ai"
	"github.com/sundarv/expense-bot/internal/bot"
	"github.com/sundarv/expense-bot/internal/config"
	"github.com/sundarv/expense-bot/internal/export"
	"github.com/sundarv/expense-bot/internal/extract"
	"github.com/sundarv/expense-bot/internal/lark"
	"github.com/sundarv/expense-bot/internal/ocr"
	"github.com/sundarv/expense-bot/internal/repository"
	"github.com/sundarv/expense-bot/internal/session"
	"github.com/sundarv/expense-bot/internal/webhook"
	"github.com/sundarv/expense-bot/internal/worker"
	"github.com/sundarv/expense-bot/pkg/database"
	"github.com/sundarv/expense-bot/pkg/utils"
)

func main() {
	// Load .env if present, real environment wins
	_ = gotenv.Load()

	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting expense bot",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	// Initialize database
	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Initialize repository
	expenseRepo := repository.NewExpenseRepository(db.DB, logger)

	// Initialize field extraction
	lexicon, err := extract.LoadLexicon(cfg.Extraction.LexiconPath)
	if err != nil {
		logger.Fatal("Failed to load extraction lexicon", zap.Error(err))
	}
	assembler := extract.NewAssembler(lexicon, cfg.Extraction.AmountFloor, logger)

	// Initialize Lark client
	larkClient := lark.NewClient(lark.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
	}, logger)
	messenger := lark.NewMessenger(larkClient, logger)
	media := lark.NewMediaFetcher(larkClient, logger)

	// Initialize OCR pipeline
	engine := ocr.NewTesseractEngine(cfg.OCR.Language, logger)
	photoPool := worker.NewPhotoPool(engine, cfg.OCR.Workers, cfg.OCR.QueueLen, logger)

	manager := worker.NewManager(logger)
	manager.Register(photoPool)

	// Initialize bot service
	sessions := session.NewMemoryStore()
	opts := []bot.ServiceOption{}
	if cfg.OpenAI.Enabled {
		opts = append(opts, bot.WithFallbackExtractor(
			ai.NewFallbackExtractor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, logger)))
	}
	service := bot.NewService(
		sessions,
		expenseRepo,
		assembler,
		messenger,
		media,
		photoPool,
		export.NewExcelWriter(logger),
		logger,
		opts...,
	)
	photoPool.SetHandler(service.OnPhotoProcessed)

	if err := manager.StartAll(context.Background()); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}
	defer manager.StopAll()

	// Initialize webhook handler
	webhookVerifier := webhook.NewVerifier(cfg.Lark.VerifyToken, cfg.Lark.EncryptKey, logger)
	webhookHandler := webhook.NewHandler(webhookVerifier, service, logger)

	// Set Gin mode based on logger level
	if cfg.Logger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize HTTP router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "expense-bot",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// Webhook endpoint
	router.POST(cfg.Lark.WebhookPath, webhookHandler.Handle)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}
