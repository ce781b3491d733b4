package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medicai-app/backend/internal/audit"
	"github.com/medicai-app/backend/internal/avatar"
	"github.com/medicai-app/backend/internal/chat"
	"github.com/medicai-app/backend/internal/config"
	"github.com/medicai-app/backend/internal/handler"
	"github.com/medicai-app/backend/internal/llm"
	"github.com/medicai-app/backend/internal/middleware"
	"github.com/medicai-app/backend/internal/scheduler"
	"github.com/medicai-app/backend/internal/store"
	"github.com/medicai-app/backend/internal/supabase"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize Zap logger
	var logger *zap.Logger
	if cfg.Server.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("Configuration loaded successfully",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.Bool("direct_llm", cfg.DirectLLMEnabled()),
		zap.Bool("audit", cfg.AuditEnabled()),
		zap.Bool("avatar_storage", cfg.AvatarStorageEnabled()),
	)

	// Initialize local document stores
	var persister store.Persister
	filePersister, err := store.NewFilePersister(cfg.Store.DataDir)
	if err != nil {
		logger.Fatal("Failed to initialize document persister", zap.Error(err))
	}
	persister = filePersister

	if key, err := cfg.StoreKey(); err != nil {
		logger.Fatal("Invalid store encryption key", zap.Error(err))
	} else if key != nil {
		persister, err = store.NewEncryptedPersister(filePersister, key)
		if err != nil {
			logger.Fatal("Failed to initialize encrypted persister", zap.Error(err))
		}
		logger.Info("Local documents encrypted at rest")
	}

	chatStore, err := store.NewChatStore(persister, logger)
	if err != nil {
		logger.Fatal("Failed to load chat store", zap.Error(err))
	}

	reminderStore, err := store.NewReminderStore(persister, logger)
	if err != nil {
		logger.Fatal("Failed to load reminder store", zap.Error(err))
	}

	settingsStore, err := store.NewSettingsStore(persister, logger)
	if err != nil {
		logger.Fatal("Failed to load settings store", zap.Error(err))
	}

	// Initialize backend client
	backendClient, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, logger)
	if err != nil {
		logger.Fatal("Failed to initialize backend client", zap.Error(err))
	}

	// Initialize the reply chain: edge function, then direct model, then echo
	edgeProvider := llm.NewEdgeProvider(
		backendClient.FunctionURL(cfg.Supabase.FunctionName),
		cfg.Supabase.AnonKey,
		cfg.OpenAI.Model,
		logger,
	)
	directProvider := llm.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Timeout, logger)
	replyChain := llm.NewChain(logger, edgeProvider, directProvider, llm.EchoProvider{})

	chatService := chat.NewService(chatStore, replyChain, logger)

	// Initialize the scheduling bridge and restore alarms lost to the restart
	registrar := scheduler.NewTimerRegistrar(&scheduler.LogNotifier{Logger: logger}, logger)
	bridge := scheduler.NewBridge(reminderStore, registrar, logger)
	bridge.Restore()

	// Initialize the optional chat usage audit trail
	var auditLogger *audit.Logger
	var pool *pgxpool.Pool
	if cfg.AuditEnabled() {
		pool, err = pgxpool.New(context.Background(), cfg.Database.URL)
		if err != nil {
			logger.Fatal("Failed to connect to audit database", zap.Error(err))
		}
		defer pool.Close()

		if err := pool.Ping(context.Background()); err != nil {
			logger.Fatal("Failed to ping audit database", zap.Error(err))
		}

		auditLogger = audit.NewLogger(pool, logger)
		if err := auditLogger.EnsureSchema(context.Background()); err != nil {
			logger.Fatal("Failed to ensure audit schema", zap.Error(err))
		}
		logger.Info("Chat usage audit trail enabled")
	}

	// Initialize optional avatar blob storage
	var avatarStorage avatar.Storage
	if cfg.AvatarStorageEnabled() {
		avatarStorage, err = avatar.NewBlobClient(
			cfg.Storage.AccountName,
			cfg.Storage.AccountKey,
			cfg.Storage.AvatarContainer,
			logger,
		)
		if err != nil {
			logger.Fatal("Failed to initialize avatar storage", zap.Error(err))
		}
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(backendClient, logger)
	chatHandler := handler.NewChatHandler(chatStore, chatService, logger)
	medicationHandler := handler.NewMedicationHandler(reminderStore, bridge, logger)
	reminderHandler := handler.NewReminderHandler(reminderStore, bridge, logger)
	appointmentHandler := handler.NewAppointmentHandler(backendClient, logger)
	profileHandler := handler.NewProfileHandler(backendClient, avatarStorage, logger)
	settingsHandler := handler.NewSettingsHandler(settingsStore, logger)
	aiChatHandler := handler.NewAIChatHandler(directProvider, auditLogger,
		func() int { return settingsStore.Get().DailyMessageLimit }, logger)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	r := gin.New()

	// The chat function contract requires 405 on non-POST methods
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{
			"status": http.StatusMethodNotAllowed,
			"error":  "method not allowed",
		})
	})

	// Add recovery middleware (must be first)
	r.Use(middleware.RecoveryMiddleware(logger))

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Configure appropriately for production
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add request ID middleware
	r.Use(middleware.RequestIDMiddleware())

	// Add request logging middleware
	r.Use(middleware.RequestLoggingMiddleware(logger))

	// Health endpoint
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":  "healthy",
			"service": "medicai-backend",
			"version": "1.0.0",
		}
		if pool != nil {
			if err := pool.Ping(c.Request.Context()); err != nil {
				logger.Error("health check failed: audit database unreachable", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":   "unhealthy",
					"database": "disconnected",
					"error":    err.Error(),
				})
				return
			}
			status["database"] = "connected"
		}
		c.JSON(http.StatusOK, status)
	})

	// Hosted chat function surface
	r.POST("/functions/v1/ai-chat", aiChatHandler.Post)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/reset-password", authHandler.ResetPassword)
		api.PUT("/auth/password", authHandler.UpdatePassword)

		api.GET("/chat/threads", chatHandler.ListThreads)
		api.POST("/chat/threads", chatHandler.CreateThread)
		api.PATCH("/chat/threads/:id", chatHandler.RenameThread)
		api.GET("/chat/threads/:id/messages", chatHandler.ListMessages)
		api.POST("/chat/threads/:id/messages", chatHandler.SendMessage)

		api.GET("/medications", medicationHandler.List)
		api.POST("/medications", medicationHandler.Create)
		api.PATCH("/medications/:id", medicationHandler.Update)
		api.DELETE("/medications/:id", medicationHandler.Delete)
		api.GET("/medications/:id/reminders", medicationHandler.ListReminders)
		api.POST("/medications/:id/reminders", medicationHandler.CreateReminder)

		api.PATCH("/reminders/:id", reminderHandler.Update)
		api.POST("/reminders/:id/toggle", reminderHandler.Toggle)
		api.DELETE("/reminders/:id", reminderHandler.Delete)
		api.GET("/reminders/:id/logs", reminderHandler.ListLogs)
		api.POST("/reminders/:id/logs", reminderHandler.CreateLog)

		api.GET("/appointments", appointmentHandler.List)
		api.POST("/appointments", appointmentHandler.Create)
		api.PATCH("/appointments/:id", appointmentHandler.Update)
		api.POST("/appointments/:id/cancel", appointmentHandler.Cancel)

		api.GET("/profile", profileHandler.Get)
		api.PATCH("/profile", profileHandler.Update)
		api.POST("/profile/avatar", profileHandler.UploadAvatar)

		api.GET("/settings", settingsHandler.Get)
		api.PATCH("/settings", settingsHandler.Update)
	}

	// Start server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
