package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/callscopehq/callscope/pkg/validator"

	"github.com/callscopehq/callscope/internal/adapter/handler"
	"github.com/callscopehq/callscope/internal/adapter/repository"
	"github.com/callscopehq/callscope/internal/infrastructure/cache"
	"github.com/callscopehq/callscope/internal/infrastructure/database"
	"github.com/callscopehq/callscope/internal/infrastructure/storage"
	"github.com/callscopehq/callscope/internal/usecase/access"
	"github.com/callscopehq/callscope/internal/usecase/correction"
	"github.com/callscopehq/callscope/internal/usecase/embedding"
	"github.com/callscopehq/callscope/internal/usecase/transcription"
	pkgai "github.com/callscopehq/callscope/pkg/ai"
	"github.com/callscopehq/callscope/pkg/config"
	"github.com/callscopehq/callscope/pkg/jwt"
)

// @title           CallScope API
// @version         1.0
// @description     Asynchronous phone-call transcription pipeline with provider fallback, translation, and user corrections

// @contact.name   API Support

// @host      api.callscope.dev
// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Set-Cookie", "Cookie"},
		AllowCredentials: true,
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")

	// Initialize Database
	log.Println("📦 Connecting to database...")
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	// Apply migrations only when explicitly enabled in config.
	// Production deployments should manage schema via sql-migrate.
	if cfg.Database.AutoMigrate {
		if cfg.Server.Environment == "production" {
			log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE or manage schema with sql-migrate.")
		}
		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
	} else {
		log.Println("🔄 Skipping startup migrations; use sql-migrate for schema migrations in CI/CD/production")
	}

	// Initialize Redis
	log.Println("📦 Connecting to Redis...")
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	progressStore := cache.NewProgressStore(redisClient)

	// Initialize MinIO recording storage
	log.Println("🗄️  Connecting to recording storage...")
	minioClient, err := storage.NewMinIOClient(&cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to recording storage: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Initialize repositories
	log.Println("⚙️  Initializing repositories...")
	callRepo := repository.NewCallRepository(db)
	jobRepo := repository.NewTranscriptionJobRepository(db)
	transcriptRepo := repository.NewTranscriptRepository(db)
	ruleRepo := repository.NewCorrectionRuleRepository(db)
	embeddingRepo := repository.NewEmbeddingRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)

	// Initialize AI clients
	log.Println("🤖 Initializing AI components...")
	whisperClient := pkgai.NewWhisperClient(&cfg.Whisper)
	assemblyClient := pkgai.NewAssemblyAIClient(&cfg.Assembly)
	chatClient := pkgai.NewChatClient(&cfg.Chat)
	embeddingsClient := pkgai.NewEmbeddingsClient(&cfg.Embeddings)
	providerFacade := pkgai.NewFacade(whisperClient, assemblyClient, cfg.Pipeline.FallbackEnabled, logger)

	// Initialize use cases
	log.Println("✨ Initializing services...")
	gateway := access.NewGateway(callRepo, membershipRepo, minioClient, cfg.Pipeline.SignedURLTTL, logger)
	corrector := correction.NewEngine(ruleRepo, logger)
	embedder := embedding.NewService(embeddingRepo, embeddingsClient, cfg.Pipeline.EmbeddingCacheCap, cfg.Pipeline.EmbeddingCacheTTL, logger)
	transcriptionService := transcription.NewService(
		jobRepo,
		transcriptRepo,
		gateway,
		providerFacade,
		chatClient,
		corrector,
		embedder,
		progressStore,
		cfg.Pipeline,
		logger,
	)

	// Initialize JWT manager
	log.Println("🔑 Initializing JWT manager...")
	jwtManager := jwt.NewManager(cfg.JWT.AccessSecret, cfg.JWT.AccessExpiry)

	// Initialize handlers and routes
	log.Println("🛣️  Setting up routes...")
	transcriptionHandler := handler.NewTranscription(transcriptionService, logger)
	router := handler.NewRouter(cfg, jwtManager, transcriptionHandler)
	router.Setup(e)

	// Start background workers
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if err := transcriptionService.StartWorkerPool(workerCtx); err != nil {
		log.Fatalf("Failed to start worker pool: %v", err)
	}

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	if err := transcriptionService.StopWorkerPool(); err != nil {
		log.Printf("⚠️ Worker pool shutdown: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}
