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

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/agentruntime"
	"github.com/lucasmv/backtestsim/internal/config"
	"github.com/lucasmv/backtestsim/internal/database"
	"github.com/lucasmv/backtestsim/internal/dayexecutor"
	"github.com/lucasmv/backtestsim/internal/handlers"
	"github.com/lucasmv/backtestsim/internal/jobmanager"
	"github.com/lucasmv/backtestsim/internal/logger"
	"github.com/lucasmv/backtestsim/internal/middleware"
	"github.com/lucasmv/backtestsim/internal/pricecache"
	"github.com/lucasmv/backtestsim/internal/repository"
	"github.com/lucasmv/backtestsim/internal/runtime"
	"github.com/lucasmv/backtestsim/internal/runtimectx"
	"github.com/lucasmv/backtestsim/internal/worker"
)

func main() {
	// Initialize runtime home directory
	homeDir, err := runtime.InitHomeDir(os.Getenv("RUNTIME_HOME_DIR"))
	if err != nil {
		log.Fatalf("Failed to initialize home directory: %v", err)
	}

	// Ensure log files exist
	if err := homeDir.EnsureLogFiles(); err != nil {
		log.Fatalf("Failed to create log files: %v", err)
	}

	// Load configuration from YAML file (if exists) and environment variables
	var cfg *config.Config
	if homeDir.ConfigExists() {
		cfg, err = config.LoadWithYAML(homeDir.ConfigPath)
		log.Printf("Loaded configuration from %s", homeDir.ConfigPath)
	} else {
		cfg, err = config.Load()
		log.Printf("Using environment variables for configuration (no config file found at %s)", homeDir.ConfigPath)
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set home directory in config if not already set
	if cfg.Runtime.HomeDir == "" {
		cfg.Runtime.HomeDir = homeDir.Root
	}

	// Set log paths if not already set
	if cfg.Logging.ServerLogPath == "" {
		cfg.Logging.ServerLogPath = homeDir.ServerLog
	}
	if cfg.Logging.RequestLogPath == "" {
		cfg.Logging.RequestLogPath = homeDir.RequestLog
	}

	// Enable file logging by default
	if !cfg.Logging.EnableFile && !cfg.Logging.EnableConsole {
		cfg.Logging.EnableFile = true
		cfg.Logging.EnableConsole = true
	}

	// Initialize server logger
	serverLogger := logger.NewLogger(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.ServerLogPath,
	})

	// Initialize request logger
	requestLogger := logger.NewLogger(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.RequestLogPath,
	})

	serverLogger.Info().
		Str("home_dir", homeDir.Root).
		Str("config_path", homeDir.ConfigPath).
		Str("deployment_mode", cfg.Deployment.Mode).
		Msg("server starting with runtime home directory")

	fmt.Printf("Runtime home directory: %s\n", homeDir.Root)
	fmt.Printf("Deployment mode: %s\n", cfg.Deployment.Mode)

	// Initialize database connection: Postgres in PROD, file-backed SQLite
	// in DEV, so a local run needs no external database.
	var db *gorm.DB
	if cfg.Deployment.Mode == "DEV" {
		devPath := cfg.Database.URL
		if devPath == "" {
			devPath = homeDir.Root + "/backtestsim_dev.db"
		}
		db, err = database.ConnectDev(devPath, cfg.Deployment.PreserveDevData)
		if err != nil {
			serverLogger.Fatal().Err(err).Msg("failed to open dev database")
		}
		serverLogger.Info().Str("path", devPath).Bool("preserved", cfg.Deployment.PreserveDevData).Msg("connected to dev sqlite database")
	} else {
		db, err = database.Connect(cfg.Database.URL)
		if err != nil {
			serverLogger.Fatal().Err(err).Msg("failed to connect to database")
		}
		serverLogger.Info().Msg("connected to database")
	}

	if err := database.AutoMigrate(db); err != nil {
		serverLogger.Fatal().Err(err).Msg("failed to run schema migration")
	}

	// Initialize repositories
	jobRepo := repository.NewJobRepository(db)
	jobDetailRepo := repository.NewJobDetailRepository(db)
	tradingDayRepo := repository.NewTradingDayRepository(db)
	pricePointRepo := repository.NewPricePointRepository(db)
	coverageRepo := repository.NewCoverageRepository(db)

	// Reconcile jobs left mid-flight by a prior process crash or restart
	// before accepting new work, restoring the single-active-job invariant.
	interrupted, err := jobRepo.MarkInterrupted("interrupted: process restarted")
	if err != nil {
		serverLogger.Fatal().Err(err).Msg("failed to reconcile interrupted jobs")
	}
	if interrupted > 0 {
		serverLogger.Warn().Int64("count", interrupted).Msg("marked stale jobs as failed on startup")
	}

	// Load the tracked symbol universe
	trackedSymbols, err := config.LoadTrackedSymbols(cfg.Simulation.TrackedSymbolsPath)
	if err != nil {
		serverLogger.Fatal().Err(err).Msg("failed to load tracked symbols")
	}
	serverLogger.Info().Int("count", len(trackedSymbols)).Msg("loaded tracked symbol universe")

	// Initialize the price provider. Without an API key the provider reports
	// itself unavailable, every download fails, and EnsureCoverage lists
	// those symbols in its DownloadResult's Failed field.
	provider := pricecache.NewAlphaVantageProvider(cfg.MarketData.APIKey)
	if !provider.IsAvailable() {
		serverLogger.Warn().Msg("market data provider has no API key configured")
	}
	priceCache := pricecache.NewCache(provider, pricePointRepo, coverageRepo, trackedSymbols, serverLogger.Zerolog())

	// Agent runtime is an external collaborator; MockAgentRuntime is the
	// only concrete implementation this module owns.
	agentRuntime := agentruntime.NewMockAgentRuntime(5)
	summarizer := agentruntime.StatisticalSummarizer{}
	scratch := runtimectx.NewScratchWriter(homeDir.Root)

	executor := dayexecutor.New(dayexecutor.Config{
		DB:          db,
		JobDetails:  jobDetailRepo,
		TradingDays: tradingDayRepo,
		PriceCache:  priceCache,
		Runtime:     agentRuntime,
		Summarizer:  summarizer,
		Scratch:     scratch,
		Logger:      serverLogger.Zerolog(),
		InitialCash: cfg.Simulation.InitialCash,
		MaxSteps:    cfg.Simulation.AgentMaxSteps,
		MaxRetries:  cfg.Simulation.AgentMaxRetries,
	})

	backtestWorker := worker.New(worker.Config{
		Jobs:        jobRepo,
		JobDetails:  jobDetailRepo,
		PriceCache:  priceCache,
		Executor:    executor,
		Logger:      serverLogger.Zerolog(),
		Concurrency: cfg.Simulation.MaxConcurrentModels,
	})

	jobManager := jobmanager.New(jobRepo, jobDetailRepo, tradingDayRepo)

	// Initialize handlers
	simulateHandler := handlers.NewSimulateHandler(jobManager, jobRepo, jobDetailRepo, backtestWorker, cfg.Simulation.MaxSimulationDays, nil, serverLogger.Zerolog())
	resultsHandler := handlers.NewResultsHandler(tradingDayRepo)
	healthHandler := handlers.NewHealthHandler(db, jobRepo, cfg.Simulation.JobStaleAfter)

	// Set up Gin router
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.LoggingMiddleware(requestLogger))
	router.Use(middleware.RecoveryLoggingMiddleware(serverLogger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	router.GET("/health", healthHandler.Check)
	router.GET("/results", resultsHandler.Get)
	router.GET("/simulate/status/:job_id", simulateHandler.Status)

	// Rate-limit the trigger endpoint; it's the one that starts expensive work.
	rateLimiter := middleware.NewRateLimiter(cfg.Security.RateLimitRequests, cfg.Security.RateLimitDuration)
	trigger := router.Group("/simulate/trigger")
	trigger.Use(rateLimiter.Middleware())
	trigger.POST("", simulateHandler.Trigger)

	// Create HTTP server with timeouts to prevent slowloris attacks
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		serverLogger.Info().
			Str("port", cfg.Server.Port).
			Str("environment", cfg.Server.Environment).
			Msg("server starting")
		fmt.Printf("Server listening on port %s\n", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverLogger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	serverLogger.Info().Msg("shutdown signal received, shutting down server")
	fmt.Println("\nShutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		serverLogger.Error().Err(err).Msg("server forced to shutdown")
	} else {
		serverLogger.Info().Msg("server shutdown gracefully")
	}

	fmt.Println("Server exited")
}
