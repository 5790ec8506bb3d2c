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

	accountUseCase "github.com/bankapp/ledger-core/internal/domain/usecase/account"
	ledgerUseCase "github.com/bankapp/ledger-core/internal/domain/usecase/ledger"

	"github.com/bankapp/ledger-core/internal/domain/port/notification"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/api/handler"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/api/routes"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/database"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/database/migration"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/events"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/events/kafka"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/logger"
	"github.com/bankapp/ledger-core/internal/infrastructure/adapter/repository"
	timeProvider "github.com/bankapp/ledger-core/internal/infrastructure/adapter/time"
	"github.com/bankapp/ledger-core/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate essential configuration
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	// Set Gin mode based on environment
	if cfg.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create logger
	appLogger := logger.NewZapLogger(cfg.Environment == config.Production)

	// Setup database configuration
	dbConfig := &database.Config{
		Driver:          "postgres",
		Host:            cfg.Database.Host,
		Port:            database.ParsePort(cfg.Database.Port),
		Username:        cfg.Database.Username,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		QueryTimeout:    cfg.Database.QueryTimeout,
		LogLevel:        cfg.Logger.Level,
		RetryAttempts:   cfg.Database.RetryAttempts,
		RetryDelay:      cfg.Database.RetryDelay,
	}

	// Initialize time provider
	tp := timeProvider.NewRealTimeProvider()

	// Connect to the database
	dbManager := database.NewManager(dbConfig, appLogger, tp)
	if _, err := dbManager.Connect(); err != nil {
		appLogger.Error("Failed to connect to database", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer dbManager.Close()

	// Run migrations
	migrationMgr := migration.NewManager(dbManager.DB(), appLogger)
	if err := migrationMgr.MigrateAll(); err != nil {
		appLogger.Error("Failed to run migrations", map[string]any{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	// Initialize repositories and the unit of work
	accountRepo := repository.NewAccountRepository(dbManager.DB(), tp, appLogger)
	uow := database.NewUnitOfWork(dbManager.DB(), appLogger, tp)

	// Balance event sink: kafka when enabled, otherwise a no-op
	var sink notification.Sink
	var kafkaPublisher *kafka.Publisher
	if cfg.Events.Enabled {
		kafkaPublisher = kafka.NewPublisher(cfg.Events.Brokers, cfg.Events.Topic)
		sink = kafkaPublisher
		appLogger.Info("Balance event publishing enabled", map[string]any{
			"brokers": cfg.Events.Brokers,
			"topic":   cfg.Events.Topic,
		})
	} else {
		sink = events.NewNoopSink()
	}

	// Initialize use cases
	locks := ledgerUseCase.NewLockCoordinator()
	ledgerService := ledgerUseCase.NewService(uow, locks, sink, tp, appLogger).
		WithEventTimeout(time.Duration(cfg.Ledger.EventTimeoutMs) * time.Millisecond)
	accountService := accountUseCase.NewUseCase(accountRepo, tp, appLogger)

	// Initialize API handlers
	ledgerHandler := handler.NewLedgerHandler(ledgerService, appLogger)
	accountHandler := handler.NewAccountHandler(accountService, appLogger)

	// Initialize Gin router
	router := gin.New()

	// Setup middlewares
	routes.SetupMiddlewares(router, appLogger)

	// Setup routes
	routes.SetupRoutes(router, ledgerHandler, accountHandler)

	// Create HTTP server with configurable timeout values
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Start the server in a goroutine
	go func() {
		appLogger.Info("Starting server", map[string]any{
			"port": cfg.Server.Port,
			"env":  cfg.Environment,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Failed to start server", map[string]any{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...", nil)

	// Create a deadline to wait for
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Shutdown the server first so no new operations start
	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", map[string]any{
			"error": err.Error(),
		})
	}

	// Drain in-flight balance event publishes
	ledgerService.Shutdown()
	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			appLogger.Error("Failed to close event publisher", map[string]any{
				"error": err.Error(),
			})
		}
	}

	appLogger.Info("Server exited gracefully", nil)
}

// validateConfig ensures all required configuration values are present
func validateConfig(cfg *config.Config) error {
	var missingConfigs []string

	if cfg.Server.Port == 0 {
		missingConfigs = append(missingConfigs, "server.port")
	}

	if cfg.Server.ReadTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.readTimeout")
	}

	if cfg.Server.WriteTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.writeTimeout")
	}

	if cfg.Server.ShutdownTimeout == 0 {
		missingConfigs = append(missingConfigs, "server.shutdownTimeout")
	}

	if cfg.Database.Host == "" {
		if cfg.Environment == config.Production && os.Getenv("BANK_DB_HOST") == "" {
			missingConfigs = append(missingConfigs, "database.host (or BANK_DB_HOST environment variable)")
		} else if cfg.Environment != config.Production {
			missingConfigs = append(missingConfigs, "database.host")
		}
	}

	if cfg.Database.Username == "" {
		if cfg.Environment == config.Production && os.Getenv("BANK_DB_USERNAME") == "" {
			missingConfigs = append(missingConfigs, "database.username (or BANK_DB_USERNAME environment variable)")
		} else if cfg.Environment != config.Production {
			missingConfigs = append(missingConfigs, "database.username")
		}
	}

	if cfg.Database.Password == "" {
		if cfg.Environment == config.Production && os.Getenv("BANK_DB_PASSWORD") == "" {
			missingConfigs = append(missingConfigs, "database.password (or BANK_DB_PASSWORD environment variable)")
		} else if cfg.Environment != config.Production {
			missingConfigs = append(missingConfigs, "database.password")
		}
	}

	if cfg.Database.Database == "" {
		if cfg.Environment == config.Production && os.Getenv("BANK_DB_NAME") == "" {
			missingConfigs = append(missingConfigs, "database.database (or BANK_DB_NAME environment variable)")
		} else if cfg.Environment != config.Production {
			missingConfigs = append(missingConfigs, "database.database")
		}
	}

	if cfg.Database.QueryTimeout == 0 {
		missingConfigs = append(missingConfigs, "database.queryTimeout")
	}

	if cfg.Ledger.EventTimeoutMs == 0 {
		missingConfigs = append(missingConfigs, "ledger.eventTimeoutMs")
	}

	if cfg.Events.Enabled {
		if len(cfg.Events.Brokers) == 0 {
			missingConfigs = append(missingConfigs, "events.brokers")
		}
		if cfg.Events.Topic == "" {
			missingConfigs = append(missingConfigs, "events.topic")
		}
	}

	if cfg.Environment == "" {
		missingConfigs = append(missingConfigs, "environment")
	} else if cfg.Environment != config.Development &&
		cfg.Environment != config.Production &&
		cfg.Environment != config.Test {
		return fmt.Errorf("invalid environment value: %s, must be one of: %s, %s, or %s",
			cfg.Environment, config.Development, config.Production, config.Test)
	}

	if cfg.Logger.Level == "" {
		missingConfigs = append(missingConfigs, "logger.level")
	}

	if len(missingConfigs) > 0 {
		return fmt.Errorf("missing required configurations: %v", missingConfigs)
	}

	return nil
}
