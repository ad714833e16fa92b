package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/acctlite/acctlite/internal/adapters/ocr"
	"github.com/acctlite/acctlite/internal/adapters/parser"
	"github.com/acctlite/acctlite/internal/adapters/storage"
	portssvc "github.com/acctlite/acctlite/internal/core/ports/services"
	"github.com/acctlite/acctlite/internal/core/services"
	"github.com/acctlite/acctlite/internal/handlers"
	"github.com/acctlite/acctlite/internal/middleware"
	"github.com/acctlite/acctlite/internal/platform/config"
	"github.com/acctlite/acctlite/internal/repositories/database/pgsql"
	"github.com/acctlite/acctlite/pkg/database"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, CORS)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery(), cors.Default())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Wire services
	uowFactory := pgsql.NewPgxUnitOfWorkFactory(dbPool)
	ledgerService := services.NewLedgerService(uowFactory)

	autoPostLimit, err := decimal.NewFromString(cfg.AutoPostLimit)
	if err != nil {
		logger.Error("Invalid AUTO_POST_LIMIT", slog.String("value", cfg.AutoPostLimit))
		os.Exit(1)
	}

	receiptService := services.NewReceiptService(
		uowFactory,
		ledgerService,
		storage.NewClient(storage.ClientConfig{
			BaseURL:    cfg.SupabaseURL,
			ServiceKey: cfg.SupabaseServiceKey,
			Bucket:     cfg.StorageBucket,
			Timeout:    cfg.StorageTimeout,
		}),
		ocr.NewClient(ocr.ClientConfig{
			BaseURL: cfg.OCRServiceURL,
			Timeout: cfg.OCRTimeout,
		}),
		parser.NewClient(parser.ClientConfig{
			BaseURL: cfg.OllamaURL,
			Model:   cfg.OllamaModel,
			Timeout: cfg.ParserTimeout,
		}),
		services.NewAutoPostPolicy(autoPostLimit),
		services.StageTimeouts{
			Storage: cfg.StorageTimeout,
			Extract: cfg.OCRTimeout,
			Parse:   cfg.ParserTimeout,
		},
	)

	pool := services.NewReceiptWorkerPool(receiptService, cfg.PipelineWorkers, cfg.PipelineWorkers*4, logger)

	handlers.RegisterRoutes(r, cfg, &portssvc.ServiceContainer{
		Ledger:  ledgerService,
		Receipt: receiptService,
	}, pool)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Server starting", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed to run", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Block until interrupted, then drain the server and the pipeline queue.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", slog.String("error", err.Error()))
	}
	if err := pool.Shutdown(shutdownCtx); err != nil {
		logger.Error("Worker pool shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("Shutdown complete.")
}

// runMigrations applies all pending "up" migrations using a standard sql.DB
// connection over the pgx stdlib driver.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	upErr := m.Up()
	if upErr != nil && upErr != migrate.ErrNoChange {
		return upErr
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if upErr == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}
