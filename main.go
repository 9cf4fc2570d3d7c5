package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/verdantmetrics/lca-engine/pkg/config"
	"github.com/verdantmetrics/lca-engine/pkg/database"
	"github.com/verdantmetrics/lca-engine/pkg/handlers"
	"github.com/verdantmetrics/lca-engine/pkg/logging"
	"github.com/verdantmetrics/lca-engine/pkg/middleware"
	"github.com/verdantmetrics/lca-engine/pkg/repositories"
	"github.com/verdantmetrics/lca-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.URL())))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.URL(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Migrations run on a separate database/sql connection; golang-migrate
	// does not speak the pgx pool API.
	migrateDB, err := sql.Open("pgx", cfg.Database.URL())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrateDB, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = migrateDB.Close()

	documentRepo := repositories.NewDocumentRepository(db)
	sessionService := services.NewSessionService(logger)
	assessmentService := services.NewAssessmentService(documentRepo, logger)

	sessionResolver := middleware.NewSessionResolver(cfg, sessionService, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewSessionHandler(sessionResolver, logger).RegisterRoutes(mux)
	handlers.NewAssessmentHandler(assessmentService, logger).RegisterRoutes(mux, sessionResolver.Resolve)
	handlers.NewQuickHandler(logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting lca-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
