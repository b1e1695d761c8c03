package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/gofiber/fiber/v2/middleware/session"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"imgbed/internal/config"
	"imgbed/internal/database"
	"imgbed/internal/database/migration"
	"imgbed/internal/fetcher"
	handlers "imgbed/internal/http/handler"
	"imgbed/internal/http/middleware"
	"imgbed/internal/otel"
	"imgbed/internal/repository/postgres"
	"imgbed/internal/service"
	"imgbed/internal/storage"
)

// Session-gated image host: registration/login, file uploads plus
// remote-URL imports.
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	if cfg.SessionSecret == "" {
		log.Fatal("SESSION_SECRET is required")
	}

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	// First-boot schema creation for the user store
	migCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := migration.EnsureMigrated(migCtx, db, time.UTC, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client
	objStore, err := storage.NewMinIO(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	fetch := fetcher.NewHTTP(time.Duration(cfg.FetchTimeoutSec) * time.Second)

	// Initialize repositories and services
	userRepo := postgres.NewUserPostgres(db)
	authSvc := service.NewAuthService(userRepo)
	uploadSvc := service.NewUploadService(objStore, fetch, service.LocalImageExts)

	store := session.New(session.Config{
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(encryptcookie.New(encryptcookie.Config{Key: cfg.SessionSecret}))
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, authSvc, uploadSvc, store)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
