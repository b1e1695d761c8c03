package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"imgbed/internal/config"
	"imgbed/internal/fetcher"
	handlers "imgbed/internal/http/handler"
	"imgbed/internal/http/middleware"
	"imgbed/internal/otel"
	"imgbed/internal/service"
	"imgbed/internal/storage"
)

// Anonymous image host: no accounts, no sessions, file uploads only.
// Remote-URL imports and the user store are exclusive to cmd/api.
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, time.UTC)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	// Initialize reusable S3-compatible object storage client
	objStore, err := storage.NewMinIO(cfg.Storage)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// The fetcher is unused here (no URL imports) but the orchestrator owns
	// the whole pipeline either way.
	fetch := fetcher.NewHTTP(time.Duration(cfg.FetchTimeoutSec) * time.Second)
	uploadSvc := service.NewUploadService(objStore, fetch, service.DefaultImageExts)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterAnonRoutes(app, uploadSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
