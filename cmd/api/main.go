package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"filerelay/docs"
	"filerelay/internal/config"
	handlers "filerelay/internal/http/handler"
	"filerelay/internal/http/middleware"
	"filerelay/internal/logging"
	"filerelay/internal/otel"
	"filerelay/internal/provider"
	"filerelay/internal/service"
	"filerelay/internal/storage"
)

// @title File Relay API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.Stdout(cfg.Location)

	if err := run(cfg, log); err != nil {
		log.Error("server_exit", err, nil)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, log *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, "filerelay", log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	objStore, err := newStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init object storage: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rules := cfg.Rules()
	uploads, err := service.NewInstrumentedUploadService(
		service.NewUploadService(provider.NewObjectStore(objStore, log), rules, cfg.Upload.Folder),
		reg,
	)
	if err != nil {
		return fmt.Errorf("register upload metrics: %w", err)
	}

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("register http metrics: %w", err)
	}

	app := handlers.NewApp(rules, log)

	// RequestID first so every later middleware and the error handler can see it
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(cfg.Location))
	app.Use(otelfiber.Middleware())
	app.Use(promMiddleware.Handler())
	app.Use(cors.New())
	app.Use(recover.New())

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	handlers.RegisterRoutes(app, handlers.Dependencies{
		Store:      objStore,
		Uploads:    uploads,
		Rules:      rules,
		StaticRoot: cfg.StaticRoot,
		Log:        log,
		Metrics:    reg,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Port)
	}()

	log.Info("server_started", logging.Fields{
		"addr":           ":" + cfg.Port,
		"storage_driver": cfg.StorageDriver,
		"upload_folder":  cfg.Upload.Folder,
		"max_file_size":  rules.MaxFileSize,
	})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_stopping", nil)
	return app.ShutdownWithTimeout(10 * time.Second)
}

func newStorage(ctx context.Context, cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case "minio":
		return storage.NewMinIO(cfg.MinIO)
	case "s3":
		return storage.NewS3(ctx, cfg.S3)
	default:
		return nil, errors.New("unknown STORAGE_DRIVER " + cfg.StorageDriver)
	}
}
