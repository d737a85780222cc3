package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"alfredoptarigan/resume-screener/internal/config"
	"alfredoptarigan/resume-screener/internal/handlers"
	"alfredoptarigan/resume-screener/internal/logger"
	"alfredoptarigan/resume-screener/internal/metrics"
	"alfredoptarigan/resume-screener/internal/repositories"
	"alfredoptarigan/resume-screener/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingCredentials) {
			log.Fatalf("❌ Refusing to start: %v", err)
		}
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Server.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	zlog.Info("Config loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("llm_model", cfg.LLM.Model),
	)

	metrics.Register()

	// Optional screening history
	var history repositories.ScreeningRepository
	if cfg.History.Enabled {
		db, err := config.InitDatabase(cfg, zlog)
		if err != nil {
			zlog.Fatal("Failed to initialize database", zap.Error(err))
		}
		history = repositories.NewScreeningRepository(db)
		zlog.Info("Screening history enabled")
	}

	storageService := services.NewStorageService(cfg.Storage.UploadPath)
	if err := storageService.EnsureUploadDir(); err != nil {
		zlog.Fatal("Failed to create upload directory", zap.Error(err))
	}

	// The embedder is loaded once and shared by every request
	pipeline, err := services.NewPipeline(context.Background(), cfg, zlog)
	if err != nil {
		zlog.Fatal("Failed to initialize screening pipeline", zap.Error(err))
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			zlog.Warn("Failed to close embedder", zap.Error(err))
		}
	}()
	zlog.Info("Screening pipeline initialized")

	screenHandler := handlers.NewScreenHandler(
		pipeline.Screener,
		storageService,
		history,
		handlers.ScreenHandlerConfig{
			MaxFileSize:            cfg.Storage.MaxFileSize,
			MaxFiles:               cfg.Storage.MaxFiles,
			MaxJobDescriptionChars: cfg.Screening.MaxJobDescriptionChars,
		},
		zlog,
	)

	app := fiber.New(fiber.Config{
		AppName:      "Resume Screener API",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute,
		BodyLimit:    int(cfg.Storage.MaxUploadSize),
		ErrorHandler: customErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Routes
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/screen", screenHandler.HandleScreen)

	endpoints := []string{"POST /api/v1/screen", "GET /api/v1/health", "GET /metrics"}
	if history != nil {
		resultHandler := handlers.NewResultHandler(history)
		api.Get("/screenings/:id", resultHandler.HandleGetScreening)
		endpoints = append(endpoints, "GET /api/v1/screenings/:id")
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message":   "Resume Screener API",
			"version":   "1.0.0",
			"endpoints": endpoints,
		})
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zlog.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			zlog.Error("Server forced to shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	zlog.Info("Server starting", zap.String("addr", addr))

	if err := app.Listen(addr); err != nil {
		zlog.Error("Failed to start server", zap.Error(err))
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
		"code":  code,
	})
}
