package main

import (
	"context"
	"log/slog"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/repository"
	"github.com/yukikurage/task-tracker-api/internal/server"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/telemetry"
	"github.com/yukikurage/task-tracker-api/internal/validation"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := telemetry.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()
	provider, err := telemetry.Init(ctx, telemetry.OTelConfig{
		Enabled:     cfg.OTelEnabled,
		Exporter:    cfg.OTelExporter,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: cfg.OTelServiceName,
		SampleRate:  cfg.OTelSampleRate,
	})
	if err != nil {
		fatal("Failed to initialize telemetry", err)
	}

	if err := validation.RegisterWithGin(); err != nil {
		fatal("Failed to register validators", err)
	}

	// Connect to database
	db, err := database.Open(cfg)
	if err != nil {
		fatal("Failed to connect to database", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		fatal("Failed to run migrations", err)
	}

	taskService, err := services.NewTaskService(repository.NewTaskRepository(db), provider, logger)
	if err != nil {
		fatal("Failed to create task service", err)
	}

	srv := server.New(cfg, server.Deps{
		DB:          db,
		TaskService: taskService,
		Telemetry:   provider,
		Logger:      logger,
	})
	if err := srv.Start(); err != nil {
		fatal("Failed to start server", err)
	}

	logger.Info("Task tracker API started",
		"addr", cfg.Addr(),
		"db_driver", cfg.DBDriver,
		"otel_enabled", cfg.OTelEnabled,
	)

	// Operations run concurrently once a shutdown signal arrives
	wait := gfshutdown.GracefulShutdown(
		ctx,
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": srv.Shutdown,
			"telemetry":   provider.Shutdown,
		},
	)

	exitCode := <-wait

	// the database outlives in-flight requests
	if err := database.Close(db); err != nil {
		logger.Error("Failed to close database", "error", err)
		exitCode = 1
	}
	logger.Info("Application exited", "exit_code", exitCode)
	os.Exit(exitCode)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
