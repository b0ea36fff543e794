package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/constants"
	"github.com/yukikurage/task-tracker-api/internal/handlers"
	"github.com/yukikurage/task-tracker-api/internal/middleware"
	"github.com/yukikurage/task-tracker-api/internal/services"
	"github.com/yukikurage/task-tracker-api/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"
)

// Server owns the gin engine and the HTTP listener
type Server struct {
	engine     *gin.Engine
	httpServer *http.Server
	logger     *slog.Logger
}

// Deps are the collaborators the routes are built from
type Deps struct {
	DB          *gorm.DB
	TaskService *services.TaskService
	Telemetry   *telemetry.Provider
	Logger      *slog.Logger
}

// New builds the router and wraps it in an instrumented http.Server
func New(cfg *config.Config, deps Deps) *Server {
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.NoopProvider()
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	engine := NewRouter(cfg, deps)
	handler := otelhttp.NewHandler(engine, "task-tracker-api",
		otelhttp.WithTracerProvider(deps.Telemetry.TracerProvider),
		otelhttp.WithMeterProvider(deps.Telemetry.MeterProvider),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)

	return &Server{
		engine: engine,
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: deps.Logger,
	}
}

// NewRouter configures middleware and mounts every route
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(deps.Logger),
		middleware.Recovery(deps.Logger),
		cors.New(corsConfig(cfg.CORSOrigins)),
	)

	healthHandler := handlers.NewHealthHandler(deps.DB)
	taskHandler := handlers.NewTaskHandler(deps.TaskService, deps.Logger)

	r.GET("/", healthHandler.Info)
	r.GET("/health", healthHandler.Health)

	api := r.Group("/api/v1")
	{
		api.GET("", healthHandler.Info)
		api.GET("/health", healthHandler.Health)
		taskHandler.RegisterRoutes(api.Group("/tasks"))
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", constants.HeaderRequestID},
		ExposeHeaders: []string{constants.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}

// Handler returns the instrumented root handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the listen address and serves in the background.
// Bind failures are returned; later serve errors are logged.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}

	s.logger.Info("HTTP server started", "addr", ln.Addr().String())
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
