// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stwalsh4118/lineup/internal/api"
	"github.com/stwalsh4118/lineup/internal/catalog"
	"github.com/stwalsh4118/lineup/internal/channel"
	"github.com/stwalsh4118/lineup/internal/config"
	"github.com/stwalsh4118/lineup/internal/db"
	"github.com/stwalsh4118/lineup/internal/generator"
	"github.com/stwalsh4118/lineup/internal/logger"
	"github.com/stwalsh4118/lineup/internal/materialize"
	"github.com/stwalsh4118/lineup/internal/middleware"
	"github.com/stwalsh4118/lineup/internal/schedule"
	"github.com/stwalsh4118/lineup/internal/timeline"
)

// Server represents the HTTP server
type Server struct {
	config          *config.Config
	db              *db.DB
	catalog         *catalog.Guarded
	channelService  *channel.ChannelService
	scheduleService *channel.ScheduleService
	timelineService *timeline.TimelineService
	materializer    *schedule.Materializer
	generator       *generator.Generator
	sweeper         *generator.Sweeper
	router          *gin.Engine
	server          *http.Server
}

// Services bundles the schedule components shared by the server and the CLI
type Services struct {
	Catalog      *catalog.Guarded
	Materializer *schedule.Materializer
	Generator    *generator.Generator
}

// NewServices wires the catalog, materializer and generator over database
func NewServices(cfg *config.Config, database *db.DB) *Services {
	repos := db.NewRepositories(database)
	breaker := catalog.NewBreaker(cfg.Generator.BreakerThreshold, cfg.Generator.BreakerReset)
	cat := catalog.NewGuarded(catalog.NewStore(repos), cfg.Generator.LookupTimeout, breaker)
	helpers := materialize.New(cat)

	return &Services{
		Catalog:      cat,
		Materializer: schedule.NewMaterializer(cat, helpers),
		Generator:    generator.New(database, cat, helpers, cfg.Generator),
	}
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	services := NewServices(cfg, database)
	sweeper := generator.NewSweeper(services.Generator, repos, cfg.Generator)

	return &Server{
		config:          cfg,
		db:              database,
		catalog:         services.Catalog,
		channelService:  channel.NewChannelService(repos, sweeper),
		scheduleService: channel.NewScheduleService(database, services.Generator.Locks(), sweeper),
		timelineService: timeline.NewTimelineService(services.Generator, services.Catalog),
		materializer:    services.Materializer,
		generator:       services.Generator,
		sweeper:         sweeper,
	}
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create new Gin router
	s.router = gin.New()

	// Add middleware stack
	s.router.Use(middleware.RequestID())     // X-Request-ID propagation
	s.router.Use(middleware.RequestLogger()) // Custom zerolog request logger
	s.router.Use(gin.Recovery())             // Panic recovery
	s.router.Use(cors.Default())             // CORS support (allows all origins)

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Create API route group
	apiGroup := s.router.Group("/api")

	// Register service routes
	api.SetupHealthRoutes(apiGroup, s.db, s.catalog.Breaker())
	api.SetupChannelRoutes(apiGroup, s.channelService, s.timelineService)
	api.SetupScheduleRoutes(apiGroup, s.scheduleService, s.materializer, s.generator)
}

// Handler returns the router, building it on first use
func (s *Server) Handler() http.Handler {
	if s.router == nil {
		s.setupRouter()
	}
	return s.router
}

// StartSweeper starts background buffer generation without serving HTTP
func (s *Server) StartSweeper() error {
	if err := s.sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}
	return nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	handler := s.Handler()

	// Start buffer sweeper
	if err := s.StartSweeper(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        handler,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	// Stop the sweeper and wait for in-flight generation
	if s.sweeper != nil {
		s.sweeper.Stop()
	}

	// Check if server was started before attempting shutdown
	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
