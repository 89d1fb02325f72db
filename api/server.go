package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/scalemesh/coordinator/api/handlers"
	"github.com/scalemesh/coordinator/api/middleware"
	"github.com/scalemesh/coordinator/api/websocket"
	"github.com/scalemesh/coordinator/internal/auth"
	"github.com/scalemesh/coordinator/internal/coordinator"
	"github.com/scalemesh/coordinator/internal/dependency"
	"github.com/scalemesh/coordinator/internal/effectiveness"
	"github.com/scalemesh/coordinator/internal/eventlog"
	"github.com/scalemesh/coordinator/internal/events"
	"github.com/scalemesh/coordinator/internal/metrics"
	"github.com/scalemesh/coordinator/internal/pattern"
	"github.com/scalemesh/coordinator/internal/prediction"
	"github.com/scalemesh/coordinator/pkg/config"
	"github.com/scalemesh/coordinator/pkg/database"
)

const maxRequestBody = 1 << 20 // 1 MiB

// Deps bundles everything the HTTP surface exposes.
type Deps struct {
	DB       *database.DB
	Patterns *pattern.Store
	Edges    *dependency.Store
	EventLog *eventlog.Log
	Analyzer *effectiveness.Analyzer
	Engine   *prediction.Engine
	Loop     *coordinator.Coordinator
	Bus      *events.EventBus
	Metrics  *metrics.Metrics
}

type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	config      config.APIConfig
	deps        Deps
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
}

func NewServer(cfg config.APIConfig, wsCfg config.WebSocketConfig, deps Deps) *Server {
	if cfg.JWTSecret == "" || cfg.JWTSecret == "change-me-in-production" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	authService := auth.NewService(cfg.JWTSecret, cfg.JWTDuration)
	wsHub := websocket.NewHub(&wsCfg)

	s := &Server{
		router:      router,
		config:      cfg,
		deps:        deps,
		authService: authService,
		wsHub:       wsHub,
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()

	if deps.Bus != nil {
		s.wsBridge = websocket.NewEventBridge(wsHub, deps.Bus.SubscribeAll())
		s.wsBridge.Start()
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.SecurityHeaders())
	s.router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	s.router.Use(middleware.RequestLogger())
	s.router.Use(middleware.RequestSizeLimit(maxRequestBody))

	if s.config.RateLimit > 0 {
		s.router.Use(middleware.RateLimit(s.config.RateLimit, time.Minute))
	}
}

func (s *Server) setupRoutes() {
	healthHandler := handlers.NewHealthHandler(s.deps.DB, s.deps.Loop)
	authHandler := handlers.NewAuthHandler(s.config, s.authService)
	patternHandler := handlers.NewPatternHandler(s.deps.Patterns)
	dependencyHandler := handlers.NewDependencyHandler(s.deps.Edges)
	predictionHandler := handlers.NewPredictionHandler(s.deps.Loop, s.deps.Engine)
	eventHandler := handlers.NewEventHandler(s.deps.EventLog, s.deps.Analyzer,
		s.deps.Metrics, s.config.DefaultLimit, s.config.MaxLimit)

	// Public routes
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)
	s.router.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Auth routes
	s.router.POST("/auth/login", middleware.AuthRateLimiter(), authHandler.Login)

	// WebSocket route
	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	// Read routes
	s.router.GET("/patterns", patternHandler.List)
	s.router.GET("/patterns/:service", patternHandler.Get)
	s.router.GET("/dependencies", dependencyHandler.List)
	s.router.GET("/dependencies/:source/:target", dependencyHandler.Get)
	s.router.GET("/predictions", predictionHandler.List)
	s.router.GET("/predictions/:service", predictionHandler.Get)
	s.router.GET("/events", eventHandler.List)
	s.router.GET("/events/:service/effectiveness", eventHandler.Effectiveness)

	// Mutating routes require a token
	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService))
	{
		protected.POST("/patterns/:service", patternHandler.Upsert)
		protected.DELETE("/patterns/:service", patternHandler.Delete)

		protected.POST("/dependencies/:source/:target", dependencyHandler.Upsert)
		protected.DELETE("/dependencies/:source/:target", dependencyHandler.Delete)
		protected.POST("/dependencies/:source/:target/enable", dependencyHandler.Enable)
		protected.POST("/dependencies/:source/:target/disable", dependencyHandler.Disable)

		protected.POST("/events/:service/outcome", eventHandler.RecordOutcome)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop the event bridge first
	if s.wsBridge != nil {
		s.wsBridge.Stop()
	}

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
